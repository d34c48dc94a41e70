package task

import "time"

// Field measurements. Lifter heights are in lifter units (multiplied by the
// lift gear ratio to get encoder counts); distances are range finder inches
// with the wheels on the intersection.
const (
	LifterMax      = -142.0
	LifterPlatform = -15.0
	Lifter25Roof   = -115.0
	Lifter45Roof   = -81.5

	DistPlatform = 13.75 - 2.0
	DistRoof     = 13.45 - 3.0

	GripperClosed = 815
	GripperOpen   = 1700
)

// Efforts is a left/right wheel command.
type Efforts struct {
	Left  float64 `yaml:"left"`
	Right float64 `yaml:"right"`
}

// GripperPositions are the calibrated servo positions.
type GripperPositions struct {
	Open   int `yaml:"open"`
	Closed int `yaml:"closed"`
}

func DefaultGripper() GripperPositions {
	return GripperPositions{Open: GripperOpen, Closed: GripperClosed}
}

// Variant carries every number that differs between the two deposit
// heights. The transition logic is shared.
type Variant struct {
	Name string `yaml:"name"`

	SetupHeight         float64       `yaml:"setup_height"`
	ConfirmSetupTimeout time.Duration `yaml:"confirm_setup_timeout"`
	ConfirmTimeout      time.Duration `yaml:"confirm_timeout"`

	ReverseEfforts  Efforts `yaml:"reverse_efforts"`
	LowerHeight     float64 `yaml:"lower_height"`
	LowerRange      float64 `yaml:"lower_range"`
	LowerAfterRange bool    `yaml:"lower_after_range"`

	FirstTurn       float64       `yaml:"first_turn"`
	TurnSettle      time.Duration `yaml:"turn_settle"`
	PlatformEfforts Efforts       `yaml:"platform_efforts"`
	PlatformRange   float64       `yaml:"platform_range"`

	GripSettle    time.Duration `yaml:"grip_settle"`
	ReturnEfforts Efforts       `yaml:"return_efforts"`
	ReturnRange   float64       `yaml:"return_range"`
	DepositHeight float64       `yaml:"deposit_height"`

	SecondTurn  float64       `yaml:"second_turn"`
	RoofSettle  time.Duration `yaml:"roof_settle"`
	RoofEfforts Efforts       `yaml:"roof_efforts"`
	RoofRange   float64       `yaml:"roof_range"`

	ReleaseSettle  time.Duration `yaml:"release_settle"`
	BackoffEfforts Efforts       `yaml:"backoff_efforts"`
	HomeRange      float64       `yaml:"home_range"`
}

// Roof25 swaps the panel on the 25-degree roof. The lowering height leaves
// clearance for the aluminium plate.
func Roof25() Variant {
	return Variant{
		Name:                "roof25",
		SetupHeight:         Lifter25Roof + 1,
		ConfirmSetupTimeout: 10 * time.Second,
		ConfirmTimeout:      5 * time.Second,
		ReverseEfforts:      Efforts{-75, -75},
		LowerHeight:         LifterPlatform - 14.5,
		LowerRange:          DistRoof,
		FirstTurn:           -87,
		TurnSettle:          time.Second,
		PlatformEfforts:     Efforts{72, 75},
		PlatformRange:       2.5,
		GripSettle:          250 * time.Millisecond,
		ReturnEfforts:       Efforts{-75, -75},
		ReturnRange:         DistPlatform - 0.3,
		DepositHeight:       Lifter25Roof,
		SecondTurn:          84,
		RoofSettle:          500 * time.Millisecond,
		RoofEfforts:         Efforts{65, 75},
		RoofRange:           4.14,
		ReleaseSettle:       500 * time.Millisecond,
		BackoffEfforts:      Efforts{-75, -75},
		HomeRange:           DistRoof,
	}
}

// Roof45 swaps the panel on the 45-degree roof. The platform sits on the
// other side, so the turns are mirrored, and the lift only starts lowering
// once the robot has backed clear of the roof.
func Roof45() Variant {
	return Variant{
		Name:                "roof45",
		SetupHeight:         Lifter45Roof,
		ConfirmSetupTimeout: 5 * time.Second,
		ConfirmTimeout:      5 * time.Second,
		ReverseEfforts:      Efforts{-75, -75},
		LowerHeight:         LifterPlatform,
		LowerRange:          DistRoof + 2.35,
		LowerAfterRange:     true,
		FirstTurn:           79,
		TurnSettle:          time.Second,
		PlatformEfforts:     Efforts{70, 75},
		PlatformRange:       2.25,
		GripSettle:          250 * time.Millisecond,
		ReturnEfforts:       Efforts{-68, -75},
		ReturnRange:         DistPlatform + 6.5,
		DepositHeight:       Lifter45Roof,
		SecondTurn:          -85,
		RoofSettle:          500 * time.Millisecond,
		RoofEfforts:         Efforts{67, 75},
		RoofRange:           4.84,
		ReleaseSettle:       500 * time.Millisecond,
		BackoffEfforts:      Efforts{-75, -75},
		HomeRange:           DistRoof,
	}
}

// Variants returns both routines, indexed by RunMode.Variant.
func Variants() [2]Variant {
	return [2]Variant{Roof25(), Roof45()}
}
