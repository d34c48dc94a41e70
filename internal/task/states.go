package task

import "fmt"

// State is a step of the panel-swap routine. The order is fixed.
type State int

const (
	SetupRaise State = iota
	ConfirmSetup
	Gripping1
	Confirm1
	DriveRevLower1
	TurnLeft1
	DriveFwdPlatform
	Confirm2
	Release1
	Confirm3
	Gripping2
	DriveRevLift1
	TurnRight1
	DriveFwdRoof
	ConfirmDeposit
	Release2

	Idle
	Stopped

	numStates
)

var stateNames = [numStates]string{
	"SETUP_RAISE", "CONFIRM_SETUP", "GRIPPING_1", "CONFIRM_1", "DRIVE_REV_LOWER_1",
	"TURN_LEFT_1", "DRIVE_FWD_PLATFORM", "CONFIRM_2", "RELEASE_1", "CONFIRM_3", "GRIPPING_2",
	"DRIVE_REV_LIFT_1", "TURN_RIGHT_1", "DRIVE_FWD_ROOF", "CONFIRM_DEPOSIT", "RELEASE_2",
	"IDLE", "STOPPED",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether the sequencer stops advancing in s.
func (s State) Terminal() bool { return s == Idle || s == Stopped }

// IsConfirm reports whether s is an operator confirmation gate.
func (s State) IsConfirm() bool {
	switch s {
	case ConfirmSetup, Confirm1, Confirm2, Confirm3, ConfirmDeposit:
		return true
	}
	return false
}

// ParseState resolves a state by name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state: %s", name)
}

// States lists every state in sequence order.
func States() []State {
	out := make([]State, numStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
