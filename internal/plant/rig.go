package plant

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/san-kum/romibot/internal/dynamo"
	"github.com/san-kum/romibot/internal/hw"
)

type RigConfig struct {
	Dt            time.Duration `yaml:"dt"`
	CPR           float64       `yaml:"cpr"`
	WheelDiameter float64       `yaml:"wheel_diameter"`
	RangeNoise    float64       `yaml:"range_noise"`
	Seed          uint64        `yaml:"seed"`
}

func DefaultRigConfig() RigConfig {
	return RigConfig{
		Dt:            time.Millisecond,
		CPR:           1440,
		WheelDiameter: 2.8,
	}
}

// Rig is the simulated robot behind the hw interfaces. Sleep is the only
// thing that advances it: efforts hold until the next command, and sensor
// readings reflect the state at the last Sleep (range at the last Poll).
//
// A Rig is driven from the control goroutine only.
type Rig struct {
	cfg   RigConfig
	robot *Robot
	field Field
	integ dynamo.Integrator
	rng   *rand.Rand

	x     dynamo.State
	u     dynamo.Control
	t     time.Duration
	epoch time.Time
	steps int
	err   error

	offLeft, offRight float64
	rangeSample       float64
	gripper           int
	gripperWrites     int
}

func NewRig(robot *Robot, field Field, integ dynamo.Integrator, cfg RigConfig) *Rig {
	if cfg.Dt <= 0 {
		cfg.Dt = time.Millisecond
	}
	r := &Rig{
		cfg:   cfg,
		robot: robot,
		field: field,
		integ: integ,
		rng:   rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		x:     Pose(field.Start.X, field.Start.Y, field.StartHeading*math.Pi/180),
		u:     make(dynamo.Control, ControlDim),
		epoch: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	r.err = dynamo.Check(robot, r.x, r.u)
	r.Poll()
	return r
}

// divergence is far past any state the robot can physically reach.
const divergence = 1e6

var (
	_ hw.Motors      = (*Rig)(nil)
	_ hw.Encoders    = (*Rig)(nil)
	_ hw.RangeFinder = (*Rig)(nil)
	_ hw.Poller      = (*Rig)(nil)
	_ hw.LineSensor  = (*Rig)(nil)
	_ hw.LiftMotor   = (*Rig)(nil)
	_ hw.Gripper     = (*Rig)(nil)
	_ hw.Clock       = (*Rig)(nil)
)

func (r *Rig) SetEfforts(left, right float64) {
	r.u[UEffortLeft] = left
	r.u[UEffortRight] = right
}

func (r *Rig) counts(travel float64) float64 {
	return travel * r.cfg.CPR / (r.cfg.WheelDiameter * math.Pi)
}

func (r *Rig) CountsLeft() int  { return int(r.counts(r.x[ITravelLeft]) - r.offLeft) }
func (r *Rig) CountsRight() int { return int(r.counts(r.x[ITravelRight]) - r.offRight) }

func (r *Rig) CountsAndResetLeft() int {
	c := r.CountsLeft()
	r.offLeft += float64(c)
	return c
}

func (r *Rig) CountsAndResetRight() int {
	c := r.CountsRight()
	r.offRight += float64(c)
	return c
}

func (r *Rig) heading() float64 { return r.x[IHeading] }

// ahead returns the point d inches ahead of the axle and lateral inches to
// its left.
func (r *Rig) ahead(d, lateral float64) Point {
	th := r.heading()
	return Point{
		X: r.x[IX] + d*math.Cos(th) - lateral*math.Sin(th),
		Y: r.x[IY] + d*math.Sin(th) + lateral*math.Cos(th),
	}
}

// Poll takes a fresh range sample.
func (r *Rig) Poll() {
	p := r.robot.Params()
	d := r.field.Raycast(r.ahead(p.SensorOffset, 0), r.heading())
	if r.cfg.RangeNoise > 0 {
		d += r.rng.NormFloat64() * r.cfg.RangeNoise
	}
	r.rangeSample = math.Max(0, d)
}

func (r *Rig) Distance() float64 { return r.rangeSample }

func (r *Rig) Read(side hw.Side) int {
	p := r.robot.Params()
	lateral := p.LineSpacing / 2
	if side == hw.Right {
		lateral = -lateral
	}
	return r.field.Reflectance(r.ahead(p.LineOffset, lateral))
}

func (r *Rig) SetEffort(effort float64) { r.u[UEffortLift] = effort }

func (r *Rig) Position() int64 { return int64(math.Round(r.x[ILiftPos])) }

func (r *Rig) Write(position int) {
	r.gripper = position
	r.gripperWrites++
}

func (r *Rig) Now() time.Time { return r.epoch.Add(r.t) }

// Sleep advances the plant by d in fixed substeps. After an integration
// failure the plant freezes and Err reports why.
func (r *Rig) Sleep(d time.Duration) {
	rem := d
	for rem > 0 && r.err == nil {
		h := min(rem, r.cfg.Dt)
		next := r.integ.Step(r.robot, r.x, r.u, r.t.Seconds(), h.Seconds())
		if !next.IsValid() {
			r.err = &dynamo.SimulationError{Step: r.steps, Time: r.t.Seconds(), Wrapped: dynamo.ErrInvalidState}
			break
		}
		if next.MaxAbs() > divergence {
			r.err = &dynamo.SimulationError{Step: r.steps, Time: r.t.Seconds(), Wrapped: dynamo.ErrUnstable}
			break
		}
		r.x = next
		r.t += h
		r.steps++
		rem -= h
	}
	r.t += rem
}

func (r *Rig) Err() error { return r.err }

func (r *Rig) Elapsed() time.Duration { return r.t }

func (r *Rig) State() dynamo.State { return r.x.Clone() }

func (r *Rig) Field() Field { return r.field }

// Pose returns position in inches and heading in degrees.
func (r *Rig) Pose() (x, y, heading float64) {
	return r.x[IX], r.x[IY], r.heading() * 180 / math.Pi
}

// Efforts returns the commands currently held: left, right, lift.
func (r *Rig) Efforts() (float64, float64, float64) {
	return r.u[UEffortLeft], r.u[UEffortRight], r.u[UEffortLift]
}

// Gripper returns the last servo position and how many writes were made.
func (r *Rig) Gripper() (int, int) { return r.gripper, r.gripperWrites }
