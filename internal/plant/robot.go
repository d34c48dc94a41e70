// Package plant simulates the robot for bench runs: a differential-drive base
// with first-order wheel motors, a geared lift behind a motor deadband, and a
// field of walls and tape the sensors observe. Rig wraps it all behind the
// hardware interfaces so the control code runs unchanged.
package plant

import (
	"math"

	"github.com/san-kum/romibot/internal/dynamo"
)

// State vector layout.
const (
	IX = iota
	IY
	IHeading
	IVelLeft
	IVelRight
	ITravelLeft
	ITravelRight
	ILiftPos
	ILiftVel

	StateDim
)

// Control vector layout.
const (
	UEffortLeft = iota
	UEffortRight
	UEffortLift

	ControlDim
)

// Params are the physical constants of the simulated robot. Distances are in
// inches, lift position in encoder counts.
type Params struct {
	WheelTrack    float64 `yaml:"wheel_track"`
	MaxWheelSpeed float64 `yaml:"max_wheel_speed"` // in/s at full effort
	MaxEffort     float64 `yaml:"max_effort"`
	MotorLag      float64 `yaml:"motor_lag"` // s

	LiftRate     float64 `yaml:"lift_rate"` // counts/s per effort past the deadband
	LiftDeadband float64 `yaml:"lift_deadband"`
	LiftMax      float64 `yaml:"lift_max_effort"`
	LiftLag      float64 `yaml:"lift_lag"`

	SensorOffset float64 `yaml:"sensor_offset"` // range finder ahead of the axle
	LineOffset   float64 `yaml:"line_offset"`   // line sensors ahead of the axle
	LineSpacing  float64 `yaml:"line_spacing"`  // between the two line sensors
}

func DefaultParams() Params {
	return Params{
		WheelTrack:    5.75,
		MaxWheelSpeed: 20,
		MaxEffort:     300,
		MotorLag:      0.08,
		LiftRate:      4,
		LiftDeadband:  100,
		LiftMax:       400,
		LiftLag:       0.05,
		SensorOffset:  3,
		LineOffset:    2,
		LineSpacing:   0.7,
	}
}

// Robot is the plant as a dynamo.System.
type Robot struct {
	p Params
}

func NewRobot(p Params) *Robot {
	return &Robot{p: p}
}

func (r *Robot) Params() Params { return r.p }

func (r *Robot) StateDim() int   { return StateDim }
func (r *Robot) ControlDim() int { return ControlDim }

// WheelSpeed is the steady-state wheel speed for an effort.
func (r *Robot) WheelSpeed(effort float64) float64 {
	e := clamp(effort, r.p.MaxEffort)
	return e / r.p.MaxEffort * r.p.MaxWheelSpeed
}

// LiftSpeed is the steady-state lift speed for an effort. Efforts inside the
// deadband do not move the lift.
func (r *Robot) LiftSpeed(effort float64) float64 {
	e := clamp(effort, r.p.LiftMax)
	mag := math.Abs(e) - r.p.LiftDeadband
	if mag <= 0 {
		return 0
	}
	return math.Copysign(mag*r.p.LiftRate, e)
}

func (r *Robot) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, StateDim)

	vl, vr := x[IVelLeft], x[IVelRight]
	v := (vl + vr) / 2
	th := x[IHeading]

	dx[IX] = v * math.Cos(th)
	dx[IY] = v * math.Sin(th)
	dx[IHeading] = (vr - vl) / r.p.WheelTrack
	dx[IVelLeft] = (r.WheelSpeed(u[UEffortLeft]) - vl) / r.p.MotorLag
	dx[IVelRight] = (r.WheelSpeed(u[UEffortRight]) - vr) / r.p.MotorLag
	dx[ITravelLeft] = vl
	dx[ITravelRight] = vr
	dx[ILiftPos] = x[ILiftVel]
	dx[ILiftVel] = (r.LiftSpeed(u[UEffortLift]) - x[ILiftVel]) / r.p.LiftLag

	return dx
}

// Pose places the robot at (x, y) facing heading radians, at rest.
func Pose(x, y, heading float64) dynamo.State {
	s := make(dynamo.State, StateDim)
	s[IX], s[IY], s[IHeading] = x, y, heading
	return s
}

func clamp(v, limit float64) float64 {
	if math.Abs(v) > limit {
		return math.Copysign(limit, v)
	}
	return v
}
