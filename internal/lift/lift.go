// Package lift drives the four-bar lift to a target height with a position
// PID around the lift motor's encoder. Heights are given in lifter units and
// converted to encoder counts through the gear ratio.
package lift

import (
	"context"
	"math"
	"time"

	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/pid"
)

const (
	DefaultGearRatio = 30.8
	DefaultMaxEffort = 400.0
	DefaultDeadband  = 100.0
)

type Config struct {
	GearRatio float64 `yaml:"gear_ratio"`
	MaxEffort float64 `yaml:"max_effort"`
	Deadband  float64 `yaml:"deadband"`
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	Tolerance float64 `yaml:"tolerance"`
}

func DefaultConfig() Config {
	return Config{
		GearRatio: DefaultGearRatio,
		MaxEffort: DefaultMaxEffort,
		Deadband:  DefaultDeadband,
		Kp:        0.5,
		Ki:        0.0,
		Kd:        0.2,
		Tolerance: 15,
	}
}

type Lift struct {
	cfg    Config
	motor  hw.LiftMotor
	pid    *pid.Controller
	target float64
	armed  bool
	effort float64
}

func New(motor hw.LiftMotor, cfg Config) *Lift {
	c := pid.New(cfg.Kp, cfg.Ki, cfg.Kd)
	c.SetTolerance(cfg.Tolerance)
	return &Lift{cfg: cfg, motor: motor, pid: c}
}

// PID exposes the position controller for live tuning.
func (l *Lift) PID() *pid.Controller { return l.pid }

// Counts converts lifter units to encoder counts.
func (l *Lift) Counts(units float64) float64 {
	return units * l.cfg.GearRatio
}

// StartMoveTo arms the controller for a height in lifter units. Repeating
// the current target is a no-op so callers can re-issue it every tick; a new
// target clears the controller's accumulated state.
func (l *Lift) StartMoveTo(units float64) {
	target := l.Counts(units)
	if l.armed && target == l.target {
		return
	}
	l.target = target
	l.armed = true
	l.pid.Reset()
	l.pid.SetSetpoint(target)
}

func (l *Lift) Target() float64 { return l.target }

func (l *Lift) Position() int64 { return l.motor.Position() }

// LoopController advances the position controller by one tick.
func (l *Lift) LoopController() {
	if !l.armed {
		return
	}
	u := l.pid.CalculateEffort(float64(l.motor.Position()))
	l.SetEffort(u)
}

// OnTarget reports whether the lift is within tolerance of the armed target.
func (l *Lift) OnTarget() bool {
	return l.armed && l.pid.OnTarget(float64(l.motor.Position()))
}

// SetEffort commands the motor, rescaling non-zero efforts past the motor's
// deadband so small corrections still move the lift.
func (l *Lift) SetEffort(effort float64) {
	l.apply(l.compensate(effort))
}

// SetEffortWithoutDeadband passes the effort straight through, clamped.
func (l *Lift) SetEffortWithoutDeadband(effort float64) {
	l.apply(clamp(effort, l.cfg.MaxEffort))
}

func (l *Lift) Stop() { l.apply(0) }

// Effort returns the last effort sent to the motor.
func (l *Lift) Effort() float64 { return l.effort }

func (l *Lift) apply(effort float64) {
	l.effort = effort
	l.motor.SetEffort(effort)
}

func (l *Lift) compensate(effort float64) float64 {
	if effort == 0 {
		return 0
	}
	max := l.cfg.MaxEffort
	mag := math.Min(math.Abs(effort), max)
	scaled := l.cfg.Deadband + mag*(max-l.cfg.Deadband)/max
	return math.Copysign(scaled, effort)
}

func clamp(v, limit float64) float64 {
	if math.Abs(v) > limit {
		return math.Copysign(limit, v)
	}
	return v
}

// MoveTo drives the lift to a height and holds it stopped, ticking on clock
// at the given period. It does not observe the pause flag.
func (l *Lift) MoveTo(ctx context.Context, units float64, clock hw.Clock, period time.Duration) error {
	l.StartMoveTo(units)
	defer l.Stop()
	for !l.OnTarget() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.LoopController()
		clock.Sleep(period)
	}
	return nil
}
