package chassis

import (
	"context"
	"math"
)

// Motion is an encoder-terminated move in progress. The wheel efforts are
// fixed when the move starts and are re-asserted on every poll.
type Motion struct {
	Target float64
	Left   float64
	Right  float64
	active bool
}

// DriveCounts converts a straight-line distance to encoder counts.
func (g Geometry) DriveCounts(inches float64) float64 {
	return math.Abs(inches) * g.CPR / (g.WheelDiameter * math.Pi)
}

// TurnCounts converts an in-place rotation to per-wheel encoder counts.
func (g Geometry) TurnCounts(degrees float64) float64 {
	return math.Abs(degrees) / 360 * g.WheelTrack * (g.CPR / g.WheelDiameter)
}

func (c *Chassis) start(target, left, right float64) {
	c.resetEncoders()
	c.motion = Motion{Target: target, Left: left, Right: right, active: true}
	c.motors.SetEfforts(left, right)
}

// StartDrive begins a straight move; negative distances reverse.
func (c *Chassis) StartDrive(inches float64) {
	effort := math.Copysign(c.cfg.Speed, inches)
	c.start(c.cfg.DriveCounts(inches), effort, effort)
}

// StartTurn begins an in-place turn. Positive degrees turn clockwise.
func (c *Chassis) StartTurn(degrees float64) {
	s := c.cfg.Speed
	if degrees > 0 {
		c.start(c.cfg.TurnCounts(degrees), s, -s)
	} else {
		c.start(c.cfg.TurnCounts(degrees), -s, s)
	}
}

// Motion returns the move in progress.
func (c *Chassis) Motion() Motion { return c.motion }

// Complete polls the move started by StartDrive or StartTurn. It re-asserts
// the move's efforts and reports true once both wheels have reached the
// target count. The caller stops the chassis.
func (c *Chassis) Complete() bool {
	if !c.motion.active {
		return true
	}
	c.motors.SetEfforts(c.motion.Left, c.motion.Right)
	left := math.Abs(float64(c.encoders.CountsLeft()))
	right := math.Abs(float64(c.encoders.CountsRight()))
	if left >= c.motion.Target && right >= c.motion.Target {
		c.motion.active = false
		return true
	}
	return false
}

// TurnComplete polls a turn started with StartTurn.
func (c *Chassis) TurnComplete() bool { return c.Complete() }

// DriveDistance drives straight for the given distance and stops.
func (c *Chassis) DriveDistance(ctx context.Context, inches float64) error {
	c.StartDrive(inches)
	return c.runToCompletion(ctx, c.Complete)
}

// TurnAngle turns in place by the given angle and stops.
func (c *Chassis) TurnAngle(ctx context.Context, degrees float64) error {
	c.StartTurn(degrees)
	return c.runToCompletion(ctx, c.Complete)
}

func (c *Chassis) runToCompletion(ctx context.Context, done func() bool) error {
	defer c.Stop()
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.clock.Sleep(c.cfg.Tick)
	}
	return nil
}
