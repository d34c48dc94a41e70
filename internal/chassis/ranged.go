package chassis

import (
	"context"
	"math"

	"github.com/san-kum/romibot/internal/hw"
)

// Clamp limits effort to ±limit, preserving sign.
func Clamp(effort, limit float64) float64 {
	if math.Abs(effort) > limit {
		return math.Copysign(limit, effort)
	}
	return effort
}

// The range finder faces forward: closing on the target (reading above the
// setpoint) gives a negative controller error and needs positive effort.
func (c *Chassis) driveRange(raw float64) {
	c.Drive(-Clamp(raw, c.cfg.Speed))
}

// StartRangeDrive arms the range controller at target inches from the
// obstacle ahead and issues the first effort.
func (c *Chassis) StartRangeDrive(target, reading float64) {
	c.rangePID.Reset()
	c.rangePID.SetSetpoint(target)
	c.driveRange(c.rangePID.CalculateEffort(reading))
	c.clock.Sleep(c.cfg.Tick)
}

// LoopRangePID advances the range controller by one tick, stopping with zero
// effort once the reading is within tolerance.
func (c *Chassis) LoopRangePID(reading float64) {
	if c.rangePID.OnTarget(reading) {
		c.Drive(0)
		return
	}
	c.driveRange(c.rangePID.CalculateEffort(reading))
	c.clock.Sleep(c.cfg.Tick)
}

func (c *Chassis) RangeOnTarget(reading float64) bool {
	return c.rangePID.OnTarget(reading)
}

// DriveToRange closes on target inches using r and stops.
func (c *Chassis) DriveToRange(ctx context.Context, target float64, r hw.RangeFinder) error {
	c.StartRangeDrive(target, r.Distance())
	defer c.Stop()
	for {
		reading := r.Distance()
		if c.RangeOnTarget(reading) {
			c.log.Printf("Chassis target reached")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.LoopRangePID(reading)
	}
}
