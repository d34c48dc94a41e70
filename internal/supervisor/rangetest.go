package supervisor

import (
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/linesensor"
	"github.com/san-kum/romibot/internal/task"
)

// RangeChassis is the drive train as the range test uses it.
type RangeChassis interface {
	StartRangeDrive(target, reading float64)
	LoopRangePID(reading float64)
	RangeOnTarget(reading float64) bool
}

// RangeTest holds the robot at a fixed distance from the obstacle ahead with
// the range controller, in place of the autonomous sequence.
type RangeTest struct {
	chassis RangeChassis
	target  float64
	log     diag.Logger
	started bool
	reached bool
}

func NewRangeTest(chassis RangeChassis, target float64, log diag.Logger) *RangeTest {
	if log == nil {
		log = diag.Discard
	}
	return &RangeTest{chassis: chassis, target: target, log: log}
}

func (t *RangeTest) Tick(c *task.Context) {
	if !t.started {
		t.log.Printf("Driving to %.2f in", t.target)
		t.chassis.StartRangeDrive(t.target, c.Range)
		t.started = true
		return
	}
	on := t.chassis.RangeOnTarget(c.Range)
	t.chassis.LoopRangePID(c.Range)
	if on && !t.reached {
		t.log.Printf("Chassis target reached")
	}
	t.reached = on
}

// Reset re-arms the controller; the next tick starts a fresh drive.
func (t *RangeTest) Reset() {
	t.started = false
	t.reached = false
}

// TestChassis is a drive train either test routine can run on.
type TestChassis interface {
	LineChassis
	RangeChassis
}

// NewTestRoutine picks the bench test cfg asks for: the range hold when
// RangeTest is set, the line follower otherwise.
func NewTestRoutine(cfg Config, chassis TestChassis, follower *linesensor.Follower, log diag.Logger) Routine {
	if cfg.RangeTest {
		return NewRangeTest(chassis, cfg.RangeTarget, log)
	}
	return NewLineTest(chassis, follower, cfg.BooleanFollow, log)
}
