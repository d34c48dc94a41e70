package supervisor

import (
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/linesensor"
	"github.com/san-kum/romibot/internal/task"
)

// LineChassis is the drive train as the line test uses it.
type LineChassis interface {
	LineDrive(left, right int) bool
	SetEffortsBoolean(left, right bool)
}

// LineTest follows the tape in place of the autonomous sequence, either with
// the proportional line-centering drive or the on/off follower.
type LineTest struct {
	chassis  LineChassis
	follower *linesensor.Follower
	boolean  bool
	dir      linesensor.Direction
	log      diag.Logger
	stopped  bool
}

func NewLineTest(chassis LineChassis, follower *linesensor.Follower, boolean bool, log diag.Logger) *LineTest {
	if log == nil {
		log = diag.Discard
	}
	return &LineTest{chassis: chassis, follower: follower, boolean: boolean, log: log}
}

func (t *LineTest) Tick(*task.Context) {
	if t.boolean {
		d := t.follower.Step(t.dir)
		t.chassis.SetEffortsBoolean(d.Left, d.Right)
		return
	}
	left, right := t.follower.Readings()
	at := t.chassis.LineDrive(left, right)
	if at && !t.stopped {
		t.log.Printf("Intersection reached (L=%d R=%d)", left, right)
	}
	t.stopped = at
}

func (t *LineTest) Reset() { t.stopped = false }
