package task_test

import (
	"math"
	"time"
)

type fakeChassis struct {
	left, right float64
	turn        float64
	turnLeft    int
	turns       int
}

func (f *fakeChassis) SetEfforts(l, r float64) { f.left, f.right = l, r }
func (f *fakeChassis) Stop()                   { f.left, f.right = 0, 0 }

func (f *fakeChassis) StartTurn(deg float64) {
	f.turn = deg
	f.turnLeft = 3
	f.turns++
}

func (f *fakeChassis) TurnComplete() bool {
	if f.turnLeft == 0 {
		return true
	}
	f.turnLeft--
	return false
}

// fakeLift moves step units per loop toward its target.
type fakeLift struct {
	pos, target float64
	armed       bool
	step        float64
	effort      float64
	moves       int
}

func newFakeLift() *fakeLift { return &fakeLift{step: 10} }

func (f *fakeLift) StartMoveTo(units float64) {
	if f.armed && units == f.target {
		return
	}
	f.target, f.armed = units, true
	f.moves++
}

func (f *fakeLift) LoopController() {
	d := f.target - f.pos
	if math.Abs(d) <= f.step {
		f.pos = f.target
	} else {
		f.pos += math.Copysign(f.step, d)
	}
	f.effort = math.Copysign(100, d)
}

func (f *fakeLift) OnTarget() bool { return f.armed && math.Abs(f.pos-f.target) <= 0.5 }
func (f *fakeLift) Stop()          { f.effort = 0 }

type fakeGripper struct{ writes []int }

func (g *fakeGripper) Write(pos int) { g.writes = append(g.writes, pos) }

func (g *fakeGripper) count(pos int) int {
	n := 0
	for _, w := range g.writes {
		if w == pos {
			n++
		}
	}
	return n
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }
