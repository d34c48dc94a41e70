package metrics

import (
	"math"

	"github.com/san-kum/romibot/internal/sim"
)

// Travel is the path length of the axle midpoint in inches.
type Travel struct {
	x, y    float64
	started bool
	total   float64
}

func NewTravel() *Travel { return &Travel{} }

func (t *Travel) Name() string { return "travel" }

func (t *Travel) Observe(s sim.Sample) {
	if t.started {
		t.total += math.Hypot(s.X-t.x, s.Y-t.y)
	}
	t.x, t.y, t.started = s.X, s.Y, true
}

func (t *Travel) Value() float64 { return t.total }

func (t *Travel) Reset() { *t = Travel{} }

// PausedTime is the seconds spent paused, whether by the operator or a
// confirmation gate.
type PausedTime struct {
	last    float64
	started bool
	total   float64
}

func NewPausedTime() *PausedTime { return &PausedTime{} }

func (p *PausedTime) Name() string { return "paused_time" }

func (p *PausedTime) Observe(s sim.Sample) {
	if p.started && s.Paused {
		p.total += s.Time - p.last
	}
	p.last, p.started = s.Time, true
}

func (p *PausedTime) Value() float64 { return p.total }

func (p *PausedTime) Reset() { *p = PausedTime{} }

// Standard returns the metrics attached to every simulated run.
func Standard(maxEffort, clearance float64) []sim.Metric {
	return []sim.Metric{
		NewControlEffort(),
		NewEnergy(maxEffort),
		NewClearance(clearance),
		NewTravel(),
		NewPausedTime(),
	}
}
