package metrics

import "github.com/san-kum/romibot/internal/sim"

// Energy integrates squared effort over time, normalized to the full-scale
// effort, as a proxy for battery draw.
type Energy struct {
	name      string
	maxEffort float64
	total     float64
	last      float64
	started   bool
}

func NewEnergy(maxEffort float64) *Energy {
	return &Energy{name: "energy", maxEffort: maxEffort}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Sample) {
	if !e.started {
		e.last, e.started = s.Time, true
		return
	}
	dt := s.Time - e.last
	e.last = s.Time
	m := e.maxEffort * e.maxEffort
	e.total += (s.Left*s.Left + s.Right*s.Right + s.Lift*s.Lift) / m * dt
}

func (e *Energy) Value() float64 { return e.total }

func (e *Energy) Reset() {
	e.total = 0
	e.last = 0
	e.started = false
}
