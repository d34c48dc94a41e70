package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/romibot/internal/sim"
)

func feed(m sim.Metric, samples ...sim.Sample) float64 {
	m.Reset()
	for _, s := range samples {
		m.Observe(s)
	}
	return m.Value()
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	got := feed(m,
		sim.Sample{Left: 75, Right: -75},
		sim.Sample{Lift: -150},
	)
	if got != 150 {
		t.Errorf("control effort = %f, want 150", got)
	}
	if feed(m) != 0 {
		t.Error("empty run should report 0")
	}
}

func TestEnergy(t *testing.T) {
	m := NewEnergy(300)
	got := feed(m,
		sim.Sample{Time: 0},
		sim.Sample{Time: 1, Left: 300, Right: 300},
		sim.Sample{Time: 3, Left: 150},
	)
	want := 2.0 + 0.25*2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("energy = %f, want %f", got, want)
	}
}

func TestClearance(t *testing.T) {
	m := NewClearance(2)
	got := feed(m,
		sim.Sample{Range: 10},
		sim.Sample{Range: 1.5},
		sim.Sample{Range: 4},
		sim.Sample{Range: 3},
	)
	if got != 0.75 {
		t.Errorf("clearance = %f, want 0.75", got)
	}
	if m.Closest() != 1.5 {
		t.Errorf("closest = %f", m.Closest())
	}
	m.Reset()
	if m.Value() != 1 || m.Closest() != -1 {
		t.Error("reset should clear the history")
	}
}

func TestTravel(t *testing.T) {
	got := feed(NewTravel(),
		sim.Sample{X: 0, Y: 0},
		sim.Sample{X: 3, Y: 4},
		sim.Sample{X: 3, Y: 0},
	)
	if got != 9 {
		t.Errorf("travel = %f, want 9", got)
	}
}

func TestPausedTime(t *testing.T) {
	got := feed(NewPausedTime(),
		sim.Sample{Time: 0},
		sim.Sample{Time: 1, Paused: true},
		sim.Sample{Time: 2.5, Paused: true},
		sim.Sample{Time: 3},
	)
	if got != 2.5 {
		t.Errorf("paused time = %f, want 2.5", got)
	}
}

func TestStandardNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(300, 1) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 5 {
		t.Errorf("got %d metrics", len(seen))
	}
}

func TestRangeError(t *testing.T) {
	m := NewRangeError(10)
	got := feed(m,
		sim.Sample{Range: 4},
		sim.Sample{Range: 12},
		sim.Sample{Range: 10},
		sim.Sample{Range: 10},
	)
	if got != 2 {
		t.Errorf("range error = %f, want 2", got)
	}
	if feed(m) != 0 {
		t.Error("empty run should report 0")
	}
}
