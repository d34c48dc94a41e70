package sim

import (
	"time"

	"github.com/san-kum/romibot/internal/task"
)

// Sample is the robot as seen after one control tick.
type Sample struct {
	Time    float64
	State   task.State
	Paused  bool
	Variant int

	X, Y, Heading float64
	Range         float64

	Left, Right float64
	Lift        float64
	LiftPos     float64
	Gripper     int
}

// Transition records a sequencer state change.
type Transition struct {
	Time     float64
	From, To task.State
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(s Sample)
}

type Config struct {
	Duration time.Duration `yaml:"duration"`
	// SampleEvery keeps one sample per this many ticks in the result.
	SampleEvery int  `yaml:"sample_every"`
	StopAtIdle  bool `yaml:"stop_at_idle"`
}

func DefaultConfig() Config {
	return Config{Duration: 3 * time.Minute, SampleEvery: 5, StopAtIdle: true}
}

type Result struct {
	Samples     []Sample
	Transitions []Transition
	Metrics     map[string]float64
	Final       task.State
	Elapsed     time.Duration
	Ticks       int
	Completed   bool
}

// Dwell returns the seconds spent in each state entered during the run.
func (r *Result) Dwell() map[task.State]float64 {
	out := make(map[task.State]float64)
	if len(r.Transitions) == 0 {
		out[r.Final] = r.Elapsed.Seconds()
		return out
	}
	start, state := 0.0, r.Transitions[0].From
	for _, tr := range r.Transitions {
		out[state] += tr.Time - start
		start, state = tr.Time, tr.To
	}
	out[state] += r.Elapsed.Seconds() - start
	return out
}
