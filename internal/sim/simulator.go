package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/task"
)

// Ticker is the control loop under simulation.
type Ticker interface {
	Tick()
	Context() *task.Context
}

// Simulator runs a control loop against the simulated rig, one control
// period at a time.
type Simulator struct {
	loop      Ticker
	rig       *plant.Rig
	period    time.Duration
	metrics   []Metric
	observers []Observer

	prev        task.State
	transitions []Transition
}

func New(loop Ticker, rig *plant.Rig, period time.Duration) *Simulator {
	return &Simulator{
		loop:   loop,
		rig:    rig,
		period: period,
		prev:   loop.Context().State,
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Rig() *plant.Rig { return s.rig }

// Step runs one control tick, advances the plant by one period and returns
// the resulting sample.
func (s *Simulator) Step() Sample {
	s.loop.Tick()
	s.rig.Sleep(s.period)

	smp := s.sample()
	if smp.State != s.prev {
		s.transitions = append(s.transitions, Transition{Time: smp.Time, From: s.prev, To: smp.State})
		s.prev = smp.State
	}
	for _, m := range s.metrics {
		m.Observe(smp)
	}
	for _, o := range s.observers {
		o.OnSample(smp)
	}
	return smp
}

func (s *Simulator) sample() Sample {
	c := s.loop.Context()
	x, y, h := s.rig.Pose()
	l, r, lift := s.rig.Efforts()
	grip, _ := s.rig.Gripper()
	return Sample{
		Time:    s.rig.Elapsed().Seconds(),
		State:   c.State,
		Paused:  c.Mode.Paused,
		Variant: c.Mode.Variant,
		X:       x,
		Y:       y,
		Heading: h,
		Range:   c.Range,
		Left:    l,
		Right:   r,
		Lift:    lift,
		LiftPos: float64(s.rig.Position()),
		Gripper: grip,
	}
}

// Transitions returns the state changes seen so far.
func (s *Simulator) Transitions() []Transition { return s.transitions }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	every := cfg.SampleEvery
	if every <= 0 {
		every = 1
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result := &Result{Metrics: make(map[string]float64)}
	finish := func() {
		result.Transitions = s.transitions
		result.Final = s.loop.Context().State
		result.Elapsed = s.rig.Elapsed()
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}

	var last Sample
	for s.rig.Elapsed() < cfg.Duration {
		select {
		case <-ctx.Done():
			finish()
			return result, ctx.Err()
		default:
		}

		last = s.Step()
		if result.Ticks%every == 0 {
			result.Samples = append(result.Samples, last)
		}
		result.Ticks++

		if err := s.rig.Err(); err != nil {
			finish()
			return result, fmt.Errorf("simulate: %w", err)
		}
		if cfg.StopAtIdle && last.State == task.Idle {
			result.Completed = true
			break
		}
	}

	if n := len(result.Samples); result.Ticks > 0 && (n == 0 || result.Samples[n-1].Time != last.Time) {
		result.Samples = append(result.Samples, last)
	}
	finish()
	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", cfg.Duration)
	}
	return nil
}
