// Package supervisor owns the top-level control tick: operator input first,
// then the range refresh, then the pause policy, and only then sequencing.
// Keeping the pause check ahead of any sequencer work bounds the stop latency
// by the remote decode, not by whatever the current state does.
package supervisor

import (
	"context"
	"time"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/task"
)

const (
	DefaultManualLiftUp   = -20.0
	DefaultManualLiftDown = 50.0
	DefaultResumeDebounce = 250 * time.Millisecond
	DefaultPeriod         = 10 * time.Millisecond
)

type Config struct {
	Unattended     bool                  `yaml:"unattended"`
	LineTest       bool                  `yaml:"line_test"`
	RangeTest      bool                  `yaml:"range_test"`
	RangeTarget    float64               `yaml:"range_target"`
	BooleanFollow  bool                  `yaml:"boolean_follow"`
	Gripper        task.GripperPositions `yaml:"gripper"`
	ManualLiftUp   float64               `yaml:"manual_lift_up"`
	ManualLiftDown float64               `yaml:"manual_lift_down"`
	ResumeDebounce time.Duration         `yaml:"resume_debounce"`
	Period         time.Duration         `yaml:"period"`
}

func DefaultConfig() Config {
	return Config{
		RangeTarget:    task.DistRoof,
		Gripper:        task.DefaultGripper(),
		ManualLiftUp:   DefaultManualLiftUp,
		ManualLiftDown: DefaultManualLiftDown,
		ResumeDebounce: DefaultResumeDebounce,
		Period:         DefaultPeriod,
	}
}

// Chassis is what the pause policy needs from the drive train.
type Chassis interface {
	Drive(effort float64)
}

// Lift is what the pause policy and manual adjustment need from the lift.
type Lift interface {
	Stop()
	SetEffortWithoutDeadband(effort float64)
}

// Routine is one dispatchable control routine: a task sequencer or the line
// following test.
type Routine interface {
	Tick(c *task.Context)
	Reset()
}

// Devices groups the collaborators the supervisor reads and commands directly.
type Devices struct {
	Remote  hw.Remote
	Range   hw.RangeFinder
	Chassis Chassis
	Lift    Lift
	Gripper hw.Gripper
	Clock   hw.Clock
}

type Supervisor struct {
	cfg      Config
	dev      Devices
	log      diag.Logger
	ctx      *task.Context
	routines [2]Routine
	test     Routine
}

// New builds a supervisor dispatching to routines by the selected variant,
// or to test when Config.LineTest or Config.RangeTest is set.
func New(cfg Config, dev Devices, routines [2]Routine, test Routine, log diag.Logger) *Supervisor {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if log == nil {
		log = diag.Discard
	}
	return &Supervisor{
		cfg:      cfg,
		dev:      dev,
		log:      log,
		ctx:      task.NewContext(),
		routines: routines,
		test:     test,
	}
}

// Context exposes the run state for display and recording.
func (s *Supervisor) Context() *task.Context { return s.ctx }

func (s *Supervisor) Config() Config { return s.cfg }

// Tick runs one control period.
func (s *Supervisor) Tick() {
	c := s.ctx
	c.Now = s.dev.Clock.Now()

	if key, ok := s.dev.Remote.KeyCode(); ok {
		s.HandleKey(key)
		c.Now = s.dev.Clock.Now()
	}

	if p, ok := s.dev.Range.(hw.Poller); ok {
		p.Poll()
	}
	c.Range = s.dev.Range.Distance()

	if c.Mode.Expire(c.Now) {
		s.log.Printf("Running")
	}

	if c.Mode.Paused {
		s.dev.Chassis.Drive(0)
		s.dev.Lift.Stop()
		return
	}
	s.active().Tick(c)
}

func (s *Supervisor) active() Routine {
	if (s.cfg.LineTest || s.cfg.RangeTest) && s.test != nil {
		return s.test
	}
	return s.routines[s.ctx.Mode.Variant]
}

// HandleKey applies one operator command.
func (s *Supervisor) HandleKey(key hw.KeyCode) {
	c := s.ctx
	tweak := c.Mode.Tweak

	switch {
	case key == hw.KeyPlayPause:
		if c.Mode.Paused {
			s.dev.Clock.Sleep(s.cfg.ResumeDebounce)
		}
		c.Mode.TogglePause()
		if c.Mode.Paused {
			s.log.Printf("Paused")
		} else {
			s.log.Printf("Running")
		}

	case key == hw.KeySetup:
		c.Mode.Tweak = !c.Mode.Tweak
		if c.Mode.Tweak {
			s.log.Printf("Manual adjustment mode")
		} else {
			s.log.Printf("Normal mode")
		}

	case key == hw.KeyUp && tweak:
		s.log.Printf("Up: adjusting lifter up")
		s.dev.Lift.SetEffortWithoutDeadband(s.cfg.ManualLiftUp)
	case key == hw.KeyDown && tweak:
		s.log.Printf("Down: adjusting lifter down")
		s.dev.Lift.SetEffortWithoutDeadband(s.cfg.ManualLiftDown)
	case key == hw.KeyEnterSave && tweak:
		s.log.Printf("Enter: stopped lifter adjustment")
		s.dev.Lift.Stop()
	case key == hw.KeyLeft && tweak:
		s.log.Printf("Left: gripper open")
		s.dev.Gripper.Write(s.cfg.Gripper.Open)
	case key == hw.KeyRight && tweak:
		s.log.Printf("Right: gripper closed")
		s.dev.Gripper.Write(s.cfg.Gripper.Closed)

	case key == hw.Key7:
		if c.Mode.Variant != 1 {
			c.Mode.Variant = 1
			next, ok1 := s.routines[1].(*task.Sequencer)
			cur, ok0 := s.routines[0].(*task.Sequencer)
			if ok0 && ok1 {
				next.Adopt(cur)
			}
		}
		s.log.Printf("AUTO 2 ENABLED")

	case key == hw.KeyStopMode:
		c.State = task.Stopped
		c.Mode.Latch(c.Now, 0)
		s.log.Printf("STOPPED by operator")

	case key == hw.KeyBack && c.State.Terminal():
		c.State = task.SetupRaise
		for _, r := range s.routines {
			if r != nil {
				r.Reset()
			}
		}
		if s.test != nil {
			s.test.Reset()
		}
		s.log.Printf("Restarting sequence")
	}
}

// Run ticks until ctx ends.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.dev.Chassis.Drive(0)
			s.dev.Lift.Stop()
			return ctx.Err()
		default:
		}
		s.Tick()
		s.dev.Clock.Sleep(s.cfg.Period)
	}
}
