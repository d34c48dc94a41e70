// Package task sequences the panel swap: grip the old panel off the roof,
// carry it to the platform, exchange it, and deposit the new one. Both deposit
// heights share one state machine; the differences live in a Variant record.
//
// The sequencer is non-blocking. Tick advances it by at most one transition
// and must be called every control period while the robot is not paused.
package task

import (
	"time"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
)

// Chassis is the part of the drive train the sequencer commands.
type Chassis interface {
	SetEfforts(left, right float64)
	Stop()
	StartTurn(degrees float64)
	TurnComplete() bool
}

// Lift is the part of the lift controller the sequencer commands.
type Lift interface {
	StartMoveTo(units float64)
	LoopController()
	OnTarget() bool
	Stop()
}

type Options struct {
	Variant    Variant
	Gripper    GripperPositions
	Unattended bool
}

// record holds the one-shot flags of the current state. It is cleared on
// every state entry.
type record struct {
	lowering   bool
	rangeShown bool
	liftShown  bool
}

type Sequencer struct {
	opts    Options
	chassis Chassis
	lift    Lift
	gripper hw.Gripper
	clock   hw.Clock
	log     diag.Logger

	prev    State
	entered bool
	rec     record
}

func New(opts Options, chassis Chassis, lift Lift, gripper hw.Gripper, clock hw.Clock, log diag.Logger) *Sequencer {
	if log == nil {
		log = diag.Discard
	}
	return &Sequencer{
		opts:    opts,
		chassis: chassis,
		lift:    lift,
		gripper: gripper,
		clock:   clock,
		log:     log,
	}
}

func (s *Sequencer) Variant() Variant { return s.opts.Variant }

// Reset forgets the last entered state so the next Tick re-runs the entry
// action of whatever state the context holds.
func (s *Sequencer) Reset() {
	s.entered = false
	s.rec = record{}
}

// Adopt takes over the sequence from, which ran the same states until now.
// A state from has already entered is not entered again; each step
// re-asserts its own efforts and lift target.
func (s *Sequencer) Adopt(from *Sequencer) {
	s.prev = from.prev
	s.entered = from.entered
	s.rec = record{}
}

// Tick runs one control period of the sequence against c.
func (s *Sequencer) Tick(c *Context) {
	s.detectEntry(c)
	s.step(c)
	s.detectEntry(c)
}

func (s *Sequencer) detectEntry(c *Context) {
	if s.entered && c.State == s.prev {
		return
	}
	s.prev = c.State
	s.entered = true
	s.rec = record{}
	s.log.Printf("%s", c.State)
	s.enter(c)
}

// enter runs the one-time action of the state c has just moved into.
func (s *Sequencer) enter(c *Context) {
	v := s.opts.Variant
	switch c.State {
	case SetupRaise:
		s.gripper.Write(s.opts.Gripper.Open)
		s.lift.StartMoveTo(v.SetupHeight)
	case ConfirmSetup:
		s.await(c, v.ConfirmSetupTimeout)
	case Confirm1, Confirm2, Confirm3, ConfirmDeposit:
		s.await(c, v.ConfirmTimeout)
	case Gripping1:
		s.gripper.Write(s.opts.Gripper.Closed)
	case DriveRevLower1:
		s.chassis.SetEfforts(v.ReverseEfforts.Left, v.ReverseEfforts.Right)
	case Release1:
		s.gripper.Write(s.opts.Gripper.Open)
	case Gripping2:
		s.gripper.Write(s.opts.Gripper.Closed)
		s.clock.Sleep(v.GripSettle)
	case Release2:
		s.gripper.Write(s.opts.Gripper.Open)
		s.clock.Sleep(v.ReleaseSettle)
		s.chassis.SetEfforts(v.BackoffEfforts.Left, v.BackoffEfforts.Right)
	case Idle:
		s.chassis.Stop()
		s.log.Printf("Autonomous sequence complete.")
	case Stopped:
		c.Mode.Paused = true
	}
}

// await latches the pause flag for an operator confirmation. Unattended runs
// arm an auto-resume after timeout instead of waiting for the remote.
func (s *Sequencer) await(c *Context, timeout time.Duration) {
	s.log.Printf("Awaiting user confirmation")
	if !s.opts.Unattended {
		timeout = 0
	}
	c.Mode.Latch(c.Now, timeout)
}

func (s *Sequencer) step(c *Context) {
	v := s.opts.Variant
	switch c.State {
	case SetupRaise:
		if s.moveLift(v.SetupHeight) {
			c.State = ConfirmSetup
		}

	case ConfirmSetup:
		s.confirmed(c, Gripping1)
	case Gripping1:
		c.State = Confirm1
	case Confirm1:
		s.confirmed(c, DriveRevLower1)

	case DriveRevLower1:
		backed := s.driveUntil(c.Range >= v.LowerRange, v.ReverseEfforts)
		if backed || !v.LowerAfterRange {
			s.rec.lowering = true
		}
		lowered := s.rec.lowering && s.moveLift(v.LowerHeight)
		if backed && lowered {
			s.log.Printf("Both complete")
			s.chassis.StartTurn(v.FirstTurn)
			c.State = TurnLeft1
		}

	case TurnLeft1:
		if s.turned(v.TurnSettle, v.PlatformEfforts) {
			c.State = DriveFwdPlatform
		}
	case DriveFwdPlatform:
		if s.driveUntil(c.Range <= v.PlatformRange, v.PlatformEfforts) {
			c.State = Confirm2
		}

	case Confirm2:
		s.confirmed(c, Release1)
	case Release1:
		c.State = Confirm3
	case Confirm3:
		s.confirmed(c, Gripping2)
	case Gripping2:
		s.chassis.SetEfforts(v.ReturnEfforts.Left, v.ReturnEfforts.Right)
		c.State = DriveRevLift1

	case DriveRevLift1:
		backed := s.driveUntil(c.Range >= v.ReturnRange, v.ReturnEfforts)
		raised := s.moveLift(v.DepositHeight)
		if backed && raised {
			s.log.Printf("Both complete")
			s.chassis.StartTurn(v.SecondTurn)
			c.State = TurnRight1
		}

	case TurnRight1:
		if s.turned(v.RoofSettle, v.RoofEfforts) {
			c.State = DriveFwdRoof
		}
	case DriveFwdRoof:
		if s.driveUntil(c.Range <= v.RoofRange, v.RoofEfforts) {
			c.State = ConfirmDeposit
		}
	case ConfirmDeposit:
		s.confirmed(c, Release2)

	case Release2:
		if s.driveUntil(c.Range >= v.HomeRange, v.BackoffEfforts) {
			c.State = Idle
		}

	case Idle:
	case Stopped:
		c.Mode.Paused = true
	}
}

func (s *Sequencer) confirmed(c *Context, next State) {
	if !c.Mode.Paused {
		c.State = next
	}
}

// moveLift drives the lift one tick toward units and reports whether it is
// holding on target. The lift is stopped while on target.
func (s *Sequencer) moveLift(units float64) bool {
	s.lift.StartMoveTo(units)
	if s.lift.OnTarget() {
		s.lift.Stop()
		if !s.rec.liftShown {
			s.log.Printf("Lifter arm movement complete")
			s.rec.liftShown = true
		}
		return true
	}
	s.lift.LoopController()
	return false
}

// driveUntil holds the chassis at e until reached, then stops it. The effort
// is re-asserted every tick so a resumed drive picks up where it paused.
func (s *Sequencer) driveUntil(reached bool, e Efforts) bool {
	if !reached {
		s.chassis.SetEfforts(e.Left, e.Right)
		return false
	}
	s.chassis.Stop()
	if !s.rec.rangeShown {
		s.log.Printf("Chassis target reached")
		s.rec.rangeShown = true
	}
	return true
}

// turned polls the turn in progress. On completion it stops, lets the robot
// settle and starts the next straight drive.
func (s *Sequencer) turned(settle time.Duration, next Efforts) bool {
	if !s.chassis.TurnComplete() {
		return false
	}
	s.log.Printf("Turn complete")
	s.chassis.Stop()
	s.clock.Sleep(settle)
	s.chassis.SetEfforts(next.Left, next.Right)
	return true
}
