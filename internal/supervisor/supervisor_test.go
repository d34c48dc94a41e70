package supervisor_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/linesensor"
	"github.com/san-kum/romibot/internal/supervisor"
	"github.com/san-kum/romibot/internal/task"
)

type fakeRemote struct{ keys []hw.KeyCode }

func (r *fakeRemote) press(k hw.KeyCode) { r.keys = append(r.keys, k) }

func (r *fakeRemote) KeyCode() (hw.KeyCode, bool) {
	if len(r.keys) == 0 {
		return 0, false
	}
	k := r.keys[0]
	r.keys = r.keys[1:]
	return k, true
}

type fakeRange struct {
	d     float64
	polls int
}

func (r *fakeRange) Poll()             { r.polls++ }
func (r *fakeRange) Distance() float64 { return r.d }

type fakeChassis struct {
	left, right float64
	turning     int
	lineCalls   int
	boolL       bool
	boolR       bool
	rangeTarget float64
	rangeStarts int
	rangeLoops  int
}

func (f *fakeChassis) SetEfforts(l, r float64) { f.left, f.right = l, r }
func (f *fakeChassis) Drive(e float64)         { f.left, f.right = e, e }
func (f *fakeChassis) Stop()                   { f.left, f.right = 0, 0 }
func (f *fakeChassis) StartTurn(float64)       { f.turning = 3 }
func (f *fakeChassis) TurnComplete() bool {
	if f.turning == 0 {
		return true
	}
	f.turning--
	return false
}

func (f *fakeChassis) LineDrive(l, r int) bool {
	f.lineCalls++
	if l >= 800 && r >= 800 {
		f.Drive(0)
		return true
	}
	f.SetEfforts(float64(l-r)*0.1, float64(l+r)*0.1)
	return false
}

func (f *fakeChassis) SetEffortsBoolean(l, r bool) { f.boolL, f.boolR = l, r }

func (f *fakeChassis) StartRangeDrive(target, reading float64) {
	f.rangeTarget = target
	f.rangeStarts++
	f.Drive(target - reading)
}

func (f *fakeChassis) LoopRangePID(reading float64) {
	f.rangeLoops++
	if f.RangeOnTarget(reading) {
		f.Drive(0)
		return
	}
	f.Drive(f.rangeTarget - reading)
}

func (f *fakeChassis) RangeOnTarget(reading float64) bool {
	return math.Abs(f.rangeTarget-reading) <= 0.3
}

type fakeLift struct {
	target float64
	armed  bool
	pos    float64
	effort float64
	raw    bool
}

func (f *fakeLift) StartMoveTo(u float64) { f.target, f.armed = u, true }
func (f *fakeLift) LoopController()       { f.pos, f.effort, f.raw = f.target, 150, false }
func (f *fakeLift) OnTarget() bool        { return f.armed && f.pos == f.target }
func (f *fakeLift) Stop()                 { f.effort, f.raw = 0, false }
func (f *fakeLift) SetEffortWithoutDeadband(e float64) {
	f.effort, f.raw = e, true
}

type fakeGripper struct{ last int }

func (g *fakeGripper) Write(p int) { g.last = p }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type countingRoutine struct{ ticks, resets int }

func (r *countingRoutine) Tick(*task.Context) { r.ticks++ }
func (r *countingRoutine) Reset()             { r.resets++ }

type fixedLines struct{ l, r int }

func (s fixedLines) Read(side hw.Side) int {
	if side == hw.Left {
		return s.l
	}
	return s.r
}

var _ = Describe("Supervisor", func() {
	var (
		remote *fakeRemote
		ranger *fakeRange
		ch     *fakeChassis
		lf     *fakeLift
		gr     *fakeGripper
		clk    *fakeClock
		rec    *diag.Recorder
		dev    supervisor.Devices
		r1, r2 *countingRoutine
		sup    *supervisor.Supervisor
		cfg    supervisor.Config
		run    *task.Context
	)

	BeforeEach(func() {
		remote = &fakeRemote{}
		ranger = &fakeRange{d: 9}
		ch = &fakeChassis{}
		lf = &fakeLift{}
		gr = &fakeGripper{}
		clk = &fakeClock{now: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
		rec = diag.NewRecorder(200)
		dev = supervisor.Devices{Remote: remote, Range: ranger, Chassis: ch, Lift: lf, Gripper: gr, Clock: clk}
		r1, r2 = &countingRoutine{}, &countingRoutine{}
		cfg = supervisor.DefaultConfig()
		sup = supervisor.New(cfg, dev, [2]supervisor.Routine{r1, r2}, nil, rec)
		run = sup.Context()
	})

	It("refreshes the range before dispatching", func() {
		sup.Tick()
		Expect(ranger.polls).To(Equal(1))
		Expect(run.Range).To(Equal(9.0))
		Expect(r1.ticks).To(Equal(1))
		Expect(r2.ticks).To(BeZero())
	})

	It("applies a pause key in the same tick, ahead of sequencing", func() {
		ch.SetEfforts(75, 75)
		lf.effort = 200
		remote.press(hw.KeyPlayPause)

		sup.Tick()
		Expect(run.Mode.Paused).To(BeTrue())
		Expect(r1.ticks).To(BeZero())
		Expect(ch.left).To(BeZero())
		Expect(ch.right).To(BeZero())
		Expect(lf.effort).To(BeZero())
		Expect(rec.Count("Paused")).To(Equal(1))
	})

	It("debounces the resume key", func() {
		remote.press(hw.KeyPlayPause)
		sup.Tick()
		start := clk.Now()

		remote.press(hw.KeyPlayPause)
		sup.Tick()
		Expect(run.Mode.Paused).To(BeFalse())
		Expect(clk.Now().Sub(start)).To(BeNumerically(">=", cfg.ResumeDebounce))
		Expect(r1.ticks).To(Equal(1))
	})

	It("clears an unattended latch once its deadline passes", func() {
		run.Mode.Latch(clk.Now(), 100*time.Millisecond)
		for i := 0; i < 10; i++ {
			sup.Tick()
			clk.Sleep(10 * time.Millisecond)
		}
		Expect(r1.ticks).To(BeZero())
		sup.Tick()
		Expect(run.Mode.Paused).To(BeFalse())
		Expect(r1.ticks).To(Equal(1))
	})

	It("keeps the variant selection once switched", func() {
		remote.press(hw.Key7)
		sup.Tick()
		sup.Tick()
		sup.Tick()
		Expect(r2.ticks).To(Equal(3))
		Expect(r1.ticks).To(BeZero())
		Expect(run.Mode.Variant).To(Equal(1))
	})

	DescribeTable("manual adjustment keys",
		func(key hw.KeyCode, check func()) {
			remote.press(hw.KeySetup)
			sup.Tick()
			Expect(run.Mode.Tweak).To(BeTrue())
			sup.HandleKey(key)
			check()
		},
		Entry("up drives the lift raw", hw.KeyUp, func() {
			Expect(lf.effort).To(Equal(supervisor.DefaultManualLiftUp))
			Expect(lf.raw).To(BeTrue())
		}),
		Entry("down drives the lift raw", hw.KeyDown, func() {
			Expect(lf.effort).To(Equal(supervisor.DefaultManualLiftDown))
		}),
		Entry("left opens the gripper", hw.KeyLeft, func() {
			Expect(gr.last).To(Equal(task.GripperOpen))
		}),
		Entry("right closes the gripper", hw.KeyRight, func() {
			Expect(gr.last).To(Equal(task.GripperClosed))
		}),
	)

	It("ignores manual keys outside adjustment mode", func() {
		sup.HandleKey(hw.KeyUp)
		sup.HandleKey(hw.KeyLeft)
		Expect(lf.effort).To(BeZero())
		Expect(gr.last).To(BeZero())
	})

	It("stops on the stop key and restarts on back", func() {
		remote.press(hw.KeyStopMode)
		sup.Tick()
		Expect(run.State).To(Equal(task.Stopped))
		Expect(run.Mode.Paused).To(BeTrue())

		remote.press(hw.KeyBack)
		sup.Tick()
		Expect(run.State).To(Equal(task.SetupRaise))
		Expect(r1.resets).To(Equal(1))
		Expect(r2.resets).To(Equal(1))
		Expect(run.Mode.Paused).To(BeTrue())
		Expect(r1.ticks).To(BeZero())
	})

	It("restarts from IDLE without pausing", func() {
		run.State = task.Idle
		remote.press(hw.KeyBack)
		sup.Tick()
		Expect(run.State).To(Equal(task.SetupRaise))
		Expect(run.Mode.Paused).To(BeFalse())
		Expect(r1.resets).To(Equal(1))
		Expect(r1.ticks).To(Equal(1))
	})

	It("ignores back while the sequence is running", func() {
		run.State = task.DriveFwdPlatform
		sup.HandleKey(hw.KeyBack)
		Expect(run.State).To(Equal(task.DriveFwdPlatform))
		Expect(r1.resets).To(BeZero())
	})

	It("returns when the context is canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(sup.Run(ctx)).To(MatchError(context.Canceled))
	})

	Describe("with the task sequencer", func() {
		var seq *task.Sequencer

		BeforeEach(func() {
			seq = task.New(task.Options{Variant: task.Roof25(), Gripper: task.DefaultGripper()},
				ch, lf, gr, clk, rec)
			sup = supervisor.New(cfg, dev, [2]supervisor.Routine{seq, seq}, nil, rec)
			run = sup.Context()
		})

		It("zeros every effort within the pausing tick and leaves the state alone", func() {
			run.State = task.DriveFwdPlatform
			ranger.d = 20
			sup.Tick()
			Expect(ch.left).To(Equal(72.0))

			remote.press(hw.KeyPlayPause)
			sup.Tick()
			Expect(ch.left).To(BeZero())
			Expect(lf.effort).To(BeZero())
			Expect(run.State).To(Equal(task.DriveFwdPlatform))

			remote.press(hw.KeyPlayPause)
			sup.Tick()
			Expect(ch.left).To(Equal(72.0))
			Expect(rec.Count("DRIVE_FWD_PLATFORM")).To(Equal(1))
		})

		It("resumes an interrupted turn rather than skipping it", func() {
			run.State = task.TurnLeft1
			ch.StartTurn(-87)
			sup.Tick()
			Expect(run.State).To(Equal(task.TurnLeft1))

			remote.press(hw.KeyPlayPause)
			sup.Tick()
			remote.press(hw.KeyPlayPause)
			sup.Tick()
			Expect(run.State).To(Equal(task.TurnLeft1))
			sup.Tick()
			sup.Tick()
			Expect(run.State).To(Equal(task.DriveFwdPlatform))
		})
	})

	Describe("switching routines", func() {
		var seq25, seq45 *task.Sequencer

		BeforeEach(func() {
			opts := task.Options{Variant: task.Roof25(), Gripper: task.DefaultGripper()}
			seq25 = task.New(opts, ch, lf, gr, clk, rec)
			opts.Variant = task.Roof45()
			seq45 = task.New(opts, ch, lf, gr, clk, rec)
			sup = supervisor.New(cfg, dev, [2]supervisor.Routine{seq25, seq45}, nil, rec)
			run = sup.Context()
		})

		It("does not latch a confirmation gate a second time", func() {
			sup.Tick()
			sup.Tick()
			Expect(run.State).To(Equal(task.ConfirmSetup))
			Expect(run.Mode.Paused).To(BeTrue())

			remote.press(hw.Key7)
			sup.Tick()
			remote.press(hw.KeyPlayPause)
			sup.Tick()

			Expect(run.Mode.Variant).To(Equal(1))
			Expect(run.Mode.Paused).To(BeFalse())
			Expect(run.State).To(Equal(task.Gripping1))
			Expect(rec.Count("Awaiting user confirmation")).To(Equal(1))
			Expect(gr.last).To(Equal(task.GripperClosed))
		})

		It("enters the first state with the new routine's numbers when switched up front", func() {
			remote.press(hw.Key7)
			sup.Tick()
			Expect(lf.target).To(Equal(task.Roof45().SetupHeight))
			Expect(gr.last).To(Equal(task.GripperOpen))
			Expect(rec.Count("SETUP_RAISE")).To(Equal(1))
		})
	})

	Describe("line test", func() {
		It("dispatches to the line routine instead of the sequence", func() {
			cfg.LineTest = true
			f := linesensor.NewFollower(fixedLines{l: 300, r: 900}, 0, rec)
			lt := supervisor.NewLineTest(ch, f, false, rec)
			sup = supervisor.New(cfg, dev, [2]supervisor.Routine{r1, r2}, lt, rec)

			sup.Tick()
			Expect(ch.lineCalls).To(Equal(1))
			Expect(r1.ticks).To(BeZero())
		})

		It("logs an intersection once", func() {
			f := linesensor.NewFollower(fixedLines{l: 900, r: 900}, 0, rec)
			lt := supervisor.NewLineTest(ch, f, false, rec)
			lt.Tick(nil)
			lt.Tick(nil)
			Expect(rec.Count("Intersection reached (L=900 R=900)")).To(Equal(1))
		})

		It("drives on/off with the boolean follower", func() {
			f := linesensor.NewFollower(fixedLines{l: 900, r: 100}, 0, rec)
			lt := supervisor.NewLineTest(ch, f, true, rec)
			lt.Tick(nil)
			Expect(ch.boolL).To(BeTrue())
			Expect(ch.boolR).To(BeFalse())
		})
	})

	Describe("range test", func() {
		It("holds the range target instead of running the sequence", func() {
			cfg.RangeTest = true
			rt := supervisor.NewTestRoutine(cfg, ch, nil, rec)
			sup = supervisor.New(cfg, dev, [2]supervisor.Routine{r1, r2}, rt, rec)

			sup.Tick()
			Expect(ch.rangeStarts).To(Equal(1))
			Expect(ch.rangeTarget).To(Equal(task.DistRoof))
			Expect(ch.left).To(BeNumerically(">", 0))
			sup.Tick()
			Expect(ch.rangeLoops).To(Equal(1))
			Expect(r1.ticks).To(BeZero())
		})

		It("logs the target once and re-arms on reset", func() {
			rt := supervisor.NewRangeTest(ch, 9.1, rec)
			c := task.NewContext()
			c.Range = 6
			rt.Tick(c)
			c.Range = 9
			rt.Tick(c)
			rt.Tick(c)
			Expect(rec.Count("Chassis target reached")).To(Equal(1))
			Expect(ch.left).To(BeZero())

			rt.Reset()
			rt.Tick(c)
			Expect(ch.rangeStarts).To(Equal(2))
		})

		It("picks the line follower unless the range test is asked for", func() {
			f := linesensor.NewFollower(fixedLines{l: 300, r: 900}, 0, rec)
			Expect(supervisor.NewTestRoutine(cfg, ch, f, rec)).To(BeAssignableToTypeOf(&supervisor.LineTest{}))
			cfg.RangeTest = true
			Expect(supervisor.NewTestRoutine(cfg, ch, f, rec)).To(BeAssignableToTypeOf(&supervisor.RangeTest{}))
		})
	})
})
