package task_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/task"
)

const period = 10 * time.Millisecond

var _ = Describe("Sequencer", func() {
	var (
		ch  *fakeChassis
		lf  *fakeLift
		gr  *fakeGripper
		clk *fakeClock
		rec *diag.Recorder
		c   *task.Context
		seq *task.Sequencer
	)

	build := func(v task.Variant, unattended bool) {
		seq = task.New(task.Options{
			Variant:    v,
			Gripper:    task.DefaultGripper(),
			Unattended: unattended,
		}, ch, lf, gr, clk, rec)
	}

	// tick mirrors one supervisor period: expire, stop while paused,
	// otherwise sequence.
	tick := func() {
		c.Now = clk.Now()
		c.Mode.Expire(c.Now)
		if c.Mode.Paused {
			ch.SetEfforts(0, 0)
			lf.Stop()
		} else {
			seq.Tick(c)
		}
		clk.Sleep(period)
	}

	tickN := func(n int) {
		for i := 0; i < n; i++ {
			tick()
		}
	}

	BeforeEach(func() {
		ch = &fakeChassis{}
		lf = newFakeLift()
		gr = &fakeGripper{}
		clk = &fakeClock{now: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)}
		rec = diag.NewRecorder(1000)
		c = task.NewContext()
		build(task.Roof25(), false)
	})

	Describe("state entry", func() {
		It("opens the gripper and arms the lift once", func() {
			tick()
			Expect(gr.writes).To(Equal([]int{task.GripperOpen}))
			Expect(lf.target).To(Equal(task.Lifter25Roof + 1))

			tickN(5)
			Expect(gr.writes).To(HaveLen(1))
			Expect(lf.moves).To(Equal(1))
		})

		It("logs each state name once per transition", func() {
			tickN(50)
			Expect(c.State).To(Equal(task.ConfirmSetup))
			Expect(rec.Count("SETUP_RAISE")).To(Equal(1))
			Expect(rec.Count("CONFIRM_SETUP")).To(Equal(1))
			Expect(rec.Count("Lifter arm movement complete")).To(Equal(1))
		})
	})

	Describe("confirmation gates", func() {
		It("waits for the operator when attended", func() {
			tickN(50)
			Expect(c.State).To(Equal(task.ConfirmSetup))
			Expect(c.Mode.Paused).To(BeTrue())
			Expect(c.Mode.ResumeAt.IsZero()).To(BeTrue())

			tickN(2000)
			Expect(c.State).To(Equal(task.ConfirmSetup))

			c.Mode.TogglePause()
			tick()
			Expect(c.State).To(Equal(task.Gripping1))
			tick()
			Expect(c.State).To(Equal(task.Confirm1))
			Expect(c.Mode.Paused).To(BeTrue())
		})

		It("reaches GRIPPING_1 within the timeout when unattended and closes the gripper once", func() {
			build(task.Roof25(), true)

			var entered, reached time.Time
			for i := 0; i < 3000 && reached.IsZero(); i++ {
				before := c.State
				tick()
				if before != c.State && c.State == task.ConfirmSetup {
					entered = c.Now
				}
				if c.State == task.Gripping1 {
					reached = c.Now
				}
			}
			Expect(entered.IsZero()).To(BeFalse())
			Expect(reached.IsZero()).To(BeFalse())
			Expect(reached.Sub(entered)).To(BeNumerically("<=", task.Roof25().ConfirmSetupTimeout))

			tickN(1000)
			Expect(gr.count(task.GripperClosed)).To(Equal(1))
		})
	})

	Describe("composite barrier", func() {
		BeforeEach(func() {
			c.State = task.DriveRevLower1
		})

		It("waits for the lift after the range is crossed", func() {
			lf.step = 1
			c.Range = task.DistRoof + 1

			tick()
			Expect(c.State).To(Equal(task.DriveRevLower1))
			Expect(ch.left).To(BeZero())
			Expect(lf.OnTarget()).To(BeFalse())

			ticks := 1
			for ; ticks < 200 && c.State == task.DriveRevLower1; ticks++ {
				lowered := lf.OnTarget()
				tick()
				if c.State == task.DriveRevLower1 {
					continue
				}
				Expect(lowered).To(BeTrue(), "left the barrier before the lift was on target")
			}
			Expect(ticks).To(BeNumerically(">", 20))
			Expect(c.State).To(Equal(task.TurnLeft1))
			Expect(ch.turn).To(Equal(-87.0))
			Expect(ch.turns).To(Equal(1))
		})

		It("re-evaluates both predicates every tick", func() {
			c.Range = 5
			tickN(5)
			Expect(lf.OnTarget()).To(BeTrue())
			Expect(c.State).To(Equal(task.DriveRevLower1))
			Expect(ch.left).To(Equal(-75.0))

			lf.pos = 0
			c.Range = task.DistRoof + 1
			tick()
			Expect(c.State).To(Equal(task.DriveRevLower1))
			Expect(ch.turns).To(BeZero())

			tickN(5)
			Expect(c.State).To(Equal(task.TurnLeft1))
			Expect(ch.turns).To(Equal(1))
		})

		It("defers lowering until the robot has backed clear on the 45 degree roof", func() {
			build(task.Roof45(), false)
			c.Range = 5
			tickN(10)
			Expect(lf.moves).To(BeZero())
			Expect(ch.left).To(Equal(-75.0))

			c.Range = task.DistRoof + 3
			tick()
			Expect(lf.moves).To(Equal(1))
			Expect(lf.target).To(Equal(task.LifterPlatform))
		})
	})

	Describe("pause", func() {
		It("freezes the state and resumes the drive without re-entry", func() {
			c.State = task.DriveFwdPlatform
			c.Range = 20
			tick()
			Expect(ch.left).To(Equal(72.0))

			c.Mode.TogglePause()
			tickN(10)
			Expect(c.State).To(Equal(task.DriveFwdPlatform))
			Expect(ch.left).To(BeZero())
			Expect(ch.right).To(BeZero())

			c.Mode.TogglePause()
			tick()
			Expect(c.State).To(Equal(task.DriveFwdPlatform))
			Expect([]float64{ch.left, ch.right}).To(Equal([]float64{72, 75}))
			Expect(rec.Count("DRIVE_FWD_PLATFORM")).To(Equal(1))

			c.Range = 2
			tick()
			Expect(c.State).To(Equal(task.Confirm2))
		})

		It("latches the pause in STOPPED", func() {
			c.State = task.Stopped
			tick()
			Expect(c.Mode.Paused).To(BeTrue())
			Expect(c.State).To(Equal(task.Stopped))
		})
	})

	Describe("completion", func() {
		It("backs off to the home line and reports once", func() {
			c.State = task.Release2
			c.Range = 5
			tick()
			Expect(gr.writes).To(Equal([]int{task.GripperOpen}))
			Expect(ch.left).To(Equal(-75.0))

			c.Range = task.DistRoof
			tick()
			Expect(c.State).To(Equal(task.Idle))
			Expect(ch.left).To(BeZero())

			tickN(10)
			Expect(rec.Count("Autonomous sequence complete.")).To(Equal(1))
		})

		DescribeTable("walks the whole routine unattended",
			func(v task.Variant) {
				build(v, true)
				for i := 0; i < 10000 && c.State != task.Idle; i++ {
					switch c.State {
					case task.DriveRevLower1, task.DriveRevLift1, task.Release2:
						c.Range = 30
					case task.DriveFwdPlatform, task.DriveFwdRoof:
						c.Range = 1
					}
					tick()
				}
				Expect(c.State).To(Equal(task.Idle))
				Expect(ch.turns).To(Equal(2))
				Expect(ch.turn).To(Equal(v.SecondTurn))
				Expect(gr.writes).To(Equal([]int{
					task.GripperOpen, task.GripperClosed, task.GripperOpen,
					task.GripperClosed, task.GripperOpen,
				}))
				Expect(lf.target).To(Equal(v.DepositHeight))
			},
			Entry("roof25", task.Roof25()),
			Entry("roof45", task.Roof45()),
		)
	})
})

var _ = Describe("RunMode", func() {
	It("expires an armed deadline only once it has passed", func() {
		now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
		var m task.RunMode
		m.Latch(now, 5*time.Second)
		Expect(m.Expire(now.Add(4 * time.Second))).To(BeFalse())
		Expect(m.Paused).To(BeTrue())
		Expect(m.Expire(now.Add(5 * time.Second))).To(BeTrue())
		Expect(m.Paused).To(BeFalse())
	})

	It("drops the deadline when the operator toggles", func() {
		now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
		var m task.RunMode
		m.Latch(now, time.Second)
		m.TogglePause()
		m.TogglePause()
		Expect(m.Expire(now.Add(time.Hour))).To(BeFalse())
		Expect(m.Paused).To(BeTrue())
	})
})

var _ = Describe("State", func() {
	It("parses every name back", func() {
		for _, s := range task.States() {
			got, err := task.ParseState(s.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(s))
		}
	})
})
