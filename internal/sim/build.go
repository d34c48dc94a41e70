package sim

import (
	"fmt"

	"github.com/san-kum/romibot/internal/chassis"
	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/integrators"
	"github.com/san-kum/romibot/internal/lift"
	"github.com/san-kum/romibot/internal/linesensor"
	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/supervisor"
	"github.com/san-kum/romibot/internal/task"
)

// RemoteFunc builds the operator input once the rig's clock exists.
type RemoteFunc func(clock hw.Clock) (hw.Remote, error)

// Bench is a complete robot wired to the simulated rig.
type Bench struct {
	Rig        *plant.Rig
	Chassis    *chassis.Chassis
	Lift       *lift.Lift
	Sequencers [2]*task.Sequencer
	Supervisor *supervisor.Supervisor
	Sim        *Simulator
}

type silentRemote struct{}

func (silentRemote) KeyCode() (hw.KeyCode, bool) { return 0, false }

// Build assembles the robot described by cfg on a simulated rig. A nil
// remote never presses anything.
func Build(cfg *config.Config, remote RemoteFunc, log diag.Logger) (*Bench, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = diag.Discard
	}

	integ, err := integrators.ByName(cfg.Sim.Integrator)
	if err != nil {
		return nil, err
	}
	field, err := plant.FieldByName(cfg.Sim.Field, cfg.Sim.Plant)
	if err != nil {
		return nil, err
	}
	rig := plant.NewRig(plant.NewRobot(cfg.Sim.Plant), field, integ, cfg.Sim.Rig)

	var keys hw.Remote = silentRemote{}
	if remote != nil {
		if keys, err = remote(rig); err != nil {
			return nil, err
		}
	}

	ch := chassis.New(rig, rig, rig, cfg.Chassis, log)
	lf := lift.New(rig, cfg.Lift)

	b := &Bench{Rig: rig, Chassis: ch, Lift: lf}
	var routines [2]supervisor.Routine
	for i, v := range cfg.VariantPair() {
		b.Sequencers[i] = task.New(task.Options{
			Variant:    v,
			Gripper:    cfg.Supervisor.Gripper,
			Unattended: cfg.Supervisor.Unattended,
		}, ch, lf, rig, rig, log)
		routines[i] = b.Sequencers[i]
	}

	follower := linesensor.NewFollower(rig, 0, log)
	test := supervisor.NewTestRoutine(cfg.Supervisor, ch, follower, log)

	dev := supervisor.Devices{
		Remote:  keys,
		Range:   rig,
		Chassis: ch,
		Lift:    lf,
		Gripper: rig,
		Clock:   rig,
	}
	b.Supervisor = supervisor.New(cfg.Supervisor, dev, routines, test, log)
	b.Supervisor.Context().Mode.Variant = cfg.StartVariant
	b.Sim = New(b.Supervisor, rig, b.Supervisor.Config().Period)
	return b, nil
}

// RunConfig extracts the run limits from cfg.
func RunConfig(cfg *config.Config) Config {
	return Config{
		Duration:    cfg.Sim.Duration,
		SampleEvery: cfg.Sim.SampleEvery,
		StopAtIdle:  cfg.Sim.StopAtIdle,
	}
}
