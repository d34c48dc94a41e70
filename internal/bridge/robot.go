package bridge

import (
	"fmt"

	"github.com/san-kum/romibot/internal/chassis"
	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/lift"
	"github.com/san-kum/romibot/internal/linesensor"
	"github.com/san-kum/romibot/internal/supervisor"
	"github.com/san-kum/romibot/internal/task"
)

// Assemble wires the control stack to the motor board behind b. The board
// is both the sensors and the remote receiver; clock paces the loop.
func Assemble(cfg *config.Config, b *Bridge, clock hw.Clock, log diag.Logger) (*supervisor.Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if log == nil {
		log = diag.Discard
	}

	ch := chassis.New(b, b, clock, cfg.Chassis, log)
	lf := lift.New(b, cfg.Lift)

	var routines [2]supervisor.Routine
	for i, v := range cfg.VariantPair() {
		routines[i] = task.New(task.Options{
			Variant:    v,
			Gripper:    cfg.Supervisor.Gripper,
			Unattended: cfg.Supervisor.Unattended,
		}, ch, lf, b, clock, log)
	}
	follower := linesensor.NewFollower(b, 0, log)
	test := supervisor.NewTestRoutine(cfg.Supervisor, ch, follower, log)

	sup := supervisor.New(cfg.Supervisor, supervisor.Devices{
		Remote:  b,
		Range:   b,
		Chassis: ch,
		Lift:    lf,
		Gripper: b,
		Clock:   clock,
	}, routines, test, log)
	sup.Context().Mode.Variant = cfg.StartVariant
	return sup, nil
}
