package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/romibot/internal/bridge"
	"github.com/san-kum/romibot/internal/chassis"
	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/jog"
	"github.com/san-kum/romibot/internal/lift"
	"github.com/san-kum/romibot/internal/sim"
)

// jogRobot runs the moves in args on the simulated rig, or on the motor
// board when --port is given.
func jogRobot(cmd *cobra.Command, args []string) error {
	steps := make([]jog.Step, len(args))
	for i, a := range args {
		s, err := jog.Parse(a)
		if err != nil {
			return err
		}
		steps[i] = s
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	log := diag.NewConsole(os.Stdout)

	if port == "" {
		return jogSim(ctx, steps, log)
	}

	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	cfg.Serial.Port = port
	b, err := bridge.Open(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.Timeout)
	if err != nil {
		return err
	}
	defer b.Close()

	clock := hw.PollingClock{Clock: hw.SystemClock{}, Sensor: b}
	b.Poll()
	err = jog.Run(ctx, jog.Devices{
		Chassis: chassis.New(b, b, clock, cfg.Chassis, log),
		Lift:    lift.New(b, cfg.Lift),
		Range:   b,
		Clock:   clock,
		Period:  cfg.Supervisor.Period,
	}, steps, log)
	if lerr := b.Err(); lerr != nil {
		return fmt.Errorf("serial link: %w", lerr)
	}
	return err
}

func jogSim(ctx context.Context, steps []jog.Step, log diag.Logger) error {
	cfg, err := loadConfig(preset)
	if err != nil {
		return err
	}
	bench, err := sim.Build(cfg, nil, log)
	if err != nil {
		return err
	}
	clock := hw.PollingClock{Clock: bench.Rig, Sensor: bench.Rig}
	bench.Rig.Poll()
	err = jog.Run(ctx, jog.Devices{
		Chassis: bench.Chassis,
		Lift:    bench.Lift,
		Range:   bench.Rig,
		Clock:   clock,
		Period:  cfg.Supervisor.Period,
	}, steps, log)
	if rerr := bench.Rig.Err(); rerr != nil {
		return rerr
	}
	x, y, h := bench.Rig.Pose()
	fmt.Printf("\n%.2fs  pose (%.2f, %.2f) %.1f°  range %.2f in  lift %d\n",
		bench.Rig.Elapsed().Seconds(), x, y, h, bench.Rig.Distance(), bench.Rig.Position())
	return err
}
