// Package config loads and saves the robot's tunables as YAML. DefaultConfig
// reproduces the calibrated values the robot was run with.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/romibot/internal/chassis"
	"github.com/san-kum/romibot/internal/integrators"
	"github.com/san-kum/romibot/internal/lift"
	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/supervisor"
	"github.com/san-kum/romibot/internal/task"
)

const (
	DefaultPreset     = "roof25"
	DefaultField      = "roof25"
	DefaultIntegrator = "rk4"
	DefaultDuration   = 3 * time.Minute
	DefaultOutputDir  = "runs"
)

type Config struct {
	// StartVariant selects the routine before any remote input: 0 for the
	// 25-degree roof, 1 for the 45-degree roof.
	StartVariant int               `yaml:"start_variant"`
	Chassis      chassis.Config    `yaml:"chassis"`
	Lift         lift.Config       `yaml:"lift"`
	Supervisor   supervisor.Config `yaml:"supervisor"`
	Variants     []task.Variant    `yaml:"variants"`
	Sim          SimConfig         `yaml:"sim"`
	Serial       SerialConfig      `yaml:"serial"`
}

type SimConfig struct {
	Field       string          `yaml:"field"`
	Integrator  string          `yaml:"integrator"`
	Duration    time.Duration   `yaml:"duration"`
	SampleEvery int             `yaml:"sample_every"`
	StopAtIdle  bool            `yaml:"stop_at_idle"`
	OutputDir   string          `yaml:"output_dir"`
	Plant       plant.Params    `yaml:"plant"`
	Rig         plant.RigConfig `yaml:"rig"`
}

type SerialConfig struct {
	Port    string        `yaml:"port"`
	Baud    int           `yaml:"baud"`
	Timeout time.Duration `yaml:"timeout"`
}

var ErrUnknownPreset = errors.New("unknown preset")

func DefaultConfig() *Config {
	v := task.Variants()
	return &Config{
		Chassis:    chassis.DefaultConfig(),
		Lift:       lift.DefaultConfig(),
		Supervisor: supervisor.DefaultConfig(),
		Variants:   v[:],
		Sim: SimConfig{
			Field:       DefaultField,
			Integrator:  DefaultIntegrator,
			Duration:    DefaultDuration,
			SampleEvery: 5,
			StopAtIdle:  true,
			OutputDir:   DefaultOutputDir,
			Plant:       plant.DefaultParams(),
			Rig:         plant.DefaultRigConfig(),
		},
		Serial: SerialConfig{
			Port:    "/dev/ttyACM0",
			Baud:    115200,
			Timeout: 50 * time.Millisecond,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Variants) != 2 {
		return fmt.Errorf("need exactly 2 variants, got %d", len(c.Variants))
	}
	if c.StartVariant < 0 || c.StartVariant > 1 {
		return fmt.Errorf("start_variant must be 0 or 1, got %d", c.StartVariant)
	}
	if c.Chassis.WheelDiameter <= 0 || c.Chassis.CPR <= 0 {
		return fmt.Errorf("wheel geometry must be positive")
	}
	if c.Lift.GearRatio == 0 {
		return fmt.Errorf("lift gear ratio must be non-zero")
	}
	if c.Supervisor.LineTest && c.Supervisor.RangeTest {
		return fmt.Errorf("line_test and range_test are exclusive")
	}
	if c.Supervisor.RangeTest && c.Supervisor.RangeTarget <= 0 {
		return fmt.Errorf("range_target must be positive, got %g", c.Supervisor.RangeTarget)
	}
	if _, err := integrators.ByName(c.Sim.Integrator); err != nil {
		return err
	}
	if _, err := plant.FieldByName(c.Sim.Field, c.Sim.Plant); err != nil {
		return err
	}
	return nil
}

// VariantPair returns the two routines in dispatch order.
func (c *Config) VariantPair() [2]task.Variant {
	return [2]task.Variant{c.Variants[0], c.Variants[1]}
}
