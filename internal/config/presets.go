package config

import (
	"fmt"
	"sort"
	"time"
)

// Presets modify the defaults for common bench runs.
var Presets = map[string]func(*Config){
	"roof25": func(c *Config) {
		c.Supervisor.Unattended = true
	},
	"roof45": func(c *Config) {
		c.Supervisor.Unattended = true
		c.StartVariant = 1
		c.Sim.Field = "roof45"
	},
	"line-test": func(c *Config) {
		c.Supervisor.LineTest = true
		c.Supervisor.BooleanFollow = true
		c.Sim.Field = "line-test"
		c.Sim.Plant.LineSpacing = 1.0
		c.Sim.Duration = 20 * time.Second
		c.Sim.StopAtIdle = false
	},
	"range-test": func(c *Config) {
		c.Supervisor.RangeTest = true
		c.Sim.Duration = 40 * time.Second
		c.Sim.StopAtIdle = false
	},
}

// GetPreset returns the defaults with the named preset applied.
func GetPreset(name string) (*Config, error) {
	apply, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
