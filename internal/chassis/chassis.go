// Package chassis provides the differential-drive motion primitives: straight
// drives and in-place turns measured by wheel encoders, range-seeking drives
// closed around the ultrasonic sensor, and line-centering drives.
//
// Every primitive comes in a non-blocking form (start once, then poll every
// tick) and a blocking form that polls the non-blocking one to completion on
// the calling goroutine. Blocking forms must not be used from a sequencer
// state: they stall the loop, including the pause check.
package chassis

import (
	"time"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/pid"
)

const (
	DefaultSpeed         = 60.0
	DefaultCPR           = 1440.0
	DefaultWheelDiameter = 2.8
	DefaultWheelTrack    = 5.75
	DefaultLineThreshold = 800
	DefaultTick          = 10 * time.Millisecond
)

// Geometry describes the drive train. CPR is encoder counts per wheel
// revolution after the gearbox.
type Geometry struct {
	Speed         float64 `yaml:"speed"`
	CPR           float64 `yaml:"cpr"`
	WheelDiameter float64 `yaml:"wheel_diameter"`
	WheelTrack    float64 `yaml:"wheel_track"`
}

type Gains struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	Tolerance float64 `yaml:"tolerance"`
}

func (g Gains) controller() *pid.Controller {
	c := pid.New(g.Kp, g.Ki, g.Kd)
	c.SetTolerance(g.Tolerance)
	return c
}

type Config struct {
	Geometry      `yaml:",inline"`
	Range         Gains         `yaml:"range_pid"`
	Line          Gains         `yaml:"line_pid"`
	LineThreshold int           `yaml:"line_threshold"`
	Tick          time.Duration `yaml:"tick"`
}

func DefaultConfig() Config {
	return Config{
		Geometry: Geometry{
			Speed:         DefaultSpeed,
			CPR:           DefaultCPR,
			WheelDiameter: DefaultWheelDiameter,
			WheelTrack:    DefaultWheelTrack,
		},
		Range:         Gains{Kp: 5.0, Ki: 0.1, Kd: 0.05, Tolerance: 0.3},
		Line:          Gains{Kp: 0.1, Ki: 0.0, Kd: 0.01, Tolerance: 0.02},
		LineThreshold: DefaultLineThreshold,
		Tick:          DefaultTick,
	}
}

type Chassis struct {
	cfg      Config
	motors   hw.Motors
	encoders hw.Encoders
	clock    hw.Clock
	log      diag.Logger

	rangePID *pid.Controller
	linePID  *pid.Controller
	motion   Motion
}

func New(motors hw.Motors, encoders hw.Encoders, clock hw.Clock, cfg Config, log diag.Logger) *Chassis {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if log == nil {
		log = diag.Discard
	}
	return &Chassis{
		cfg:      cfg,
		motors:   motors,
		encoders: encoders,
		clock:    clock,
		log:      log,
		rangePID: cfg.Range.controller(),
		linePID:  cfg.Line.controller(),
	}
}

func (c *Chassis) Config() Config { return c.cfg }

// RangePID exposes the range controller for live tuning.
func (c *Chassis) RangePID() *pid.Controller { return c.rangePID }

// LinePID exposes the line-centering controller for live tuning.
func (c *Chassis) LinePID() *pid.Controller { return c.linePID }

// Drive commands the same effort on both wheels.
func (c *Chassis) Drive(effort float64) {
	c.motors.SetEfforts(effort, effort)
}

func (c *Chassis) SetEfforts(left, right float64) {
	c.motors.SetEfforts(left, right)
}

func (c *Chassis) Stop() {
	c.motion.active = false
	c.motors.SetEfforts(0, 0)
}

// SetEffortsBoolean drives each wheel at the default speed or not at all.
func (c *Chassis) SetEffortsBoolean(left, right bool) {
	l, r := 0.0, 0.0
	if left {
		l = c.cfg.Speed
	}
	if right {
		r = c.cfg.Speed
	}
	c.motors.SetEfforts(l, r)
}

func (c *Chassis) resetEncoders() {
	c.encoders.CountsAndResetLeft()
	c.encoders.CountsAndResetRight()
}
