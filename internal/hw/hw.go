// Package hw defines the boundary between the control core and the robot's
// sensors and actuators. The core consumes scalar readings and issues effort
// or position commands only; acquisition and output live behind these
// interfaces (the simulated rig in package plant, or the serial bridge).
package hw

import "time"

// Motors drives the two chassis wheels. Efforts are in the motor driver's
// native range, -300..300. The output is not latched by every driver, so
// callers re-assert it each tick while a move is in progress.
type Motors interface {
	SetEfforts(left, right float64)
}

// Encoders exposes the wheel tick counters.
type Encoders interface {
	CountsLeft() int
	CountsRight() int
	CountsAndResetLeft() int
	CountsAndResetRight() int
}

// RangeFinder returns the most recent ultrasonic sample in inches.
type RangeFinder interface {
	Distance() float64
}

// Poller is implemented by sensors that need a periodic service call to
// acquire fresh samples.
type Poller interface {
	Poll()
}

type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// LineSensor returns the raw reflectance reading for one side, 0..1023.
// Higher values are darker.
type LineSensor interface {
	Read(side Side) int
}

// LiftMotor is the single-axis lift actuator with its quadrature encoder.
type LiftMotor interface {
	SetEffort(effort float64)
	Position() int64
}

// Gripper takes a calibrated servo position in microseconds.
type Gripper interface {
	Write(position int)
}

// Remote yields the most recently decoded key, if any.
type Remote interface {
	KeyCode() (KeyCode, bool)
}

// Clock supplies time and the loop's only suspension point.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// PollingClock services Sensor after every sleep so that blocking moves,
// which run outside the supervisor tick, still see fresh samples.
type PollingClock struct {
	Clock
	Sensor Poller
}

func (c PollingClock) Sleep(d time.Duration) {
	c.Clock.Sleep(d)
	c.Sensor.Poll()
}
