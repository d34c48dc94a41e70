// Package pid implements the fixed-period PID control law shared by the
// chassis, line-centering and lift controllers.
//
// The control loop is assumed to run at a constant cadence, so the integral
// and derivative terms are computed per tick rather than against a measured
// wall-clock delta:
//
//	effort = Kp*e + Ki*sum(e) + Kd*(e - prevE)
//
// where e = setpoint - measurement.
//
// # Usage
//
//	c := pid.New(5.0, 0.1, 0.05)
//	c.SetTolerance(0.3)
//	c.SetSetpoint(10.45)
//	for !c.OnTarget(reading()) {
//		drive(c.CalculateEffort(reading()))
//	}
//
// Controllers are not safe for concurrent use.
package pid

import (
	"fmt"
	"math"
)

type Controller struct {
	Kp float64
	Ki float64
	Kd float64

	setpoint    float64
	hasSetpoint bool
	tolerance   float64
	integral    float64
	prevErr     float64
	first       bool
}

func New(kp, ki, kd float64) *Controller {
	return &Controller{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

// SetSetpoint changes the target. Accumulated state is kept; callers starting
// an unrelated move must call Reset.
func (c *Controller) SetSetpoint(v float64) {
	c.setpoint = v
	c.hasSetpoint = true
}

func (c *Controller) Setpoint() float64 { return c.setpoint }

func (c *Controller) SetTolerance(t float64) { c.tolerance = math.Abs(t) }

func (c *Controller) Tolerance() float64 { return c.tolerance }

// CalculateEffort advances the controller by one tick. It is not idempotent:
// each call accumulates the integral and shifts the derivative history.
func (c *Controller) CalculateEffort(measurement float64) float64 {
	if !c.hasSetpoint {
		panic("pid: CalculateEffort called before SetSetpoint")
	}

	err := c.setpoint - measurement
	c.integral += err

	derivative := 0.0
	if c.first {
		c.first = false
	} else {
		derivative = err - c.prevErr
	}
	c.prevErr = err

	return c.Kp*err + c.Ki*c.integral + c.Kd*derivative
}

// OnTarget reports whether |measurement - setpoint| <= tolerance.
func (c *Controller) OnTarget(measurement float64) bool {
	return math.Abs(measurement-c.setpoint) <= c.tolerance
}

// Integral returns the accumulated error sum.
func (c *Controller) Integral() float64 { return c.integral }

// Reset clears integral and derivative state
func (c *Controller) Reset() {
	c.integral = 0
	c.prevErr = 0
	c.first = true
}

// Params returns tunable parameters for live adjustment
func (c *Controller) Params() map[string]float64 {
	return map[string]float64{
		"Kp":        c.Kp,
		"Ki":        c.Ki,
		"Kd":        c.Kd,
		"Tolerance": c.tolerance,
	}
}

// SetParam adjusts a PID parameter
func (c *Controller) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		c.Kp = value
	case "Ki":
		c.Ki = value
	case "Kd":
		c.Kd = value
	case "Tolerance":
		c.SetTolerance(value)
	default:
		return fmt.Errorf("pid: unknown parameter %q", name)
	}
	return nil
}
