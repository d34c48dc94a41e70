// Package jog runs one-off blocking moves outside the autonomous sequence,
// for checking the drive train, the lift and the range hold on the bench.
package jog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
)

type Kind string

const (
	Lift  Kind = "lift"
	Drive Kind = "drive"
	Turn  Kind = "turn"
	Range Kind = "range"
)

var kinds = []Kind{Lift, Drive, Turn, Range}

// Step is one move: lift to units, drive inches, turn degrees (positive is
// clockwise) or close to a range in inches.
type Step struct {
	Kind  Kind
	Value float64
}

func (s Step) String() string { return fmt.Sprintf("%s=%g", s.Kind, s.Value) }

// Parse reads "kind=value".
func Parse(s string) (Step, error) {
	name, val, ok := strings.Cut(s, "=")
	if !ok {
		return Step{}, fmt.Errorf("jog %q: want kind=value", s)
	}
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	known := false
	for _, want := range kinds {
		known = known || k == want
	}
	if !known {
		return Step{}, fmt.Errorf("jog %q: unknown move (available: %v)", s, kinds)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return Step{}, fmt.Errorf("jog %q: %w", s, err)
	}
	if k == Range && v <= 0 {
		return Step{}, fmt.Errorf("jog %q: range must be positive", s)
	}
	return Step{Kind: k, Value: v}, nil
}

// Chassis is the drive train's blocking moves.
type Chassis interface {
	DriveDistance(ctx context.Context, inches float64) error
	TurnAngle(ctx context.Context, degrees float64) error
	DriveToRange(ctx context.Context, target float64, r hw.RangeFinder) error
}

// Lifter is the lift's blocking move.
type Lifter interface {
	MoveTo(ctx context.Context, units float64, clock hw.Clock, period time.Duration) error
}

// Devices are the actuators a jog drives. Clock must refresh Range and the
// encoders as it sleeps; see hw.PollingClock.
type Devices struct {
	Chassis Chassis
	Lift    Lifter
	Range   hw.RangeFinder
	Clock   hw.Clock
	Period  time.Duration
}

// Run performs steps in order and stops at the first failure.
func Run(ctx context.Context, dev Devices, steps []Step, log diag.Logger) error {
	if log == nil {
		log = diag.Discard
	}
	for _, s := range steps {
		log.Printf("Jog %s", s)
		var err error
		switch s.Kind {
		case Lift:
			err = dev.Lift.MoveTo(ctx, s.Value, dev.Clock, dev.Period)
		case Drive:
			err = dev.Chassis.DriveDistance(ctx, s.Value)
		case Turn:
			err = dev.Chassis.TurnAngle(ctx, s.Value)
		case Range:
			err = dev.Chassis.DriveToRange(ctx, s.Value, dev.Range)
		default:
			err = fmt.Errorf("unknown move")
		}
		if err != nil {
			return fmt.Errorf("jog %s: %w", s, err)
		}
	}
	return nil
}
