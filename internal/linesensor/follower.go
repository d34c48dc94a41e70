// Package linesensor decides per-wheel on/off drive from the two
// reflectance sensors, for bang-bang line following in either direction.
//
// The forward and backward tables are not mirror images: going forward, both
// sensors dark means stop and both light means go; going backward the two are
// swapped. Both are kept as observed on the robot.
package linesensor

import (
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
)

// DefaultEdgeThreshold separates tape (above) from table (below).
const DefaultEdgeThreshold = 500

type Direction int

const (
	Forward Direction = iota
	Backward
)

// Decision is the wheel on/off output for one tick.
type Decision struct {
	Left   bool
	Right  bool
	Action string
}

type Follower struct {
	sensor    hw.LineSensor
	threshold int
	log       diag.Logger
	last      Decision
}

func NewFollower(sensor hw.LineSensor, threshold int, log diag.Logger) *Follower {
	if threshold <= 0 {
		threshold = DefaultEdgeThreshold
	}
	if log == nil {
		log = diag.Discard
	}
	return &Follower{sensor: sensor, threshold: threshold, log: log}
}

// Readings returns the raw left and right values.
func (f *Follower) Readings() (int, int) {
	return f.sensor.Read(hw.Left), f.sensor.Read(hw.Right)
}

// Step reads both sensors and updates the decision for dir. Readings exactly
// at the threshold match no rule and keep the previous decision.
func (f *Follower) Step(dir Direction) Decision {
	left, right := f.Readings()
	d, ok := Decide(dir, left, right, f.threshold)
	if ok {
		f.last = d
		f.log.Printf("%s (L=%d R=%d)", d.Action, left, right)
	}
	return f.last
}

// Decide applies the direction's table.
func Decide(dir Direction, left, right, threshold int) (Decision, bool) {
	lDark, lLight := left > threshold, left < threshold
	rDark, rLight := right > threshold, right < threshold

	switch {
	case rLight && lDark:
		return Decision{Left: true, Right: false, Action: "turning right"}, true
	case rDark && lLight:
		return Decision{Left: false, Right: true, Action: "turning left"}, true
	}

	if dir == Forward {
		switch {
		case rLight && lLight:
			return Decision{Left: true, Right: true, Action: "going forward"}, true
		case rDark && lDark:
			return Decision{Action: "stop"}, true
		}
		return Decision{}, false
	}

	switch {
	case rDark && lDark:
		return Decision{Left: true, Right: true, Action: "going backward"}, true
	case rLight && lLight:
		return Decision{Action: "stop"}, true
	}
	return Decision{}, false
}
