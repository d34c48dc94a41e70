package metrics

import (
	"math"

	"github.com/san-kum/romibot/internal/sim"
)

// RangeError is the mean distance in inches between the range reading and
// the hold target. It scores how quickly and how closely a range drive
// settles.
type RangeError struct {
	target  float64
	sum     float64
	samples int
}

func NewRangeError(target float64) *RangeError {
	return &RangeError{target: target}
}

func (r *RangeError) Name() string { return "range_error" }

func (r *RangeError) Observe(s sim.Sample) {
	r.sum += math.Abs(s.Range - r.target)
	r.samples++
}

func (r *RangeError) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *RangeError) Reset() {
	r.sum = 0
	r.samples = 0
}
