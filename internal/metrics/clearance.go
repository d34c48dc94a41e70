package metrics

import "github.com/san-kum/romibot/internal/sim"

// Clearance is the fraction of samples with the range reading at or beyond
// the threshold. A run that never closes inside it scores 1.
type Clearance struct {
	name       string
	threshold  float64
	violations int
	samples    int
	closest    float64
}

func NewClearance(threshold float64) *Clearance {
	return &Clearance{name: "clearance", threshold: threshold, closest: -1}
}

func (c *Clearance) Name() string { return c.name }

func (c *Clearance) Observe(s sim.Sample) {
	c.samples++
	if c.closest < 0 || s.Range < c.closest {
		c.closest = s.Range
	}
	if s.Range < c.threshold {
		c.violations++
	}
}

func (c *Clearance) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

// Closest returns the smallest range seen, or -1 before any sample.
func (c *Clearance) Closest() float64 { return c.closest }

func (c *Clearance) Reset() {
	c.violations = 0
	c.samples = 0
	c.closest = -1
}
