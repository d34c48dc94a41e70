// Package metrics summarizes a simulated run from its per-tick samples.
package metrics
