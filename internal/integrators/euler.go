package integrators

import (
	"fmt"

	"github.com/san-kum/romibot/internal/dynamo"
)

// Euler is the explicit first-order step. It is cheap enough for long
// batch runs at a fine substep.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	dx := sys.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	for i := range x {
		next[i] = x[i] + dt*dx[i]
	}
	return next
}

// Names lists the integrators ByName accepts.
func Names() []string { return []string{"euler", "rk4"} }

// ByName returns a fresh integrator.
func ByName(name string) (dynamo.Integrator, error) {
	switch name {
	case "rk4", "":
		return NewRK4(), nil
	case "euler":
		return NewEuler(), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}
