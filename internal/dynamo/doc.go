// Package dynamo provides the primitives the plant simulation is built on.
//
//   - [State]: plant state vector
//   - [System]: continuous dynamics dX/dt = f(X, u, t)
//   - [Integrator]: fixed-step numerical integrator
//
// The robot's control code never sees these types. They live behind the
// simulated rig in package plant, which turns motor efforts into encoder
// counts, range readings and lift positions.
package dynamo
