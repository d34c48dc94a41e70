package task

import "time"

// RunMode holds the operator-controlled flags. It is mutated by the remote
// handler and the confirmation gates, and read every tick.
type RunMode struct {
	Paused  bool
	Tweak   bool
	Variant int

	// ResumeAt, when set, is the unattended deadline at which the supervisor
	// clears Paused on its own.
	ResumeAt time.Time
}

// TogglePause flips the pause flag and drops any pending auto-resume.
func (m *RunMode) TogglePause() {
	m.Paused = !m.Paused
	m.ResumeAt = time.Time{}
}

// Latch sets the pause flag. A positive timeout arms an auto-resume.
func (m *RunMode) Latch(now time.Time, timeout time.Duration) {
	m.Paused = true
	if timeout > 0 {
		m.ResumeAt = now.Add(timeout)
	} else {
		m.ResumeAt = time.Time{}
	}
}

// Expire clears the pause flag when the auto-resume deadline has passed.
// It reports whether it did.
func (m *RunMode) Expire(now time.Time) bool {
	if !m.Paused || m.ResumeAt.IsZero() || now.Before(m.ResumeAt) {
		return false
	}
	m.Paused = false
	m.ResumeAt = time.Time{}
	return true
}

// Context is the run state threaded through every tick.
type Context struct {
	Mode  RunMode
	State State

	// Range is the range finder reading refreshed at the top of the tick.
	Range float64
	Now   time.Time
}

// NewContext starts a run at SETUP_RAISE.
func NewContext() *Context {
	return &Context{State: SetupRaise}
}
