package chassis

// LineEfforts maps a pair of reflectance readings to wheel efforts. The left
// wheel carries the steering term (difference), the right the forward term
// (sum); both share the proportional gain.
func LineEfforts(left, right int, kp float64) (float64, float64) {
	diff := float64(left - right)
	sum := float64(left + right)
	return diff * kp, sum * kp
}

// OnIntersection reports whether both sensors read at or above the line
// threshold, i.e. both sit over tape.
func (c *Chassis) OnIntersection(left, right int) bool {
	return left >= c.cfg.LineThreshold && right >= c.cfg.LineThreshold
}

// LineDrive applies one tick of line centering. It returns true when the
// chassis was stopped at an intersection.
func (c *Chassis) LineDrive(left, right int) bool {
	if c.OnIntersection(left, right) {
		c.Drive(0)
		return true
	}
	c.SetEfforts(LineEfforts(left, right, c.linePID.Kp))
	return false
}
