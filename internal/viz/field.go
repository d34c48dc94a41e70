package viz

import (
	"math"

	"github.com/san-kum/romibot/internal/plant"
)

// FieldView fits the walls, the tape and the start pose with a margin.
func FieldView(c *Canvas, f plant.Field) Viewport {
	minX, minY := f.Start.X, f.Start.Y
	maxX, maxY := minX, minY
	grow := func(p plant.Point) {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	for _, s := range f.Tape {
		grow(s.A)
		grow(s.B)
	}
	for _, s := range f.Walls {
		// The roof runs far past the working area.
		if s.A.Y == s.B.Y {
			grow(plant.Point{X: s.A.X / 2, Y: s.A.Y})
			grow(plant.Point{X: s.B.X / 2, Y: s.B.Y})
			continue
		}
		grow(s.A)
		grow(s.B)
	}
	const margin = 3
	return Fit(c, minX-margin, minY-margin, maxX+margin, maxY+margin)
}

// DrawField draws walls solid and tape dotted.
func DrawField(c *Canvas, v Viewport, f plant.Field) {
	for _, w := range f.Walls {
		x0, y0 := v.Project(w.A.X, w.A.Y)
		x1, y1 := v.Project(w.B.X, w.B.Y)
		c.DrawLine(x0, y0, x1, y1)
	}
	for _, t := range f.Tape {
		n := int(math.Hypot(t.B.X-t.A.X, t.B.Y-t.A.Y))
		for i := 0; i <= n; i++ {
			k := float64(i) / math.Max(1, float64(n))
			c.Set(v.Project(t.A.X+k*(t.B.X-t.A.X), t.A.Y+k*(t.B.Y-t.A.Y)))
		}
	}
}

// DrawRobot draws the chassis as a small square with a heading tick.
// heading is in degrees.
func DrawRobot(c *Canvas, v Viewport, x, y, heading float64) {
	px, py := v.Project(x, y)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			c.Set(px+dx, py+dy)
		}
	}
	th := heading * math.Pi / 180
	hx, hy := v.Project(x+3*math.Cos(th), y+3*math.Sin(th))
	c.DrawLine(px, py, hx, hy)
}

// DrawTrail plots past positions.
func DrawTrail(c *Canvas, v Viewport, pts []plant.Point) {
	for _, p := range pts {
		c.Set(v.Project(p.X, p.Y))
	}
}
