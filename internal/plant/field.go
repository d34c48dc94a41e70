package plant

import (
	"fmt"
	"math"
	"sort"
)

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Segment is a wall face or a strip of tape between two points.
type Segment struct {
	Name string `yaml:"name"`
	A    Point  `yaml:"a"`
	B    Point  `yaml:"b"`
}

// Field is the workspace the sensors observe. The robot starts at Start,
// facing StartHeading degrees (counter-clockwise from +x).
type Field struct {
	Name         string    `yaml:"name"`
	Walls        []Segment `yaml:"walls"`
	Tape         []Segment `yaml:"tape"`
	TapeWidth    float64   `yaml:"tape_width"`
	Start        Point     `yaml:"start"`
	StartHeading float64   `yaml:"start_heading"`
	MaxRange     float64   `yaml:"max_range"`
}

const (
	TapeReading  = 900
	FloorReading = 60
)

// Raycast returns the distance along the ray from o in direction theta to the
// nearest wall, or MaxRange when nothing is hit.
func (f Field) Raycast(o Point, theta float64) float64 {
	dx, dy := math.Cos(theta), math.Sin(theta)
	best := f.MaxRange
	for _, w := range f.Walls {
		ex, ey := w.B.X-w.A.X, w.B.Y-w.A.Y
		den := dx*ey - dy*ex
		if math.Abs(den) < 1e-12 {
			continue
		}
		ax, ay := w.A.X-o.X, w.A.Y-o.Y
		t := (ax*ey - ay*ex) / den
		s := (ax*dy - ay*dx) / den
		if t >= 0 && s >= 0 && s <= 1 && t < best {
			best = t
		}
	}
	return best
}

// Reflectance returns the raw line-sensor reading at p.
func (f Field) Reflectance(p Point) int {
	for _, s := range f.Tape {
		if distToSegment(p, s) <= f.TapeWidth/2 {
			return TapeReading
		}
	}
	return FloorReading
}

func distToSegment(p Point, s Segment) float64 {
	ex, ey := s.B.X-s.A.X, s.B.Y-s.A.Y
	l2 := ex*ex + ey*ey
	if l2 == 0 {
		return math.Hypot(p.X-s.A.X, p.Y-s.A.Y)
	}
	t := ((p.X-s.A.X)*ex + (p.Y-s.A.Y)*ey) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(s.A.X+t*ex), p.Y-(s.A.Y+t*ey))
}

// Layout places a roof and a platform around the intersection the robot works
// from. Distances are range finder readings with the axle on the intersection.
type Layout struct {
	RoofDistance     float64
	PlatformDistance float64
	// PlatformSide is -1 when the platform is to the robot's left as it faces
	// the roof, +1 when to its right.
	PlatformSide float64
	// StartDistance is the reading at the starting pose under the roof.
	StartDistance float64
}

// NewField builds the field for a layout. The roof face lies along y = 0 and
// the robot starts on the x = 0 tape facing it.
func NewField(name string, l Layout, p Params) Field {
	off := p.SensorOffset
	yc := -l.RoofDistance - off
	xp := l.PlatformSide * (l.PlatformDistance + off)

	return Field{
		Name: name,
		Walls: []Segment{
			{Name: "roof", A: Point{-48, 0}, B: Point{48, 0}},
			{Name: "platform", A: Point{xp, yc - 12}, B: Point{xp, yc + 6}},
		},
		Tape: []Segment{
			{Name: "approach", A: Point{0, yc - 24}, B: Point{0, -1}},
			{Name: "cross", A: Point{-xp, yc}, B: Point{xp, yc}},
		},
		TapeWidth:    0.75,
		Start:        Point{0, -l.StartDistance - off},
		StartHeading: 90,
		MaxRange:     120,
	}
}

// The line-test layout starts well back on the approach tape, short of the
// crossing.
var layouts = map[string]Layout{
	"roof25":    {RoofDistance: 13.45 - 3.0, PlatformDistance: 13.75 - 2.0, PlatformSide: -1, StartDistance: 4.14},
	"roof45":    {RoofDistance: 13.45 - 3.0, PlatformDistance: 13.75 - 2.0, PlatformSide: 1, StartDistance: 4.84},
	"line-test": {RoofDistance: 13.45 - 3.0, PlatformDistance: 13.75 - 2.0, PlatformSide: -1, StartDistance: 20},
}

// FieldNames lists the known field layouts.
func FieldNames() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FieldByName returns the field laid out for a deposit routine.
func FieldByName(name string, p Params) (Field, error) {
	l, ok := layouts[name]
	if !ok {
		return Field{}, fmt.Errorf("unknown field: %s", name)
	}
	return NewField(name, l, p), nil
}
