// Package export renders runs as standalone SVG images.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/viz"
)

// CanvasToSVG converts a braille canvas to SVG dots.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	sb.WriteString(header(width, height))
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

func header(w, h float64) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, w, h, w, h)
}

// frame maps field inches onto an SVG of the given pixel size, y up.
type frame struct {
	minX, minY, maxX, maxY float64
	w, h                   float64
}

func (f *frame) grow(x, y float64) {
	f.minX, f.maxX = min(f.minX, x), max(f.maxX, x)
	f.minY, f.maxY = min(f.minY, y), max(f.maxY, y)
}

func (f frame) pt(x, y float64) (float64, float64) {
	sx := f.w / (f.maxX - f.minX)
	sy := f.h / (f.maxY - f.minY)
	s := min(sx, sy)
	return (x - f.minX) * s, f.h - (y-f.minY)*s
}

// FieldToSVG draws the field's walls and tape with the robot's path from
// samples over it. Confirmation stops are marked.
func FieldToSVG(field plant.Field, samples []sim.Sample, width, height int, strokeColor string) string {
	f := frame{minX: field.Start.X, minY: field.Start.Y, maxX: field.Start.X, maxY: field.Start.Y, w: float64(width), h: float64(height)}
	for _, s := range field.Tape {
		f.grow(s.A.X, s.A.Y)
		f.grow(s.B.X, s.B.Y)
	}
	for _, s := range field.Walls {
		f.grow(s.A.X/2, s.A.Y)
		f.grow(s.B.X/2, s.B.Y)
	}
	for _, s := range samples {
		f.grow(s.X, s.Y)
	}
	const pad = 3
	f.minX, f.minY, f.maxX, f.maxY = f.minX-pad, f.minY-pad, f.maxX+pad, f.maxY+pad

	var sb strings.Builder
	sb.WriteString(header(float64(width), float64(height)))

	line := func(a, b plant.Point, stroke string, w float64) {
		x0, y0 := f.pt(a.X, a.Y)
		x1, y1 := f.pt(b.X, b.Y)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="%.1f"/>`+"\n",
			x0, y0, x1, y1, stroke, w)
	}
	for _, t := range field.Tape {
		line(t.A, t.B, "#333333", 4)
	}
	for _, w := range field.Walls {
		line(w.A, w.B, "#cccccc", 3)
	}

	if len(samples) > 1 {
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor)
		for i, s := range samples {
			x, y := f.pt(s.X, s.Y)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString(`"/>` + "\n")

		for i := 1; i < len(samples); i++ {
			if samples[i].State.IsConfirm() && !samples[i-1].State.IsConfirm() {
				x, y := f.pt(samples[i].X, samples[i].Y)
				fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="#ffaa00"><title>%s</title></circle>`+"\n",
					x, y, samples[i].State)
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
