// Package chart turns a numeric series into a normalized SVG polyline.
package chart

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

const (
	Width   = 860
	Height  = 180
	Padding = 24
)

// EmptyText is shown in place of the chart when there is nothing to draw.
const EmptyText = "No points available"

// Point is one vertex of the polyline in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Chart is the computed geometry of one series.
type Chart struct {
	Empty  bool    `json:"empty"`
	Points []Point `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Span   float64 `json:"span"`
}

// Render maps values onto the canvas. The input slice is not modified.
func Render(values []float64) Chart {
	if len(values) == 0 {
		return Chart{Empty: true}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	steps := len(values) - 1
	if steps < 1 {
		steps = 1
	}
	stepX := float64(Width-2*Padding) / float64(steps)
	plotH := float64(Height - 2*Padding)

	points := make([]Point, len(values))
	for i, v := range values {
		points[i] = Point{
			X: Padding + float64(i)*stepX,
			Y: Height - Padding - ((v-lo)/span)*plotH,
		}
	}

	return Chart{Points: points, Min: lo, Max: hi, Span: span}
}

// PolylinePoints formats the vertices as an SVG points attribute.
func (c Chart) PolylinePoints() string {
	parts := make([]string, len(c.Points))
	for i, p := range c.Points {
		parts[i] = formatNumber(p.X) + "," + formatNumber(p.Y)
	}
	return strings.Join(parts, " ")
}

// SVG returns the markup for the chart. An empty chart renders the
// placeholder text instead of an svg element.
func (c Chart) SVG() string {
	if c.Empty {
		return EmptyText
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" role="img">`, Width, Height)
	fmt.Fprintf(&b, `<polyline fill="none" stroke="#0f766e" stroke-width="3" points="%s"></polyline>`, c.PolylinePoints())
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#cbd5e1"></line>`,
		Padding, Height-Padding, Width-Padding, Height-Padding)
	b.WriteString(`</svg>`)
	return b.String()
}

// HTML is SVG for embedding in html/template output. Every interpolated
// value is a formatted number, so the markup is safe as-is.
func (c Chart) HTML() template.HTML {
	if c.Empty {
		return template.HTML(`<div class="empty">` + EmptyText + `</div>`)
	}
	return template.HTML(c.SVG())
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
