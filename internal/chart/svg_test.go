package chart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NormalizesSeries(t *testing.T) {
	c := Render([]float64{1, 5, 3})

	require.False(t, c.Empty)
	require.Len(t, c.Points, 3)
	assert.Equal(t, 1.0, c.Min)
	assert.Equal(t, 5.0, c.Max)
	assert.Equal(t, 4.0, c.Span)

	assert.Equal(t, 24.0, c.Points[0].X)
	assert.Equal(t, 836.0, c.Points[2].X)
	assert.Equal(t, 430.0, c.Points[1].X)

	// Largest value sits highest on the canvas.
	assert.Equal(t, 24.0, c.Points[1].Y)
	assert.Less(t, c.Points[1].Y, c.Points[0].Y)
	assert.Less(t, c.Points[1].Y, c.Points[2].Y)
	assert.Equal(t, 156.0, c.Points[0].Y)
	assert.Equal(t, 90.0, c.Points[2].Y)
}

func TestRender_FlatSeries(t *testing.T) {
	c := Render([]float64{2, 2})

	assert.Equal(t, 1.0, c.Span)
	require.Len(t, c.Points, 2)
	assert.Equal(t, c.Points[0].Y, c.Points[1].Y)
	assert.Equal(t, 156.0, c.Points[0].Y)
}

func TestRender_SinglePoint(t *testing.T) {
	c := Render([]float64{7})

	require.Len(t, c.Points, 1)
	assert.Equal(t, Point{X: 24, Y: 156}, c.Points[0])
	assert.Equal(t, "24,156", c.PolylinePoints())
}

func TestRender_Empty(t *testing.T) {
	for _, values := range [][]float64{nil, {}} {
		c := Render(values)
		assert.True(t, c.Empty)
		assert.Equal(t, EmptyText, c.SVG())
		assert.NotContains(t, string(c.HTML()), "polyline")
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, -1, 8}
	_ = Render(values)
	assert.Equal(t, []float64{3, -1, 8}, values)
}

func TestSVG_Markup(t *testing.T) {
	svg := Render([]float64{1, 5, 3}).SVG()

	assert.True(t, strings.HasPrefix(svg, `<svg viewBox="0 0 860 180"`))
	assert.Equal(t, 1, strings.Count(svg, "<polyline"))
	assert.Contains(t, svg, `fill="none"`)
	assert.Contains(t, svg, `points="24,156 430,24 836,90"`)
	assert.Contains(t, svg, `<line x1="24" y1="156" x2="836" y2="156"`)
}
