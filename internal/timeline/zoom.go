package timeline

import "math"

const (
	zoomMin  = 0.5
	zoomMax  = 3.0
	zoomStep = 0.25

	// baseWidthFactor scales the per-column share of the container when
	// deriving the base column width.
	baseWidthFactor = 1.2
)

// Zoom holds a bounded multiplier applied to column width.
type Zoom struct {
	multiplier float64
}

// NewZoom starts at the default multiplier 1.0.
func NewZoom() Zoom { return Zoom{multiplier: 1.0} }

// Multiplier returns the current value.
func (z Zoom) Multiplier() float64 {
	if z.multiplier == 0 {
		return 1.0
	}
	return z.multiplier
}

// In steps the multiplier up, clamped to the maximum.
func (z *Zoom) In() { z.set(z.Multiplier() + zoomStep) }

// Out steps the multiplier down, clamped to the minimum.
func (z *Zoom) Out() { z.set(z.Multiplier() - zoomStep) }

// Reset returns to 1.0.
func (z *Zoom) Reset() { z.multiplier = 1.0 }

func (z *Zoom) set(v float64) {
	z.multiplier = math.Min(zoomMax, math.Max(zoomMin, v))
}

// FitColumnWidth derives the effective column width for a container:
// the base width comes from the container's per-column share, floored to
// the tier minimum, then the zoom multiplier is applied and the result
// floored to whole pixels.
func FitColumnWidth(s Scale, containerWidth float64, columnCount int, z Zoom) float64 {
	base := s.ColumnWidth
	if containerWidth > 0 && columnCount > 0 {
		base = containerWidth / float64(columnCount) * baseWidthFactor
	}
	if base < s.MinColumnWidth {
		base = s.MinColumnWidth
	}
	return math.Floor(base * z.Multiplier())
}

// Apply returns a copy of the scale with the effective column width for
// the container and zoom level.
func Apply(s Scale, containerWidth float64, columnCount int, z Zoom) Scale {
	s.ColumnWidth = FitColumnWidth(s, containerWidth, columnCount, z)
	return s
}
