package timeline

import "time"

// MinBarWidth is the visual floor for rendered bars. Applied at render
// time only; the underlying geometry keeps the true width.
const MinBarWidth = 60.0

// ColumnHeader is one grid column with its two header tiers. Upper is
// empty when the coarse label does not repeat at this column.
type ColumnHeader struct {
	Start time.Time
	Upper string
	Lower string
}

// Bar is the render geometry for one activity.
type Bar struct {
	Activity Activity
	X        float64
	Width    float64
	Row      int
}

// VisualWidth is the bar width with the rendering floor applied.
func (b Bar) VisualWidth() float64 {
	if b.Width < MinBarWidth {
		return MinBarWidth
	}
	return b.Width
}

// GroupLayout is one category lane: Overlay carries every activity of the
// type for the collapsed summary row; Rows carries one bar per activity,
// populated only while the group is expanded.
type GroupLayout struct {
	Type     Type
	Expanded bool
	Overlay  []Bar
	Rows     []Bar
}

// RowCount is the number of grid rows the group occupies: the summary row
// plus one per activity when expanded.
func (g GroupLayout) RowCount() int {
	return 1 + len(g.Rows)
}

// Layout is the full render snapshot the host draws from.
type Layout struct {
	Mode        ViewMode
	Scale       Scale
	Range       DateRange
	Columns     []ColumnHeader
	Groups      []GroupLayout
	GridWidth   float64
	ContainerPx float64
}

// LayoutInput bundles everything a layout derives from.
type LayoutInput struct {
	Activities     []Activity
	Mode           ViewMode
	ContainerWidth float64
	Zoom           Zoom
	Expanded       map[Type]bool
	Now            time.Time
}

// BuildLayout computes the whole render snapshot: visible range, header
// columns and per-group bar geometry. Pure; recomputed synchronously on
// every relevant state change.
func BuildLayout(in LayoutInput) (Layout, error) {
	base, err := ScaleFor(in.Mode)
	if err != nil {
		return Layout{}, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	r := ComputeRange(in.Activities, base, in.ContainerWidth, now)
	scale := Apply(base, in.ContainerWidth, len(r.Columns), in.Zoom)

	cols := make([]ColumnHeader, 0, len(r.Columns))
	for i, c := range r.Columns {
		h := ColumnHeader{Start: c, Lower: c.Format(scale.LowerLabel)}
		var prev time.Time
		if i > 0 {
			prev = r.Columns[i-1]
		}
		if scale.ShowUpperLabel(c, prev, i == 0) {
			h.Upper = c.Format(scale.UpperLabel)
		}
		cols = append(cols, h)
	}

	groups := GroupActivities(in.Activities, in.Expanded)
	laid := make([]GroupLayout, 0, len(groups))
	for _, g := range groups {
		gl := GroupLayout{Type: g.Type, Expanded: g.Expanded}
		for _, a := range g.Activities {
			x, w := ToPixels(a.Start, a.EndOrStart(), r, scale)
			gl.Overlay = append(gl.Overlay, Bar{Activity: a, X: x, Width: w})
		}
		for i, a := range g.Rows {
			x, w := ToPixels(a.Start, a.EndOrStart(), r, scale)
			gl.Rows = append(gl.Rows, Bar{Activity: a, X: x, Width: w, Row: i})
		}
		laid = append(laid, gl)
	}

	return Layout{
		Mode:        in.Mode,
		Scale:       scale,
		Range:       r,
		Columns:     cols,
		Groups:      laid,
		GridWidth:   float64(len(r.Columns)) * scale.ColumnWidth,
		ContainerPx: in.ContainerWidth,
	}, nil
}
