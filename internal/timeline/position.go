package timeline

import (
	"math"
	"time"
)

// ToPixels converts an activity's [start,end) window into [x,width) px
// inside the grid. No minimum width is applied; a visual floor is a
// rendering concern and must not alter the time geometry. Degenerate
// windows (end before start) come out as negative width.
func ToPixels(start, end time.Time, r DateRange, s Scale) (x, width float64) {
	if s.ByMonth {
		x = monthOffset(start, r, s)
		width = monthOffset(end, r, s) - x
		return x, width
	}
	x = float64(start.Sub(r.Start)) / float64(s.Step) * s.ColumnWidth
	width = float64(end.Sub(start)) / float64(s.Step) * s.ColumnWidth
	return x, width
}

// monthOffset positions t by interpolating inside its calendar-month
// column, since month columns have unequal spans.
func monthOffset(t time.Time, r DateRange, s Scale) float64 {
	cols := r.Columns
	if len(cols) == 0 {
		return 0
	}
	if t.Before(cols[0]) {
		return float64(t.Sub(cols[0])) / float64(s.Step) * s.ColumnWidth
	}
	for i := range cols {
		next := s.NextColumn(cols[i])
		if t.Before(next) || i == len(cols)-1 {
			frac := float64(t.Sub(cols[i])) / float64(next.Sub(cols[i]))
			return (float64(i) + frac) * s.ColumnWidth
		}
	}
	return float64(len(cols)) * s.ColumnWidth
}

// ToTime is the inverse mapping: a pixel offset inside the grid back to a
// timestamp, interpolating within the containing column. Out-of-range
// input yields ok=false rather than extrapolating.
func ToTime(px float64, r DateRange, s Scale) (time.Time, bool) {
	if px < 0 || len(r.Columns) == 0 || s.ColumnWidth <= 0 {
		return time.Time{}, false
	}
	i := int(math.Floor(px / s.ColumnWidth))
	if i >= len(r.Columns) {
		return time.Time{}, false
	}
	colStart := r.Columns[i]
	var colEnd time.Time
	if i+1 < len(r.Columns) {
		colEnd = r.Columns[i+1]
	} else {
		colEnd = s.NextColumn(colStart)
	}
	frac := px/s.ColumnWidth - float64(i)
	return colStart.Add(time.Duration(frac * float64(colEnd.Sub(colStart)))), true
}
