package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// assumedViewportWidth is used to size the column list before the real
	// container width has been measured.
	assumedViewportWidth = 1920.0

	// monthColumns is the fixed number of columns in the month tier.
	monthColumns = 12

	// defaultWindowDays is the span shown when there are no activities.
	defaultWindowDays = 7
)

// DateRange is the visible time window plus the ordered, gap-free column
// boundaries spanning it. Recomputed whenever activities or scale change.
type DateRange struct {
	Start   time.Time
	End     time.Time
	Columns []time.Time
}

// ComputeRange derives the visible window for a set of activities at a
// scale. Pure: identical inputs yield identical output.
//
// containerWidth is the measured grid width in px; pass 0 when unknown and
// the assumed viewport width sizes the minimum column count instead.
func ComputeRange(acts []Activity, s Scale, containerWidth float64, now time.Time) DateRange {
	if len(acts) == 0 {
		return defaultRange(s, now)
	}

	earliest, latest := bounds(acts)

	if s.ByMonth {
		return monthRange(earliest)
	}

	loc := earliest.Location()
	dayStart := time.Date(earliest.Year(), earliest.Month(), earliest.Day(), 0, 0, 0, 0, loc)
	start := dayStart.Add(-s.Step)
	start = start.Add(-time.Duration(s.Padding) * s.Step)
	// Month-boundary guard: keep enough lead-in for a full coarse header
	// cycle. On or before the 24th, pull back to the 25th of the previous
	// month. Fixed rule, not configurable.
	if start.Day() <= 24 {
		start = time.Date(start.Year(), start.Month()-1, 25, 0, 0, 0, 0, loc)
	}

	paddedEnd := latest.Add(time.Duration(s.Padding) * s.Step)
	minCols := minColumnsToFillViewport(s, containerWidth)

	var cols []time.Time
	for t := start; t.Before(paddedEnd) || len(cols) < minCols; t = t.Add(s.Step) {
		cols = append(cols, t)
	}
	return DateRange{
		Start:   start,
		End:     cols[len(cols)-1].Add(s.Step),
		Columns: cols,
	}
}

func defaultRange(s Scale, now time.Time) DateRange {
	loc := now.Location()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, defaultWindowDays)
	var cols []time.Time
	if s.ByMonth {
		for t := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc); t.Before(end); t = t.AddDate(0, 1, 0) {
			cols = append(cols, t)
		}
	} else {
		for t := start; t.Before(end); t = t.Add(s.Step) {
			cols = append(cols, t)
		}
	}
	return DateRange{Start: start, End: end, Columns: cols}
}

func monthRange(earliest time.Time) DateRange {
	loc := earliest.Location()
	start := time.Date(earliest.Year(), earliest.Month(), 1, 0, 0, 0, 0, loc)
	cols := make([]time.Time, 0, monthColumns)
	for i := 0; i < monthColumns; i++ {
		cols = append(cols, start.AddDate(0, i, 0))
	}
	return DateRange{
		Start:   start,
		End:     start.AddDate(0, monthColumns, 0),
		Columns: cols,
	}
}

func bounds(acts []Activity) (earliest, latest time.Time) {
	earliest = acts[0].Start
	latest = acts[0].EndOrStart()
	for _, a := range acts[1:] {
		if a.Start.Before(earliest) {
			earliest = a.Start
		}
		if end := a.EndOrStart(); end.After(latest) {
			latest = end
		}
	}
	return earliest, latest
}

func minColumnsToFillViewport(s Scale, containerWidth float64) int {
	w := containerWidth
	if w <= 0 {
		w = assumedViewportWidth
	}
	return int(math.Ceil(w / s.ColumnWidth))
}

// RangeCalculator memoizes ComputeRange on a compound key of its inputs.
// Intended for single goroutine use (UI event loop); no locking.
type RangeCalculator struct {
	key    string
	cached DateRange
}

// Compute returns the memoized range when inputs are unchanged, otherwise
// recomputes and replaces the cache entry.
func (c *RangeCalculator) Compute(acts []Activity, s Scale, containerWidth float64, now time.Time) DateRange {
	key := rangeKey(acts, s, containerWidth, now)
	if key == c.key && c.cached.Columns != nil {
		return c.cached
	}
	c.cached = ComputeRange(acts, s, containerWidth, now)
	c.key = key
	return c.cached
}

func rangeKey(acts []Activity, s Scale, containerWidth float64, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%.2f|%.2f", s.Mode, s.ColumnWidth, containerWidth)
	if len(acts) == 0 {
		// Only the empty window depends on the clock, and it rolls over at
		// local midnight, so key on the local calendar day.
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		fmt.Fprintf(&b, "|empty:%d", day.Unix())
	}
	for _, a := range acts {
		fmt.Fprintf(&b, "|%s:%d:%d", a.ID, a.Start.UnixMilli(), a.EndOrStart().UnixMilli())
	}
	return b.String()
}
