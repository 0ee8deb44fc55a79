package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripline/internal/timeline"
)

func pxAt(t time.Time, r timeline.DateRange, s timeline.Scale) float64 {
	x, _ := timeline.ToPixels(t, t, r, s)
	return x
}

func TestCursorRankingPrefersTypePriorityOverProximity(t *testing.T) {
	s := timeline.MustScale(timeline.ModeHours)
	event := act("e", timeline.TypeEvent, at(2026, time.May, 3, 10, 0), nil)
	flight := act("f", timeline.TypeFlight, at(2026, time.May, 3, 10, 5), nil)
	acts := []timeline.Activity{flight, event}
	r := timeline.ComputeRange(acts, s, 800, at(2026, time.May, 1, 0, 0))

	hit, ok := timeline.ResolveCursor(pxAt(at(2026, time.May, 3, 10, 3), r, s), r, s, acts)
	require.True(t, ok)
	require.Len(t, hit.Activities, 2)
	// The flight starts closer to 10:03, but event outranks flight.
	assert.Equal(t, "e", hit.Activities[0].ID)
	assert.Equal(t, "f", hit.Activities[1].ID)
}

func TestCursorProximityBreaksTiesWithinType(t *testing.T) {
	s := timeline.MustScale(timeline.ModeHours)
	near := act("near", timeline.TypeTask, at(2026, time.May, 3, 10, 10), nil)
	far := act("far", timeline.TypeTask, at(2026, time.May, 3, 10, 25), nil)
	acts := []timeline.Activity{far, near}
	r := timeline.ComputeRange(acts, s, 800, at(2026, time.May, 1, 0, 0))

	hit, ok := timeline.ResolveCursor(pxAt(at(2026, time.May, 3, 10, 12), r, s), r, s, acts)
	require.True(t, ok)
	require.Len(t, hit.Activities, 2)
	assert.Equal(t, "near", hit.Activities[0].ID)
}

func TestCursorWindowFilter(t *testing.T) {
	s := timeline.MustScale(timeline.ModeHours)
	inside := act("in", timeline.TypeNote, at(2026, time.May, 3, 10, 20), nil)
	outside := act("out", timeline.TypeNote, at(2026, time.May, 3, 11, 0), nil)
	spanning := act("span", timeline.TypeStay,
		at(2026, time.May, 3, 8, 0), ptr(at(2026, time.May, 3, 18, 0)))
	acts := []timeline.Activity{inside, outside, spanning}
	r := timeline.ComputeRange(acts, s, 800, at(2026, time.May, 1, 0, 0))

	hit, ok := timeline.ResolveCursor(pxAt(at(2026, time.May, 3, 10, 0), r, s), r, s, acts)
	require.True(t, ok)

	ids := make([]string, 0, len(hit.Activities))
	for _, a := range hit.Activities {
		ids = append(ids, a.ID)
	}
	// The stay overlaps 10:00, the note at 10:20 is inside the 30 minute
	// window, the 11:00 note is not.
	assert.Equal(t, []string{"span", "in"}, ids)
}

func TestCursorDegenerateRangeNotTreatedAsOverlap(t *testing.T) {
	s := timeline.MustScale(timeline.ModeHours)
	// end < start: must not match as an overlap, only via the start window.
	bad := act("bad", timeline.TypeEvent,
		at(2026, time.May, 3, 14, 0), ptr(at(2026, time.May, 3, 12, 0)))
	acts := []timeline.Activity{bad}
	r := timeline.ComputeRange(acts, s, 800, at(2026, time.May, 1, 0, 0))

	hit, ok := timeline.ResolveCursor(pxAt(at(2026, time.May, 3, 13, 0), r, s), r, s, acts)
	require.True(t, ok)
	assert.Empty(t, hit.Activities)
}

func TestCursorOutsideGrid(t *testing.T) {
	s := timeline.MustScale(timeline.ModeHours)
	acts := []timeline.Activity{act("a", timeline.TypeEvent, at(2026, time.May, 3, 10, 0), nil)}
	r := timeline.ComputeRange(acts, s, 800, at(2026, time.May, 1, 0, 0))

	_, ok := timeline.ResolveCursor(-5, r, s, acts)
	assert.False(t, ok)
}
