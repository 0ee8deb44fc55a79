package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripline/internal/timeline"
)

func TestBuildLayoutHeadersAndGeometry(t *testing.T) {
	start := day(2026, time.June, 10)
	acts := []timeline.Activity{
		act("s", timeline.TypeStay, start, ptr(start.AddDate(0, 0, 4))),
		act("f", timeline.TypeFlight, start.Add(9*time.Hour), nil),
	}

	l, err := timeline.BuildLayout(timeline.LayoutInput{
		Activities: acts,
		Mode:       timeline.ModeDay,
		Expanded:   map[timeline.Type]bool{timeline.TypeStay: true},
		Now:        day(2026, time.June, 1),
	})
	require.NoError(t, err)

	require.NotEmpty(t, l.Columns)
	assert.NotEmpty(t, l.Columns[0].Upper, "first column always shows the coarse label")
	// The coarse label repeats exactly on month changes.
	for i := 1; i < len(l.Columns); i++ {
		changed := l.Columns[i].Start.Month() != l.Columns[i-1].Start.Month()
		assert.Equal(t, changed, l.Columns[i].Upper != "", "column %d", i)
	}

	require.Len(t, l.Groups, 2)
	assert.Equal(t, timeline.TypeFlight, l.Groups[0].Type)
	assert.Equal(t, timeline.TypeStay, l.Groups[1].Type)

	stay := l.Groups[1]
	require.Len(t, stay.Rows, 1)
	assert.Equal(t, 2, stay.RowCount())
	assert.InDelta(t, 4*l.Scale.ColumnWidth, stay.Rows[0].Width, 0.001)

	// Point-in-time flight has zero geometric width but a visual floor.
	flight := l.Groups[0].Overlay[0]
	assert.Zero(t, flight.Width)
	assert.Equal(t, timeline.MinBarWidth, flight.VisualWidth())

	assert.Equal(t, float64(len(l.Range.Columns))*l.Scale.ColumnWidth, l.GridWidth)
}

func TestBuildLayoutUnknownModeErrors(t *testing.T) {
	_, err := timeline.BuildLayout(timeline.LayoutInput{Mode: timeline.ViewMode("quarter")})
	assert.Error(t, err)
}

func TestBuildLayoutEmptyState(t *testing.T) {
	l, err := timeline.BuildLayout(timeline.LayoutInput{
		Mode: timeline.ModeDay,
		Now:  day(2026, time.August, 29),
	})
	require.NoError(t, err)
	assert.Len(t, l.Columns, 7)
	assert.Empty(t, l.Groups)
}
