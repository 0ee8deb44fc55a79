package ics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripline/internal/ics"
)

const sampleCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:solo-1\r\n" +
	"SUMMARY:Museum visit\r\n" +
	"LOCATION:Tokyo National Museum\\, Ueno\r\n" +
	"DTSTART:20260602T090000Z\r\n" +
	"DTEND:20260602T110000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:daily-1\r\n" +
	"SUMMARY:Morning run\r\n" +
	"DTSTART:20260601T070000Z\r\n" +
	"DTEND:20260601T080000Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:allday-1\r\n" +
	"SUMMARY:Travel day\r\n" +
	"DTSTART;VALUE=DATE:20260605\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func window() (time.Time, time.Time) {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
}

func TestParseCalendar(t *testing.T) {
	entries, err := ics.Parse([]byte(sampleCalendar), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byUID := map[string]ics.Entry{}
	for _, e := range entries {
		byUID[e.UID] = e
	}
	solo := byUID["solo-1"]
	require.Equal(t, "Museum visit", solo.Summary)
	require.Equal(t, time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC), solo.Start.UTC())
	require.False(t, solo.AllDay)

	require.Equal(t, "FREQ=DAILY;COUNT=5", byUID["daily-1"].RawRRule)
	require.True(t, byUID["allday-1"].AllDay)
}

func TestExpandRecurrenceWithinWindow(t *testing.T) {
	entries, err := ics.Parse([]byte(sampleCalendar), zap.NewNop())
	require.NoError(t, err)

	from, to := window()
	occ, err := ics.Expand(entries, from, to, zap.NewNop())
	require.NoError(t, err)

	var runs []ics.Occurrence
	for _, o := range occ {
		if o.Summary == "Morning run" {
			runs = append(runs, o)
		}
	}
	require.Len(t, runs, 5)
	require.Equal(t, time.Date(2026, 6, 1, 7, 0, 0, 0, time.UTC), runs[0].Start.UTC())
	require.NotNil(t, runs[0].End)
	require.Equal(t, time.Hour, runs[0].End.Sub(runs[0].Start))

	// each instance gets its own key
	seen := map[string]bool{}
	for _, o := range runs {
		require.False(t, seen[o.Key], "duplicate key %s", o.Key)
		seen[o.Key] = true
	}
}

func TestExpandAllDayAndWindowFilter(t *testing.T) {
	entries, err := ics.Parse([]byte(sampleCalendar), zap.NewNop())
	require.NoError(t, err)

	from, to := window()
	occ, err := ics.Expand(entries, from, to, zap.NewNop())
	require.NoError(t, err)

	var travel *ics.Occurrence
	for i := range occ {
		if occ[i].Summary == "Travel day" {
			travel = &occ[i]
		}
	}
	require.NotNil(t, travel)
	require.Equal(t, 0, travel.Start.Hour())
	require.NotNil(t, travel.End)
	require.Equal(t, 24*time.Hour, travel.End.Sub(travel.Start))

	// a window far in the past excludes everything
	past, err := ics.Expand(entries, from.AddDate(-1, 0, 0), to.AddDate(-1, 0, 0), zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, past)
}

func TestExpandRejectsInvertedWindow(t *testing.T) {
	from, to := window()
	_, err := ics.Expand(nil, to, from, zap.NewNop())
	require.Error(t, err)
}
