package timeline

import (
	"fmt"
	"time"
)

// ViewMode names a zoom tier.
type ViewMode string

const (
	ModeHours ViewMode = "hours"
	ModeDay   ViewMode = "day"
	ModeMonth ViewMode = "month"
)

// ViewModes lists the supported tiers, finest first.
var ViewModes = []ViewMode{ModeHours, ModeDay, ModeMonth}

// Scale describes one zoom tier: the time span per column, its pixel width,
// lead-in padding, snap granularity and header label rules. Immutable per
// tier; column width is the only part recomputed from the container.
type Scale struct {
	Mode        ViewMode
	Step        time.Duration // span of one column; drag/snap math in month mode too
	ColumnWidth float64       // px
	Padding     int           // extra columns before/after the activity range
	Snap        time.Duration // drag/resize deltas round to this
	ByMonth     bool          // columns advance by calendar month, not Step

	UpperLabel string // coarse header tier, Go time layout
	LowerLabel string // fine header tier, Go time layout

	MinColumnWidth float64 // floor when fitting to a container
}

// Validate checks the scale invariants.
func (s Scale) Validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("scale %s: step must be positive", s.Mode)
	}
	if s.ColumnWidth <= 0 {
		return fmt.Errorf("scale %s: column width must be positive", s.Mode)
	}
	if s.Snap <= 0 {
		return fmt.Errorf("scale %s: snap must be positive", s.Mode)
	}
	return nil
}

// ShowUpperLabel reports whether the coarse header repeats at cur. The
// first column always shows it; afterwards only when the coarse unit
// (month, or year in month mode) changes.
func (s Scale) ShowUpperLabel(cur, prev time.Time, first bool) bool {
	if first {
		return true
	}
	if s.ByMonth {
		return cur.Year() != prev.Year()
	}
	return cur.Month() != prev.Month() || cur.Year() != prev.Year()
}

// NextColumn returns the start of the column after t.
func (s Scale) NextColumn(t time.Time) time.Time {
	if s.ByMonth {
		return t.AddDate(0, 1, 0)
	}
	return t.Add(s.Step)
}

var scales = map[ViewMode]Scale{
	ModeHours: {
		Mode:           ModeHours,
		Step:           time.Hour,
		ColumnWidth:    40,
		Padding:        12,
		Snap:           15 * time.Minute,
		UpperLabel:     "Mon Jan 2",
		LowerLabel:     "15:04",
		MinColumnWidth: 30,
	},
	ModeDay: {
		Mode:           ModeDay,
		Step:           24 * time.Hour,
		ColumnWidth:    60,
		Padding:        2,
		Snap:           30 * time.Minute,
		UpperLabel:     "January 2006",
		LowerLabel:     "2",
		MinColumnWidth: 30,
	},
	ModeMonth: {
		Mode:           ModeMonth,
		Step:           30 * 24 * time.Hour, // nominal month, for snap/drag math only
		ColumnWidth:    120,
		Padding:        0,
		Snap:           24 * time.Hour,
		ByMonth:        true,
		UpperLabel:     "2006",
		LowerLabel:     "Jan",
		MinColumnWidth: 100,
	},
}

// ScaleFor returns the config for a view mode.
func ScaleFor(mode ViewMode) (Scale, error) {
	s, ok := scales[mode]
	if !ok {
		return Scale{}, fmt.Errorf("unknown view mode %q", mode)
	}
	return s, nil
}

// MustScale is ScaleFor for the built-in modes.
func MustScale(mode ViewMode) Scale {
	s, err := ScaleFor(mode)
	if err != nil {
		panic(err)
	}
	return s
}
