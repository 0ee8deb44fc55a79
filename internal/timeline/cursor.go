package timeline

import (
	"sort"
	"time"
)

// tooltipWindow surfaces point-in-time activities near the cursor even
// when nothing overlaps it. Fixed at ±30 minutes for behavioral parity
// with the original grid.
const tooltipWindow = 30 * time.Minute

// tooltipPriority ranks categories for tooltip display. Presentation
// policy, reproduced exactly; unknown types sort last.
var tooltipPriority = map[Type]int{
	TypeEvent:     0,
	TypeTransport: 1,
	TypeFlight:    2,
	TypeStay:      3,
	TypeTask:      4,
	TypeNote:      5,
}

// CursorHit is the resolver result: the exact time under the pointer and
// the activities to show in the tooltip, ranked.
type CursorHit struct {
	Time       time.Time
	Activities []Activity
}

// ResolveCursor maps a live pointer x offset to a timestamp and selects
// the activities relevant to it. ok is false when the pointer is outside
// the grid.
func ResolveCursor(pointerX float64, r DateRange, s Scale, acts []Activity) (CursorHit, bool) {
	t, ok := ToTime(pointerX, r, s)
	if !ok {
		return CursorHit{}, false
	}

	var relevant []Activity
	for _, a := range acts {
		if cursorRelevant(a, t) {
			relevant = append(relevant, a)
		}
	}
	sort.SliceStable(relevant, func(i, j int) bool {
		pi, pj := typePriority(relevant[i].Type), typePriority(relevant[j].Type)
		if pi != pj {
			return pi < pj
		}
		return startDistance(relevant[i], t) < startDistance(relevant[j], t)
	})
	return CursorHit{Time: t, Activities: relevant}, true
}

// cursorRelevant keeps activities that truly overlap t, or whose start is
// within the tooltip window of it.
func cursorRelevant(a Activity, t time.Time) bool {
	if a.End != nil && a.End.After(a.Start) {
		if !t.Before(a.Start) && t.Before(*a.End) {
			return true
		}
	}
	return startDistance(a, t) <= tooltipWindow
}

func startDistance(a Activity, t time.Time) time.Duration {
	d := a.Start.Sub(t)
	if d < 0 {
		d = -d
	}
	return d
}

func typePriority(t Type) int {
	if p, ok := tooltipPriority[t]; ok {
		return p
	}
	return len(tooltipPriority)
}
