package timeline

import (
	"time"

	"go.uber.org/zap"
)

// Type categorizes an activity on the timeline.
type Type string

const (
	TypeFlight    Type = "flight"
	TypeTransport Type = "transport"
	TypeStay      Type = "stay"
	TypeEvent     Type = "event"
	TypeTask      Type = "task"
	TypeNote      Type = "note"
)

// KnownTypes lists the built-in activity categories.
var KnownTypes = []Type{TypeFlight, TypeTransport, TypeStay, TypeEvent, TypeTask, TypeNote}

// DefaultDuration is assumed whenever a point-in-time activity (no end)
// needs a duration, e.g. while being dragged.
const DefaultDuration = time.Hour

// Activity is the engine's read-mostly view of a trip activity. The engine
// never mutates activities; it only emits WindowUpdate requests.
type Activity struct {
	ID    string
	Type  Type
	Title string
	City  string
	Start time.Time
	End   *time.Time // nil for point-in-time activities
}

// EndOrStart returns the end timestamp, falling back to the start for
// point-in-time activities. Used for layout, where a missing end means
// zero duration.
func (a Activity) EndOrStart() time.Time {
	if a.End != nil {
		return *a.End
	}
	return a.Start
}

// Duration returns end-start, assuming DefaultDuration when no end is set.
func (a Activity) Duration() time.Duration {
	if a.End == nil {
		return DefaultDuration
	}
	return a.End.Sub(a.Start)
}

// WindowUpdate carries a new time window for an activity, produced by a
// drag or resize gesture. The surrounding CRUD layer persists it.
type WindowUpdate struct {
	ID    string
	Start time.Time
	End   time.Time
}

// UpdateFunc receives window updates as a gesture progresses.
type UpdateFunc func(WindowUpdate)

// ParseTime parses an RFC3339 timestamp from the store. Malformed input is
// not a hard error: the grid must survive one bad record, so the fallback
// is substituted and the corruption logged.
func ParseTime(raw string, fallback time.Time, logger *zap.Logger) time.Time {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if logger != nil {
			logger.Warn("malformed activity timestamp", zap.String("value", raw), zap.Error(err))
		}
		return fallback
	}
	return t
}
