package timeline

import "time"

// Edge selects which side of the window a resize moves.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

// resizeAnchor pins both edges at gesture start. The fixed edge is always
// taken from here, never from the live activity, so a resize cannot walk
// the opposite edge across frames.
type resizeAnchor struct {
	pointerX float64
	id       string
	start    time.Time
	end      time.Time
	edge     Edge
}

// ResizeController moves one edge of an activity's window independently,
// keeping the other fixed. State machine:
// idle -> resizingStart | resizingEnd -> idle.
type ResizeController struct {
	Scale    Scale
	Events   PointerEvents
	OnUpdate UpdateFunc

	anchor *resizeAnchor
}

// Active reports whether a resize is in progress.
func (c *ResizeController) Active() bool { return c.anchor != nil }

// ActivityID returns the id of the activity being resized, or "".
func (c *ResizeController) ActivityID() string {
	if c.anchor == nil {
		return ""
	}
	return c.anchor.id
}

// Begin enters the resizing state from a dedicated edge-handle
// pointer-down. Point-in-time activities anchor end at start.
func (c *ResizeController) Begin(a Activity, edge Edge, pointerX float64) {
	if c.anchor != nil {
		c.End()
	}
	c.anchor = &resizeAnchor{
		pointerX: pointerX,
		id:       a.ID,
		start:    a.Start,
		end:      a.EndOrStart(),
		edge:     edge,
	}
	if c.Events != nil {
		c.Events.Attach(c.Move, c.End)
	}
}

// Move emits an update when the dragged edge stays on its side of the
// fixed edge; overshoot past it is dropped for that frame, not clamped.
// No minimum duration beyond start < end is enforced.
func (c *ResizeController) Move(pointerX float64) {
	if c.anchor == nil {
		return
	}
	delta := snapDelta(pointerX-c.anchor.pointerX, c.Scale)
	switch c.anchor.edge {
	case EdgeStart:
		candidate := c.anchor.start.Add(delta)
		if !candidate.Before(c.anchor.end) {
			return
		}
		c.emit(candidate, c.anchor.end)
	case EdgeEnd:
		candidate := c.anchor.end.Add(delta)
		if !candidate.After(c.anchor.start) {
			return
		}
		c.emit(c.anchor.start, candidate)
	}
}

func (c *ResizeController) emit(start, end time.Time) {
	if c.OnUpdate != nil {
		c.OnUpdate(WindowUpdate{ID: c.anchor.id, Start: start, End: end})
	}
}

// End clears the anchor and releases listeners; the last emitted window
// is left intact.
func (c *ResizeController) End() {
	if c.anchor == nil {
		return
	}
	if c.Events != nil {
		c.Events.Detach()
	}
	c.anchor = nil
}

// Cancel is End reached from a cancel key or component teardown.
func (c *ResizeController) Cancel() { c.End() }
