package timeline

import "time"

// dragAnchor captures the gesture origin. Every Move recomputes the full
// window from the anchor, never from the previous frame, so missed frames
// cannot accumulate drift.
type dragAnchor struct {
	pointerX float64
	start    time.Time
	current  Activity
}

// DragController translates an activity's time window by a snapped delta
// while preserving its duration. State machine: idle -> dragging -> idle.
// Mouse and touch share the same transitions; only the event source
// differs.
type DragController struct {
	Scale    Scale
	Events   PointerEvents // optional global move/up listeners
	OnUpdate UpdateFunc

	anchor *dragAnchor
}

// Active reports whether a drag is in progress.
func (c *DragController) Active() bool { return c.anchor != nil }

// ActivityID returns the id of the activity being dragged, or "".
func (c *DragController) ActivityID() string {
	if c.anchor == nil {
		return ""
	}
	return c.anchor.current.ID
}

// Begin enters dragging on pointer-down over an activity bar, capturing
// the anchor. A gesture already in progress is torn down first so its
// listeners never double-fire.
func (c *DragController) Begin(a Activity, pointerX float64) {
	if c.anchor != nil {
		c.End()
	}
	c.anchor = &dragAnchor{pointerX: pointerX, start: a.Start, current: a}
	if c.Events != nil {
		c.Events.Attach(c.moveTo, c.End)
	}
}

func (c *DragController) moveTo(pointerX float64) {
	if c.anchor == nil {
		return
	}
	c.Move(c.anchor.current, pointerX)
}

// Move emits a window update for the current pointer position. The
// duration comes from current, not the anchor, so external edits made
// mid-drag are respected.
func (c *DragController) Move(current Activity, pointerX float64) {
	if c.anchor == nil {
		return
	}
	c.anchor.current = current
	delta := snapDelta(pointerX-c.anchor.pointerX, c.Scale)
	newStart := c.anchor.start.Add(delta)
	if c.OnUpdate != nil {
		c.OnUpdate(WindowUpdate{
			ID:    current.ID,
			Start: newStart,
			End:   newStart.Add(current.Duration()),
		})
	}
}

// End returns to idle: discard the anchor and release global listeners.
// The last emitted window stands; there is no implicit revert.
func (c *DragController) End() {
	if c.anchor == nil {
		return
	}
	if c.Events != nil {
		c.Events.Detach()
	}
	c.anchor = nil
}

// Cancel is End under a different entry point (escape key, teardown).
func (c *DragController) Cancel() { c.End() }
