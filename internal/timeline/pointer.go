package timeline

import (
	"math"
	"time"
)

// PointerEvents is the scoped-resource hook for global pointer tracking.
// Controllers call Attach exactly once when a gesture begins and Detach
// exactly once when it ends, on every exit path including cancellation.
// Hosts that drive Move/End themselves can leave it nil.
type PointerEvents interface {
	Attach(move func(pointerX float64), up func())
	Detach()
}

// snapDelta converts a horizontal pixel delta into a time delta at the
// scale, rounded to the snap granularity. All gesture math goes through
// here so drag and resize snap identically.
func snapDelta(deltaPx float64, s Scale) time.Duration {
	deltaTime := deltaPx / s.ColumnWidth * float64(s.Step)
	snapped := math.Round(deltaTime/float64(s.Snap)) * float64(s.Snap)
	return time.Duration(snapped)
}
