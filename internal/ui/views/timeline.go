package views

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tripline/internal/engine"
	"tripline/internal/timeline"
	"tripline/internal/ui/styles"
)

// pxPerCell maps layout pixels onto terminal columns. The geometry code
// works in pixels; the terminal renders one cell per pxPerCell of them.
const pxPerCell = 10.0

// gridTop is the number of rows above the first group row (title + two
// header rows + separator).
const gridTop = 4

type loadedMsg struct {
	layout timeline.Layout
	err    error
}

type windowSavedMsg struct {
	err error
}

// TimelineView renders one trip's activities as draggable bars.
type TimelineView struct {
	engine engine.Engine
	tripID string

	mode     timeline.ViewMode
	zoom     timeline.Zoom
	expanded map[timeline.Type]bool

	layout  timeline.Layout
	loadErr error

	drag   timeline.DragController
	resize timeline.ResizeController
	// pending holds the latest controller output until mouse release.
	pending *timeline.WindowUpdate

	selected int // group index
	hoverX   int
	hover    *timeline.CursorHit

	width  int
	height int
	status string
}

func NewTimelineView(e engine.Engine, tripID string, mode timeline.ViewMode, expanded map[timeline.Type]bool) *TimelineView {
	v := &TimelineView{
		engine:   e,
		tripID:   tripID,
		mode:     mode,
		zoom:     timeline.NewZoom(),
		expanded: expanded,
	}
	if v.expanded == nil {
		v.expanded = map[timeline.Type]bool{}
	}
	v.drag.OnUpdate = v.stashUpdate
	v.resize.OnUpdate = v.stashUpdate
	return v
}

func (v *TimelineView) stashUpdate(u timeline.WindowUpdate) {
	v.pending = &u
}

func (v *TimelineView) Init() tea.Cmd {
	return v.reload()
}

func (v *TimelineView) reload() tea.Cmd {
	return func() tea.Msg {
		l, err := v.engine.TimelineLayout(context.Background(), engine.TimelineOptions{
			TripID:         v.tripID,
			Mode:           v.mode,
			ContainerWidth: v.containerPx(),
			Zoom:           v.zoom,
			Expanded:       v.expanded,
		})
		return loadedMsg{layout: l, err: err}
	}
}

func (v *TimelineView) containerPx() float64 {
	if v.width <= 0 {
		return 0
	}
	return float64(v.width) * pxPerCell
}

func (v *TimelineView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, v.reload()

	case loadedMsg:
		v.loadErr = msg.err
		if msg.err == nil {
			v.layout = msg.layout
			if v.selected >= len(v.layout.Groups) {
				v.selected = 0
			}
		}
		return v, nil

	case windowSavedMsg:
		if msg.err != nil {
			v.status = "save failed: " + msg.err.Error()
		} else {
			v.status = ""
		}
		return v, v.reload()

	case tea.KeyMsg:
		return v.updateKey(msg)

	case tea.MouseMsg:
		return v.updateMouse(msg)
	}
	return v, nil
}

func (v *TimelineView) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		v.mode = nextMode(v.mode)
		return v, v.reload()
	case "+", "=":
		v.zoom.In()
		return v, v.reload()
	case "-":
		v.zoom.Out()
		return v, v.reload()
	case "0":
		v.zoom.Reset()
		return v, v.reload()
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
		return v, nil
	case "down", "j":
		if v.selected < len(v.layout.Groups)-1 {
			v.selected++
		}
		return v, nil
	case "enter", " ":
		if g := v.selectedGroup(); g != nil {
			v.expanded[g.Type] = !v.expanded[g.Type]
			return v, v.reload()
		}
		return v, nil
	case "r":
		return v, v.reload()
	case "esc":
		if v.drag.Active() || v.resize.Active() {
			v.drag.Cancel()
			v.resize.Cancel()
			v.pending = nil
			v.status = ""
			return v, v.reload()
		}
		return v, nil
	}
	return v, nil
}

func nextMode(m timeline.ViewMode) timeline.ViewMode {
	for i, mode := range timeline.ViewModes {
		if mode == m {
			return timeline.ViewModes[(i+1)%len(timeline.ViewModes)]
		}
	}
	return timeline.ModeDay
}

func (v *TimelineView) selectedGroup() *timeline.GroupLayout {
	if v.selected < 0 || v.selected >= len(v.layout.Groups) {
		return nil
	}
	return &v.layout.Groups[v.selected]
}

func (v *TimelineView) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	px := float64(msg.X) * pxPerCell

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return v, nil
		}
		bar, edge, ok := v.barAt(msg.X, msg.Y)
		if !ok {
			return v, nil
		}
		if edge != nil {
			v.resize.Scale = v.layout.Scale
			v.resize.Begin(bar.Activity, *edge, px)
			v.status = "resizing " + bar.Activity.Title
		} else {
			v.drag.Scale = v.layout.Scale
			v.drag.Begin(bar.Activity, px)
			v.status = "moving " + bar.Activity.Title
		}
		return v, nil

	case tea.MouseActionMotion:
		if v.resize.Active() {
			v.resize.Move(px)
			return v, nil
		}
		if v.drag.Active() {
			if cur, ok := v.activityByID(v.drag.ActivityID()); ok {
				v.drag.Move(cur, px)
			}
			return v, nil
		}
		v.hoverX = msg.X
		v.updateHover(px)
		return v, nil

	case tea.MouseActionRelease:
		active := v.drag.Active() || v.resize.Active()
		reason := "move"
		if v.resize.Active() {
			reason = "resize"
		}
		v.drag.End()
		v.resize.End()
		if !active || v.pending == nil {
			return v, nil
		}
		u := *v.pending
		v.pending = nil
		return v, v.persistWindow(u, reason)
	}
	return v, nil
}

func (v *TimelineView) persistWindow(u timeline.WindowUpdate, reason string) tea.Cmd {
	return func() tea.Msg {
		apply := v.engine.MoveActivity
		if reason == "resize" {
			apply = v.engine.ResizeActivity
		}
		_, err := apply(context.Background(), u.ID, u.Start, &u.End, "ui")
		return windowSavedMsg{err: err}
	}
}

func (v *TimelineView) updateHover(px float64) {
	hit, ok := timeline.ResolveCursor(px, v.layout.Range, v.layout.Scale, v.allActivities())
	if !ok || len(hit.Activities) == 0 {
		v.hover = nil
		return
	}
	v.hover = &hit
}

func (v *TimelineView) allActivities() []timeline.Activity {
	var out []timeline.Activity
	for _, g := range v.layout.Groups {
		for _, b := range g.Overlay {
			out = append(out, b.Activity)
		}
	}
	return out
}

func (v *TimelineView) activityByID(id string) (timeline.Activity, bool) {
	for _, a := range v.allActivities() {
		if a.ID == id {
			return a, true
		}
	}
	return timeline.Activity{}, false
}

// barAt maps a terminal cell to a bar. A hit within one cell of either
// end of the bar counts as an edge grab for resizing.
func (v *TimelineView) barAt(x, y int) (timeline.Bar, *timeline.Edge, bool) {
	row := gridTop
	for _, g := range v.layout.Groups {
		row++ // group label line
		if y == row {
			// summary row: every overlay bar shares this line
			for _, b := range g.Overlay {
				if bar, edge, ok := hitBar(b, x); ok {
					return bar, edge, true
				}
			}
			return timeline.Bar{}, nil, false
		}
		row++
		if !g.Expanded {
			continue
		}
		for _, b := range g.Rows {
			if y != row {
				row++
				continue
			}
			return hitBar(b, x)
		}
	}
	return timeline.Bar{}, nil, false
}

// hitBar tests one bar against a terminal column. A hit on the first cell
// grabs the start edge; on the last cell of a wide bar, the end edge.
func hitBar(b timeline.Bar, x int) (timeline.Bar, *timeline.Edge, bool) {
	startCell := int(b.X / pxPerCell)
	endCell := startCell + barCells(b)
	if x < startCell || x >= endCell {
		return timeline.Bar{}, nil, false
	}
	if x == startCell {
		e := timeline.EdgeStart
		return b, &e, true
	}
	if x == endCell-1 && barCells(b) > 2 {
		e := timeline.EdgeEnd
		return b, &e, true
	}
	return b, nil, true
}

func barCells(b timeline.Bar) int {
	cells := int(b.VisualWidth() / pxPerCell)
	if cells < 1 {
		cells = 1
	}
	return cells
}

func (v *TimelineView) View() string {
	theme := styles.Current
	if v.loadErr != nil {
		return theme.Dim().Render("error: " + v.loadErr.Error())
	}
	var sb strings.Builder

	title := fmt.Sprintf("trip %s  [%s]  zoom %.2fx", v.tripID, v.mode, v.zoom.Multiplier())
	sb.WriteString(theme.Header().Render(title))
	sb.WriteString("\n")

	sb.WriteString(v.renderHeaders(theme))

	for i, g := range v.layout.Groups {
		label := string(g.Type)
		if g.Expanded {
			label = "▾ " + label
		} else {
			label = "▸ " + label
		}
		style := theme.Dim()
		if i == v.selected {
			style = theme.Selected()
		}
		sb.WriteString(style.Render(label))
		sb.WriteString("\n")
		sb.WriteString(v.renderOverlayRow(theme, g.Type, g.Overlay))
		if g.Expanded {
			for _, row := range g.Rows {
				sb.WriteString(v.renderBar(theme, g.Type, row))
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(v.renderFooter(theme))
	return sb.String()
}

func (v *TimelineView) renderHeaders(theme styles.Theme) string {
	var upper, lower strings.Builder
	for _, c := range v.layout.Columns {
		w := int(v.layout.Scale.ColumnWidth / pxPerCell)
		if w < 1 {
			w = 1
		}
		upper.WriteString(pad(c.Upper, w))
		lower.WriteString(pad(c.Lower, w))
	}
	return theme.Header().Render(upper.String()) + "\n" +
		theme.Dim().Render(lower.String()) + "\n" +
		theme.Dim().Render(strings.Repeat("─", min(v.width, int(v.layout.GridWidth/pxPerCell)))) + "\n"
}

// renderOverlayRow draws every bar of a collapsed group on one line.
// Bars arrive in start order; one that would start inside its left
// neighbour is clipped to begin where the neighbour ends.
func (v *TimelineView) renderOverlayRow(theme styles.Theme, typ timeline.Type, bars []timeline.Bar) string {
	barStyle := lipgloss.NewStyle().Background(theme.Bar(typ)).Foreground(lipgloss.Color("#1a1b26"))
	var sb strings.Builder
	cursor := 0
	for _, b := range bars {
		startCell := int(b.X / pxPerCell)
		cells := barCells(b)
		if startCell < cursor {
			cells -= cursor - startCell
			startCell = cursor
		}
		if cells < 1 {
			continue
		}
		sb.WriteString(strings.Repeat(" ", startCell-cursor))
		sb.WriteString(barStyle.Render(pad(truncate(b.Activity.Title, cells), cells)))
		cursor = startCell + cells
	}
	sb.WriteString("\n")
	return sb.String()
}

func (v *TimelineView) renderBar(theme styles.Theme, typ timeline.Type, b timeline.Bar) string {
	startCell := int(b.X / pxPerCell)
	if startCell < 0 {
		startCell = 0
	}
	cells := barCells(b)
	label := truncate(b.Activity.Title, cells)
	barStyle := lipgloss.NewStyle().Background(theme.Bar(typ)).Foreground(lipgloss.Color("#1a1b26"))
	return strings.Repeat(" ", startCell) + barStyle.Render(pad(label, cells)) + "\n"
}

func (v *TimelineView) renderFooter(theme styles.Theme) string {
	if v.status != "" {
		return theme.Tooltip().Render(v.status)
	}
	if v.hover != nil {
		parts := make([]string, 0, len(v.hover.Activities))
		for _, a := range v.hover.Activities {
			parts = append(parts, fmt.Sprintf("%s (%s)", a.Title, a.Start.Format("15:04")))
		}
		at := v.hover.Time.Format("Mon 02 Jan 15:04")
		return theme.Tooltip().Render(at + "  " + strings.Join(parts, " · "))
	}
	return theme.Dim().Render("tab: view · +/-/0: zoom · enter: expand · drag bars to move · q: quit")
}

func pad(s string, w int) string {
	if len(s) >= w {
		return s[:w]
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 1 {
		return s[:w]
	}
	return s[:w-1] + "…"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
