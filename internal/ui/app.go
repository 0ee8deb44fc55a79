// Package ui is the interactive terminal timeline.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tripline/internal/engine"
	"tripline/internal/timeline"
	"tripline/internal/ui/views"
)

type App struct {
	timeline *views.TimelineView
	width    int
	height   int
}

// NewApp builds the root model for one trip.
func NewApp(e engine.Engine, tripID string, mode timeline.ViewMode, expanded map[timeline.Type]bool) *App {
	return &App{
		timeline: views.NewTimelineView(e, tripID, mode, expanded),
	}
}

func (a *App) Init() tea.Cmd {
	return a.timeline.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		}
	}
	_, cmd := a.timeline.Update(msg)
	return a, cmd
}

func (a *App) View() string {
	return a.timeline.View()
}

// Run starts the program with mouse tracking enabled so bars can be
// dragged and hovered.
func Run(e engine.Engine, tripID string, mode timeline.ViewMode, expanded map[timeline.Type]bool) error {
	p := tea.NewProgram(NewApp(e, tripID, mode, expanded), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err := p.Run()
	return err
}
