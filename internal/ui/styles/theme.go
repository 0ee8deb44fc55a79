package styles

import (
	"github.com/charmbracelet/lipgloss"

	"tripline/internal/timeline"
)

// Theme is the color scheme for the timeline UI.
type Theme struct {
	Name string

	Foreground    lipgloss.Color
	ForegroundDim lipgloss.Color

	Primary lipgloss.Color
	Accent  lipgloss.Color

	Warning lipgloss.Color
	Error   lipgloss.Color

	Border      lipgloss.Color
	Selection   lipgloss.Color
	GridLine    lipgloss.Color
	TooltipBack lipgloss.Color

	// One bar color per activity type.
	Bars map[timeline.Type]lipgloss.Color
}

// TokyoNight is the default color theme
var TokyoNight = Theme{
	Name: "Tokyo Night",

	Foreground:    lipgloss.Color("#c0caf5"),
	ForegroundDim: lipgloss.Color("#565f89"),

	Primary: lipgloss.Color("#7aa2f7"),
	Accent:  lipgloss.Color("#7dcfff"),

	Warning: lipgloss.Color("#e0af68"),
	Error:   lipgloss.Color("#f7768e"),

	Border:      lipgloss.Color("#3b4261"),
	Selection:   lipgloss.Color("#33467c"),
	GridLine:    lipgloss.Color("#292e42"),
	TooltipBack: lipgloss.Color("#1f2335"),

	Bars: map[timeline.Type]lipgloss.Color{
		timeline.TypeFlight:    lipgloss.Color("#f7768e"),
		timeline.TypeTransport: lipgloss.Color("#e0af68"),
		timeline.TypeStay:      lipgloss.Color("#9ece6a"),
		timeline.TypeEvent:     lipgloss.Color("#7aa2f7"),
		timeline.TypeTask:      lipgloss.Color("#bb9af7"),
		timeline.TypeNote:      lipgloss.Color("#565f89"),
	},
}

// Current holds the active theme
var Current = TokyoNight

func (t Theme) Bar(typ timeline.Type) lipgloss.Color {
	if c, ok := t.Bars[typ]; ok {
		return c
	}
	return t.Primary
}

func (t Theme) Header() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
}

func (t Theme) Dim() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.ForegroundDim)
}

func (t Theme) Tooltip() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(t.Foreground).
		Background(t.TooltipBack).
		Padding(0, 1)
}

func (t Theme) Selected() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Selection).Foreground(t.Foreground)
}
