package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps side panels such as the calendar day detail.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// KindStyle returns a color-coded style for a quest kind label.
func KindStyle(kind string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch kind {
	case "single":
		return base.Foreground(ColorBlue)
	case "recurring":
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}

// CompletionStyle colors a quest line by completion state.
func CompletionStyle(completed bool) lipgloss.Style {
	if completed {
		return lipgloss.NewStyle().Foreground(ColorGreen).Strikethrough(true)
	}
	return lipgloss.NewStyle().Foreground(ColorWhite)
}

// PointsStyle returns a color-coded style by point value.
func PointsStyle(points int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case points >= 100:
		return base.Foreground(ColorRed)
	case points >= 50:
		return base.Foreground(ColorOrange)
	case points >= 20:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// DayStyle styles a calendar cell: done days green, partial days yellow,
// untouched days gray.
func DayStyle(total, completed int, today bool) lipgloss.Style {
	base := lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	if today {
		base = base.Underline(true).Bold(true)
	}

	switch {
	case total > 0 && completed == total:
		return base.Foreground(ColorGreen)
	case completed > 0:
		return base.Foreground(ColorYellow)
	case total > 0:
		return base.Foreground(ColorWhite)
	default:
		return base.Foreground(ColorSubtle)
	}
}

// ErrorStyle is used for inline error messages.
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorRed)

// SuccessStyle is used for confirmation messages.
var SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// DimmedStyle fades completed or inactive lines.
var DimmedStyle = lipgloss.NewStyle().Foreground(ColorGray)
