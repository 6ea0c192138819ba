package help

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/theme"
)

// Rules are the quest limits shown under the shortcuts.
type Rules struct {
	DailyPointCap int
	MinPoints     int
	MaxPoints     int
	MaxPhotos     int
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	rules  Rules
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, rules Rules, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		rules:  rules,
		width:  width,
		height: height,
	}
}

// SetRules refreshes the limits, for example after the photo limit changed.
func (m *Model) SetRules(r Rules) {
	m.rules = r
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	rules := theme.HelpStyle.Render(fmt.Sprintf(
		"Quests are worth %d to %d points. Single quests may add up to %d points per day.\n"+
			"Only the %d most recent completion photos are kept; older photo quests are removed.\n"+
			"The streak counts back from today and stops at the first day that is not fully done.",
		m.rules.MinPoints, m.rules.MaxPoints, m.rules.DailyPointCap, m.rules.MaxPhotos,
	))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Rules"),
		rules,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
