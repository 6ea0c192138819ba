package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/theme"
)

// chromeHeight is the header line plus the status bar line.
const chromeHeight = 2

// Layout frames the active view between a one-line header and a one-line
// status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for the given terminal size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// BodyWidth is the width handed to the active view.
func (l Layout) BodyWidth() int {
	return l.Width
}

// BodyHeight is the height left for the active view.
func (l Layout) BodyHeight() int {
	return max(l.Height-chromeHeight, 0)
}

// Header shows the title with the current streak, and the leaderboard
// status flush right.
func (l Layout) Header(title string, streak int, status string) string {
	left := title
	if streak > 0 {
		left = fmt.Sprintf("%s  🔥 %d", title, streak)
	}
	return spread(theme.HeaderStyle, l.Width, left, status)
}

// StatusBar shows key hints or the last status message on the left and
// photo usage on the right.
func (l Layout) StatusBar(hints string, photos, maxPhotos int) string {
	return spread(theme.StatusBarStyle, l.Width, hints, fmt.Sprintf("%d/%d photos", photos, maxPhotos))
}

// Frame stacks header, body and status bar.
func (l Layout) Frame(header, body, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

// spread renders left and right on a single line of width, filling the
// gap with the style's background.
func spread(style lipgloss.Style, width int, left, right string) string {
	l := style.Render(left)
	r := style.Align(lipgloss.Right).Render(right)
	gap := max(width-lipgloss.Width(l)-lipgloss.Width(r), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, l, filler, r)
}
