package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/theme"
)

// Source provides the month projection.
type Source interface {
	Now() time.Time
	QuestsForMonth(year int, month time.Month) map[string][]model.UnifiedQuest
}

// MonthLoadedMsg carries the quests for every day of a month.
type MonthLoadedMsg struct {
	Year  int
	Month time.Month
	Days  map[string][]model.UnifiedQuest
}

// DaySelectedMsg is dispatched when the user opens a day.
type DaySelectedMsg struct {
	Date time.Time
}

// cellWidth is the rendered width of one day cell.
const cellWidth = 5

// Model is the month calendar view.
type Model struct {
	src    Source
	keys   *keys.KeyMap
	cursor time.Time
	days   map[string][]model.UnifiedQuest
	width  int
	height int
}

// New creates a calendar positioned on today.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	return Model{
		src:    src,
		keys:   k,
		cursor: model.StartOfDay(src.Now()),
		days:   map[string][]model.UnifiedQuest{},
		width:  width,
		height: height,
	}
}

// Cursor returns the highlighted day.
func (m Model) Cursor() time.Time {
	return m.cursor
}

// SetCursor moves the highlight to day and reloads if the month changed.
func (m *Model) SetCursor(day time.Time) tea.Cmd {
	day = model.StartOfDay(day)
	changed := day.Year() != m.cursor.Year() || day.Month() != m.cursor.Month()
	m.cursor = day
	if changed || len(m.days) == 0 {
		return m.Load()
	}
	return nil
}

// Load returns a command computing the cursor's month.
func (m Model) Load() tea.Cmd {
	src := m.src
	year, month := m.cursor.Year(), m.cursor.Month()
	return func() tea.Msg {
		return MonthLoadedMsg{Year: year, Month: month, Days: src.QuestsForMonth(year, month)}
	}
}

// Update handles messages for the calendar view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MonthLoadedMsg:
		if msg.Year == m.cursor.Year() && msg.Month == m.cursor.Month() {
			m.days = msg.Days
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.PrevDay):
			return m, m.SetCursor(m.cursor.AddDate(0, 0, -1))
		case key.Matches(msg, m.keys.NextDay):
			return m, m.SetCursor(m.cursor.AddDate(0, 0, 1))
		case key.Matches(msg, m.keys.Up):
			return m, m.SetCursor(m.cursor.AddDate(0, 0, -7))
		case key.Matches(msg, m.keys.Down):
			return m, m.SetCursor(m.cursor.AddDate(0, 0, 7))
		case key.Matches(msg, m.keys.Today):
			return m, m.SetCursor(m.src.Now())
		case key.Matches(msg, m.keys.Select):
			day := m.cursor
			return m, func() tea.Msg { return DaySelectedMsg{Date: day} }
		}
	}
	return m, nil
}

// View renders the month grid and the selected day's summary.
func (m Model) View() string {
	var b strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
		Render(m.cursor.Format("January 2006"))
	b.WriteString(title + "\n\n")

	for d := time.Sunday; d <= time.Saturday; d++ {
		b.WriteString(theme.HelpStyle.Width(cellWidth).Render(d.String()[:2]))
	}
	b.WriteString("\n")

	first := time.Date(m.cursor.Year(), m.cursor.Month(), 1, 0, 0, 0, 0, m.cursor.Location())
	b.WriteString(strings.Repeat(" ", cellWidth*int(first.Weekday())))

	today := model.DateKey(m.src.Now())
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		b.WriteString(m.renderCell(day, today))
		if day.Weekday() == time.Saturday {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderSummary())

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderCell(day time.Time, today string) string {
	dateKey := model.DateKey(day)
	quests := m.days[dateKey]
	p := quest.Progress(quests)

	marker := " "
	switch {
	case hasTopPhoto(quests):
		marker = "*"
	case p.Done():
		marker = "✓"
	case p.Total > 0:
		marker = "·"
	}

	text := fmt.Sprintf("%2d%s", day.Day(), marker)
	style := theme.DayStyle(p.Total, p.Completed, dateKey == today).Width(cellWidth)
	if day.Equal(m.cursor) {
		style = style.Reverse(true)
	}
	return style.Render(text)
}

func hasTopPhoto(quests []model.UnifiedQuest) bool {
	_, ok := quest.TopPhoto(quests)
	return ok
}

func (m Model) renderSummary() string {
	quests := m.days[model.DateKey(m.cursor)]
	p := quest.Progress(quests)

	var b strings.Builder
	b.WriteString(m.cursor.Format("Mon Jan 2"))
	fmt.Fprintf(&b, ": %d/%d completed", p.Completed, p.Total)

	if top, ok := quest.TopPhoto(quests); ok {
		b.WriteString("\n")
		line := fmt.Sprintf("Top photo: %s (+%d)", top.Title, top.Points)
		if info, err := media.Inspect(*top.Image); err == nil {
			line += fmt.Sprintf(" %dx%d, %d KB", info.Width, info.Height, info.Bytes/1024)
		}
		b.WriteString(theme.SuccessStyle.Render(line))
	}

	return theme.HelpStyle.Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
