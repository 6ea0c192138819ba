package questlist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/theme"
)

// Source is the read side of the quest engine used by the list.
type Source interface {
	Now() time.Time
	QuestsForDate(day time.Time) []model.UnifiedQuest
	DailyPoints(date string) int
	DailyPointCap() int
	Stats() model.Stats
}

// QuestsLoadedMsg is sent when the quests for a day have been computed.
type QuestsLoadedMsg struct {
	Date        time.Time
	Quests      []model.UnifiedQuest
	Stats       model.Stats
	DailyPoints int
}

// AddRequestMsg asks the parent to open the add form for Date.
type AddRequestMsg struct {
	Date time.Time
}

// CompleteRequestMsg asks the parent to open the completion form.
type CompleteRequestMsg struct {
	Quest model.UnifiedQuest
}

// DeleteRequestMsg asks the parent to confirm deleting a quest.
type DeleteRequestMsg struct {
	Quest model.UnifiedQuest
}

// RefusedMsg explains why an action was not started.
type RefusedMsg struct {
	Reason string
}

// Model is the daily quest list view.
type Model struct {
	list   list.Model
	src    Source
	keys   *keys.KeyMap
	date   time.Time
	stats  model.Stats
	points int
	width  int
	height int
}

// New creates a new quest list model showing today.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-3)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	return Model{
		list:   l,
		src:    src,
		keys:   k,
		date:   model.StartOfDay(src.Now()),
		width:  width,
		height: height,
	}
}

// Init returns a command that loads today's quests.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Date returns the day being shown.
func (m Model) Date() time.Time {
	return m.date
}

// SetDate switches to another day and reloads.
func (m *Model) SetDate(day time.Time) tea.Cmd {
	m.date = model.StartOfDay(day)
	return m.Load()
}

// SelectedQuest returns the quest under the cursor.
func (m Model) SelectedQuest() (model.UnifiedQuest, bool) {
	item, ok := m.list.SelectedItem().(QuestItem)
	if !ok {
		return model.UnifiedQuest{}, false
	}
	return item.Quest, true
}

// Update handles messages for the quest list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case QuestsLoadedMsg:
		if !msg.Date.Equal(m.date) {
			return m, nil
		}
		items := make([]list.Item, len(msg.Quests))
		for i, q := range msg.Quests {
			items[i] = QuestItem{Quest: q}
		}
		m.stats = msg.Stats
		m.points = msg.DailyPoints
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Complete):
		q, ok := m.SelectedQuest()
		if !ok {
			return m, nil
		}
		return m, m.requestComplete(q)

	case key.Matches(msg, m.keys.Delete):
		q, ok := m.SelectedQuest()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return DeleteRequestMsg{Quest: q} }

	case key.Matches(msg, m.keys.Add):
		date := m.date
		return m, func() tea.Msg { return AddRequestMsg{Date: date} }

	case key.Matches(msg, m.keys.PrevDay):
		return m, m.SetDate(m.date.AddDate(0, 0, -1))

	case key.Matches(msg, m.keys.NextDay):
		return m, m.SetDate(m.date.AddDate(0, 0, 1))

	case key.Matches(msg, m.keys.Today):
		return m, m.SetDate(m.src.Now())
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// requestComplete refuses quests that are already done, and recurring
// quests on any day but today since their completion is recorded for
// today.
func (m Model) requestComplete(q model.UnifiedQuest) tea.Cmd {
	var reason string
	switch {
	case q.Completed:
		reason = fmt.Sprintf("%q is already completed", q.Title)
	case q.Kind == model.KindRecurring && q.Date != model.DateKey(m.src.Now()):
		reason = "recurring quests can only be completed for today"
	}
	if reason != "" {
		return func() tea.Msg { return RefusedMsg{Reason: reason} }
	}
	return func() tea.Msg { return CompleteRequestMsg{Quest: q} }
}

// Load returns a tea.Cmd that computes the quests for the current day.
func (m Model) Load() tea.Cmd {
	src := m.src
	day := m.date
	return func() tea.Msg {
		return QuestsLoadedMsg{
			Date:        day,
			Quests:      src.QuestsForDate(day),
			Stats:       src.Stats(),
			DailyPoints: src.DailyPoints(model.DateKey(day)),
		}
	}
}

// View renders the day header and the quest list.
func (m Model) View() string {
	title := m.date.Format("Monday, Jan 2 2006")
	if model.DateKey(m.date) == model.DateKey(m.src.Now()) {
		title += " (today)"
	}

	summary := fmt.Sprintf(
		"%d/%d pts scheduled | total %d pts | streak %d",
		m.points, m.src.DailyPointCap(), m.stats.TotalPoints, m.stats.Streak,
	)

	header := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Padding(0, 1).Render(title),
		theme.HelpStyle.Padding(0, 1).Render(summary),
		"",
	)

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.renderEmptyState())
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
}

// renderEmptyState shows guidance text when the day has no quests.
func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-3).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render("No quests for this day.\n\nPress a to add one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-3)
}
