package questlist

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/model"
)

type fakeSource struct {
	now    time.Time
	quests map[string][]model.UnifiedQuest
}

func (f *fakeSource) Now() time.Time { return f.now }

func (f *fakeSource) QuestsForDate(day time.Time) []model.UnifiedQuest {
	return f.quests[model.DateKey(day)]
}

func (f *fakeSource) DailyPoints(date string) int {
	total := 0
	for _, q := range f.quests[date] {
		if q.Kind == model.KindSingle {
			total += q.Points
		}
	}
	return total
}

func (f *fakeSource) DailyPointCap() int { return 100 }

func (f *fakeSource) Stats() model.Stats { return model.Stats{TotalPoints: 30, Streak: 2} }

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(t *testing.T, quests map[string][]model.UnifiedQuest) (Model, *fakeSource) {
	t.Helper()
	src := &fakeSource{
		now:    time.Date(2024, 3, 12, 9, 0, 0, 0, time.Local),
		quests: quests,
	}
	m := New(src, keys.DefaultKeyMap(), 80, 24)
	return load(t, m), src
}

// load runs the pending load command and feeds the result back.
func load(t *testing.T, m Model) Model {
	t.Helper()
	msg := m.Load()()
	loaded, ok := msg.(QuestsLoadedMsg)
	require.True(t, ok)
	m, _ = m.Update(loaded)
	return m
}

func TestLoadShowsQuestsForToday(t *testing.T) {
	m, _ := newTestModel(t, map[string][]model.UnifiedQuest{
		"2024-03-12": {
			{ID: "1", Title: "Stretch", Points: 10, Kind: model.KindSingle, Date: "2024-03-12"},
		},
	})

	q, ok := m.SelectedQuest()
	require.True(t, ok)
	assert.Equal(t, "Stretch", q.Title)

	view := m.View()
	assert.Contains(t, view, "(today)")
	assert.Contains(t, view, "10/100 pts scheduled")
	assert.Contains(t, view, "streak 2")
}

func TestCompleteRequestsForm(t *testing.T) {
	m, _ := newTestModel(t, map[string][]model.UnifiedQuest{
		"2024-03-12": {
			{ID: "1", Title: "Stretch", Points: 10, Kind: model.KindSingle, Date: "2024-03-12"},
		},
	})

	_, cmd := m.Update(runeKey('c'))
	require.NotNil(t, cmd)
	msg, ok := cmd().(CompleteRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "1", msg.Quest.ID)
}

func TestCompleteRefusesCompletedQuest(t *testing.T) {
	m, _ := newTestModel(t, map[string][]model.UnifiedQuest{
		"2024-03-12": {
			{ID: "1", Title: "Stretch", Points: 10, Kind: model.KindSingle, Date: "2024-03-12", Completed: true},
		},
	})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(RefusedMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Reason, "already completed")
}

func TestCompleteRefusesRecurringOnOtherDay(t *testing.T) {
	recurring := model.UnifiedQuest{
		ID: "r1", Title: "Read", Points: 5, Kind: model.KindRecurring,
		RepeatDays: []time.Weekday{time.Monday, time.Tuesday},
	}
	yesterday := recurring
	yesterday.Date = "2024-03-11"
	m, _ := newTestModel(t, map[string][]model.UnifiedQuest{"2024-03-11": {yesterday}})

	cmd := m.SetDate(time.Date(2024, 3, 11, 0, 0, 0, 0, time.Local))
	m, _ = m.Update(cmd())

	_, cmd = m.Update(runeKey('c'))
	require.NotNil(t, cmd)
	msg, ok := cmd().(RefusedMsg)
	require.True(t, ok)
	assert.Contains(t, msg.Reason, "today")
}

func TestDayNavigation(t *testing.T) {
	m, src := newTestModel(t, nil)

	m, cmd := m.Update(runeKey('h'))
	require.NotNil(t, cmd)
	assert.Equal(t, "2024-03-11", model.DateKey(m.Date()))

	m, _ = m.Update(runeKey('l'))
	m, _ = m.Update(runeKey('l'))
	assert.Equal(t, "2024-03-13", model.DateKey(m.Date()))

	m, _ = m.Update(runeKey('t'))
	assert.Equal(t, model.DateKey(src.now), model.DateKey(m.Date()))
}

func TestStaleLoadIsIgnored(t *testing.T) {
	m, _ := newTestModel(t, nil)

	stale := QuestsLoadedMsg{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local),
		Quests: []model.UnifiedQuest{{ID: "9", Title: "Old"}},
	}
	m, _ = m.Update(stale)

	_, ok := m.SelectedQuest()
	assert.False(t, ok)
}

func TestAddRequestCarriesDate(t *testing.T) {
	m, _ := newTestModel(t, nil)

	_, cmd := m.Update(runeKey('a'))
	require.NotNil(t, cmd)
	msg, ok := cmd().(AddRequestMsg)
	require.True(t, ok)
	assert.Equal(t, "2024-03-12", model.DateKey(msg.Date))
}
