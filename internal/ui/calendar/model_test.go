package calendar

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
	now   time.Time
	calls []time.Month
}

func (f *fakeSource) Now() time.Time { return f.now }

func (f *fakeSource) QuestsForMonth(year int, month time.Month) map[string][]model.UnifiedQuest {
	f.calls = append(f.calls, month)
	return map[string][]model.UnifiedQuest{
		"2026-10-15": {{ID: "1", Title: "Run", Points: 30, Completed: true, Kind: model.KindSingle}},
	}
}

func newCalendar() (Model, *fakeSource) {
	src := &fakeSource{now: time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)}
	return New(src, keys.DefaultKeyMap(), 80, 24), src
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestLoadAndRender(t *testing.T) {
	m, _ := newCalendar()
	msg := m.Load()()
	loaded, ok := msg.(MonthLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, time.October, loaded.Month)

	m, _ = m.Update(loaded)
	view := m.View()
	assert.Contains(t, view, "October 2026")
	assert.Contains(t, view, "1/1 completed")
}

func TestCursorCrossesMonth(t *testing.T) {
	m, _ := newCalendar()
	m, _ = m.Update(m.Load()())

	// The third week forward crosses into November.
	m, cmd := m.Update(runeKey('j'))
	assert.Nil(t, cmd)
	m, cmd = m.Update(runeKey('j'))
	assert.Nil(t, cmd)
	assert.Equal(t, time.October, m.Cursor().Month())
	assert.Equal(t, 29, m.Cursor().Day())

	m, cmd = m.Update(runeKey('j'))
	require.NotNil(t, cmd)
	assert.Equal(t, time.November, m.Cursor().Month())

	// A stale October result does not replace November's days.
	m, _ = m.Update(MonthLoadedMsg{Year: 2026, Month: time.October, Days: map[string][]model.UnifiedQuest{"x": nil}})
	assert.NotContains(t, m.days, "x")
}

func TestSelectDay(t *testing.T) {
	m, _ := newCalendar()
	m, _ = m.Update(runeKey('l'))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	sel, ok := cmd().(DaySelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "2026-10-16", model.DateKey(sel.Date))
}
