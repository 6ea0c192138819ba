package questform

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/guard"
	"github.com/nhle/quest-tracker/internal/model"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newForm(t *testing.T) (Model, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 15, 10, 0, 0, 0, time.Local)}
	m := New(guard.NewSubmission(0, c.Now), guard.NewTouchFilter(0, c.Now), 80, 24)
	m.StartCreate(c.t)
	return m, c
}

func TestStartCreateDefaultsDate(t *testing.T) {
	m, _ := newForm(t)
	assert.Equal(t, "2026-10-15", m.fb.date)
	assert.Equal(t, model.KindSingle, m.fb.kind)
}

func TestHandleSubmitSingle(t *testing.T) {
	m, _ := newForm(t)
	m.fb.title = "Run"
	m.fb.points = " 30 "

	cmd := m.handleSubmit()
	require.NotNil(t, cmd)

	msg, ok := cmd().(SubmitMsg)
	require.True(t, ok)
	assert.Equal(t, model.KindSingle, msg.Kind)
	assert.Equal(t, "Run", msg.Single.Title)
	assert.Equal(t, 30, msg.Single.Points)
	assert.Equal(t, "2026-10-15", msg.Single.Date)
}

func TestHandleSubmitRecurring(t *testing.T) {
	m, _ := newForm(t)
	m.fb.title = "Stretch"
	m.fb.points = "10"
	m.fb.kind = model.KindRecurring
	m.fb.days = []time.Weekday{time.Monday, time.Friday}

	msg := m.handleSubmit()().(SubmitMsg)
	assert.Equal(t, model.KindRecurring, msg.Kind)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, msg.Recurring.RepeatDays)
}

func TestDuplicateSubmitIgnored(t *testing.T) {
	m, c := newForm(t)
	m.fb.title = "Run"
	m.fb.points = "30"

	require.NotNil(t, m.handleSubmit())
	assert.True(t, m.Submitting())
	assert.Nil(t, m.handleSubmit(), "in-flight submission must block a second one")

	m.Finish(nil)
	assert.False(t, m.Submitting())
	assert.Nil(t, m.handleSubmit(), "still inside the window")

	c.t = c.t.Add(guard.DefaultWindow)
	assert.NotNil(t, m.handleSubmit())
}

func TestFinishWithErrorKeepsValues(t *testing.T) {
	m, _ := newForm(t)
	m.fb.title = "Run"
	m.fb.points = "90"
	require.NotNil(t, m.handleSubmit())

	m.Finish(errors.New("daily point cap reached"))

	assert.False(t, m.Submitting())
	assert.Equal(t, "Run", m.fb.title)
	assert.Equal(t, "90", m.fb.points)
	assert.Contains(t, m.View(), "daily point cap reached")
}

func TestEnterAfterTouchDropped(t *testing.T) {
	m, c := newForm(t)

	m, _ = m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	c.t = c.t.Add(time.Second)
	assert.True(t, m.touch.AllowClick())
}

func TestValidators(t *testing.T) {
	assert.Error(t, validatePoints("ten"))
	assert.NoError(t, validatePoints("10"))
	assert.Error(t, validateDate("15/10/2026"))
	assert.NoError(t, validateDate("2026-10-15"))
	assert.Error(t, validateRequired("Title")("  "))
}
