package questform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/guard"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/theme"
)

// SubmitMsg is dispatched once per accepted submission. The receiver
// must call Finish when the quest has been created or rejected.
type SubmitMsg struct {
	Kind      model.QuestKind
	Single    quest.SingleInput
	Recurring quest.RecurringInput
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title  string
	points string
	kind   model.QuestKind
	date   string
	days   []time.Weekday
}

// Model is the Bubble Tea model for the new quest form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	submit *guard.Submission
	touch  *guard.TouchFilter
	err    string
	width  int
	height int
}

// New creates a quest form. Both guards are shared for the form's
// lifetime so repeated opens still respect the submission window.
func New(submit *guard.Submission, touch *guard.TouchFilter, width, height int) Model {
	return Model{
		fb:     &formBindings{kind: model.KindSingle},
		submit: submit,
		touch:  touch,
		width:  width,
		height: height,
	}
}

// StartCreate clears the form and defaults the date to date.
func (m *Model) StartCreate(date time.Time) tea.Cmd {
	m.fb.title = ""
	m.fb.points = ""
	m.fb.kind = model.KindSingle
	m.fb.date = model.DateKey(date)
	m.fb.days = nil
	m.err = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Finish releases the submission guard. A non-nil err keeps the entered
// values and reopens the form with the error shown.
func (m *Model) Finish(err error) tea.Cmd {
	m.submit.End()
	if err == nil {
		m.err = ""
		return nil
	}
	m.err = err.Error()
	m.form = m.buildForm()
	return m.form.Init()
}

// Submitting reports whether a submission is in flight.
func (m Model) Submitting() bool {
	return !m.submit.Enabled()
}

// Update handles messages for the quest form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// A tap reaches us as a mouse press, often followed by a
		// synthesized enter for the same action.
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.touch.Touch()
		}
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && !m.touch.AllowClick() {
			return m, nil
		}
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the quest form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Quest") + "\n"
	if m.err != "" {
		content += theme.ErrorStyle.Render(m.err) + "\n\n"
	}
	if m.Submitting() {
		content += theme.HelpStyle.Render("Saving...")
	} else {
		content += m.form.View()
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What will you do?").
				Value(&fb.title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Points").
				Placeholder(fmt.Sprintf("%d-%d", model.MinPoints, model.MaxPoints)).
				Value(&fb.points).
				Validate(validatePoints),
			huh.NewSelect[model.QuestKind]().
				Title("Type").
				Options(
					huh.NewOption("One-time", model.KindSingle),
					huh.NewOption("Repeating", model.KindRecurring),
				).
				Value(&fb.kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&fb.date).
				Validate(validateDate),
		).WithHideFunc(func() bool { return fb.kind != model.KindSingle }),
		huh.NewGroup(
			huh.NewMultiSelect[time.Weekday]().
				Title("Repeat on").
				Options(weekdayOptions()...).
				Value(&fb.days).
				Validate(func(days []time.Weekday) error {
					if len(days) == 0 {
						return fmt.Errorf("select at least one day")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return fb.kind != model.KindRecurring }),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func weekdayOptions() []huh.Option[time.Weekday] {
	opts := make([]huh.Option[time.Weekday], 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		opts = append(opts, huh.NewOption(d.String()[:3], d))
	}
	return opts
}

// handleSubmit emits SubmitMsg when the guard accepts the submission.
// Rejected submissions produce no command.
func (m Model) handleSubmit() tea.Cmd {
	if !m.submit.Begin() {
		return nil
	}

	points, _ := strconv.Atoi(strings.TrimSpace(m.fb.points))
	msg := SubmitMsg{Kind: m.fb.kind}
	if m.fb.kind == model.KindRecurring {
		msg.Recurring = quest.RecurringInput{
			Title:      m.fb.title,
			Points:     points,
			RepeatDays: append([]time.Weekday(nil), m.fb.days...),
		}
	} else {
		msg.Single = quest.SingleInput{
			Title:  m.fb.title,
			Points: points,
			Date:   m.fb.date,
		}
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePoints(s string) error {
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("points must be a whole number")
	}
	return nil
}

func validateDate(s string) error {
	if _, err := model.ParseDate(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
