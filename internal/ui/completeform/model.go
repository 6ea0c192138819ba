package completeform

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/theme"
)

// ConfirmMsg is dispatched when the user confirms completing a quest.
// PhotoPath is empty when no photo was attached.
type ConfirmMsg struct {
	Quest     model.UnifiedQuest
	PhotoPath string
}

// CancelMsg is dispatched when the user backs out.
type CancelMsg struct{}

type formBindings struct {
	photoPath string
	confirm   bool
}

// Model asks for an optional photo and a confirmation before a quest is
// marked complete.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	quest  model.UnifiedQuest
	err    string
	width  int
	height int
}

// New creates a completion form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// Start opens the form for q.
func (m *Model) Start(q model.UnifiedQuest) tea.Cmd {
	m.quest = q
	m.fb.photoPath = ""
	m.fb.confirm = true
	m.err = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Fail reopens the form with err shown, keeping the chosen path.
func (m *Model) Fail(err error) tea.Cmd {
	m.err = err.Error()
	m.fb.confirm = true
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the completion form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		if !m.fb.confirm {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		out := ConfirmMsg{Quest: m.quest, PhotoPath: strings.TrimSpace(m.fb.photoPath)}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the completion form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Complete: "+m.quest.Title) + "\n"
	content += theme.PointsStyle(m.quest.Points).Render(fmt.Sprintf("+%d pts", m.quest.Points)) + "\n\n"
	if m.err != "" {
		content += theme.ErrorStyle.Render(m.err) + "\n\n"
	}
	content += m.form.View()

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
	var fields []huh.Field
	// Recurring completions never carry a photo.
	if m.quest.Kind == model.KindSingle {
		fields = append(fields,
			huh.NewInput().
				Title("Photo").
				Description("Path to a JPEG, PNG or GIF proving it (optional)").
				Placeholder("~/Pictures/proof.jpg").
				Value(&m.fb.photoPath).
				Validate(validatePhotoPath),
		)
	}
	fields = append(fields,
		huh.NewConfirm().
			Title("Mark as complete?").
			Affirmative("Complete").
			Negative("Cancel").
			Value(&m.fb.confirm),
	)

	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(w)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}

func validatePhotoPath(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	info, err := os.Stat(ExpandPath(s))
	if err != nil {
		return fmt.Errorf("cannot read %s", s)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", s)
	}
	return nil
}
