package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/backup"
	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/theme"
)

// Engine is the quest state the settings screen manages.
type Engine interface {
	backup.Source
	backup.Target
	Now() time.Time
	StorageInfo(ctx context.Context) model.StorageInfo
	SetMaxPhotos(ctx context.Context, n int) ([]string, error)
	Reset(ctx context.Context, all bool) error
}

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeView    Mode = iota // Storage summary
	ModeForm                // Action form
	ModeWorking             // Action running
)

// Actions offered by the settings form.
const (
	actionLimit    = "limit"
	actionExport   = "export"
	actionImport   = "import"
	actionReset    = "reset"
	actionResetAll = "reset-all"
)

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// ChangedMsg signals that quest state changed and views must reload.
type ChangedMsg struct{}

type infoLoadedMsg struct {
	info      model.StorageInfo
	maxPhotos int
}

type resultMsg struct {
	status  string
	err     error
	changed bool
}

type formBindings struct {
	action    string
	maxPhotos string
	path      string
	confirm   bool
}

// Model is the Bubble Tea model for storage and data settings.
type Model struct {
	mode      Mode
	engine    Engine
	keys      *keys.KeyMap
	form      *huh.Form
	fb        *formBindings
	spinner   spinner.Model
	info      model.StorageInfo
	maxPhotos int
	statusMsg string
	isError   bool
	width     int
	height    int
}

// New creates a new settings view model.
func New(e Engine, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeView,
		engine:  e,
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads storage usage on first render.
func (m Model) Init() tea.Cmd {
	return m.loadInfo()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case infoLoadedMsg:
		m.info = msg.info
		m.maxPhotos = msg.maxPhotos
		return m, nil

	case resultMsg:
		m.mode = ModeView
		m.isError = msg.err != nil
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.status
		}
		cmds := []tea.Cmd{m.loadInfo()}
		if msg.changed {
			cmds = append(cmds, func() tea.Msg { return ChangedMsg{} })
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if m.mode == ModeWorking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == ModeView {
			return m.handleViewKeys(msg)
		}
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return DoneMsg{} }
	case key.Matches(msg, m.keys.Select):
		m.fb.action = actionLimit
		m.fb.maxPhotos = strconv.Itoa(m.maxPhotos)
		m.fb.path = ""
		m.fb.confirm = false
		m.statusMsg = ""
		m.form = m.buildForm()
		m.mode = ModeForm
		return m, m.form.Init()
	}
	return m, nil
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Action").
				Options(
					huh.NewOption("Change photo limit", actionLimit),
					huh.NewOption("Export backup", actionExport),
					huh.NewOption("Import backup", actionImport),
					huh.NewOption("Delete one-time quests", actionReset),
					huh.NewOption("Delete everything", actionResetAll),
				).
				Value(&fb.action),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Photos to keep").
				Description(fmt.Sprintf("Oldest photos beyond this are deleted with their quests (%d-%d).",
					model.MinMaxPhotos, model.MaxMaxPhotos)).
				Value(&fb.maxPhotos).
				Validate(validateMaxPhotos),
		).WithHideFunc(func() bool { return fb.action != actionLimit }),
		huh.NewGroup(
			huh.NewInput().
				Title("Path").
				DescriptionFunc(func() string {
					if fb.action == actionExport {
						return "File or directory. Empty writes to the current directory."
					}
					return "Backup file to restore."
				}, &fb.action).
				Value(&fb.path).
				Validate(func(s string) error {
					if fb.action == actionImport && strings.TrimSpace(s) == "" {
						return fmt.Errorf("path is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return fb.action != actionExport && fb.action != actionImport }),
		huh.NewGroup(
			huh.NewConfirm().
				TitleFunc(func() string { return confirmTitle(fb.action) }, &fb.action).
				Affirmative("Yes").
				Negative("Cancel").
				Value(&fb.confirm),
		).WithHideFunc(func() bool {
			return fb.action != actionImport && fb.action != actionReset && fb.action != actionResetAll
		}),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func confirmTitle(action string) string {
	switch action {
	case actionImport:
		return "Replace all one-time quests with the backup?"
	case actionResetAll:
		return "Delete all quests, repeating quests and settings?"
	default:
		return "Delete all one-time quests?"
	}
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		run := m.run()
		if run == nil {
			m.mode = ModeView
			m.statusMsg = "Cancelled"
			return m, nil
		}
		m.mode = ModeWorking
		return m, tea.Batch(m.spinner.Tick, run)
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeView
		return m, nil
	}
	return m, cmd
}

// run returns the command for the chosen action, or nil when the user
// declined the confirmation.
func (m Model) run() tea.Cmd {
	e := m.engine
	fb := *m.fb
	needsConfirm := fb.action == actionImport || fb.action == actionReset || fb.action == actionResetAll
	if needsConfirm && !fb.confirm {
		return nil
	}

	return func() tea.Msg {
		ctx := context.Background()
		switch fb.action {
		case actionLimit:
			n, _ := strconv.Atoi(strings.TrimSpace(fb.maxPhotos))
			evicted, err := e.SetMaxPhotos(ctx, n)
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{
				status:  fmt.Sprintf("Photo limit set to %d, %d old quests removed", n, len(evicted)),
				changed: len(evicted) > 0,
			}
		case actionExport:
			path, err := backup.ExportFile(e, strings.TrimSpace(fb.path), e.Now())
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Exported to " + path}
		case actionImport:
			doc, err := backup.ImportFile(ctx, e, strings.TrimSpace(fb.path))
			if err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: fmt.Sprintf("Imported %d quests", len(doc.Quests)), changed: true}
		case actionReset, actionResetAll:
			if err := e.Reset(ctx, fb.action == actionResetAll); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{status: "Quests deleted", changed: true}
		}
		return resultMsg{err: fmt.Errorf("unknown action %q", fb.action)}
	}
}

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeForm:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(m.form.View())
	case ModeWorking:
		return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).
			Render(m.spinner.View() + " Working...")
	default:
		return m.viewInfo()
	}
}

func (m Model) viewInfo() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	info := m.info
	pct := 0.0
	if info.QuotaBytes > 0 {
		pct = float64(info.UsedBytes) / float64(info.QuotaBytes) * 100
	}
	fmt.Fprintf(&b, "Storage      %s / %s (%.1f%%)\n", formatBytes(info.UsedBytes), formatBytes(info.QuotaBytes), pct)
	fmt.Fprintf(&b, "Photos       %d / %d kept\n", info.PhotoCount, m.maxPhotos)
	fmt.Fprintf(&b, "Completed    %d quests\n", info.CompletedCount)
	fmt.Fprintf(&b, "Total points %d\n", info.TotalPoints)
	fmt.Fprintf(&b, "Streak       %d days\n", info.Streak)

	if m.statusMsg != "" {
		b.WriteString("\n")
		style := theme.SuccessStyle
		if m.isError {
			style = theme.ErrorStyle
		}
		b.WriteString(style.Italic(true).Render(m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter actions | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) loadInfo() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		return infoLoadedMsg{info: e.StorageInfo(context.Background()), maxPhotos: e.MaxPhotos()}
	}
}

func validateMaxPhotos(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	return model.ValidateMaxPhotos(n)
}
