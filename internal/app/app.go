package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/guard"
	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/remote"
	appsync "github.com/nhle/quest-tracker/internal/sync"
	"github.com/nhle/quest-tracker/internal/ui"
	"github.com/nhle/quest-tracker/internal/ui/calendar"
	"github.com/nhle/quest-tracker/internal/ui/command"
	"github.com/nhle/quest-tracker/internal/ui/completeform"
	"github.com/nhle/quest-tracker/internal/ui/friends"
	helpview "github.com/nhle/quest-tracker/internal/ui/help"
	"github.com/nhle/quest-tracker/internal/ui/questform"
	"github.com/nhle/quest-tracker/internal/ui/questlist"
	"github.com/nhle/quest-tracker/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewAdd
	ViewComplete
	ViewConfirmDelete
	ViewCalendar
	ViewFriends
	ViewSettings
	ViewHelp
	ViewCommand
)

// Deps are the services the UI drives. Remote and Poller are nil when
// the shared profile database is disabled.
type Deps struct {
	Engine *quest.Engine
	Remote remote.Collaborator
	Poller *appsync.Poller
	Config *model.AppConfig
	Logger *log.Logger
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the quest engine.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	engine       *quest.Engine
	remote       remote.Collaborator
	poller       *appsync.Poller
	photoOpts    media.Options
	logger       *log.Logger
	keys         *keys.KeyMap

	questList    questlist.Model
	questForm    questform.Model
	completeForm completeform.Model
	calendarView calendar.Model
	friendsView  friends.Model
	settingsView settings.Model
	helpView     helpview.Model
	commandView  command.Model

	deleteForm    *huh.Form
	deleteConfirm *bool
	deleting      model.UnifiedQuest

	lastSync  appsync.SyncResultMsg
	statusMsg string
	ready     bool
}

// New creates a new root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	cfg := d.Config
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	window := guard.DefaultWindow
	if cfg.Guard.WindowMS > 0 {
		window = msToDuration(cfg.Guard.WindowMS)
	}
	now := d.Engine.Now

	m := Model{
		currentView: ViewList,
		engine:      d.Engine,
		remote:      d.Remote,
		poller:      d.Poller,
		photoOpts: media.Options{
			MaxWidth:     cfg.Photos.MaxWidth,
			Quality:      cfg.Photos.Quality,
			MaxFileBytes: cfg.Photos.MaxFileBytes,
		},
		logger:        logger,
		keys:          k,
		questList:     questlist.New(d.Engine, k, 80, 24),
		questForm:     questform.New(guard.NewSubmission(window, now), guard.NewTouchFilter(window, now), 80, 24),
		completeForm:  completeform.New(80, 24),
		calendarView:  calendar.New(d.Engine, k, 80, 24),
		settingsView:  settings.New(d.Engine, k, 80, 24),
		helpView:      helpview.New(k, rulesFor(d.Engine), 80, 24),
		commandView:   command.New(80, 24),
		deleteConfirm: new(bool),
	}
	if d.Remote != nil {
		m.friendsView = friends.New(d.Remote, k, 80, 24)
	}
	return m
}

func rulesFor(e *quest.Engine) helpview.Rules {
	return helpview.Rules{
		DailyPointCap: e.DailyPointCap(),
		MinPoints:     model.MinPoints,
		MaxPoints:     model.MaxPoints,
		MaxPhotos:     e.MaxPhotos(),
	}
}

// Init returns the initial commands to load today's quests and start
// the leaderboard sync.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.questList.Init()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.BodyWidth(), m.layout.BodyHeight()
		m.questList.SetSize(w, h)
		m.questForm.SetSize(w, h)
		m.completeForm.SetSize(w, h)
		m.calendarView.SetSize(w, h)
		m.friendsView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		m.lastSync = msg
		if msg.Error != nil {
			m.logger.Warn("leaderboard sync failed", "err", msg.Error)
		}
		return m, m.poller.WaitForNextResult()

	case questlist.QuestsLoadedMsg:
		var cmd tea.Cmd
		m.questList, cmd = m.questList.Update(msg)
		return m, cmd

	case calendar.MonthLoadedMsg:
		var cmd tea.Cmd
		m.calendarView, cmd = m.calendarView.Update(msg)
		return m, cmd

	case questlist.AddRequestMsg:
		m.statusMsg = ""
		m.previousView = m.currentView
		m.currentView = ViewAdd
		return m, m.questForm.StartCreate(msg.Date)

	case questlist.CompleteRequestMsg:
		m.statusMsg = ""
		m.previousView = m.currentView
		m.currentView = ViewComplete
		return m, m.completeForm.Start(msg.Quest)

	case questlist.DeleteRequestMsg:
		m.deleting = msg.Quest
		*m.deleteConfirm = false
		m.deleteForm = m.buildDeleteForm(msg.Quest)
		m.previousView = m.currentView
		m.currentView = ViewConfirmDelete
		return m, m.deleteForm.Init()

	case questlist.RefusedMsg:
		m.statusMsg = msg.Reason
		return m, nil

	case questform.SubmitMsg:
		return m, m.createQuest(msg)

	case questform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case questCreatedMsg:
		cmd := m.questForm.Finish(msg.err)
		if msg.err != nil {
			return m, cmd
		}
		m.currentView = ViewList
		m.statusMsg = fmt.Sprintf("Added %q", msg.title)
		return m, m.reload()

	case completeform.ConfirmMsg:
		return m, m.completeQuest(msg.Quest, msg.PhotoPath)

	case completeform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case questCompletedMsg:
		if msg.err != nil {
			return m, m.completeForm.Fail(msg.err)
		}
		m.currentView = ViewList
		m.statusMsg = fmt.Sprintf("Completed %q (+%d)", msg.title, msg.points)
		if msg.evicted > 0 {
			m.statusMsg += fmt.Sprintf(", %d old photo quests removed", msg.evicted)
		}
		return m, tea.Batch(m.reload(), m.refreshSync())

	case questDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("Deleted %q", msg.title)
		}
		return m, tea.Batch(m.reload(), m.refreshSync())

	case exportedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Exported to " + msg.path
		}
		return m, nil

	case calendar.DaySelectedMsg:
		m.currentView = ViewList
		return m, m.questList.SetDate(msg.Date)

	case friends.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case friends.ChangedMsg:
		return m, m.refreshSync()

	case settings.DoneMsg:
		m.currentView = ViewList
		return m, nil

	case settings.ChangedMsg:
		m.helpView.SetRules(rulesFor(m.engine))
		return m, tea.Batch(m.reload(), m.refreshSync())

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the active view,
// and the list view's navigation keys.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopPoller()
		return m, tea.Quit, true
	}

	// Forms and the palette own every other key while open.
	switch m.currentView {
	case ViewAdd, ViewComplete, ViewConfirmDelete, ViewCommand, ViewSettings, ViewFriends:
		if m.currentView == ViewCommand && key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus(), true

	case key.Matches(msg, m.keys.Back):
		if m.currentView != ViewList {
			m.currentView = ViewList
			return m, nil, true
		}
	}

	if m.currentView != ViewList {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPoller()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Calendar):
		return m, m.openCalendar(), true

	case key.Matches(msg, m.keys.Friends):
		return m, m.openFriends(), true

	case key.Matches(msg, m.keys.Settings):
		return m, m.openSettings(), true

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshSync(), true
	}
	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.questList, cmd = m.questList.Update(msg)
	case ViewAdd:
		m.questForm, cmd = m.questForm.Update(msg)
	case ViewComplete:
		m.completeForm, cmd = m.completeForm.Update(msg)
	case ViewConfirmDelete:
		return m.updateDeleteForm(msg)
	case ViewCalendar:
		m.calendarView, cmd = m.calendarView.Update(msg)
	case ViewFriends:
		m.friendsView, cmd = m.friendsView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

func (m *Model) openCalendar() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewCalendar
	m.calendarView.SetCursor(m.questList.Date())
	return m.calendarView.Load()
}

func (m *Model) openFriends() tea.Cmd {
	if m.remote == nil {
		m.statusMsg = "Friends are off. Set remote.enabled in the config."
		return nil
	}
	m.previousView = m.currentView
	m.currentView = ViewFriends
	return m.friendsView.Init()
}

func (m *Model) openSettings() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewSettings
	return m.settingsView.Init()
}

func (m Model) refreshSync() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	return m.poller.Refresh()
}

func (m Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// reload refreshes every view that shows quest state.
func (m Model) reload() tea.Cmd {
	return tea.Batch(m.questList.Load(), m.calendarView.Load())
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	stats := m.engine.Stats()
	header := m.layout.Header("Quests", stats.Streak, m.syncStatus())
	statusBar := m.layout.StatusBar(m.keyHints(), stats.PhotoCount, m.engine.MaxPhotos())

	return m.layout.Frame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.questList.View()
	case ViewAdd:
		return m.questForm.View()
	case ViewComplete:
		return m.completeForm.View()
	case ViewConfirmDelete:
		return m.viewDeleteForm()
	case ViewCalendar:
		return m.calendarView.View()
	case ViewFriends:
		return m.friendsView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the leaderboard state.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "offline"
	}

	switch status := m.poller.Status(); status.State {
	case appsync.SyncRunning:
		return "syncing"
	case appsync.SyncError:
		return "⚠ sync failed"
	}

	if m.lastSync.NotSignedIn {
		return "not signed in"
	}
	if p := m.lastSync.Profile; p != nil {
		return fmt.Sprintf("#%d among friends | %d pts", m.lastSync.Rank, p.TotalPoints)
	}
	return "idle"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewAdd, ViewComplete, ViewConfirmDelete:
		return "enter submit | esc cancel"
	case ViewCalendar:
		return "h/l day | j/k week | t today | enter open | esc back"
	case ViewFriends, ViewSettings:
		return "esc back"
	default:
		if m.statusMsg != "" {
			return m.statusMsg
		}
		return "q quit | ? help | a add | enter complete | h/l day | m month | f friends | s settings"
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(cmd command.CommandMsg) tea.Cmd {
	switch cmd.Name {
	case "add":
		m.previousView = m.currentView
		m.currentView = ViewAdd
		return m.questForm.StartCreate(m.questList.Date())
	case "today":
		m.currentView = ViewList
		return m.questList.SetDate(m.engine.Now())
	case "month", "calendar":
		return m.openCalendar()
	case "friends":
		return m.openFriends()
	case "settings":
		return m.openSettings()
	case "sync", "refresh":
		return m.refreshSync()
	case "export":
		path := ""
		if len(cmd.Args) > 0 {
			path = cmd.Args[0]
		}
		return m.exportTo(path)
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit", "q":
		m.stopPoller()
		return tea.Quit
	default:
		m.statusMsg = fmt.Sprintf("Unknown command %q", cmd.Name)
		return nil
	}
}
