package friends

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/keys"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/remote"
	"github.com/nhle/quest-tracker/internal/theme"
)

// CloseMsg signals the parent to close the friends view.
type CloseMsg struct{}

// ChangedMsg signals that friendships changed and the leaderboard
// should be synced.
type ChangedMsg struct{}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmRemove
)

type formBindings struct {
	code    string
	confirm bool
}

type loadedMsg struct {
	profile     *model.Profile
	leaderboard []model.LeaderboardEntry
	requests    []model.FriendRequest
	err         error
}

type actionMsg struct {
	status string
	err    error
}

// row is one selectable line: either an incoming request or a
// leaderboard entry.
type row struct {
	request *model.FriendRequest
	entry   *model.LeaderboardEntry
}

// Model is the Bubble Tea model for friends and the leaderboard.
type Model struct {
	mode        mode
	remote      remote.Collaborator
	keys        *keys.KeyMap
	profile     *model.Profile
	leaderboard []model.LeaderboardEntry
	requests    []model.FriendRequest
	selectedIdx int
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new friends model.
func New(c remote.Collaborator, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		remote: c,
		keys:   k,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Init loads the profile, requests and leaderboard.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) rows() []row {
	rows := make([]row, 0, len(m.requests)+len(m.leaderboard))
	for i := range m.requests {
		rows = append(rows, row{request: &m.requests[i]})
	}
	for i := range m.leaderboard {
		rows = append(rows, row{entry: &m.leaderboard[i]})
	}
	return rows
}

func (m Model) selected() (row, bool) {
	rows := m.rows()
	if m.selectedIdx < 0 || m.selectedIdx >= len(rows) {
		return row{}, false
	}
	return rows[m.selectedIdx], true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.statusMsg = describe(msg.err)
			m.profile = nil
			m.leaderboard = nil
			m.requests = nil
			return m, nil
		}
		m.profile = msg.profile
		m.leaderboard = msg.leaderboard
		m.requests = msg.requests
		if n := len(m.rows()); m.selectedIdx >= n {
			m.selectedIdx = max(n-1, 0)
		}
		return m, nil

	case actionMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = "Error: " + describe(msg.err)
			return m, m.load()
		}
		m.statusMsg = msg.status
		return m, tea.Batch(m.load(), func() tea.Msg { return ChangedMsg{} })

	case tea.KeyMsg:
		switch m.mode {
		case modeList:
			return m.handleListKey(msg)
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmRemove:
			return m.updateConfirm(msg)
		}
	}

	switch m.mode {
	case modeAdd:
		return m.updateAdd(msg)
	case modeConfirmRemove:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	n := len(m.rows())
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if n > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = n - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.statusMsg = ""
		return m, m.load()

	case key.Matches(msg, m.keys.Add):
		if m.profile == nil {
			return m, nil
		}
		m.fb.code = ""
		m.form = m.buildAddForm()
		m.mode = modeAdd
		return m, m.form.Init()

	case msg.String() == "y", key.Matches(msg, m.keys.Select):
		r, ok := m.selected()
		if !ok || r.request == nil {
			return m, nil
		}
		return m, m.accept(*r.request)

	case msg.String() == "x":
		r, ok := m.selected()
		if !ok || r.request == nil {
			return m, nil
		}
		return m, m.reject(*r.request)

	case key.Matches(msg, m.keys.Delete):
		r, ok := m.selected()
		if !ok || r.entry == nil || r.entry.IsSelf {
			return m, nil
		}
		m.fb.confirm = false
		m.form = m.buildConfirmForm(r.entry.Profile.DisplayName)
		m.mode = modeConfirmRemove
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) buildAddForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Friend code").
				Description("Ask your friend for the code shown on their friends screen.").
				Placeholder("ABC123").
				Value(&m.fb.code).
				Validate(func(s string) error {
					if strings.TrimSpace(strings.TrimPrefix(s, "#")) == "" {
						return fmt.Errorf("code is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm(name string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Remove %s from friends?", name)).
				Description("You will both disappear from each other's leaderboard.").
				Affirmative("Yes, remove").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateAdd(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		return m, m.sendRequest(m.fb.code)
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		r, ok := m.selected()
		if m.fb.confirm && ok && r.entry != nil {
			return m, m.removeFriend(r.entry.Profile)
		}
		return m, nil
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the friends screen.
func (m Model) View() string {
	switch m.mode {
	case modeAdd, modeConfirmRemove:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Friends"))
	b.WriteString("\n\n")

	if m.profile == nil {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Not signed in. Run `quests login <name>` to join the leaderboard."))
	} else {
		b.WriteString(theme.HelpStyle.Render(fmt.Sprintf(
			"%s | code #%s | %d pts | streak %d",
			m.profile.DisplayName, m.profile.FriendCode, m.profile.TotalPoints, m.profile.Streak,
		)))
		b.WriteString("\n\n")
		m.writeRows(&b)
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"a add | y accept | x reject | d remove | r refresh | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) writeRows(b *strings.Builder) {
	for i, r := range m.rows() {
		if i == 0 && r.request != nil {
			b.WriteString(theme.DimmedStyle.Render("Requests"))
			b.WriteString("\n")
		}
		if r.entry != nil && (i == 0 || m.rows()[i-1].request != nil) {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(theme.DimmedStyle.Render("Leaderboard"))
			b.WriteString("\n")
		}

		var label string
		if r.request != nil {
			label = fmt.Sprintf("+ %s wants to be friends", r.request.FromName)
		} else {
			e := r.entry
			label = fmt.Sprintf("%2d. %-20s %6d pts  streak %d", e.Rank, e.Profile.DisplayName, e.Profile.TotalPoints, e.Profile.Streak)
			if e.IsSelf {
				label += " (you)"
			}
		}

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
}

// SetSize updates dimensions.
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

func describe(err error) string {
	switch {
	case errors.Is(err, remote.ErrNotSignedIn):
		return "Not signed in"
	case errors.Is(err, remote.ErrProfileNotFound):
		return "No profile with that code"
	case errors.Is(err, remote.ErrAlreadyFriends):
		return "Already friends"
	case errors.Is(err, remote.ErrSelfRequest):
		return "That is your own code"
	case errors.Is(err, remote.ErrRequestNotFound):
		return "Request no longer exists"
	}
	return err.Error()
}

func (m Model) load() tea.Cmd {
	c := m.remote
	return func() tea.Msg {
		ctx := context.Background()
		profile, err := c.GetProfile(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		board, err := c.Leaderboard(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		reqs, err := c.ListPendingRequests(ctx)
		if err != nil {
			return loadedMsg{err: err}
		}
		return loadedMsg{profile: profile, leaderboard: board, requests: reqs}
	}
}

func (m Model) sendRequest(code string) tea.Cmd {
	c := m.remote
	return func() tea.Msg {
		ctx := context.Background()
		target, err := c.FindByFriendCode(ctx, code)
		if err != nil {
			return actionMsg{err: err}
		}
		if err := c.SendFriendRequest(ctx, target.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("Request sent to %s", target.DisplayName)}
	}
}

func (m Model) accept(req model.FriendRequest) tea.Cmd {
	c := m.remote
	return func() tea.Msg {
		err := c.AcceptRequest(context.Background(), req.ID)
		return actionMsg{status: fmt.Sprintf("You and %s are now friends", req.FromName), err: err}
	}
}

func (m Model) reject(req model.FriendRequest) tea.Cmd {
	c := m.remote
	return func() tea.Msg {
		err := c.RejectRequest(context.Background(), req.ID)
		return actionMsg{status: "Request declined", err: err}
	}
}

func (m Model) removeFriend(p model.Profile) tea.Cmd {
	c := m.remote
	return func() tea.Msg {
		err := c.RemoveFriend(context.Background(), p.ID)
		return actionMsg{status: fmt.Sprintf("Removed %s", p.DisplayName), err: err}
	}
}
