package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/quest-tracker/internal/backup"
	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/ui/completeform"
	"github.com/nhle/quest-tracker/internal/ui/questform"
)

// questCreatedMsg is sent after a create attempt.
type questCreatedMsg struct {
	title string
	err   error
}

// questCompletedMsg is sent after a completion attempt.
type questCompletedMsg struct {
	title   string
	points  int
	evicted int
	err     error
}

// questDeletedMsg is sent after a quest is deleted.
type questDeletedMsg struct {
	title string
	err   error
}

// exportedMsg is sent after an export from the command palette.
type exportedMsg struct {
	path string
	err  error
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// createQuest validates and stores the submitted quest.
func (m *Model) createQuest(sub questform.SubmitMsg) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx := context.Background()
		if sub.Kind == model.KindRecurring {
			q, err := e.CreateRecurring(ctx, sub.Recurring)
			return questCreatedMsg{title: q.Title, err: err}
		}
		q, err := e.CreateSingle(ctx, sub.Single)
		return questCreatedMsg{title: q.Title, err: err}
	}
}

// completeQuest compresses the optional photo and marks q complete. A
// photo that cannot be compressed aborts the completion.
func (m *Model) completeQuest(q model.UnifiedQuest, photoPath string) tea.Cmd {
	e := m.engine
	opts := m.photoOpts
	logger := m.logger
	return func() tea.Msg {
		var photo *media.Encoded
		if photoPath != "" && q.Kind == model.KindSingle {
			enc, err := media.CompressFile(completeform.ExpandPath(photoPath), opts)
			if err != nil {
				logger.Warn("photo rejected", "path", photoPath, "err", err)
				return questCompletedMsg{err: err}
			}
			photo = &enc
		}

		before := len(e.Single())
		done, err := e.CompleteQuest(context.Background(), q.ID, q.Kind, photo)
		if err != nil {
			return questCompletedMsg{err: err}
		}
		if !done {
			return questCompletedMsg{err: fmt.Errorf("%q is already completed", q.Title)}
		}

		return questCompletedMsg{title: q.Title, points: q.Points, evicted: max(before-len(e.Single()), 0)}
	}
}

func (m *Model) buildDeleteForm(q model.UnifiedQuest) *huh.Form {
	desc := "This one-time quest will be removed."
	if q.Kind == model.KindRecurring {
		desc = "Every past and future occurrence will be removed."
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", q.Title)).
				Description(desc).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(m.deleteConfirm),
		),
	).WithWidth(60)
}

func (m Model) updateDeleteForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.deleteForm == nil {
		return m, nil
	}
	mdl, cmd := m.deleteForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.deleteForm = f
	}
	switch m.deleteForm.State {
	case huh.StateCompleted:
		m.currentView = ViewList
		if *m.deleteConfirm {
			return m, m.deleteQuest(m.deleting)
		}
		return m, nil
	case huh.StateAborted:
		m.currentView = ViewList
		return m, nil
	}
	return m, cmd
}

func (m Model) viewDeleteForm() string {
	if m.deleteForm == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.deleteForm.View())
}

func (m Model) deleteQuest(q model.UnifiedQuest) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		err := e.Delete(context.Background(), q.ID, q.Kind)
		return questDeletedMsg{title: q.Title, err: err}
	}
}

func (m Model) exportTo(path string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		written, err := backup.ExportFile(e, completeform.ExpandPath(path), e.Now())
		return exportedMsg{path: written, err: err}
	}
}

var _ backup.Source = (*quest.Engine)(nil)
