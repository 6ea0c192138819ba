package questlist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/theme"
)

// QuestItem wraps a model.UnifiedQuest so it can be used in a bubbles/list.
type QuestItem struct {
	Quest model.UnifiedQuest
}

// FilterValue returns the string used for fuzzy filtering.
func (i QuestItem) FilterValue() string { return i.Quest.Title }

// Title returns the quest title for the list.
func (i QuestItem) Title() string { return i.Quest.Title }

// Description returns a short summary line for the list.
func (i QuestItem) Description() string {
	if i.Quest.Kind == model.KindRecurring {
		return fmt.Sprintf("%d pts | %s", i.Quest.Points, model.WeekdaysLabel(i.Quest.RepeatDays))
	}
	return fmt.Sprintf("%d pts | %s", i.Quest.Points, i.Quest.Date)
}

// ItemDelegate implements list.ItemDelegate for rendering quest lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single quest line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	qi, ok := item.(QuestItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(qi.Quest, index == m.Index()))
}

func renderLine(q model.UnifiedQuest, selected bool) string {
	prefix := "○"
	if q.Completed {
		prefix = "✓"
	}

	kind := "ONE"
	if q.Kind == model.KindRecurring {
		kind = "REP"
	}
	badge := theme.KindStyle(string(q.Kind)).Render(kind)
	points := theme.PointsStyle(q.Points).Render(fmt.Sprintf("+%d", q.Points))

	title := theme.CompletionStyle(q.Completed).Render(q.Title)

	extra := ""
	if q.HasPhoto() {
		extra = theme.DimmedStyle.Render("  [photo]")
	}
	if q.Completed && q.CompletedAt != nil {
		extra += theme.DimmedStyle.Render("  " + q.CompletedAt.Format("15:04"))
	}

	line := fmt.Sprintf("%s %s %s %s%s", prefix, badge, points, title, extra)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
