package quest

import (
	"slices"
	"time"

	"github.com/nhle/quest-tracker/internal/model"
)

// QuestsForDate returns every quest applicable to day's calendar date:
// single quests scheduled for it, then recurring quests repeating on its
// weekday, each group in collection order.
func (e *Engine) QuestsForDate(day time.Time) []model.UnifiedQuest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questsForDate(day)
}

// QuestsForDateKey is QuestsForDate for a "YYYY-MM-DD" key.
func (e *Engine) QuestsForDateKey(date string) ([]model.UnifiedQuest, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, invalid("date", "%s", err.Error())
	}
	return e.QuestsForDate(day), nil
}

func (e *Engine) questsForDate(day time.Time) []model.UnifiedQuest {
	key := model.DateKey(day)
	weekday := day.Weekday()

	var out []model.UnifiedQuest
	for _, q := range e.single {
		if q.Date != key {
			continue
		}
		uq := model.UnifiedQuest{
			ID:        q.ID,
			Title:     q.Title,
			Points:    q.Points,
			Kind:      model.KindSingle,
			Date:      key,
			Completed: q.Completed,
		}
		if q.CompletedAt != nil {
			at := *q.CompletedAt
			uq.CompletedAt = &at
		}
		if q.Image != nil {
			img := *q.Image
			uq.Image = &img
		}
		out = append(out, uq)
	}

	for _, q := range e.recurring {
		if !q.RepeatsOn(weekday) {
			continue
		}
		uq := model.UnifiedQuest{
			ID:         q.ID,
			Title:      q.Title,
			Points:     q.Points,
			Kind:       model.KindRecurring,
			Date:       key,
			RepeatDays: slices.Clone(q.RepeatDays),
		}
		if at, ok := q.CompletedOn(key); ok {
			uq.Completed = true
			uq.CompletedAt = &at
		}
		out = append(out, uq)
	}

	return out
}

// QuestsForMonth maps every date key of the month to its applicable
// quests. Days with no quests map to an empty slice.
func (e *Engine) QuestsForMonth(year int, month time.Month) map[string][]model.UnifiedQuest {
	e.mu.Lock()
	defer e.mu.Unlock()

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	days := first.AddDate(0, 1, -1).Day()

	out := make(map[string][]model.UnifiedQuest, days)
	for d := range days {
		day := first.AddDate(0, 0, d)
		qs := e.questsForDate(day)
		if qs == nil {
			qs = []model.UnifiedQuest{}
		}
		out[model.DateKey(day)] = qs
	}
	return out
}

// TopPhoto picks the photo of the highest-point completed quest among
// quests. Ties go to the first one encountered.
func TopPhoto(quests []model.UnifiedQuest) (model.UnifiedQuest, bool) {
	var best model.UnifiedQuest
	found := false
	for _, q := range quests {
		if !q.HasPhoto() {
			continue
		}
		if !found || q.Points > best.Points {
			best = q
			found = true
		}
	}
	return best, found
}

// DayProgress summarizes one day for calendar indicators.
type DayProgress struct {
	Total     int
	Completed int
}

// Done reports whether the day has quests and all of them are completed.
func (p DayProgress) Done() bool {
	return p.Total > 0 && p.Completed == p.Total
}

// Progress counts applicable and completed quests.
func Progress(quests []model.UnifiedQuest) DayProgress {
	p := DayProgress{Total: len(quests)}
	for _, q := range quests {
		if q.Completed {
			p.Completed++
		}
	}
	return p
}
