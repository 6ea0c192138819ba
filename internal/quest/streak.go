package quest

import (
	"context"

	"github.com/nhle/quest-tracker/internal/model"
)

// maxStreakDays bounds the backward walk.
const maxStreakDays = 365

// CalculateStreak counts consecutive days, starting today and walking
// backward, on which every applicable quest was completed. A day with
// no applicable quests ends the streak.
func (e *Engine) CalculateStreak() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calculateStreak()
}

func (e *Engine) calculateStreak() int {
	today := model.StartOfDay(e.now())
	streak := 0
	for i := range maxStreakDays {
		if !Progress(e.questsForDate(today.AddDate(0, 0, -i))).Done() {
			break
		}
		streak++
	}
	return streak
}

// TotalPoints sums completed single quests plus every recorded recurring
// occurrence.
func (e *Engine) TotalPoints() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalPoints()
}

func (e *Engine) totalPoints() int {
	total := 0
	for _, q := range e.single {
		if q.Completed {
			total += q.Points
		}
	}
	for _, q := range e.recurring {
		total += q.Points * len(q.CompletedDates)
	}
	return total
}

// Stats returns the progress summary.
func (e *Engine) Stats() model.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := model.Stats{
		TotalPoints: e.totalPoints(),
		Streak:      e.calculateStreak(),
	}
	for _, q := range e.single {
		if q.Completed {
			s.CompletedCount++
		}
		if q.HasPhoto() {
			s.PhotoCount++
		}
	}
	return s
}

// StorageInfo returns the progress summary together with store usage.
func (e *Engine) StorageInfo(ctx context.Context) model.StorageInfo {
	used, quota := e.repo.Usage(ctx)
	return model.StorageInfo{UsedBytes: used, QuotaBytes: quota, Stats: e.Stats()}
}
