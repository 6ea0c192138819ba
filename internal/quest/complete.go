package quest

import (
	"context"
	"slices"
	"time"

	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
)

// CanComplete reports whether the quest can still be completed: a single
// quest that is not yet completed, or a recurring quest that repeats on
// today's weekday and is not yet completed today. A recurring quest with
// no occurrence today reports false with ErrNotScheduled.
func (e *Engine) CanComplete(id string, kind model.QuestKind) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case model.KindSingle:
		i := e.singleIndex(id)
		if i < 0 {
			return false, ErrNotFound
		}
		return !e.single[i].Completed, nil
	case model.KindRecurring:
		i := e.recurringIndex(id)
		if i < 0 {
			return false, ErrNotFound
		}
		now := e.now()
		if !e.recurring[i].RepeatsOn(now.Weekday()) {
			return false, ErrNotScheduled
		}
		_, done := e.recurring[i].CompletedOn(model.DateKey(now))
		return !done, nil
	default:
		return false, ErrNotFound
	}
}

// CompleteQuest records a completion. Photos are kept for single quests
// only. Completing an already completed quest changes nothing and
// reports false. A recurring quest is completed for today and only when
// today is one of its repeat days, otherwise ErrNotScheduled is returned.
// A single completion is followed by photo retention.
func (e *Engine) CompleteQuest(ctx context.Context, id string, kind model.QuestKind, photo *media.Encoded) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	switch kind {
	case model.KindSingle:
		i := e.singleIndex(id)
		if i < 0 {
			return false, ErrNotFound
		}
		q := &e.single[i]
		if q.Completed {
			return false, nil
		}
		q.Completed = true
		q.CompletedAt = &now
		q.Verified = true
		if photo != nil {
			img := photo.DataURL()
			q.Image = &img
		}
		e.logger.Info("completed quest", "id", id, "points", q.Points, "photo", photo != nil)

		evicted := e.enforceRetention(e.maxPhotos)
		e.persist(ctx)
		if len(evicted) > 0 {
			e.logger.Info("evicted old photo quests", "count", len(evicted), "max", e.maxPhotos)
		}
		return true, nil

	case model.KindRecurring:
		i := e.recurringIndex(id)
		if i < 0 {
			return false, ErrNotFound
		}
		key := model.DateKey(now)
		q := &e.recurring[i]
		if !q.RepeatsOn(now.Weekday()) {
			return false, ErrNotScheduled
		}
		if _, done := q.CompletedOn(key); done {
			return false, nil
		}
		if q.CompletedDates == nil {
			q.CompletedDates = map[string]time.Time{}
		}
		q.CompletedDates[key] = now
		e.logger.Info("completed recurring quest", "id", id, "date", key)
		e.persist(ctx)
		return true, nil

	default:
		return false, ErrNotFound
	}
}

// EnforceRetention keeps the maxPhotos most recently completed photo
// quests and deletes the rest entirely. It returns the evicted ids.
func (e *Engine) EnforceRetention(ctx context.Context, maxPhotos int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	evicted := e.enforceRetention(maxPhotos)
	if len(evicted) > 0 {
		e.persist(ctx)
	}
	return evicted
}

func (e *Engine) enforceRetention(maxPhotos int) []string {
	var photos []model.SingleQuest
	for _, q := range e.single {
		if q.HasPhoto() {
			photos = append(photos, q)
		}
	}
	if len(photos) <= maxPhotos {
		return nil
	}

	// Newest first; a missing completion time sorts oldest.
	slices.SortStableFunc(photos, func(a, b model.SingleQuest) int {
		switch {
		case a.CompletedAt == nil && b.CompletedAt == nil:
			return 0
		case a.CompletedAt == nil:
			return 1
		case b.CompletedAt == nil:
			return -1
		default:
			return b.CompletedAt.Compare(*a.CompletedAt)
		}
	})

	drop := make(map[string]bool, len(photos)-maxPhotos)
	evicted := make([]string, 0, len(photos)-maxPhotos)
	for _, q := range photos[max(maxPhotos, 0):] {
		drop[q.ID] = true
		evicted = append(evicted, q.ID)
	}
	e.single = slices.DeleteFunc(e.single, func(q model.SingleQuest) bool {
		return drop[q.ID]
	})
	return evicted
}

// SetMaxPhotos validates and stores a new photo limit, then applies it
// immediately. It returns the evicted ids.
func (e *Engine) SetMaxPhotos(ctx context.Context, n int) ([]string, error) {
	if err := model.ValidateMaxPhotos(n); err != nil {
		return nil, invalid("maxPhotos", "%s", err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.maxPhotos = n
	e.repo.SaveMaxPhotos(ctx, n)

	evicted := e.enforceRetention(n)
	if len(evicted) > 0 {
		e.persist(ctx)
		e.logger.Info("evicted old photo quests", "count", len(evicted), "max", n)
	}
	return evicted, nil
}
