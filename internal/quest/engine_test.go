package quest_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/media"
	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/quest"
	"github.com/nhle/quest-tracker/internal/store"
	"github.com/nhle/quest-tracker/tests/testutil"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *clock) Set(y int, m time.Month, d int) {
	c.t = time.Date(y, m, d, 10, 0, 0, 0, time.Local)
}

// Thursday.
func newClock() *clock {
	return &clock{t: time.Date(2026, time.October, 15, 10, 0, 0, 0, time.Local)}
}

func newEngine(t *testing.T, c *clock) (*quest.Engine, *store.QuestRepository) {
	t.Helper()
	repo, _ := testutil.NewTestRepository(t, 0, model.StorageModeSnapshot)
	e := quest.New(context.Background(), repo, quest.Options{
		Now:    c.Now,
		Logger: testutil.DiscardLogger(),
	})
	return e, repo
}

func testPhoto(t *testing.T) *media.Encoded {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4))))
	enc, err := media.Compress(buf.Bytes(), "image/png", media.DefaultOptions())
	require.NoError(t, err)
	return &enc
}

func TestCreateSingleValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		in    quest.SingleInput
		field string
	}{
		{"empty title wins over bad points", quest.SingleInput{Title: "  ", Points: 5, Date: "2026-10-15"}, "title"},
		{"points below range", quest.SingleInput{Title: "Run", Points: 9, Date: "2026-10-15"}, "points"},
		{"points above range", quest.SingleInput{Title: "Run", Points: 1001, Date: "2026-10-15"}, "points"},
		{"missing date", quest.SingleInput{Title: "Run", Points: 10}, "date"},
		{"bad date", quest.SingleInput{Title: "Run", Points: 10, Date: "2026/10/15"}, "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, newClock())
			_, err := e.CreateSingle(ctx, tt.in)

			var ve *quest.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, quest.IsValidation(err))
			assert.Empty(t, e.Single())
		})
	}
}

func TestDailyPointCap(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newClock())

	_, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 60, Date: "2026-10-15"})
	require.NoError(t, err)

	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Gym", Points: 50, Date: "2026-10-15"})
	var capErr *quest.DailyCapError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 60, capErr.Current)
	assert.Equal(t, 40, capErr.Remaining)
	assert.Len(t, e.Single(), 1)

	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Gym", Points: 40, Date: "2026-10-15"})
	require.NoError(t, err)
	assert.Equal(t, 100, e.DailyPoints("2026-10-15"))

	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Walk", Points: 10, Date: "2026-10-15"})
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Remaining)
	assert.Contains(t, err.Error(), "already reached")

	// Other dates and recurring quests are unaffected.
	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Walk", Points: 100, Date: "2026-10-16"})
	require.NoError(t, err)
	_, err = e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 500, RepeatDays: []time.Weekday{time.Thursday}})
	require.NoError(t, err)
}

func TestCreateRecurring(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newClock())

	_, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 20})
	var ve *quest.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "repeatDays", ve.Field)

	_, err = e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 20, RepeatDays: []time.Weekday{7}})
	require.ErrorAs(t, err, &ve)

	q, err := e.CreateRecurring(ctx, quest.RecurringInput{
		Title:      " Stretch ",
		Points:     20,
		RepeatDays: []time.Weekday{time.Friday, time.Monday, time.Friday},
	})
	require.NoError(t, err)
	assert.Equal(t, "Stretch", q.Title)
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, q.RepeatDays)
	assert.NotNil(t, q.CompletedDates)
}

func TestIDsAreUniqueWithinAMillisecond(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)

	a, err := e.CreateSingle(ctx, quest.SingleInput{Title: "A", Points: 10, Date: "2026-10-15"})
	require.NoError(t, err)
	b, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "B", Points: 10, RepeatDays: []time.Weekday{time.Monday}})
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprint(c.t.UnixMilli()), a.ID)
	assert.Equal(t, fmt.Sprint(c.t.UnixMilli()+1), b.ID)
}

func TestQuestsForDateOrderAndProjection(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newClock())

	r, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 20, RepeatDays: []time.Weekday{time.Thursday}})
	require.NoError(t, err)
	_, err = e.CreateRecurring(ctx, quest.RecurringInput{Title: "Swim", Points: 20, RepeatDays: []time.Weekday{time.Friday}})
	require.NoError(t, err)
	s1, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 30, Date: "2026-10-15"})
	require.NoError(t, err)
	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Other day", Points: 30, Date: "2026-10-16"})
	require.NoError(t, err)
	s2, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Write", Points: 30, Date: "2026-10-15"})
	require.NoError(t, err)

	got, err := e.QuestsForDateKey("2026-10-15")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{s1.ID, s2.ID, r.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, model.KindRecurring, got[2].Kind)

	got[0].Title = "mutated"
	assert.Equal(t, "Read", e.QuestsForDate(newClock().t)[0].Title)

	_, err = e.QuestsForDateKey("15.10.2026")
	assert.True(t, quest.IsValidation(err))
}

func TestRecurringOccurrenceIndependence(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)

	r, err := e.CreateRecurring(ctx, quest.RecurringInput{
		Title:      "Stretch",
		Points:     20,
		RepeatDays: []time.Weekday{time.Monday, time.Tuesday},
	})
	require.NoError(t, err)

	c.Set(2026, time.October, 12) // Monday
	ok, err := e.CompleteQuest(ctx, r.ID, model.KindRecurring, testPhoto(t))
	require.NoError(t, err)
	assert.True(t, ok)

	monday := e.QuestsForDate(c.t)
	require.Len(t, monday, 1)
	assert.True(t, monday[0].Completed)
	assert.Nil(t, monday[0].Image)

	tuesday := e.QuestsForDate(c.t.AddDate(0, 0, 1))
	require.Len(t, tuesday, 1)
	assert.False(t, tuesday[0].Completed)

	ok, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
	require.NoError(t, err)
	assert.False(t, ok, "second completion on the same day is a no-op")

	c.Set(2026, time.October, 13)
	can, err := e.CanComplete(r.ID, model.KindRecurring)
	require.NoError(t, err)
	assert.True(t, can)

	ok, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, e.Recurring()[0].CompletedDates, 2)
}

func TestCompleteSingle(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)

	q, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 30, Date: "2026-10-15"})
	require.NoError(t, err)

	_, err = e.CompleteQuest(ctx, "missing", model.KindSingle, nil)
	require.ErrorIs(t, err, quest.ErrNotFound)
	_, err = e.CompleteQuest(ctx, q.ID, model.KindRecurring, nil)
	require.ErrorIs(t, err, quest.ErrNotFound)

	ok, err := e.CompleteQuest(ctx, q.ID, model.KindSingle, testPhoto(t))
	require.NoError(t, err)
	assert.True(t, ok)

	got := e.Single()[0]
	assert.True(t, got.Completed)
	assert.True(t, got.Verified)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(c.t))
	require.NotNil(t, got.Image)
	assert.Contains(t, *got.Image, "data:image/jpeg;base64,")

	c.Advance(time.Hour)
	ok, err = e.CompleteQuest(ctx, q.ID, model.KindSingle, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, e.Single()[0].CompletedAt.Equal(c.t.Add(-time.Hour)))
	assert.NotNil(t, e.Single()[0].Image)

	can, err := e.CanComplete(q.ID, model.KindSingle)
	require.NoError(t, err)
	assert.False(t, can)
}

func TestRetentionEvictsOldestPhotos(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)
	photo := testPhoto(t)

	// Completed without a photo, and before every photo quest.
	plain, err := e.CreateSingle(ctx, quest.SingleInput{Title: "plain", Points: 10, Date: "2026-09-01"})
	require.NoError(t, err)
	_, err = e.CompleteQuest(ctx, plain.ID, model.KindSingle, nil)
	require.NoError(t, err)

	pending, err := e.CreateSingle(ctx, quest.SingleInput{Title: "pending", Points: 10, Date: "2026-09-01"})
	require.NoError(t, err)

	var ids []string
	for i := range 25 {
		c.Advance(time.Minute)
		q, err := e.CreateSingle(ctx, quest.SingleInput{
			Title:  fmt.Sprintf("quest %d", i),
			Points: 50,
			Date:   c.t.AddDate(0, 0, -i).Format(model.DateLayout),
		})
		require.NoError(t, err)
		ids = append(ids, q.ID)
	}
	for _, id := range ids {
		c.Advance(time.Minute)
		_, err := e.CompleteQuest(ctx, id, model.KindSingle, photo)
		require.NoError(t, err)
	}

	remaining := map[string]bool{}
	photos := 0
	for _, q := range e.Single() {
		remaining[q.ID] = true
		if q.HasPhoto() {
			photos++
		}
	}

	assert.Equal(t, 20, photos)
	for _, id := range ids[:5] {
		assert.False(t, remaining[id], "oldest photo quest %s should be evicted", id)
	}
	for _, id := range ids[5:] {
		assert.True(t, remaining[id])
	}
	assert.True(t, remaining[plain.ID])
	assert.True(t, remaining[pending.ID])
	assert.Equal(t, 22, len(remaining))
}

func TestSetMaxPhotos(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, repo := newEngine(t, c)
	photo := testPhoto(t)

	for i := range 7 {
		c.Advance(time.Minute)
		q, err := e.CreateSingle(ctx, quest.SingleInput{Title: fmt.Sprint(i), Points: 10, Date: "2026-10-15"})
		require.NoError(t, err)
		_, err = e.CompleteQuest(ctx, q.ID, model.KindSingle, photo)
		require.NoError(t, err)
	}

	_, err := e.SetMaxPhotos(ctx, 4)
	assert.True(t, quest.IsValidation(err))
	_, err = e.SetMaxPhotos(ctx, 101)
	assert.True(t, quest.IsValidation(err))
	assert.Equal(t, model.DefaultMaxPhotos, e.MaxPhotos())

	evicted, err := e.SetMaxPhotos(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, evicted, 2)
	assert.Len(t, e.Single(), 5)
	assert.Equal(t, 5, e.MaxPhotos())

	stored, ok := repo.LoadMaxPhotos(ctx)
	require.True(t, ok)
	assert.Equal(t, 5, stored)

	reloaded := quest.New(ctx, repo, quest.Options{Now: c.Now, Logger: testutil.DiscardLogger()})
	assert.Equal(t, 5, reloaded.MaxPhotos())
	assert.Len(t, reloaded.Single(), 5)
}

func TestStreak(t *testing.T) {
	ctx := context.Background()

	t.Run("stops at an empty day", func(t *testing.T) {
		c := newClock()
		e, _ := newEngine(t, c)

		for i := range 3 {
			q, err := e.CreateSingle(ctx, quest.SingleInput{
				Title:  "daily",
				Points: 10,
				Date:   c.t.AddDate(0, 0, -i).Format(model.DateLayout),
			})
			require.NoError(t, err)
			_, err = e.CompleteQuest(ctx, q.ID, model.KindSingle, nil)
			require.NoError(t, err)
		}
		// Completed, but beyond the empty fourth day.
		q, err := e.CreateSingle(ctx, quest.SingleInput{Title: "old", Points: 10, Date: c.t.AddDate(0, 0, -4).Format(model.DateLayout)})
		require.NoError(t, err)
		_, err = e.CompleteQuest(ctx, q.ID, model.KindSingle, nil)
		require.NoError(t, err)

		assert.Equal(t, 3, e.CalculateStreak())
	})

	t.Run("incomplete today is zero", func(t *testing.T) {
		c := newClock()
		e, _ := newEngine(t, c)

		_, err := e.CreateSingle(ctx, quest.SingleInput{Title: "today", Points: 10, Date: "2026-10-15"})
		require.NoError(t, err)
		assert.Equal(t, 0, e.CalculateStreak())
	})

	t.Run("recurring occurrences count", func(t *testing.T) {
		c := newClock()
		e, _ := newEngine(t, c)

		r, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "walk", Points: 10, RepeatDays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
		}})
		require.NoError(t, err)

		c.Set(2026, time.October, 14)
		_, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
		require.NoError(t, err)
		c.Set(2026, time.October, 15)
		_, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, e.CalculateStreak())
	})

	t.Run("capped at a year", func(t *testing.T) {
		c := newClock()
		e, _ := newEngine(t, c)

		r, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "walk", Points: 10, RepeatDays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
		}})
		require.NoError(t, err)

		today := c.t
		for i := range 400 {
			c.t = today.AddDate(0, 0, -i)
			_, err := e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
			require.NoError(t, err)
		}
		c.t = today
		assert.Equal(t, 365, e.CalculateStreak())
	})
}

func TestQuestsForMonthAndTopPhoto(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)
	photo := testPhoto(t)

	low, err := e.CreateSingle(ctx, quest.SingleInput{Title: "low", Points: 20, Date: "2026-10-03"})
	require.NoError(t, err)
	first, err := e.CreateSingle(ctx, quest.SingleInput{Title: "first", Points: 40, Date: "2026-10-03"})
	require.NoError(t, err)
	second, err := e.CreateSingle(ctx, quest.SingleInput{Title: "second", Points: 40, Date: "2026-10-03"})
	require.NoError(t, err)
	for _, id := range []string{low.ID, first.ID, second.ID} {
		_, err := e.CompleteQuest(ctx, id, model.KindSingle, photo)
		require.NoError(t, err)
	}

	month := e.QuestsForMonth(2026, time.October)
	assert.Len(t, month, 31)
	assert.Empty(t, month["2026-10-04"])
	require.Len(t, month["2026-10-03"], 3)

	top, ok := quest.TopPhoto(month["2026-10-03"])
	require.True(t, ok)
	assert.Equal(t, first.ID, top.ID)

	_, ok = quest.TopPhoto(month["2026-10-04"])
	assert.False(t, ok)

	assert.True(t, quest.Progress(month["2026-10-03"]).Done())
	assert.False(t, quest.Progress(month["2026-10-04"]).Done())

	assert.Len(t, e.QuestsForMonth(2026, time.February), 28)
}

func TestTotalPointsAndStats(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)

	s, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 50, Date: "2026-10-15"})
	require.NoError(t, err)
	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Later", Points: 30, Date: "2026-10-20"})
	require.NoError(t, err)
	r, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 20, RepeatDays: []time.Weekday{time.Wednesday, time.Thursday}})
	require.NoError(t, err)

	_, err = e.CompleteQuest(ctx, s.ID, model.KindSingle, testPhoto(t))
	require.NoError(t, err)
	_, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
	require.NoError(t, err)
	c.Set(2026, time.October, 14)
	_, err = e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
	require.NoError(t, err)
	c.Set(2026, time.October, 15)

	assert.Equal(t, 90, e.TotalPoints())
	stats := e.Stats()
	assert.Equal(t, model.Stats{TotalPoints: 90, Streak: 2, CompletedCount: 1, PhotoCount: 1}, stats)

	pending := e.PendingSingle()
	require.Len(t, pending, 1)
	assert.Equal(t, "Later", pending[0].Title)
}

func TestDeleteAndReset(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, repo := newEngine(t, c)

	s, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 50, Date: "2026-10-15"})
	require.NoError(t, err)
	r, err := e.CreateRecurring(ctx, quest.RecurringInput{Title: "Stretch", Points: 20, RepeatDays: []time.Weekday{time.Monday}})
	require.NoError(t, err)

	require.ErrorIs(t, e.Delete(ctx, r.ID, model.KindSingle), quest.ErrNotFound)
	require.NoError(t, e.Delete(ctx, s.ID, model.KindSingle))
	assert.Empty(t, e.Single())
	_, found := e.Find(s.ID)
	assert.False(t, found)

	got, found := e.Find(r.ID)
	require.True(t, found)
	assert.Equal(t, model.KindRecurring, got.Kind())

	_, err = e.CreateSingle(ctx, quest.SingleInput{Title: "Again", Points: 50, Date: "2026-10-15"})
	require.NoError(t, err)
	require.NoError(t, e.Reset(ctx, false))
	assert.Empty(t, e.Single())
	assert.Len(t, e.Recurring(), 1)

	single, recurring := repo.LoadAll(ctx)
	assert.Empty(t, single)
	assert.Len(t, recurring, 1)

	require.NoError(t, e.Reset(ctx, true))
	assert.Empty(t, e.Recurring())
	_, recurring = repo.LoadAll(ctx)
	assert.Empty(t, recurring)
}

func TestReloadKeepsState(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, repo := newEngine(t, c)

	s, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 50, Date: "2026-10-15"})
	require.NoError(t, err)
	_, err = e.CompleteQuest(ctx, s.ID, model.KindSingle, nil)
	require.NoError(t, err)

	reloaded := quest.New(ctx, repo, quest.Options{Now: c.Now, Logger: testutil.DiscardLogger()})
	got := reloaded.Single()
	require.Len(t, got, 1)
	assert.Equal(t, s.ID, got[0].ID)
	assert.True(t, got[0].Completed)
	assert.True(t, got[0].CompletedAt.Equal(c.t))

	next, err := reloaded.CreateSingle(ctx, quest.SingleInput{Title: "Next", Points: 10, Date: "2026-10-15"})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID, next.ID)
}

func TestStorageInfo(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, newClock())

	before := e.StorageInfo(ctx)
	_, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 20, Date: "2026-10-15"})
	require.NoError(t, err)
	after := e.StorageInfo(ctx)

	assert.Greater(t, after.UsedBytes, before.UsedBytes)
	assert.Equal(t, 0, after.CompletedCount)
}

func TestRecurringCompletionOffScheduleIsRefused(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, repo := newEngine(t, c)

	r, err := e.CreateRecurring(ctx, quest.RecurringInput{
		Title:      "Gym",
		Points:     50,
		RepeatDays: []time.Weekday{time.Monday},
	})
	require.NoError(t, err)

	can, err := e.CanComplete(r.ID, model.KindRecurring)
	require.ErrorIs(t, err, quest.ErrNotScheduled)
	assert.False(t, can)

	ok, err := e.CompleteQuest(ctx, r.ID, model.KindRecurring, nil)
	require.ErrorIs(t, err, quest.ErrNotScheduled)
	assert.False(t, ok)

	assert.Equal(t, 0, e.TotalPoints())
	assert.Empty(t, e.Recurring()[0].CompletedDates)
	assert.Empty(t, e.QuestsForDate(c.t))

	_, stored := repo.LoadAll(ctx)
	require.Len(t, stored, 1)
	assert.Empty(t, stored[0].CompletedDates)
}

func TestSingleCopiesDoNotAliasEngineState(t *testing.T) {
	ctx := context.Background()
	c := newClock()
	e, _ := newEngine(t, c)

	q, err := e.CreateSingle(ctx, quest.SingleInput{Title: "Read", Points: 30, Date: "2026-10-15"})
	require.NoError(t, err)
	_, err = e.CompleteQuest(ctx, q.ID, model.KindSingle, testPhoto(t))
	require.NoError(t, err)

	copied := e.Single()[0]
	*copied.Image = "tampered"
	*copied.CompletedAt = time.Time{}

	found, ok := e.Find(q.ID)
	require.True(t, ok)
	single := found.(model.SingleQuest)
	*single.Image = "tampered"

	got := e.Single()[0]
	assert.Contains(t, *got.Image, "data:image/jpeg;base64,")
	assert.True(t, got.CompletedAt.Equal(c.t))
}
