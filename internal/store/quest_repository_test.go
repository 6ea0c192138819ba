package store_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/quest-tracker/internal/model"
	"github.com/nhle/quest-tracker/internal/store"
	"github.com/nhle/quest-tracker/tests/testutil"
)

func sampleQuests() ([]model.SingleQuest, []model.RecurringQuest) {
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	done := created.Add(2 * time.Hour)
	img := "data:image/jpeg;base64,AAAA"
	single := []model.SingleQuest{
		{ID: "1", Title: "Run", Points: 30, Date: "2026-03-01", CreatedAt: created},
		{ID: "2", Title: "Read", Points: 20, Date: "2026-03-01", Completed: true,
			CompletedAt: &done, Image: &img, Verified: true, CreatedAt: created},
	}
	recurring := []model.RecurringQuest{
		{ID: "3", Title: "Stretch", Points: 10, RepeatDays: []time.Weekday{time.Monday, time.Friday},
			CompletedDates: map[string]time.Time{"2026-03-02": done}, CreatedAt: created},
	}
	return single, recurring
}

func TestQuestRepositoryRoundTrip(t *testing.T) {
	for _, mode := range []string{model.StorageModeSnapshot, model.StorageModeTransactional} {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()
			repo, _ := testutil.NewTestRepository(t, 0, mode)

			single, recurring := sampleQuests()
			require.True(t, repo.Persist(ctx, single, recurring))

			gotSingle, gotRecurring := repo.LoadAll(ctx)
			require.Len(t, gotSingle, 2)
			require.Len(t, gotRecurring, 1)
			assert.Equal(t, "2", gotSingle[1].ID)
			assert.True(t, gotSingle[1].CompletedAt.Equal(*single[1].CompletedAt))
			assert.Equal(t, *single[1].Image, *gotSingle[1].Image)
			assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, gotRecurring[0].RepeatDays)
			_, ok := gotRecurring[0].CompletedOn("2026-03-02")
			assert.True(t, ok)
		})
	}
}

func TestQuestRepositoryLoadAllSwallowsBadData(t *testing.T) {
	ctx := context.Background()
	repo, kv := testutil.NewTestRepository(t, 0, "")

	single, recurring := repo.LoadAll(ctx)
	assert.NotNil(t, single)
	assert.Empty(t, single)
	assert.Empty(t, recurring)

	require.NoError(t, kv.Set(ctx, store.KeySingleQuests, "{not json"))
	require.NoError(t, kv.Set(ctx, store.KeyRecurringQuests, `[{"id":"9","title":"x","points":10,"repeatDays":[1]}]`))

	single, recurring = repo.LoadAll(ctx)
	assert.Empty(t, single)
	require.Len(t, recurring, 1)
	assert.NotNil(t, recurring[0].CompletedDates)
}

func TestQuestRepositoryPersistQuotaFailure(t *testing.T) {
	ctx := context.Background()
	single, recurring := sampleQuests()
	recurring[0].Title = strings.Repeat("x", 2000)

	t.Run("snapshot writes what fits", func(t *testing.T) {
		repo, kv := testutil.NewTestRepository(t, 1000, model.StorageModeSnapshot)
		assert.False(t, repo.Persist(ctx, single, recurring))

		_, ok, err := kv.Get(ctx, store.KeySingleQuests)
		require.NoError(t, err)
		assert.True(t, ok, "single collection is written independently")

		_, ok, err = kv.Get(ctx, store.KeyRecurringQuests)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transactional writes nothing", func(t *testing.T) {
		repo, kv := testutil.NewTestRepository(t, 1000, model.StorageModeTransactional)
		assert.False(t, repo.Persist(ctx, single, recurring))

		_, ok, err := kv.Get(ctx, store.KeySingleQuests)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestQuestRepositorySettings(t *testing.T) {
	ctx := context.Background()
	repo, kv := testutil.NewTestRepository(t, 0, "")

	_, ok := repo.LoadMaxPhotos(ctx)
	assert.False(t, ok)

	require.True(t, repo.SaveMaxPhotos(ctx, 42))
	n, ok := repo.LoadMaxPhotos(ctx)
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	require.NoError(t, kv.Set(ctx, store.KeyMaxPhotos, "lots"))
	_, ok = repo.LoadMaxPhotos(ctx)
	assert.False(t, ok)

	assert.Zero(t, repo.LoadSyncedPoints(ctx))
	require.True(t, repo.SaveSyncedPoints(ctx, 120))
	assert.Equal(t, 120, repo.LoadSyncedPoints(ctx))
}

func TestQuestRepositoryReset(t *testing.T) {
	ctx := context.Background()
	repo, _ := testutil.NewTestRepository(t, 0, "")
	single, recurring := sampleQuests()
	require.True(t, repo.Persist(ctx, single, recurring))
	require.True(t, repo.SaveMaxPhotos(ctx, 30))

	require.NoError(t, repo.Reset(ctx, false))
	gotSingle, gotRecurring := repo.LoadAll(ctx)
	assert.Empty(t, gotSingle)
	assert.Len(t, gotRecurring, 1)

	require.NoError(t, repo.Reset(ctx, true))
	_, gotRecurring = repo.LoadAll(ctx)
	assert.Empty(t, gotRecurring)
	_, ok := repo.LoadMaxPhotos(ctx)
	assert.False(t, ok)

	used, quota := repo.Usage(ctx)
	assert.Zero(t, used)
	assert.Zero(t, quota)
}
