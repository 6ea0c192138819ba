package testutil

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T, quota int64) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", quota)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestProfileStore creates an in-memory ProfileStore that is closed
// when the test completes.
func NewTestProfileStore(t *testing.T) *store.ProfileStore {
	t.Helper()

	s, err := store.NewProfileStore(":memory:")
	if err != nil {
		t.Fatalf("creating test profile store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test profile store: %v", err)
		}
	})

	return s
}

// NewTestRepository wraps an in-memory store in a QuestRepository whose
// logger discards output.
func NewTestRepository(t *testing.T, quota int64, mode string) (*store.QuestRepository, *store.SQLiteStore) {
	t.Helper()
	kv := NewTestStore(t, quota)
	return store.NewQuestRepository(kv, mode, DiscardLogger()), kv
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}
