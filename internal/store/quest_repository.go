package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/model"
)

// Record keys used by the quest repository.
const (
	KeySingleQuests     = "quests"
	KeyRecurringQuests  = "repeatQuests"
	KeyMaxPhotos        = "maxImages"
	KeyLastSyncedPoints = "lastSyncedPoints"
)

// KV is the string-keyed record store the repository writes to.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetAll(ctx context.Context, entries []Entry) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Usage(ctx context.Context) (int64, error)
	Quota() int64
}

// QuestRepository persists the two quest collections and the scalar
// settings as whole serialized snapshots. Failures are logged and
// reported as a false result, never as an error.
type QuestRepository struct {
	kv     KV
	mode   string
	logger *log.Logger
}

// NewQuestRepository wraps kv. mode is model.StorageModeSnapshot or
// model.StorageModeTransactional.
func NewQuestRepository(kv KV, mode string, logger *log.Logger) *QuestRepository {
	if logger == nil {
		logger = log.Default()
	}
	if mode == "" {
		mode = model.StorageModeSnapshot
	}
	return &QuestRepository{kv: kv, mode: mode, logger: logger}
}

// LoadAll reads both collections. A missing or unreadable record yields
// an empty collection.
func (r *QuestRepository) LoadAll(ctx context.Context) ([]model.SingleQuest, []model.RecurringQuest) {
	single := []model.SingleQuest{}
	recurring := []model.RecurringQuest{}

	if err := r.load(ctx, KeySingleQuests, &single); err != nil {
		r.logger.Error("loading quests", "key", KeySingleQuests, "err", err)
		single = []model.SingleQuest{}
	}
	if err := r.load(ctx, KeyRecurringQuests, &recurring); err != nil {
		r.logger.Error("loading quests", "key", KeyRecurringQuests, "err", err)
		recurring = []model.RecurringQuest{}
	}

	for i := range recurring {
		if recurring[i].CompletedDates == nil {
			recurring[i].CompletedDates = map[string]time.Time{}
		}
	}

	return single, recurring
}

func (r *QuestRepository) load(ctx context.Context, key string, dst any) error {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return &StorageError{Op: "read", Key: key, Err: err}
	}
	if !ok || raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return &StorageError{Op: "decode", Key: key, Err: err}
	}
	return nil
}

// Persist writes both collections. In snapshot mode each collection is
// written independently, so one may land while the other fails. In
// transactional mode both land or neither does.
func (r *QuestRepository) Persist(
	ctx context.Context,
	single []model.SingleQuest,
	recurring []model.RecurringQuest,
) bool {
	singleJSON, err := encode(KeySingleQuests, orEmpty(single))
	if err != nil {
		r.logger.Error("persisting quests", "err", err)
		return false
	}
	recurringJSON, err := encode(KeyRecurringQuests, orEmpty(recurring))
	if err != nil {
		r.logger.Error("persisting quests", "err", err)
		return false
	}

	if r.mode == model.StorageModeTransactional {
		err := r.kv.SetAll(ctx, []Entry{
			{Key: KeySingleQuests, Value: singleJSON},
			{Key: KeyRecurringQuests, Value: recurringJSON},
		})
		if err != nil {
			r.logger.Error("persisting quests", "err", &StorageError{Op: "write", Key: KeySingleQuests, Err: err})
			return false
		}
		return true
	}

	ok := true
	if err := r.kv.Set(ctx, KeySingleQuests, singleJSON); err != nil {
		r.logger.Error("persisting quests", "err", &StorageError{Op: "write", Key: KeySingleQuests, Err: err})
		ok = false
	}
	if err := r.kv.Set(ctx, KeyRecurringQuests, recurringJSON); err != nil {
		r.logger.Error("persisting quests", "err", &StorageError{Op: "write", Key: KeyRecurringQuests, Err: err})
		ok = false
	}
	return ok
}

func encode(key string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", &StorageError{Op: "encode", Key: key, Err: err}
	}
	return string(b), nil
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// LoadMaxPhotos returns the stored photo limit. The boolean is false when
// no valid value is stored.
func (r *QuestRepository) LoadMaxPhotos(ctx context.Context) (int, bool) {
	return r.loadInt(ctx, KeyMaxPhotos)
}

// SaveMaxPhotos stores the photo limit.
func (r *QuestRepository) SaveMaxPhotos(ctx context.Context, n int) bool {
	return r.saveInt(ctx, KeyMaxPhotos, n)
}

// LoadSyncedPoints returns the total last pushed to the profile database.
func (r *QuestRepository) LoadSyncedPoints(ctx context.Context) int {
	n, _ := r.loadInt(ctx, KeyLastSyncedPoints)
	return n
}

// SaveSyncedPoints records the total last pushed to the profile database.
func (r *QuestRepository) SaveSyncedPoints(ctx context.Context, n int) bool {
	return r.saveInt(ctx, KeyLastSyncedPoints, n)
}

func (r *QuestRepository) loadInt(ctx context.Context, key string) (int, bool) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		r.logger.Error("loading setting", "key", key, "err", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.logger.Warn("ignoring invalid setting", "key", key, "value", raw)
		return 0, false
	}
	return n, true
}

func (r *QuestRepository) saveInt(ctx context.Context, key string, n int) bool {
	if err := r.kv.Set(ctx, key, strconv.Itoa(n)); err != nil {
		r.logger.Error("saving setting", "err", &StorageError{Op: "write", Key: key, Err: err})
		return false
	}
	return true
}

// Reset removes the single quest collection. With all set it removes
// every record, including recurring quests and settings.
func (r *QuestRepository) Reset(ctx context.Context, all bool) error {
	if all {
		if err := r.kv.Clear(ctx); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
		return nil
	}
	if err := r.kv.Remove(ctx, KeySingleQuests); err != nil {
		return fmt.Errorf("removing quests: %w", err)
	}
	return nil
}

// Usage returns used and quota bytes of the underlying store.
func (r *QuestRepository) Usage(ctx context.Context) (int64, int64) {
	used, err := r.kv.Usage(ctx)
	if err != nil {
		r.logger.Error("measuring storage", "err", err)
	}
	return used, r.kv.Quota()
}
