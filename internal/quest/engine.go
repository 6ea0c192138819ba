// Package quest owns the single and recurring quest collections and
// every rule that reads or changes them.
package quest

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nhle/quest-tracker/internal/model"
)

// Repository persists the collections. Load and persist failures are
// handled (logged) by the repository itself.
type Repository interface {
	LoadAll(ctx context.Context) ([]model.SingleQuest, []model.RecurringQuest)
	Persist(ctx context.Context, single []model.SingleQuest, recurring []model.RecurringQuest) bool
	LoadMaxPhotos(ctx context.Context) (int, bool)
	SaveMaxPhotos(ctx context.Context, n int) bool
	Reset(ctx context.Context, all bool) error
	Usage(ctx context.Context) (used, quota int64)
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	DailyPointCap int
	MinPoints     int
	MaxPoints     int
	MaxPhotos     int
	Now           func() time.Time
	Logger        *log.Logger
}

// OptionsFromConfig maps application config onto engine options.
func OptionsFromConfig(cfg *model.AppConfig) Options {
	return Options{
		DailyPointCap: cfg.Quests.DailyPointCap,
		MinPoints:     cfg.Quests.MinPoints,
		MaxPoints:     cfg.Quests.MaxPoints,
		MaxPhotos:     cfg.Photos.MaxPhotos,
	}
}

// Engine is the single owner of the quest collections. Every method is
// serialized, so no two mutations interleave.
type Engine struct {
	mu        sync.Mutex
	repo      Repository
	now       func() time.Time
	logger    *log.Logger
	dailyCap  int
	minPoints int
	maxPoints int
	maxPhotos int
	lastID    int64

	single    []model.SingleQuest
	recurring []model.RecurringQuest
}

// New loads the collections from repo and returns a ready Engine. A
// stored photo limit takes precedence over opts.MaxPhotos.
func New(ctx context.Context, repo Repository, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.DailyPointCap <= 0 {
		opts.DailyPointCap = 100
	}
	if opts.MinPoints <= 0 {
		opts.MinPoints = model.MinPoints
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = model.MaxPoints
	}
	if opts.MaxPhotos <= 0 {
		opts.MaxPhotos = model.DefaultMaxPhotos
	}

	e := &Engine{
		repo:      repo,
		now:       opts.Now,
		logger:    opts.Logger,
		dailyCap:  opts.DailyPointCap,
		minPoints: opts.MinPoints,
		maxPoints: opts.MaxPoints,
		maxPhotos: opts.MaxPhotos,
	}

	e.single, e.recurring = repo.LoadAll(ctx)
	if n, ok := repo.LoadMaxPhotos(ctx); ok {
		e.maxPhotos = n
	}
	e.lastID = maxNumericID(e.single, e.recurring)

	return e
}

func maxNumericID(single []model.SingleQuest, recurring []model.RecurringQuest) int64 {
	var top int64
	consider := func(id string) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > top {
			top = n
		}
	}
	for _, q := range single {
		consider(q.ID)
	}
	for _, q := range recurring {
		consider(q.ID)
	}
	return top
}

// nextID returns a creation timestamp id in milliseconds, bumped past
// the previous id when two creations share a millisecond.
func (e *Engine) nextID(now time.Time) string {
	id := now.UnixMilli()
	if id <= e.lastID {
		id = e.lastID + 1
	}
	e.lastID = id
	return strconv.FormatInt(id, 10)
}

// persist writes both collections. A failed write keeps the in-memory
// change.
func (e *Engine) persist(ctx context.Context) {
	if !e.repo.Persist(ctx, e.single, e.recurring) {
		e.logger.Warn("quest changes are kept in memory only")
	}
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// MaxPhotos returns the current photo retention limit.
func (e *Engine) MaxPhotos() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxPhotos
}

// DailyPointCap returns the per-date point limit for single quests.
func (e *Engine) DailyPointCap() int {
	return e.dailyCap
}

// Single returns a deep copy of the single quest collection.
func (e *Engine) Single() []model.SingleQuest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.SingleQuest, len(e.single))
	for i, q := range e.single {
		out[i] = q.Clone()
	}
	return out
}

// Recurring returns a deep copy of the recurring quest collection.
func (e *Engine) Recurring() []model.RecurringQuest {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.RecurringQuest, len(e.recurring))
	for i, q := range e.recurring {
		out[i] = q.Clone()
	}
	return out
}

// Find returns a copy of the quest with the given id, searching single
// quests first.
func (e *Engine) Find(id string) (model.Quest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.singleIndex(id); i >= 0 {
		return e.single[i].Clone(), true
	}
	if i := e.recurringIndex(id); i >= 0 {
		return e.recurring[i].Clone(), true
	}
	return nil, false
}

func (e *Engine) singleIndex(id string) int {
	return slices.IndexFunc(e.single, func(q model.SingleQuest) bool { return q.ID == id })
}

func (e *Engine) recurringIndex(id string) int {
	return slices.IndexFunc(e.recurring, func(q model.RecurringQuest) bool { return q.ID == id })
}

// PendingSingle returns incomplete single quests ordered by date, keeping
// creation order within a date.
func (e *Engine) PendingSingle() []model.SingleQuest {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.SingleQuest
	for _, q := range e.single {
		if !q.Completed {
			out = append(out, q.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.SingleQuest) int {
		return compareStrings(a.Date, b.Date)
	})
	return out
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Delete removes a quest of the given kind.
func (e *Engine) Delete(ctx context.Context, id string, kind model.QuestKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch kind {
	case model.KindSingle:
		i := e.singleIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		e.single = slices.Delete(e.single, i, i+1)
	case model.KindRecurring:
		i := e.recurringIndex(id)
		if i < 0 {
			return ErrNotFound
		}
		e.recurring = slices.Delete(e.recurring, i, i+1)
	default:
		return ErrNotFound
	}

	e.persist(ctx)
	return nil
}

// ReplaceSingle overwrites the whole single quest collection, and the
// photo limit when maxPhotos is non-nil. It backs import.
func (e *Engine) ReplaceSingle(ctx context.Context, quests []model.SingleQuest, maxPhotos *int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.single = make([]model.SingleQuest, len(quests))
	for i, q := range quests {
		e.single[i] = q.Clone()
	}
	e.lastID = max(e.lastID, maxNumericID(e.single, nil))
	e.persist(ctx)

	if maxPhotos != nil {
		e.maxPhotos = *maxPhotos
		e.repo.SaveMaxPhotos(ctx, *maxPhotos)
	}
}

// Reset deletes the single quest collection, or everything when all is
// set.
func (e *Engine) Reset(ctx context.Context, all bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.repo.Reset(ctx, all); err != nil {
		return err
	}
	e.single = []model.SingleQuest{}
	if all {
		e.recurring = []model.RecurringQuest{}
	}
	return nil
}
