package model

import (
	"slices"
	"time"
)

// QuestKind distinguishes the two quest variants.
type QuestKind string

// Quest kinds.
const (
	KindSingle    QuestKind = "single"
	KindRecurring QuestKind = "recurring"
)

// Point bounds for a single quest or a recurring quest.
const (
	MinPoints = 10
	MaxPoints = 1000
)

// SingleQuest is a quest scheduled for exactly one calendar date.
// Once Completed is true it never goes back to false.
type SingleQuest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Points      int        `json:"points"`
	Date        string     `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	Image       *string    `json:"image"`
	Verified    bool       `json:"verified"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// HasPhoto reports whether the quest is completed with a stored image.
func (q SingleQuest) HasPhoto() bool {
	return q.Completed && q.Image != nil
}

// Clone returns a copy that shares no pointers with q.
func (q SingleQuest) Clone() SingleQuest {
	out := q
	if q.CompletedAt != nil {
		at := *q.CompletedAt
		out.CompletedAt = &at
	}
	if q.Image != nil {
		img := *q.Image
		out.Image = &img
	}
	return out
}

// RecurringQuest repeats on a fixed set of weekdays. Each occurrence is
// completed independently and recorded under its date key.
type RecurringQuest struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	Points         int                  `json:"points"`
	RepeatDays     []time.Weekday       `json:"repeatDays"`
	CompletedDates map[string]time.Time `json:"completedDates"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// RepeatsOn reports whether the quest applies to the given weekday.
func (q RecurringQuest) RepeatsOn(day time.Weekday) bool {
	return slices.Contains(q.RepeatDays, day)
}

// CompletedOn returns the completion time recorded for a date key.
func (q RecurringQuest) CompletedOn(date string) (time.Time, bool) {
	at, ok := q.CompletedDates[date]
	return at, ok
}

// Clone returns a deep copy so callers cannot mutate the owner's map.
func (q RecurringQuest) Clone() RecurringQuest {
	out := q
	out.RepeatDays = slices.Clone(q.RepeatDays)
	out.CompletedDates = make(map[string]time.Time, len(q.CompletedDates))
	for k, v := range q.CompletedDates {
		out.CompletedDates[k] = v
	}
	return out
}

// Quest is the closed set of quest variants. Only SingleQuest and
// RecurringQuest implement it.
type Quest interface {
	GetID() string
	GetTitle() string
	GetPoints() int
	Kind() QuestKind
	GetCreatedAt() time.Time
	sealed()
}

func (q SingleQuest) GetID() string           { return q.ID }
func (q SingleQuest) GetTitle() string        { return q.Title }
func (q SingleQuest) GetPoints() int          { return q.Points }
func (q SingleQuest) Kind() QuestKind         { return KindSingle }
func (q SingleQuest) GetCreatedAt() time.Time { return q.CreatedAt }
func (SingleQuest) sealed()                   {}

func (q RecurringQuest) GetID() string           { return q.ID }
func (q RecurringQuest) GetTitle() string        { return q.Title }
func (q RecurringQuest) GetPoints() int          { return q.Points }
func (q RecurringQuest) Kind() QuestKind         { return KindRecurring }
func (q RecurringQuest) GetCreatedAt() time.Time { return q.CreatedAt }
func (RecurringQuest) sealed()                   {}

// UnifiedQuest is a read-only projection of a quest onto one calendar
// date, with completion resolved for that date.
type UnifiedQuest struct {
	ID          string
	Title       string
	Points      int
	Kind        QuestKind
	Date        string
	Completed   bool
	CompletedAt *time.Time
	Image       *string
	RepeatDays  []time.Weekday
}

// HasPhoto reports whether the projected quest carries an image.
func (u UnifiedQuest) HasPhoto() bool {
	return u.Completed && u.Image != nil
}

// Stats summarizes progress across both collections.
type Stats struct {
	TotalPoints    int `json:"totalPoints"`
	Streak         int `json:"streak"`
	CompletedCount int `json:"completedCount"`
	PhotoCount     int `json:"photoCount"`
}

// StorageInfo reports how much of the local store quota is in use.
type StorageInfo struct {
	UsedBytes  int64
	QuotaBytes int64
	Stats
}
