package quest

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/nhle/quest-tracker/internal/model"
)

// SingleInput holds the fields for a new single quest.
type SingleInput struct {
	Title  string
	Points int
	Date   string
}

// RecurringInput holds the fields for a new recurring quest.
type RecurringInput struct {
	Title      string
	Points     int
	RepeatDays []time.Weekday
}

func (e *Engine) validateCommon(title string, points int) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title", "title is required")
	}
	if points < e.minPoints || points > e.maxPoints {
		return "", invalid("points", "points must be between %d and %d", e.minPoints, e.maxPoints)
	}
	return title, nil
}

// CreateSingle validates in and appends a new single quest. Validation
// runs in order: title, points, date, then the daily point cap.
func (e *Engine) CreateSingle(ctx context.Context, in SingleInput) (model.SingleQuest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	title, err := e.validateCommon(in.Title, in.Points)
	if err != nil {
		return model.SingleQuest{}, err
	}

	date := strings.TrimSpace(in.Date)
	if date == "" {
		return model.SingleQuest{}, invalid("date", "date is required")
	}
	day, err := model.ParseDate(date)
	if err != nil {
		return model.SingleQuest{}, invalid("date", "date must be YYYY-MM-DD")
	}
	date = model.DateKey(day)

	if err := e.checkDailyCap(date, in.Points); err != nil {
		return model.SingleQuest{}, err
	}

	now := e.now()
	q := model.SingleQuest{
		ID:        e.nextID(now),
		Title:     title,
		Points:    in.Points,
		Date:      date,
		CreatedAt: now,
	}
	e.single = append(e.single, q)
	e.persist(ctx)

	e.logger.Debug("created quest", "id", q.ID, "date", q.Date, "points", q.Points)
	return q, nil
}

// DailyPoints returns the points already scheduled by single quests on
// the date key.
func (e *Engine) DailyPoints(date string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dailyPoints(date)
}

func (e *Engine) dailyPoints(date string) int {
	total := 0
	for _, q := range e.single {
		if q.Date == date {
			total += q.Points
		}
	}
	return total
}

func (e *Engine) checkDailyCap(date string, points int) error {
	current := e.dailyPoints(date)
	if current+points <= e.dailyCap {
		return nil
	}
	return &DailyCapError{
		Date:      date,
		Cap:       e.dailyCap,
		Current:   current,
		Remaining: max(e.dailyCap-current, 0),
	}
}

// CreateRecurring validates in and appends a new recurring quest. The
// daily cap does not apply.
func (e *Engine) CreateRecurring(ctx context.Context, in RecurringInput) (model.RecurringQuest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	title, err := e.validateCommon(in.Title, in.Points)
	if err != nil {
		return model.RecurringQuest{}, err
	}

	if len(in.RepeatDays) == 0 {
		return model.RecurringQuest{}, invalid("repeatDays", "select at least one day")
	}
	days := make([]time.Weekday, 0, len(in.RepeatDays))
	for _, d := range in.RepeatDays {
		if d < time.Sunday || d > time.Saturday {
			return model.RecurringQuest{}, invalid("repeatDays", "unknown weekday %d", int(d))
		}
		if !slices.Contains(days, d) {
			days = append(days, d)
		}
	}
	slices.Sort(days)

	now := e.now()
	q := model.RecurringQuest{
		ID:             e.nextID(now),
		Title:          title,
		Points:         in.Points,
		RepeatDays:     days,
		CompletedDates: map[string]time.Time{},
		CreatedAt:      now,
	}
	e.recurring = append(e.recurring, q)
	e.persist(ctx)

	e.logger.Debug("created recurring quest", "id", q.ID, "days", model.WeekdaysLabel(days))
	return q.Clone(), nil
}
