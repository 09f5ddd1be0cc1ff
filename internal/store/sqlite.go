// Package store adapts the SQLite service layer to the context-aware
// repository the aggregate controller consumes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/service"
	"github.com/saadjs/nutrilog/internal/week"
)

// SQLite reads and writes meals in a nutrilog database. Calendar days are
// computed in loc.
type SQLite struct {
	db  *sql.DB
	loc *time.Location
	now func() time.Time
}

func NewSQLite(db *sql.DB, loc *time.Location) *SQLite {
	if loc == nil {
		loc = time.Local
	}
	return &SQLite{db: db, loc: loc, now: time.Now}
}

// DB exposes the handle for callers that need the service layer directly.
func (s *SQLite) DB() *sql.DB { return s.db }

func (s *SQLite) Location() *time.Location { return s.loc }

func (s *SQLite) FetchWeeklySummaries(ctx context.Context, weekStart time.Time) ([]model.DailySummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return service.WeeklySummaries(s.db, week.DayIn(weekStart, s.loc))
}

func (s *SQLite) FetchMealsForDate(ctx context.Context, date time.Time) ([]model.Meal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meals, err := service.MealsForDate(s.db, week.Format(week.DayIn(date, s.loc)))
	if err != nil {
		return nil, err
	}
	for i := range meals {
		meals[i].ConsumedAt = meals[i].ConsumedAt.In(s.loc)
	}
	return meals, nil
}

func (s *SQLite) FetchFirstMealDate(ctx context.Context) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	raw, ok, err := service.FirstMealDate(s.db)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	first, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse first meal date %q: %w", raw, err)
	}
	return first, true, nil
}

// FetchMeal returns one meal. Missing meals wrap service.ErrMealNotFound.
func (s *SQLite) FetchMeal(ctx context.Context, id int64) (model.Meal, error) {
	if err := ctx.Err(); err != nil {
		return model.Meal{}, err
	}
	m, err := service.MealByID(s.db, id)
	if err != nil {
		return model.Meal{}, err
	}
	m.ConsumedAt = m.ConsumedAt.In(s.loc)
	return *m, nil
}

func (s *SQLite) CreateMeal(ctx context.Context, meal model.Meal) (model.Meal, error) {
	if err := ctx.Err(); err != nil {
		return model.Meal{}, err
	}
	in := service.MealInputFrom(meal)
	in.Consumed = s.localize(in.Consumed)
	id, err := service.CreateMeal(s.db, in)
	if err != nil {
		return model.Meal{}, err
	}
	created, err := service.MealByID(s.db, id)
	if err != nil {
		return model.Meal{}, err
	}
	created.ConsumedAt = created.ConsumedAt.In(s.loc)
	return *created, nil
}

func (s *SQLite) UpdateMeal(ctx context.Context, id int64, meal model.Meal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in := service.MealInputFrom(meal)
	if in.Consumed.IsZero() {
		return fmt.Errorf("consumed time is required")
	}
	in.Consumed = s.localize(in.Consumed)
	return service.UpdateMeal(s.db, id, in)
}

func (s *SQLite) DeleteMeal(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return service.DeleteMeal(s.db, id)
}

// FetchUserGoals returns the goals in effect today, or zero goals when none are set.
func (s *SQLite) FetchUserGoals(ctx context.Context) (model.Goals, error) {
	if err := ctx.Err(); err != nil {
		return model.Goals{}, err
	}
	g, err := service.CurrentGoal(s.db, week.Format(s.now().In(s.loc)))
	if err != nil || g == nil {
		return model.Goals{}, err
	}
	return *g, nil
}

func (s *SQLite) FetchUserSettings(ctx context.Context) (model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return model.Settings{}, err
	}
	return service.LoadSettings(s.db)
}

func (s *SQLite) FetchEvaluation(ctx context.Context, date time.Time) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	e, err := service.EvaluationForDate(s.db, s.dayKey(date))
	if err != nil || e == nil {
		return "", false, err
	}
	return e.Text, true, nil
}

func (s *SQLite) SaveEvaluation(ctx context.Context, date time.Time, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return service.SaveEvaluation(s.db, s.dayKey(date), text)
}

func (s *SQLite) DeleteEvaluation(ctx context.Context, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return service.DeleteEvaluation(s.db, s.dayKey(date))
}

func (s *SQLite) dayKey(t time.Time) string {
	return week.Format(week.DayIn(t, s.loc))
}

// localize moves t into the store's location so the stored day matches the
// calendar the rest of the app uses. A zero time becomes now.
func (s *SQLite) localize(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().In(s.loc)
	}
	return t.In(s.loc)
}

// ParseDate reads YYYY-MM-DD in loc. "today" and "yesterday" are accepted.
func ParseDate(value string, loc *time.Location, now time.Time) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "", "today":
		return week.DayIn(now, loc), nil
	case "yesterday":
		return week.DayIn(now, loc).AddDate(0, 0, -1), nil
	default:
		t, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
		}
		return t, nil
	}
}
