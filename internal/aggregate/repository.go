package aggregate

import (
	"context"
	"time"

	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/model"
)

// Repository is the source of truth the controller reads from and writes to.
// Implementations validate and default everything they return; the controller
// trusts the shapes it receives.
type Repository interface {
	// FetchWeeklySummaries returns the days with activity in [weekStart, weekStart+6].
	// A quiet week is an empty slice, not an error.
	FetchWeeklySummaries(ctx context.Context, weekStart time.Time) ([]model.DailySummary, error)
	FetchMealsForDate(ctx context.Context, date time.Time) ([]model.Meal, error)
	FetchFirstMealDate(ctx context.Context) (time.Time, bool, error)
	CreateMeal(ctx context.Context, meal model.Meal) (model.Meal, error)
	UpdateMeal(ctx context.Context, id int64, meal model.Meal) error
	DeleteMeal(ctx context.Context, id int64) error
	FetchUserGoals(ctx context.Context) (model.Goals, error)
	FetchUserSettings(ctx context.Context) (model.Settings, error)
}

// EvaluationStore persists day evaluations keyed by calendar date.
type EvaluationStore interface {
	FetchEvaluation(ctx context.Context, date time.Time) (string, bool, error)
	SaveEvaluation(ctx context.Context, date time.Time, text string) error
	DeleteEvaluation(ctx context.Context, date time.Time) error
}

// Evaluator produces an opaque assessment of one day.
type Evaluator interface {
	Evaluate(ctx context.Context, in evaluation.Input) (string, error)
}
