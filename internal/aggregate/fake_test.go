package aggregate_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

var errBoom = errors.New("boom")

// fakeRepo keeps meals in memory and computes summaries the way the SQLite
// store does.
type fakeRepo struct {
	loc *time.Location

	mu     sync.Mutex
	meals  map[int64]model.Meal
	nextID int64
	evals  map[string]string

	weekFetches atomic.Int32
	mealFetches atomic.Int32
	evalDeletes atomic.Int32
	gate        chan struct{}
	failWeeks   atomic.Bool
	failWrites  atomic.Bool
	goals       model.Goals
	settings    model.Settings
}

func newFakeRepo(loc *time.Location) *fakeRepo {
	r := &fakeRepo{
		loc:    loc,
		meals:  make(map[int64]model.Meal),
		nextID: 1,
		evals:  make(map[string]string),
		goals:  model.Goals{Calories: 2000, ProteinG: 120, CarbsG: 220, FatG: 70},
	}
	r.settings = model.Settings{MinFiberG: 25, MaxSugarG: 50, MaxSaturatedFatG: 20, CalorieTolerance: 0.1}
	return r
}

func (r *fakeRepo) seed(name string, kcal float64, at time.Time) model.Meal {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := model.Meal{ID: r.nextID, Name: name, Calories: kcal, ConsumedAt: at}
	r.meals[m.ID] = m
	r.nextID++
	return m
}

func (r *fakeRepo) FetchWeeklySummaries(ctx context.Context, weekStart time.Time) ([]model.DailySummary, error) {
	r.weekFetches.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.failWeeks.Load() {
		return nil, errBoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	meals := make([]model.Meal, 0, len(r.meals))
	for _, m := range r.meals {
		meals = append(meals, m)
	}
	out := make([]model.DailySummary, 0)
	for _, d := range week.Dates(week.KeyOf(weekStart), r.loc) {
		if s := model.SummarizeMeals(d, meals); s.MealCount > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) FetchMealsForDate(_ context.Context, date time.Time) ([]model.Meal, error) {
	r.mealFetches.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Meal, 0)
	for _, m := range r.meals {
		if week.SameDay(m.ConsumedAt.In(r.loc), date) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) FetchFirstMealDate(context.Context) (time.Time, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var first time.Time
	for _, m := range r.meals {
		if first.IsZero() || m.ConsumedAt.Before(first) {
			first = m.ConsumedAt
		}
	}
	if first.IsZero() {
		return time.Time{}, false, nil
	}
	return week.DayIn(first, r.loc), true, nil
}

func (r *fakeRepo) CreateMeal(_ context.Context, m model.Meal) (model.Meal, error) {
	if r.failWrites.Load() {
		return model.Meal{}, errBoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID
	r.nextID++
	r.meals[m.ID] = m
	return m, nil
}

func (r *fakeRepo) UpdateMeal(_ context.Context, id int64, m model.Meal) error {
	if r.failWrites.Load() {
		return errBoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = id
	r.meals[id] = m
	return nil
}

func (r *fakeRepo) DeleteMeal(_ context.Context, id int64) error {
	if r.failWrites.Load() {
		return errBoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meals, id)
	return nil
}

func (r *fakeRepo) FetchUserGoals(context.Context) (model.Goals, error) { return r.goals, nil }

func (r *fakeRepo) FetchUserSettings(context.Context) (model.Settings, error) { return r.settings, nil }

func (r *fakeRepo) FetchEvaluation(_ context.Context, date time.Time) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, ok := r.evals[week.Format(date)]
	return text, ok, nil
}

func (r *fakeRepo) SaveEvaluation(_ context.Context, date time.Time, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evals[week.Format(date)] = text
	return nil
}

func (r *fakeRepo) DeleteEvaluation(_ context.Context, date time.Time) error {
	r.evalDeletes.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.evals, week.Format(date))
	return nil
}

type stubEvaluator struct {
	calls atomic.Int32
}

func (s *stubEvaluator) Evaluate(_ context.Context, in evaluation.Input) (string, error) {
	s.calls.Add(1)
	return "assessed " + week.Format(in.Date), nil
}
