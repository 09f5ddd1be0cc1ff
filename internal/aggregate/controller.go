// Package aggregate keeps per-week daily summaries in memory and decides when
// they must be fetched, refetched or dropped.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/saadjs/nutrilog/internal/cache"
	"github.com/saadjs/nutrilog/internal/evaluation"
	"github.com/saadjs/nutrilog/internal/logging"
	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

var (
	// ErrNoSelection is returned by operations that need a selected date.
	ErrNoSelection = errors.New("no date selected")
	// ErrNoEvaluator is returned by Evaluate when the controller has no evaluator.
	ErrNoEvaluator = errors.New("no evaluator configured")
)

type Options struct {
	// Location defines calendar days. Defaults to time.Local.
	Location    *time.Location
	Logger      *logging.Logger
	Metrics     *cache.Metrics
	Evaluator   Evaluator
	Evaluations EvaluationStore
}

// Controller owns the week cache, the selected date and that date's meal list.
type Controller struct {
	repo      Repository
	evals     EvaluationStore
	evaluator Evaluator
	weeks     *cache.WeekCache
	metrics   *cache.Metrics
	loc       *time.Location
	log       *logging.Logger

	flights singleflight.Group
	bg      sync.WaitGroup

	mu           sync.Mutex
	selected     time.Time
	hasSelected  bool
	meals        []model.Meal
	mealsSeq     uint64
	loading      map[week.Key]int
	evalText     map[string]string
	evalLoaded   map[string]bool
	lastErr      error
	listeners    []listener
	nextListener int
}

func New(repo Repository, opts Options) *Controller {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Controller{
		repo:       repo,
		evals:      opts.Evaluations,
		evaluator:  opts.Evaluator,
		weeks:      cache.New(opts.Metrics),
		metrics:    opts.Metrics,
		loc:        loc,
		log:        log.Named("aggregate"),
		loading:    make(map[week.Key]int),
		evalText:   make(map[string]string),
		evalLoaded: make(map[string]bool),
	}
}

// Location returns the zone calendar days are computed in.
func (c *Controller) Location() *time.Location { return c.loc }

func (c *Controller) day(t time.Time) time.Time { return week.DayIn(t, c.loc) }

// SelectDate makes date the selected day and returns its summary from memory
// right away (the empty summary when its week is not loaded yet). The week and
// the day's meals are loaded in the background; Wait blocks until they settle.
func (c *Controller) SelectDate(ctx context.Context, date time.Time) model.DailySummary {
	d := c.day(date)

	c.mu.Lock()
	if !c.hasSelected || !week.SameDay(c.selected, d) {
		c.meals = nil
		c.mealsSeq++
	}
	c.selected = d
	c.hasSelected = true
	c.mu.Unlock()

	c.emit(Event{Type: EventSelectionChanged, Week: week.KeyOf(d), Date: d})
	summary := c.GetSummaryForDate(d)

	bgctx := context.WithoutCancel(ctx)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		c.loadSelection(bgctx, d)
	}()
	return summary
}

// Wait blocks until background loads started by SelectDate have finished.
func (c *Controller) Wait() { c.bg.Wait() }

func (c *Controller) loadSelection(ctx context.Context, d time.Time) {
	_, fetched, err := c.ensureWeek(ctx, d)
	if err != nil {
		c.setLastErr(err)
		return
	}
	if !fetched {
		// Fetching a week refreshes the selected day's meals itself.
		c.refreshMeals(ctx, d)
	}
	c.loadEvaluation(ctx, d)
}

// EnsureWeekLoaded returns the summaries of the week containing date, fetching
// them only when the week is not cached. Concurrent calls for the same week
// share one fetch.
func (c *Controller) EnsureWeekLoaded(ctx context.Context, date time.Time) ([]model.DailySummary, error) {
	days, _, err := c.ensureWeek(ctx, c.day(date))
	return days, err
}

func (c *Controller) ensureWeek(ctx context.Context, d time.Time) ([]model.DailySummary, bool, error) {
	k := week.KeyOf(d)
	if days, ok := c.weeks.Get(k); ok {
		return days, false, nil
	}
	// The shared fetch outlives any single caller; a cancelled caller only
	// stops waiting.
	ch := c.flights.DoChan(flightKey(k), func() (any, error) {
		return c.fetchWeek(context.WithoutCancel(ctx), k)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, fmt.Errorf("wait for week of %s: %w", week.Format(week.StartOf(k, c.loc)), ctx.Err())
	}
	if res.Err != nil {
		return nil, false, res.Err
	}
	days := res.Val.([]model.DailySummary)
	out := make([]model.DailySummary, len(days))
	copy(out, days)
	return out, true, nil
}

func (c *Controller) fetchWeek(ctx context.Context, k week.Key) ([]model.DailySummary, error) {
	gen := c.weeks.Generation(k)
	start := week.StartOf(k, c.loc)

	c.setLoading(k, 1)
	defer c.setLoading(k, -1)

	began := time.Now()
	days, err := c.repo.FetchWeeklySummaries(ctx, start)
	c.observeFetch(began, err)
	if err != nil {
		c.log.Warn(ctx, "week fetch failed",
			zap.String("week_start", week.Format(start)),
			zap.Error(err))
		c.emit(Event{Type: EventWeekFailed, Week: k, Date: start, Err: err})
		return nil, fmt.Errorf("fetch week of %s: %w", week.Format(start), err)
	}

	days = c.normalizeWeek(k, days)
	if !c.weeks.PutIfGeneration(k, gen, days) {
		c.log.Debug(ctx, "dropped stale week fetch", zap.String("week_start", week.Format(start)))
	} else {
		c.log.Debug(ctx, "week loaded",
			zap.String("week_start", week.Format(start)),
			zap.Int("days", len(days)))
	}
	c.emit(Event{Type: EventWeekLoaded, Week: k, Date: start})

	if sel, ok := c.Selected(); ok && week.KeyOf(sel) == k {
		c.refreshMeals(ctx, sel)
	}
	return days, nil
}

// normalizeWeek pins summary dates to midnight in the controller's location and
// drops anything outside week k.
func (c *Controller) normalizeWeek(k week.Key, days []model.DailySummary) []model.DailySummary {
	out := make([]model.DailySummary, 0, len(days))
	for _, s := range days {
		y, m, d := s.Date.Date()
		s.Date = time.Date(y, m, d, 0, 0, 0, 0, c.loc)
		if week.KeyOf(s.Date) != k {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *Controller) observeFetch(began time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.metrics.FetchDuration.WithLabelValues(outcome).Observe(time.Since(began).Seconds())
}

// GetSummaryForDate reads the summary for date from memory only. Unloaded weeks
// and quiet days both yield the empty summary for that date.
func (c *Controller) GetSummaryForDate(date time.Time) model.DailySummary {
	d := c.day(date)
	days, ok := c.weeks.Get(week.KeyOf(d))
	if !ok {
		return model.EmptySummary(d)
	}
	for _, s := range days {
		if s.SameDay(d) {
			return s
		}
	}
	return model.EmptySummary(d)
}

// IsWeekLoaded reports whether the week with key k is cached.
func (c *Controller) IsWeekLoaded(k week.Key) bool { return c.weeks.Has(k) }

// IsLoading reports whether a fetch for week k is in flight.
func (c *Controller) IsLoading(k week.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[k] > 0
}

func (c *Controller) setLoading(k week.Key, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading[k] += delta
	if c.loading[k] <= 0 {
		delete(c.loading, k)
	}
}

// Mutation describes a meal write that already reached the repository.
type Mutation struct {
	Date time.Time
	// PreviousDate is the meal's date before an edit moved it. Zero otherwise.
	PreviousDate time.Time
	// ClearEvaluation drops the stored evaluation of the affected days.
	ClearEvaluation bool
}

// RecordMutation invalidates the weeks a meal write touched and reloads the
// selected week. Other invalidated weeks reload on their next access.
func (c *Controller) RecordMutation(ctx context.Context, m Mutation) error {
	dates := []time.Time{c.day(m.Date)}
	if !m.PreviousDate.IsZero() {
		if prev := c.day(m.PreviousDate); !week.SameDay(prev, dates[0]) {
			dates = append(dates, prev)
		}
	}

	seen := make(map[week.Key]bool, len(dates))
	for _, d := range dates {
		k := week.KeyOf(d)
		if seen[k] {
			continue
		}
		seen[k] = true
		c.weeks.Invalidate(k)
		c.flights.Forget(flightKey(k))
		c.log.Debug(ctx, "week invalidated", zap.String("week_start", week.Format(week.StartOf(k, c.loc))))
		c.emit(Event{Type: EventInvalidated, Week: k, Date: d})
	}

	var errs []error
	if m.ClearEvaluation {
		for _, d := range dates {
			if err := c.clearEvaluation(ctx, d); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if sel, ok := c.Selected(); ok {
		if _, fetched, err := c.ensureWeek(ctx, sel); err != nil {
			errs = append(errs, err)
		} else if !fetched {
			c.refreshMeals(ctx, sel)
		}
	}
	return errors.Join(errs...)
}

// Refresh drops every cached week and reloads the selected one.
func (c *Controller) Refresh(ctx context.Context) error {
	c.weeks.Clear()
	sel, ok := c.Selected()
	if !ok {
		return nil
	}
	c.flights.Forget(flightKey(week.KeyOf(sel)))
	c.log.Info(ctx, "summaries refreshed", zap.String("selected", week.Format(sel)))
	_, err := c.EnsureWeekLoaded(ctx, sel)
	return err
}

// Selected returns the selected date, if any.
func (c *Controller) Selected() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.hasSelected
}

// SelectedWeek returns the key of the selected date's week.
func (c *Controller) SelectedWeek() (week.Key, bool) {
	sel, ok := c.Selected()
	if !ok {
		return 0, false
	}
	return week.KeyOf(sel), true
}

// LastError returns the most recent background load failure, if any.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) setLastErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func flightKey(k week.Key) string { return strconv.FormatInt(int64(k), 10) }

// inputFor gathers what an evaluator needs for the selected day.
func (c *Controller) inputFor(ctx context.Context, d time.Time) (evaluation.Input, error) {
	if _, err := c.EnsureWeekLoaded(ctx, d); err != nil {
		return evaluation.Input{}, err
	}
	goals, err := c.repo.FetchUserGoals(ctx)
	if err != nil {
		return evaluation.Input{}, fmt.Errorf("fetch goals: %w", err)
	}
	settings, err := c.repo.FetchUserSettings(ctx)
	if err != nil {
		return evaluation.Input{}, fmt.Errorf("fetch settings: %w", err)
	}
	return evaluation.Input{
		Date:     d,
		Summary:  c.GetSummaryForDate(d),
		Goals:    goals,
		Settings: settings,
		Meals:    c.Meals(),
	}, nil
}
