// Package chart maps a horizontally scrolling day chart onto calendar dates.
//
// Index 0 is the window start and the last index is always today. The window
// covers at least MinDays days and reaches back to the first logged meal or the
// Monday of the current week, whichever is earlier.
package chart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/logging"
	"github.com/saadjs/nutrilog/internal/model"
	"github.com/saadjs/nutrilog/internal/week"
)

// DefaultMinDays is the smallest window ever shown.
const DefaultMinDays = 7

// Aggregator is the part of the aggregate controller the chart needs.
type Aggregator interface {
	EnsureWeekLoaded(ctx context.Context, date time.Time) ([]model.DailySummary, error)
	IsWeekLoaded(k week.Key) bool
	GetSummaryForDate(date time.Time) model.DailySummary
	SelectDate(ctx context.Context, date time.Time) model.DailySummary
	Location() *time.Location
}

// FirstMealSource reports the earliest day with a logged meal.
type FirstMealSource interface {
	FetchFirstMealDate(ctx context.Context) (time.Time, bool, error)
}

type Options struct {
	MinDays int
	Now     func() time.Time
	Logger  *logging.Logger
}

// Window is the date range behind the chart.
type Window struct {
	agg     Aggregator
	src     FirstMealSource
	minDays int
	now     func() time.Time
	log     *logging.Logger
	bg      sync.WaitGroup

	mu       sync.Mutex
	first    time.Time
	hasFirst bool
}

// Bar is one day in the chart.
type Bar struct {
	Index   int                `json:"index"`
	Date    time.Time          `json:"date"`
	Summary model.DailySummary `json:"summary"`
	Loaded  bool               `json:"loaded"`
}

func New(agg Aggregator, src FirstMealSource, opts Options) *Window {
	if opts.MinDays < DefaultMinDays {
		opts.MinDays = DefaultMinDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Window{
		agg:     agg,
		src:     src,
		minDays: opts.MinDays,
		now:     opts.Now,
		log:     opts.Logger.Named("chart"),
	}
}

// Load reads the first meal date. Until it succeeds the window behaves as for
// a user with no history.
func (w *Window) Load(ctx context.Context) error {
	first, ok, err := w.src.FetchFirstMealDate(ctx)
	if err != nil {
		return fmt.Errorf("load chart window: %w", err)
	}
	w.mu.Lock()
	w.first, w.hasFirst = w.day(first), ok
	w.mu.Unlock()
	return nil
}

// Reload is Load for callers that know meals were written.
func (w *Window) Reload(ctx context.Context) error { return w.Load(ctx) }

func (w *Window) day(t time.Time) time.Time { return week.DayIn(t, w.agg.Location()) }

// Today is the calendar date of the window's clock.
func (w *Window) Today() time.Time { return w.day(w.now()) }

// Start returns the date at index 0.
func (w *Window) Start() time.Time {
	today := w.Today()
	start := week.MondayOf(today)
	w.mu.Lock()
	if w.hasFirst && w.first.Before(start) {
		start = w.first
	}
	w.mu.Unlock()
	if earliest := today.AddDate(0, 0, -(w.minDays - 1)); earliest.Before(start) {
		start = earliest
	}
	return start
}

// TotalDays is the number of bars, today included.
func (w *Window) TotalDays() int {
	return week.DaysBetween(w.Start(), w.Today()) + 1
}

func (w *Window) LastIndex() int { return w.TotalDays() - 1 }

func (w *Window) DateForIndex(i int) time.Time {
	return w.Start().AddDate(0, 0, i)
}

// IndexForDate returns the bar index of date, clamped to the window.
func (w *Window) IndexForDate(date time.Time) int {
	i := week.DaysBetween(w.Start(), w.day(date))
	if i < 0 {
		return 0
	}
	if last := w.LastIndex(); i > last {
		return last
	}
	return i
}

// Visible prefetches the weeks behind bars [from, to] that are not loaded yet
// and returns how many loads it started. It does not wait for them.
func (w *Window) Visible(ctx context.Context, from, to int) int {
	from, to = w.clamp(from, to)
	seen := make(map[week.Key]bool)
	started := 0
	bgctx := context.WithoutCancel(ctx)
	for i := from; i <= to; i++ {
		d := w.DateForIndex(i)
		k := week.KeyOf(d)
		if seen[k] || w.agg.IsWeekLoaded(k) {
			seen[k] = true
			continue
		}
		seen[k] = true
		started++
		w.bg.Add(1)
		go func(d time.Time) {
			defer w.bg.Done()
			if _, err := w.agg.EnsureWeekLoaded(bgctx, d); err != nil {
				w.log.Warn(bgctx, "chart prefetch failed", zap.String("date", week.Format(d)), zap.Error(err))
			}
		}(d)
	}
	return started
}

// Wait blocks until prefetches started by Visible finish.
func (w *Window) Wait() { w.bg.Wait() }

// Bars returns bars [from, to] from memory. Days in unloaded weeks are empty.
func (w *Window) Bars(from, to int) []Bar {
	from, to = w.clamp(from, to)
	if from > to {
		return []Bar{}
	}
	out := make([]Bar, 0, to-from+1)
	for i := from; i <= to; i++ {
		d := w.DateForIndex(i)
		out = append(out, Bar{
			Index:   i,
			Date:    d,
			Summary: w.agg.GetSummaryForDate(d),
			Loaded:  w.agg.IsWeekLoaded(week.KeyOf(d)),
		})
	}
	return out
}

// JumpToToday selects today and returns its index.
func (w *Window) JumpToToday(ctx context.Context) int {
	w.agg.SelectDate(ctx, w.Today())
	return w.LastIndex()
}

func (w *Window) clamp(from, to int) (int, int) {
	if from < 0 {
		from = 0
	}
	if last := w.LastIndex(); to > last {
		to = last
	}
	return from, to
}
