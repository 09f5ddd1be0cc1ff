package aggregate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/week"
)

// Evaluation returns the evaluation held in memory for date. Navigating between
// days never discards it; only a meal write on that day does.
func (c *Controller) Evaluation(date time.Time) (string, bool) {
	key := week.Format(c.day(date))
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.evalText[key]
	return text, ok
}

// Evaluate assesses the selected day, stores the result and returns it.
func (c *Controller) Evaluate(ctx context.Context) (string, error) {
	if c.evaluator == nil {
		return "", ErrNoEvaluator
	}
	d, ok := c.Selected()
	if !ok {
		return "", ErrNoSelection
	}
	in, err := c.inputFor(ctx, d)
	if err != nil {
		return "", fmt.Errorf("evaluate %s: %w", week.Format(d), err)
	}
	text, err := c.evaluator.Evaluate(ctx, in)
	if err != nil {
		return "", fmt.Errorf("evaluate %s: %w", week.Format(d), err)
	}
	if c.evals != nil {
		if err := c.evals.SaveEvaluation(ctx, d, text); err != nil {
			return "", fmt.Errorf("save evaluation for %s: %w", week.Format(d), err)
		}
	}

	c.mu.Lock()
	c.evalText[week.Format(d)] = text
	c.evalLoaded[week.Format(d)] = true
	c.mu.Unlock()
	c.log.Info(ctx, "day evaluated", zap.String("date", week.Format(d)))
	c.emit(Event{Type: EventEvaluationChanged, Week: week.KeyOf(d), Date: d})
	return text, nil
}

// loadEvaluation reads the stored evaluation for d once per process.
func (c *Controller) loadEvaluation(ctx context.Context, d time.Time) {
	if c.evals == nil {
		return
	}
	key := week.Format(d)
	c.mu.Lock()
	loaded := c.evalLoaded[key]
	c.mu.Unlock()
	if loaded {
		return
	}

	text, ok, err := c.evals.FetchEvaluation(ctx, d)
	if err != nil {
		c.log.Warn(ctx, "evaluation fetch failed", zap.String("date", key), zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.evalLoaded[key] {
		c.mu.Unlock()
		return
	}
	c.evalLoaded[key] = true
	if ok {
		c.evalText[key] = text
	}
	c.mu.Unlock()
	if ok {
		c.emit(Event{Type: EventEvaluationChanged, Week: week.KeyOf(d), Date: d})
	}
}

func (c *Controller) clearEvaluation(ctx context.Context, d time.Time) error {
	key := week.Format(d)
	c.mu.Lock()
	_, had := c.evalText[key]
	delete(c.evalText, key)
	c.evalLoaded[key] = true
	c.mu.Unlock()

	if c.evals != nil {
		if err := c.evals.DeleteEvaluation(ctx, d); err != nil {
			return fmt.Errorf("clear evaluation for %s: %w", key, err)
		}
	}
	if had {
		c.emit(Event{Type: EventEvaluationChanged, Week: week.KeyOf(d), Date: d})
	}
	return nil
}
