package evaluation

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/saadjs/nutrilog/internal/logging"
)

// Evaluator is implemented by anything that can assess a day.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) (string, error)
}

// RetryConfig bounds the retries of a flaky evaluator.
type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Retrying retries the wrapped evaluator with exponential backoff. ErrNoMeals and
// context errors are not retried.
type Retrying struct {
	next Evaluator
	cfg  RetryConfig
	log  *logging.Logger
}

func NewRetrying(next Evaluator, cfg RetryConfig, log *logging.Logger) *Retrying {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * cfg.InitialInterval
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Retrying{next: next, cfg: cfg, log: log}
}

func (r *Retrying) Evaluate(ctx context.Context, in Input) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval

	op := func() (string, error) {
		text, err := r.next.Evaluate(ctx, in)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrNoMeals) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}
	notify := func(err error, wait time.Duration) {
		r.log.Warn(ctx, "evaluation failed, retrying",
			zap.String("date", in.Date.Format("2006-01-02")),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.cfg.MaxAttempts),
		backoff.WithNotify(notify))
}
