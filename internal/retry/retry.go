// Package retry runs remote calls with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
)

// Options configures an Executor. MaxRetries counts retries after the
// first attempt, so the operation runs at most MaxRetries+1 times.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultOptions gives four attempts in total: 100ms, 200ms, 400ms between them.
var DefaultOptions = Options{
	MaxRetries:   3,
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     10 * time.Second,
	Multiplier:   2,
}

// Executor retries failed operations. It is safe for concurrent use.
type Executor struct {
	opts Options
	log  *zap.Logger
}

func NewExecutor(opts Options, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = DefaultOptions.Multiplier
	}
	return &Executor{opts: opts, log: log}
}

// Delay returns the wait before the retry following attempt attemptIndex
// (zero based): min(InitialDelay * Multiplier^attemptIndex, MaxDelay).
func (o Options) Delay(attemptIndex int) time.Duration {
	delay := float64(o.InitialDelay) * math.Pow(o.Multiplier, float64(attemptIndex))
	if o.MaxDelay > 0 && delay > float64(o.MaxDelay) {
		return o.MaxDelay
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, returns a Permanent error, or the attempts
// run out. The last error is returned as fn produced it.
func (e *Executor) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		lastErr = err
		if attempt == e.opts.MaxRetries {
			break
		}

		delay := e.opts.Delay(attempt)
		e.log.Warn("retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		}
	}
	return lastErr
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, e *Executor, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns err itself.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}
