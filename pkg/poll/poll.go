// Package poll provides a cancellable fixed-interval polling primitive.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is the wait between two fetches when none is configured.
const DefaultInterval = 5 * time.Second

var (
	// ErrCancelled is returned when the context ends before the condition holds.
	ErrCancelled = errors.New("polling cancelled")
	// ErrTimeout is returned when the configured maximum wait elapses.
	ErrTimeout = errors.New("polling timed out")
)

// Iteration describes one completed fetch.
type Iteration struct {
	Stage    string
	N        int // 1-based
	Value    any
	Progress float64
	Elapsed  time.Duration
}

// Hook observes every completed fetch.
type Hook func(Iteration)

type config struct {
	interval time.Duration
	maxWait  time.Duration
	stage    string
	hook     Hook

	progress func(float64)
	start    float64
	step     float64
	cap      float64
}

// Option configures Until.
type Option func(*config)

// WithInterval sets the wait between fetches.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithStage labels iterations and errors.
func WithStage(name string) Option {
	return func(c *config) {
		c.stage = name
	}
}

// WithProgress reports min(start+step*n, cap) to fn after the n-th fetch.
func WithProgress(start, step, cap float64, fn func(float64)) Option {
	return func(c *config) {
		c.start, c.step, c.cap = start, step, cap
		c.progress = fn
	}
}

// WithMaxWait bounds the total time spent polling. Zero means unbounded.
func WithMaxWait(d time.Duration) Option {
	return func(c *config) {
		c.maxWait = d
	}
}

// WithHook registers fn to observe every iteration.
func WithHook(fn Hook) Option {
	return func(c *config) {
		c.hook = fn
	}
}

// Until calls fetch immediately and then once per interval until done reports
// true for the fetched value, which is returned. A fetch error ends polling at
// once. When ctx ends first, the error wraps ErrCancelled and the context cause.
func Until[T any](ctx context.Context, fetch func(context.Context) (T, error), done func(T) bool, opts ...Option) (T, error) {
	cfg := config{interval: DefaultInterval, stage: "poll"}
	for _, opt := range opts {
		opt(&cfg)
	}

	var zero T
	started := time.Now()

	var deadline <-chan time.Time
	if cfg.maxWait > 0 {
		t := time.NewTimer(cfg.maxWait)
		defer t.Stop()
		deadline = t.C
	}

	for n := 1; ; n++ {
		if ctx.Err() != nil {
			return zero, cancelled(ctx)
		}

		v, err := fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, cancelled(ctx)
			}
			return zero, fmt.Errorf("%s: iteration %d: %w", cfg.stage, n, err)
		}

		var progress float64
		if cfg.progress != nil {
			progress = min(cfg.start+cfg.step*float64(n), cfg.cap)
			cfg.progress(progress)
		}
		if cfg.hook != nil {
			cfg.hook(Iteration{
				Stage:    cfg.stage,
				N:        n,
				Value:    v,
				Progress: progress,
				Elapsed:  time.Since(started),
			})
		}

		if done(v) {
			return v, nil
		}

		wait := time.NewTimer(cfg.interval)
		select {
		case <-ctx.Done():
			wait.Stop()
			return zero, cancelled(ctx)
		case <-deadline:
			wait.Stop()
			return zero, fmt.Errorf("%s: %w after %s", cfg.stage, ErrTimeout, cfg.maxWait)
		case <-wait.C:
		}
	}
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}
