package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zhaopengme/recipeclaw/pkg/logger"
	"github.com/zhaopengme/recipeclaw/pkg/recipe"
)

var (
	ErrExhausted = errors.New("extract: retries exhausted")
	ErrAborted   = errors.New("extract: aborted by caller")

	// ErrAttemptTimeout marks an attempt cut off by the per-attempt deadline.
	ErrAttemptTimeout = errors.New("extract: attempt timed out")
)

type Config struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		Delay:          time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	return c
}

type State int

const (
	StateAttempting State = iota
	StateRetrying
	StateSucceeded
	StateExhausted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is reported to an Observer on every state transition.
type Event struct {
	State   State
	Attempt int
	Err     error
}

type Observer func(Event)

type Result struct {
	Metadata *recipe.VideoMetadata
	Recipes  []recipe.Recipe
	Attempts int
}

// RetryEngine runs an Extractor with a per-attempt deadline and a constant
// delay between attempts. Only parse failures and attempt deadlines are
// retried. Every other error is returned as is.
type RetryEngine struct {
	extractor Extractor
	cfg       Config
	observer  Observer
}

func NewRetryEngine(extractor Extractor, cfg Config, observer Observer) *RetryEngine {
	return &RetryEngine{
		extractor: extractor,
		cfg:       cfg.withDefaults(),
		observer:  observer,
	}
}

func (e *RetryEngine) Config() Config { return e.cfg }

func (e *RetryEngine) Run(ctx context.Context, url string) (Result, error) {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return e.abort(attempt-1, err)
		}

		e.notify(StateAttempting, attempt, nil)
		meta, recipes, err := e.attempt(ctx, url)
		if err == nil {
			e.notify(StateSucceeded, attempt, nil)
			return Result{Metadata: meta, Recipes: recipes, Attempts: attempt}, nil
		}

		if ctx.Err() != nil {
			return e.abort(attempt, ctx.Err())
		}
		if !isTransient(err) {
			e.notify(StateFailed, attempt, err)
			return Result{Attempts: attempt}, err
		}

		lastErr = err
		if attempt == e.cfg.MaxAttempts {
			break
		}

		e.notify(StateRetrying, attempt, err)
		logger.WarnCF("extract", "Extraction attempt failed, retrying", map[string]any{
			"attempt":      attempt,
			"max_attempts": e.cfg.MaxAttempts,
			"delay":        e.cfg.Delay.String(),
			"error":        err.Error(),
		})
		if err := wait(ctx, e.cfg.Delay); err != nil {
			return e.abort(attempt, err)
		}
	}

	e.notify(StateExhausted, e.cfg.MaxAttempts, lastErr)
	logger.ErrorCF("extract", "Extraction failed after maximum attempts", map[string]any{
		"max_attempts": e.cfg.MaxAttempts,
		"error":        lastErr.Error(),
	})
	return Result{Attempts: e.cfg.MaxAttempts}, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, e.cfg.MaxAttempts, lastErr)
}

func (e *RetryEngine) attempt(ctx context.Context, url string) (*recipe.VideoMetadata, []recipe.Recipe, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()

	meta, recipes, err := e.extractor.Extract(attemptCtx, url)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		// the collaborator may surface the deadline in any shape
		return nil, nil, fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, e.cfg.AttemptTimeout, context.DeadlineExceeded)
	}
	return meta, recipes, err
}

func (e *RetryEngine) abort(attempts int, cause error) (Result, error) {
	e.notify(StateAborted, attempts, cause)
	logger.WarnCF("extract", "Extraction aborted", map[string]any{
		"attempts": attempts,
		"error":    cause.Error(),
	})
	return Result{Attempts: attempts}, fmt.Errorf("%w: %w", ErrAborted, cause)
}

func (e *RetryEngine) notify(s State, attempt int, err error) {
	if e.observer != nil {
		e.observer(Event{State: s, Attempt: attempt, Err: err})
	}
}

// isTransient retries parse failures and the engine's own attempt deadline.
// A deadline raised inside a collaborator, such as an HTTP client timeout,
// is not retried.
func isTransient(err error) bool {
	return errors.Is(err, recipe.ErrParse) || errors.Is(err, ErrAttemptTimeout)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
