package core

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Default retry budget for AI generation calls.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1 * time.Second
)

// Classifier decides whether a failure is worth retrying.
type Classifier func(error) bool

// Sleeper waits for the given duration or until the context is done.
// Injectable so tests can observe delays without waiting them out.
type Sleeper func(ctx context.Context, d time.Duration) error

// RetryConfig controls Retry. Zero values fall back to the defaults above.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, including the first call.
	MaxAttempts int

	// InitialDelay is the wait after the first failure. Each subsequent
	// wait doubles: attempt index 0,1,2 produce delays of 1x,2x,4x.
	InitialDelay time.Duration

	// Classify overrides the default retryability check.
	Classify Classifier

	// Sleep overrides the default context-aware sleep.
	Sleep Sleeper
}

// Retry executes op, retrying on transient failures with exponential backoff.
//
// The classifier decides which failures are transient: by default these are
// service-overloaded and quota/rate-limit errors (via the ContinuationError
// taxonomy) plus raw network transport failures (reset, timeout). A fatal
// failure or an exhausted budget propagates the last error unchanged.
//
// Stateless and reentrant; the only side effects are the timing delays.
// Context cancellation is honored between attempts.
func Retry[T any](ctx context.Context, cfg RetryConfig, op func(context.Context) (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	classify := cfg.Classify
	if classify == nil {
		classify = DefaultClassifier
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !classify(err) {
			break
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}

	return zero, lastErr
}

// DefaultClassifier reports whether an error is transient.
//
// Retryable: quota/rate-limit and service-overloaded continuation errors,
// network timeouts, and connection-level transport failures. Everything
// else, including model-not-found, is fatal for the retry loop (model
// fallback is handled one level up, inside the operation being retried).
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var ce *ContinuationError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range []string{"connection reset", "connection refused", "timeout", "broken pipe", "eof"} {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
