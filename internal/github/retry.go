package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAttempts is the total number of tries for a retried request
	DefaultAttempts = 3

	// MaxRateLimitWait caps how long a rate-limited request waits for reset
	MaxRateLimitWait = 60 * time.Second
)

// DefaultRetryDelays returns the backoff delays between attempts: 1s, 2s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error %d for %s: %s", e.StatusCode, e.URL, e.Message)
}

// Temporary reports whether retrying the request may succeed
func (e *APIError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// RateLimitError is returned when the API refuses a request until Reset
type RateLimitError struct {
	Reset time.Time
	URL   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit exceeded for %s (resets at %s)", e.URL, e.Reset.Format(time.RFC3339))
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
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

// RetryPolicy runs an operation up to Attempts times. Rate-limit errors wait
// for the advertised reset (capped at MaxWait); other temporary errors back
// off using Delays. Permanent API errors are returned immediately.
type RetryPolicy struct {
	Attempts int
	Delays   []time.Duration
	MaxWait  time.Duration
	Sleep    SleepFunc
	Now      func() time.Time
	Logger   *slog.Logger
}

// DefaultRetryPolicy returns the policy used by the client
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultAttempts,
		Delays:   DefaultRetryDelays(),
		MaxWait:  MaxRateLimitWait,
	}
}

// Do runs op, retrying per the policy, and returns the last error once the
// attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt >= attempts-1 {
			break
		}

		wait := p.backoff(attempt)
		var rateErr *RateLimitError
		if errors.As(err, &rateErr) {
			wait = rateErr.Reset.Sub(now())
			if wait < 0 {
				wait = 0
			}
			if p.MaxWait > 0 && wait > p.MaxWait {
				wait = p.MaxWait
			}
		}

		if p.Logger != nil {
			p.Logger.Warn("retrying request",
				"operation", name,
				"attempt", attempt+2,
				"wait", wait,
				"error", err,
			)
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if len(p.Delays) == 0 {
		return time.Duration(1<<attempt) * time.Second
	}
	if attempt < len(p.Delays) {
		return p.Delays[attempt]
	}
	return p.Delays[len(p.Delays)-1]
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rateErr *RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	// Transport failures
	return true
}
