// Package retry implements the shared resilience policy applied to every
// outbound provider call: bounded retries, exponential backoff, and
// transient/permanent error classification.
//
// Information Hiding:
// - Backoff arithmetic and retry-after precedence hidden
// - Error classification rules hidden behind Classify
package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Policy configures retry behavior for one call type.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// BaseDelay is the backoff unit; the delay before retry n (0-indexed)
	// is BaseDelay << n unless the remote supplied a retry-after duration.
	BaseDelay time.Duration

	// Sleep overrides the wait between attempts (tests inject a no-op).
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy returns the policy observed for LLM and scrape calls.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second}
}

// Delay returns the wait before retry n (0-indexed). A remote-supplied
// retry-after duration takes precedence over the backoff schedule.
func (p Policy) Delay(n int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return p.BaseDelay << n
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
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

// HTTPError carries an HTTP status from a provider so the policy can
// classify it. RetryAfter is populated when the remote sent a
// Retry-After header (or an SDK equivalent).
type HTTPError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Class is the retryability classification of an error.
type Class int

const (
	// ClassTransient errors are retried: no response received, 429, >=500.
	ClassTransient Class = iota
	// ClassPermanent errors are not retried: any 4xx other than 429.
	ClassPermanent
)

// StatusCoder is implemented by errors that carry an HTTP status.
// Provider packages map SDK errors onto this so classification works
// without importing every SDK here.
type StatusCoder interface {
	HTTPStatus() int
}

// Classify determines whether an error should be retried.
// Context cancellation is permanent; it is the caller aborting, not the
// remote failing.
func Classify(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassPermanent
	}

	status := 0
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		status = httpErr.StatusCode
	} else {
		var sc StatusCoder
		if errors.As(err, &sc) {
			status = sc.HTTPStatus()
		}
	}

	if status == 0 {
		// No response received (network error, timeout): transient.
		return ClassTransient
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return ClassTransient
	}
	if status >= 400 {
		return ClassPermanent
	}
	return ClassTransient
}

// retryAfterOf extracts a remote-supplied retry-after duration, if any.
func retryAfterOf(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}

// Do runs op under the policy. It returns the first successful value,
// the number of retries performed (0 when the first attempt succeeded
// or failed permanently), and the final error after policy exhaustion.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, int, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := p.sleep(ctx, p.Delay(attempt-1, retryAfterOf(lastErr))); err != nil {
				return zero, attempt - 1, err
			}
		}
		if err := ctx.Err(); err != nil {
			return zero, attempt, err
		}

		value, err := op(ctx)
		if err == nil {
			return value, attempt, nil
		}
		if Classify(err) == ClassPermanent {
			return zero, 0, err
		}
		lastErr = err
	}

	return zero, p.MaxRetries, fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxRetries+1, lastErr)
}
