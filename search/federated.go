// Multi-endpoint failover for federated search.
//
// Instances are tried in sequence (fixed priority order or uniform
// random per query, depending on configuration). Within one instance,
// retries are exhausted before moving on, except that a >=500 response
// short-circuits the instance immediately.

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/alexxxmf/goresearch/retry"
)

// Strategy selects how endpoints are ordered per query.
type Strategy int

const (
	// StrategyOrdered tries endpoints in their configured priority order.
	StrategyOrdered Strategy = iota
	// StrategyRandom tries endpoints in a uniform random order per query.
	StrategyRandom
)

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "ordered":
		return StrategyOrdered, nil
	case "random":
		return StrategyRandom, nil
	default:
		return 0, fmt.Errorf("unknown search strategy: %q", s)
	}
}

// ExhaustedError is raised when every instance and every retry failed.
type ExhaustedError struct {
	Query    string
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("search failed for %q after %d attempts across all endpoints: %v", e.Query, e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Federated fans a query out across SearXNG instances with per-instance
// retries and failover between instances.
type Federated struct {
	client    *Client
	endpoints []string
	strategy  Strategy
	policy    retry.Policy
	logger    *slog.Logger
	shuffle   func(n int) []int
}

// NewFederated creates a failover client over the given endpoints.
func NewFederated(client *Client, endpoints []string, strategy Strategy, policy retry.Policy, logger *slog.Logger) *Federated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Federated{
		client:    client,
		endpoints: endpoints,
		strategy:  strategy,
		policy:    policy,
		logger:    logger,
		shuffle:   rand.Perm,
	}
}

// Search runs the query against the instance sequence. Permanent
// (non-retryable 4xx) failures propagate immediately; transient
// failures are retried within the instance, then the next instance is
// tried. Exhausting everything returns an ExhaustedError.
func (f *Federated) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if len(f.endpoints) == 0 {
		return nil, errors.New("no search endpoints configured")
	}

	order := make([]int, len(f.endpoints))
	for i := range order {
		order[i] = i
	}
	if f.strategy == StrategyRandom {
		order = f.shuffle(len(f.endpoints))
	}

	attempts := 0
	var lastErr error

	for _, idx := range order {
		endpoint := f.endpoints[idx]

		for try := 0; try <= f.policy.MaxRetries; try++ {
			if try > 0 {
				if err := f.sleep(ctx, try-1, lastErr); err != nil {
					return nil, err
				}
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			attempts++
			hits, err := f.client.Search(ctx, endpoint, query, limit)
			if err == nil {
				return hits, nil
			}
			lastErr = err

			if retry.Classify(err) == retry.ClassPermanent {
				return nil, err
			}
			if isServerError(err) {
				// A 5xx means the instance itself is unhealthy; move on
				// rather than burning retries against it.
				f.logger.Debug("search endpoint returned server error, failing over",
					"endpoint", endpoint, "error", err)
				break
			}
			f.logger.Debug("search attempt failed, retrying",
				"endpoint", endpoint, "attempt", try, "error", err)
		}
	}

	return nil, &ExhaustedError{Query: query, Attempts: attempts, LastErr: lastErr}
}

func (f *Federated) sleep(ctx context.Context, n int, lastErr error) error {
	var retryAfter time.Duration
	var httpErr *retry.HTTPError
	if errors.As(lastErr, &httpErr) {
		retryAfter = httpErr.RetryAfter
	}
	d := f.policy.Delay(n, retryAfter)
	if f.policy.Sleep != nil {
		return f.policy.Sleep(ctx, d)
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

func isServerError(err error) bool {
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}
