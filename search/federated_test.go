package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexxxmf/goresearch/retry"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func testPolicy(maxRetries int) retry.Policy {
	return retry.Policy{MaxRetries: maxRetries, BaseDelay: time.Millisecond, Sleep: noSleep}
}

func jsonResults(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"results": [
		{"title": "Result A", "url": "https://example.com/a", "content": "snippet a"},
		{"title": "Result B", "url": "https://example.com/b", "content": "snippet b"}
	]}`))
}

func TestSearchSingleEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "test query" {
			t.Errorf("unexpected query: %q", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("expected format=json, got %q", r.URL.Query().Get("format"))
		}
		jsonResults(w)
	}))
	defer srv.Close()

	f := NewFederated(NewClient(), []string{srv.URL}, StrategyOrdered, testPolicy(2), nil)
	hits, err := f.Search(context.Background(), "test query", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].URL != "https://example.com/a" {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
}

func TestSearchLimitCapsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResults(w)
	}))
	defer srv.Close()

	f := NewFederated(NewClient(), []string{srv.URL}, StrategyOrdered, testPolicy(0), nil)
	hits, err := f.Search(context.Background(), "q", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("expected limit to cap results at 1, got %d", len(hits))
	}
}

func TestSearchRetriesWithinInstance(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		jsonResults(w)
	}))
	defer srv.Close()

	f := NewFederated(NewClient(), []string{srv.URL}, StrategyOrdered, testPolicy(3), nil)
	hits, err := f.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected results after retries, got %d hits", len(hits))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls (2 x 429 then success), got %d", calls.Load())
	}
}

func TestSearchServerErrorShortCircuitsToNextInstance(t *testing.T) {
	var badCalls atomic.Int64
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResults(w)
	}))
	defer good.Close()

	f := NewFederated(NewClient(), []string{bad.URL, good.URL}, StrategyOrdered, testPolicy(3), nil)
	hits, err := f.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected results from the second instance, got %d hits", len(hits))
	}
	// A 500 must advance immediately, not exhaust retries on the instance.
	if badCalls.Load() != 1 {
		t.Errorf("expected exactly 1 call to the failing instance, got %d", badCalls.Load())
	}
}

func TestSearchPermanentErrorPropagates(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFederated(NewClient(), []string{srv.URL}, StrategyOrdered, testPolicy(3), nil)
	_, err := f.Search(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected error")
	}
	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Errorf("expected the 404 to propagate, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected zero retries for a permanent error, got %d calls", calls.Load())
	}
}

func TestSearchExhaustionReturnsTypedError(t *testing.T) {
	var calls atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})
	a := httptest.NewServer(handler)
	defer a.Close()
	b := httptest.NewServer(handler)
	defer b.Close()

	f := NewFederated(NewClient(), []string{a.URL, b.URL}, StrategyOrdered, testPolicy(1), nil)
	_, err := f.Search(context.Background(), "the query", 5)
	if err == nil {
		t.Fatal("expected exhaustion error")
	}

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Query != "the query" {
		t.Errorf("expected query in error, got %q", exhausted.Query)
	}
	// 2 instances x (1 attempt + 1 retry) = 4 total attempts.
	if exhausted.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", exhausted.Attempts)
	}
	if calls.Load() != 4 {
		t.Errorf("expected 4 HTTP calls, got %d", calls.Load())
	}
}

func TestSearchRandomStrategyUsesShuffle(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResults(w)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	f := NewFederated(NewClient(), []string{bad.URL, good.URL}, StrategyRandom, testPolicy(0), nil)
	// Force the "random" order to pick the good endpoint first.
	f.shuffle = func(n int) []int { return []int{1, 0} }

	hits, err := f.Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) == 0 {
		t.Error("expected hits from the shuffled-first endpoint")
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyOrdered {
		t.Errorf("empty strategy should default to ordered")
	}
	if s, err := ParseStrategy("random"); err != nil || s != StrategyRandom {
		t.Errorf("expected random strategy")
	}
	if _, err := ParseStrategy("roulette"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestSearchNoEndpoints(t *testing.T) {
	f := NewFederated(NewClient(), nil, StrategyOrdered, testPolicy(0), nil)
	if _, err := f.Search(context.Background(), "q", 5); err == nil {
		t.Error("expected error with no endpoints configured")
	}
}
