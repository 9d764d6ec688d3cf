package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", &HTTPError{StatusCode: 503}
		}
		return "ok", nil
	}

	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Sleep: noSleep}
	value, retries, err := Do(context.Background(), p, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "ok" {
		t.Errorf("expected 'ok', got %q", value)
	}
	if retries != 2 {
		t.Errorf("expected exactly 2 retries, got %d", retries)
	}
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (string, error) {
		calls++
		return "", &HTTPError{StatusCode: 404, Message: "not found"}
	}

	p := Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Sleep: noSleep}
	_, retries, err := Do(context.Background(), p, op)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
	if retries != 0 {
		t.Errorf("expected 0 retries for a permanent error, got %d", retries)
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Errorf("expected the 404 to propagate unchanged, got %v", err)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	op := func(ctx context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("connection refused")
	}

	p := Policy{MaxRetries: 2, BaseDelay: time.Millisecond, Sleep: noSleep}
	_, retries, err := Do(context.Background(), p, op)
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if retries != 2 {
		t.Errorf("expected 2 retries, got %d", retries)
	}
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := func(ctx context.Context) (int, error) { return 42, nil }
	_, _, err := Do(ctx, Policy{MaxRetries: 1, Sleep: noSleep}, op)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"network error", errors.New("dial tcp: timeout"), ClassTransient},
		{"rate limited", &HTTPError{StatusCode: 429}, ClassTransient},
		{"server error", &HTTPError{StatusCode: 500}, ClassTransient},
		{"bad gateway", &HTTPError{StatusCode: 502}, ClassTransient},
		{"not found", &HTTPError{StatusCode: 404}, ClassPermanent},
		{"unauthorized", &HTTPError{StatusCode: 401}, ClassPermanent},
		{"cancelled", context.Canceled, ClassPermanent},
		{"wrapped status", fmt.Errorf("search: %w", &HTTPError{StatusCode: 503}), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return fmt.Sprintf("api error %d", e.code) }
func (e *statusErr) HTTPStatus() int { return e.code }

func TestClassifyStatusCoder(t *testing.T) {
	if got := Classify(&statusErr{code: 429}); got != ClassTransient {
		t.Errorf("expected 429 via StatusCoder to be transient")
	}
	if got := Classify(&statusErr{code: 400}); got != ClassPermanent {
		t.Errorf("expected 400 via StatusCoder to be permanent")
	}
}

func TestDelayExponentialBackoff(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond}
	for n, want := range []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond} {
		if got := p.Delay(n, 0); got != want {
			t.Errorf("Delay(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestDelayRetryAfterPrecedence(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond}
	if got := p.Delay(0, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected retry-after to take precedence, got %v", got)
	}
}
