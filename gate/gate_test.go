package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunBoundsConcurrency(t *testing.T) {
	g := New(2, 0)

	var current, peak atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Run(context.Background(), func(ctx context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > 2 {
		t.Errorf("expected at most 2 in flight, observed %d", p)
	}
}

func TestRunEnforcesMinInterval(t *testing.T) {
	interval := 20 * time.Millisecond
	g := New(4, interval)

	var mu sync.Mutex
	var starts []time.Time
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Run(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(starts) != 4 {
		t.Fatalf("expected 4 starts, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		for j := 0; j < i; j++ {
			gap := starts[i].Sub(starts[j])
			if gap < 0 {
				gap = -gap
			}
			// Allow a small scheduling tolerance.
			if gap < interval-5*time.Millisecond {
				t.Errorf("starts %d and %d only %v apart, want >= %v", j, i, gap, interval)
			}
		}
	}
}

func TestRunCancelledWhileQueued(t *testing.T) {
	g := New(1, 0)

	release := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()

	// Wait for the first unit to occupy the slot.
	deadline := time.After(time.Second)
	for g.InFlight() == 0 {
		select {
		case <-deadline:
			t.Fatal("first unit never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Run(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(release)
}

func TestRunReleasesSlotOnFailure(t *testing.T) {
	g := New(1, 0)

	wantErr := errors.New("boom")
	if err := g.Run(context.Background(), func(ctx context.Context) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected unit error to propagate, got %v", err)
	}

	// Slot must be free again.
	done := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot was not released after a failed unit")
	}
}

func TestObservability(t *testing.T) {
	g := New(1, 0)
	if g.QueueDepth() != 0 || g.InFlight() != 0 {
		t.Fatalf("expected idle gate, got queue=%d inflight=%d", g.QueueDepth(), g.InFlight())
	}

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	if g.InFlight() != 1 {
		t.Errorf("expected 1 in flight, got %d", g.InFlight())
	}

	go func() {
		_ = g.Run(context.Background(), func(ctx context.Context) error { return nil })
	}()

	deadline := time.After(time.Second)
	for g.QueueDepth() == 0 {
		select {
		case <-deadline:
			t.Fatal("second unit never queued")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)
}
