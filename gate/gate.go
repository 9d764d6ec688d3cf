// Package gate provides a bounded-concurrency, minimum-interval admission
// queue for outbound content retrieval.
//
// At most maxConcurrent units run simultaneously, and no two admissions
// start closer together than minInterval. There is no queue bound;
// callers bound submission volume themselves.
package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Gate admits units of work under a concurrency and pacing budget.
type Gate struct {
	slots       chan struct{}
	minInterval time.Duration

	mu        sync.Mutex
	nextStart time.Time

	queued   atomic.Int64
	inFlight atomic.Int64
}

// New creates a gate admitting at most maxConcurrent units at once with
// at least minInterval between admission starts. maxConcurrent values
// below 1 are treated as 1.
func New(maxConcurrent int, minInterval time.Duration) *Gate {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Gate{
		slots:       make(chan struct{}, maxConcurrent),
		minInterval: minInterval,
	}
}

// Run blocks until the unit is admitted, executes it, and frees the slot
// when it completes (success or failure). Returns the context error if
// cancelled while queued.
func (g *Gate) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	g.queued.Add(1)

	select {
	case g.slots <- struct{}{}:
		g.queued.Add(-1)
	case <-ctx.Done():
		g.queued.Add(-1)
		return ctx.Err()
	}
	defer func() { <-g.slots }()

	if err := g.pace(ctx); err != nil {
		return err
	}

	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	return fn(ctx)
}

// pace reserves the next admission start time and waits until it arrives.
// Reserving under the lock keeps starts spaced even when several units
// hold slots at once.
func (g *Gate) pace(ctx context.Context) error {
	if g.minInterval <= 0 {
		return nil
	}

	g.mu.Lock()
	now := time.Now()
	start := g.nextStart
	if start.Before(now) {
		start = now
	}
	g.nextStart = start.Add(g.minInterval)
	g.mu.Unlock()

	wait := time.Until(start)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// QueueDepth reports how many units are waiting for a slot.
func (g *Gate) QueueDepth() int {
	return int(g.queued.Load())
}

// InFlight reports how many units are currently executing.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}
