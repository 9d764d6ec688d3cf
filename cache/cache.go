// Package cache provides the keyed TTL cache shared by content retrieval
// and LLM calls.
//
// Key space is partitioned by purpose: raw fetched content is keyed by
// URL; LLM responses are keyed by a digest of (model, prompt) so prompt
// text is never embedded in keys. All operations are best-effort: a
// storage failure degrades to a miss or an ignored write, never an
// error for the caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Store is the persistence contract the cache sits on.
// Implementations must serialize their own writes; two sessions may
// legitimately share a backing store.
type Store interface {
	// Get returns the value and creation time for key, with found=false
	// when the key is absent.
	Get(ctx context.Context, key string) (value string, createdAt time.Time, found bool, err error)

	// Set upserts a value. Writes are idempotent.
	Set(ctx context.Context, key, value string, createdAt time.Time) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// PurgeBefore removes every row created before cutoff, returning the
	// number removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}

// Cache wraps a Store with TTL semantics.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates a cache over store with the given TTL and runs a coarse
// startup sweep removing rows that are already stale. The sweep is
// best-effort like every other operation.
func New(ctx context.Context, store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{store: store, ttl: ttl, logger: logger, now: time.Now}

	if removed, err := store.PurgeBefore(ctx, c.now().Add(-ttl)); err != nil {
		logger.Warn("cache startup sweep failed", "error", err)
	} else if removed > 0 {
		logger.Debug("cache startup sweep", "removed", removed)
	}

	return c
}

// Get returns the cached value for key if present and fresh. Stale
// entries are evicted on read. Storage failures report a miss.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, createdAt, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Debug("cache read failed, treating as miss", "error", err)
		return "", false
	}
	if !found {
		return "", false
	}

	if c.now().Sub(createdAt) > c.ttl {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Debug("stale cache eviction failed", "error", err)
		}
		return "", false
	}

	return value, true
}

// Set upserts a value. Storage failures are logged and ignored.
func (c *Cache) Set(ctx context.Context, key, value string) {
	if err := c.store.Set(ctx, key, value, c.now()); err != nil {
		c.logger.Debug("cache write failed, ignoring", "error", err)
	}
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// URLKey builds the cache key for raw fetched content.
func URLKey(url string) string {
	return "url:" + url
}

// PromptKey builds the cache key for an LLM response from a digest of
// the model and full prompt text, keeping key size bounded.
func PromptKey(model, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return "llm:" + hex.EncodeToString(h.Sum(nil))
}
