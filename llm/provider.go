// Package llm provides LLM provider abstractions.
//
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling
//
// Providers surface rate-limit and server-error conditions through
// APIError so the retry layer can distinguish transient from permanent
// failures.
package llm

import (
	"context"
	"fmt"
	"time"
)

// ModelClass selects between a provider's fast and flagship model.
// Depth tiers bias model quality through this rather than hardcoding
// model IDs.
type ModelClass int

const (
	// ClassFast is the provider's cheap, low-latency model.
	ClassFast ModelClass = iota
	// ClassFlagship is the provider's highest-quality model.
	ClassFlagship
)

// GenerateOptions configures a single completion request.
type GenerateOptions struct {
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int
}

// TokenUsage contains token usage statistics as reported by the API.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is a completed generation.
type Result struct {
	Text  string
	Usage TokenUsage
}

// Provider defines the abstract interface for LLM providers.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// ModelFor returns the provider's model ID for a model class.
	ModelFor(class ModelClass) string

	// Generate sends a completion request and returns the text.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (Result, error)
}

// APIError is a provider failure carrying the HTTP status so callers
// can classify it. A zero StatusCode means no response was received.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, e.Message)
}

// HTTPStatus implements the status-carrying contract used for retry
// classification.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}
