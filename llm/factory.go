// LLM Provider Factory.
//
// Quick Start:
//
//	// Read API key from environment
//	provider, err := llm.ProviderOpenAI.FromEnv()
//
//	// With explicit API key
//	provider, err := llm.ProviderAnthropic.APIKey("sk-...")

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// FromEnv creates a provider, reading its API key from the environment.
func (p ProviderType) FromEnv() (Provider, error) {
	envVar := p.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", p, envVar)
	}
	return p.APIKey(apiKey)
}

// APIKey creates a provider with an explicit API key.
func (p ProviderType) APIKey(key string) (Provider, error) {
	switch p {
	case ProviderOpenAI:
		return NewOpenAIProvider(key), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(key), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(key), nil
	case ProviderGemini:
		return NewGeminiProvider(key), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", p)
	}
}

// Model identifier constants per provider and class (January 2026).

// OpenAI model identifiers
const (
	// ModelOpenAIFlagship is GPT-5.2: latest flagship model.
	ModelOpenAIFlagship = "gpt-5.2"
	// ModelOpenAIFast is GPT-4o-mini: cheap, low-latency model.
	ModelOpenAIFast = "gpt-4o-mini"
)

// Anthropic model identifiers
const (
	// ModelAnthropicFlagship is Claude Opus 4.5: highest quality.
	ModelAnthropicFlagship = "claude-opus-4-5-20251101"
	// ModelAnthropicFast is Claude Haiku 4: fast and efficient.
	ModelAnthropicFast = "claude-haiku-4-20250514"
)

// Gemini model identifiers
const (
	// ModelGeminiFlagship is Gemini 3 Pro: advanced reasoning.
	ModelGeminiFlagship = "gemini-3-pro"
	// ModelGeminiFast is Gemini 3 Flash: speed optimized.
	ModelGeminiFast = "gemini-3-flash"
)

// DeepSeek model identifiers
const (
	// ModelDeepSeekChat is the general chat model.
	ModelDeepSeekChat = "deepseek-chat"
)
