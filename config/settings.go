// Package config provides application settings loaded from environment
// variables, with an optional YAML file for list-valued settings such as
// search endpoints.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds all application configuration.
type Settings struct {
	LLM      LLMConfig
	Search   SearchConfig
	Scrape   ScrapeConfig
	Cache    CacheConfig
	Research ResearchConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// SearchConfig holds federated search configuration.
type SearchConfig struct {
	Endpoints  []string
	Strategy   string
	MaxRetries int
	BaseDelay  time.Duration
}

// ScrapeConfig holds content retrieval budget configuration.
type ScrapeConfig struct {
	MaxConcurrent int
	MinInterval   time.Duration
}

// CacheConfig holds the keyed cache configuration.
type CacheConfig struct {
	Path string
	TTL  time.Duration
}

// ResearchConfig holds session-level defaults.
type ResearchConfig struct {
	Depth               string
	AllowPartialResults bool
	TrackCost           bool
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv  string
	apiKeyEnv string
}

// Supported providers and their configuration. Model defaults live with
// the provider implementations; an env override takes precedence there.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", "OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_MODEL", "ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_MODEL", "DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_MODEL", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

const defaultSearchEndpoint = "https://searx.be"

// New creates settings for the specified provider, loading values from
// environment variables and, when RESEARCH_CONFIG_FILE points at one, a
// YAML file. File values fill list-valued settings; environment values
// win for scalars.
func New(provider string) (Settings, error) {
	provider = normalizeProvider(provider)

	if _, err := getProviderInfo(provider); err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvInt("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.3)
	if err != nil {
		return Settings{}, err
	}
	maxRetries, err := getEnvInt("SEARCH_MAX_RETRIES", 3)
	if err != nil {
		return Settings{}, err
	}
	baseDelay, err := getEnvDuration("SEARCH_BASE_DELAY", time.Second)
	if err != nil {
		return Settings{}, err
	}
	maxConcurrent, err := getEnvInt("SCRAPE_MAX_CONCURRENT", 4)
	if err != nil {
		return Settings{}, err
	}
	minInterval, err := getEnvDuration("SCRAPE_MIN_INTERVAL", 200*time.Millisecond)
	if err != nil {
		return Settings{}, err
	}
	cacheTTL, err := getEnvDuration("CACHE_TTL", 24*time.Hour)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       os.Getenv(providers[provider].modelEnv),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Search: SearchConfig{
			Endpoints:  splitList(os.Getenv("SEARCH_ENDPOINTS")),
			Strategy:   os.Getenv("SEARCH_STRATEGY"),
			MaxRetries: maxRetries,
			BaseDelay:  baseDelay,
		},
		Scrape: ScrapeConfig{
			MaxConcurrent: maxConcurrent,
			MinInterval:   minInterval,
		},
		Cache: CacheConfig{
			Path: getEnvDefault("CACHE_PATH", defaultCachePath()),
			TTL:  cacheTTL,
		},
		Research: ResearchConfig{
			Depth:               getEnvDefault("RESEARCH_DEPTH", "normal"),
			AllowPartialResults: os.Getenv("RESEARCH_ALLOW_PARTIAL") == "true",
			TrackCost:           os.Getenv("RESEARCH_TRACK_COST") == "true",
		},
	}

	if path := os.Getenv("RESEARCH_CONFIG_FILE"); path != "" {
		if err := s.applyFile(path); err != nil {
			return Settings{}, err
		}
	}

	if len(s.Search.Endpoints) == 0 {
		s.Search.Endpoints = []string{defaultSearchEndpoint}
	}
	return s, nil
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "goresearch-cache.db"
	}
	return home + "/.goresearch/cache.db"
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Environment variable helpers with proper error handling

func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
