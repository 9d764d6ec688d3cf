package cost

import "sort"

// Rate is USD per one million tokens.
type Rate struct {
	PromptUSD     float64
	CompletionUSD float64
}

// rates is the static per-model price table (January 2026 list prices).
var rates = map[string]Rate{
	// OpenAI
	"gpt-5.2":     {PromptUSD: 1.75, CompletionUSD: 14.00},
	"gpt-5":       {PromptUSD: 1.25, CompletionUSD: 10.00},
	"gpt-4o":      {PromptUSD: 2.50, CompletionUSD: 10.00},
	"gpt-4o-mini": {PromptUSD: 0.15, CompletionUSD: 0.60},
	"o3-mini":     {PromptUSD: 1.10, CompletionUSD: 4.40},

	// Anthropic
	"claude-opus-4-5-20251101": {PromptUSD: 5.00, CompletionUSD: 25.00},
	"claude-sonnet-4-20250514": {PromptUSD: 3.00, CompletionUSD: 15.00},
	"claude-haiku-4-20250514":  {PromptUSD: 0.80, CompletionUSD: 4.00},

	// Google
	"gemini-3-pro":     {PromptUSD: 1.25, CompletionUSD: 10.00},
	"gemini-3-flash":   {PromptUSD: 0.10, CompletionUSD: 0.40},
	"gemini-2.0-flash": {PromptUSD: 0.10, CompletionUSD: 0.40},

	// DeepSeek
	"deepseek-v3.2": {PromptUSD: 0.27, CompletionUSD: 1.10},
	"deepseek-chat": {PromptUSD: 0.27, CompletionUSD: 1.10},
}

// RateFor returns the rate for a model. Unknown models return a zero
// rate and false rather than an error; spend estimation must never
// fail a session.
func RateFor(model string) (Rate, bool) {
	r, ok := rates[model]
	return r, ok
}

// KnownModels returns the priced model IDs in sorted order.
func KnownModels() []string {
	models := make([]string, 0, len(rates))
	for m := range rates {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}
