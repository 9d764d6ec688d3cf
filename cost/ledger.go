// Package cost accumulates approximate token usage per research session
// and prices it against a static per-model rate table.
//
// Token counts are estimated from character length, not an exact
// tokenizer; totals are estimates.
package cost

import (
	"sync"
)

// charsPerToken is the fixed ratio used to approximate token counts.
const charsPerToken = 4

// EstimateTokens approximates the token count of a text by length.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := len(text) / charsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// Entry is one recorded LLM usage observation.
type Entry struct {
	Step             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Ledger is an append-only accumulator of usage entries. A disabled
// ledger is a no-op sink. Ledgers are created per session; nothing
// leaks across sessions.
type Ledger struct {
	enabled bool

	mu      sync.Mutex
	entries []Entry
}

// NewLedger creates a ledger. When enabled is false every Record call
// is a no-op and Breakdown reports zero usage.
func NewLedger(enabled bool) *Ledger {
	return &Ledger{enabled: enabled}
}

// Enabled reports whether this ledger records usage.
func (l *Ledger) Enabled() bool {
	return l.enabled
}

// Record appends a usage observation, estimating tokens from the
// character lengths of the prompt and completion text.
func (l *Ledger) Record(step, model string, promptChars, completionChars int) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		Step:             step,
		Model:            model,
		PromptTokens:     promptChars / charsPerToken,
		CompletionTokens: completionChars / charsPerToken,
	})
}

// LineItem is one priced entry in a breakdown.
type LineItem struct {
	Step             string  `json:"step"`
	Model            string  `json:"model"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Breakdown is the priced view of a ledger, computed on demand.
type Breakdown struct {
	Items                 []LineItem `json:"items"`
	TotalPromptTokens     int        `json:"total_prompt_tokens"`
	TotalCompletionTokens int        `json:"total_completion_tokens"`
	TotalCostUSD          float64    `json:"total_cost_usd"`
}

// Breakdown prices every recorded entry. Unknown models price at zero.
func (l *Ledger) Breakdown() Breakdown {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b Breakdown
	for _, e := range l.entries {
		rate, _ := RateFor(e.Model)
		itemCost := float64(e.PromptTokens)/1e6*rate.PromptUSD +
			float64(e.CompletionTokens)/1e6*rate.CompletionUSD

		b.Items = append(b.Items, LineItem{
			Step:             e.Step,
			Model:            e.Model,
			PromptTokens:     e.PromptTokens,
			CompletionTokens: e.CompletionTokens,
			CostUSD:          itemCost,
		})
		b.TotalPromptTokens += e.PromptTokens
		b.TotalCompletionTokens += e.CompletionTokens
		b.TotalCostUSD += itemCost
	}
	return b
}
