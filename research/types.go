// Package research implements the round-based research workflow: plan
// search queries, retrieve and score content, summarize per source,
// evaluate coverage gaps, and synthesize a final report.
package research

import (
	"context"

	"github.com/alexxxmf/goresearch/cost"
	"github.com/alexxxmf/goresearch/scrape"
	"github.com/alexxxmf/goresearch/search"
)

// Searcher executes one web search query. *search.Federated satisfies
// this.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

// Scraper retrieves page content. *scrape.Client satisfies this.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
	ScrapeMany(ctx context.Context, urls []string) []scrape.Item
}

// ScrapedItem is the content obtained for one unique URL in a session.
// Content is immutable after creation and the quality score is computed
// exactly once, at creation.
type ScrapedItem struct {
	Title          string
	URL            string
	Content        string
	WasCached      bool
	QualityScore   int
	IsDuplicateURL bool
}

// Summary is a free-text synthesis of one scraped item.
type Summary struct {
	URL  string
	Text string
}

// Gap is a missing aspect of the research goal identified during
// evaluation. Ephemeral; produced and consumed within one round.
type Gap struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// RankedSource is a scraped item placed in relevance order.
type RankedSource struct {
	Item      ScrapedItem
	Relevance string
}

// Options configures one research session.
type Options struct {
	// Depth selects the depth tier by name; empty means "normal".
	Depth string
	// Model overrides the tier's model choice when non-empty.
	Model string
	// AllowPartialResults returns a partial report instead of an error
	// when the session fails after gathering at least one source.
	AllowPartialResults bool
	// TrackCost enables the usage ledger for this session.
	TrackCost bool
	// Progress receives lifecycle events. Optional.
	Progress ProgressFunc
}

// Metadata describes how a session went.
type Metadata struct {
	SessionID       string
	Partial         bool
	Error           string
	Rounds          int
	SourcesScraped  int
	QueriesExecuted []string
	Cost            *cost.Breakdown
}

// Result is the output of one research session.
type Result struct {
	Report   string
	Sources  []RankedSource
	Metadata Metadata
}
