package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alexxxmf/goresearch/cache"
	"github.com/alexxxmf/goresearch/cost"
	jsonx "github.com/alexxxmf/goresearch/internal/json"
	"github.com/alexxxmf/goresearch/llm"
	"github.com/alexxxmf/goresearch/prompts"
	"github.com/alexxxmf/goresearch/quality"
	"github.com/alexxxmf/goresearch/retry"
	"github.com/alexxxmf/goresearch/search"
)

const (
	// maxFollowUpsProposed bounds how many follow-up queries one
	// evaluation may propose; maxFollowUpsPerRound bounds how many of
	// those the next round actually runs.
	maxFollowUpsProposed = 5
	maxFollowUpsPerRound = 3

	summarizeContentLimit = 8000
	reportTopN            = 10
	reportContentLimit    = 4000
	partialTopN           = 5
	partialContentLimit   = 2000

	placeholderContent = "[content unavailable]"

	defaultQueryPace = 500 * time.Millisecond
)

// Engine runs research sessions. Construct with NewEngine, adjust with
// the With* methods, then call Research. One Engine may serve many
// sessions; all session state lives in the per-call session object.
type Engine struct {
	provider llm.Provider
	searcher Searcher
	scraper  Scraper
	cache    *cache.Cache
	prompts  *prompts.Library
	logger   *slog.Logger
	policy   retry.Policy

	queryPace   time.Duration
	maxTokens   int
	temperature float32

	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine with default policy, pacing, and prompt
// library.
func NewEngine(provider llm.Provider, searcher Searcher, scraper Scraper) *Engine {
	return &Engine{
		provider:    provider,
		searcher:    searcher,
		scraper:     scraper,
		prompts:     prompts.NewLibrary(),
		logger:      slog.Default(),
		policy:      retry.DefaultPolicy(),
		queryPace:   defaultQueryPace,
		maxTokens:   4096,
		temperature: 0.3,
		sleep:       sleepCtx,
	}
}

// WithCache enables response caching for fetched content and LLM calls.
func (e *Engine) WithCache(c *cache.Cache) *Engine {
	e.cache = c
	return e
}

// WithLogger sets the logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithRetryPolicy sets the retry policy applied to LLM calls.
func (e *Engine) WithRetryPolicy(p retry.Policy) *Engine {
	e.policy = p
	return e
}

// WithQueryPacing sets the mandatory delay between sequential searches.
func (e *Engine) WithQueryPacing(d time.Duration) *Engine {
	e.queryPace = d
	return e
}

// WithPrompts sets the prompt library.
func (e *Engine) WithPrompts(lib *prompts.Library) *Engine {
	if lib != nil {
		e.prompts = lib
	}
	return e
}

// WithGeneration sets token and temperature limits for LLM calls.
func (e *Engine) WithGeneration(maxTokens int, temperature float32) *Engine {
	if maxTokens > 0 {
		e.maxTokens = maxTokens
	}
	e.temperature = temperature
	return e
}

// Expected LLM response shapes. Anything that fails to parse gets the
// documented per-step fallback instead of propagating.

type summaryResponse struct {
	Summary  string   `json:"summary"`
	KeyFacts []string `json:"key_facts"`
}

type evalResponse struct {
	GoalMet         bool     `json:"goal_met"`
	Gaps            []Gap    `json:"gaps"`
	FollowUpQueries []string `json:"follow_up_queries"`
}

type rankEntry struct {
	URL       string `json:"url"`
	Relevance string `json:"relevance"`
}

// Research runs one full session: plan, iterate search/scrape/summarize
// rounds with gap evaluation between them, then rank and synthesize the
// report. When opts.AllowPartialResults is set and the session fails
// after gathering at least one source, a partial result is returned
// instead of the error.
func (e *Engine) Research(ctx context.Context, query string, opts Options) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if !quality.ValidQuery(query) {
		return nil, &ValidationError{Field: "query", Message: "too short, too long, or too repetitive"}
	}
	profile, err := ProfileFor(opts.Depth)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = e.provider.ModelFor(profile.Class)
	}

	sess := newSession(query, profile)
	ledger := cost.NewLedger(opts.TrackCost)
	prog := newProgress(opts.Progress, e.logger)
	logger := e.logger.With("session", sess.id)

	logger.Info("research session started",
		"query", query, "depth", profile.Name, "model", model, "provider", e.provider.Name())

	report, sources, runErr := e.run(ctx, sess, model, ledger, prog, logger)

	meta := Metadata{
		SessionID:       sess.id,
		Rounds:          sess.rounds,
		SourcesScraped:  len(sess.items),
		QueriesExecuted: sess.executedQueries,
	}
	if opts.TrackCost {
		b := ledger.Breakdown()
		meta.Cost = &b
	}

	if runErr != nil {
		if isCancellation(runErr) {
			return nil, runErr
		}
		if !opts.AllowPartialResults || len(sess.items) == 0 {
			return nil, runErr
		}
		logger.Warn("session failed, assembling partial results",
			"error", runErr, "sources", len(sess.items))
		report, sources = e.partialReport(ctx, sess, model, ledger, logger)
		meta.Partial = true
		meta.Error = runErr.Error()
		if opts.TrackCost {
			b := ledger.Breakdown()
			meta.Cost = &b
		}
		prog.emit(StageDone, 100, "partial results ready")
		return &Result{Report: report, Sources: sources, Metadata: meta}, nil
	}

	logger.Info("research session complete", "rounds", sess.rounds, "sources", len(sess.items))
	prog.emit(StageDone, 100, "research complete")
	return &Result{Report: report, Sources: sources, Metadata: meta}, nil
}

// run executes the round loop plus rank and report. Cancellation is
// polled at the start of every step; an in-flight external call is
// allowed to finish once started.
func (e *Engine) run(ctx context.Context, sess *session, model string, ledger *cost.Ledger, prog *progress, logger *slog.Logger) (string, []RankedSource, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	prog.emit(StagePlanning, 5, "planning search queries")
	queries, err := e.plan(ctx, sess, model, ledger, logger)
	if err != nil {
		return "", nil, err
	}

	for round := 0; round < sess.profile.MaxRounds; round++ {
		if round > 0 {
			if err := ctx.Err(); err != nil {
				return "", nil, err
			}
			prog.emit(StageEvaluating, 65, fmt.Sprintf("evaluating coverage after round %d", round))
			done, followUps, err := e.evaluate(ctx, sess, model, ledger, logger)
			if err != nil {
				return "", nil, err
			}
			if done || len(followUps) == 0 {
				break
			}
			queries = followUps
		}
		sess.rounds++

		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		prog.emit(StageSearching, 15, fmt.Sprintf("searching round %d", round+1))
		hits, err := e.searchRound(ctx, sess, queries, logger)
		if err != nil {
			return "", nil, err
		}

		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		prog.emit(StageScraping, 30, fmt.Sprintf("retrieving %d sources", len(hits)))
		roundItems, err := e.scrapeRound(ctx, sess, hits, logger)
		if err != nil {
			return "", nil, err
		}

		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		prog.emit(StageSummarizing, 50, "summarizing sources")
		if err := e.summarizeRound(ctx, sess, roundItems, model, ledger, logger); err != nil {
			return "", nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	prog.emit(StageRanking, 85, "ranking sources")
	ranked, err := e.rank(ctx, sess, model, ledger, logger)
	if err != nil {
		return "", nil, err
	}

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	prog.emit(StageReporting, 92, "writing report")
	report, err := e.report(ctx, sess, ranked, model, ledger, reportTopN, reportContentLimit)
	if err != nil {
		return "", nil, err
	}
	return report, ranked, nil
}

// plan asks for candidate queries, drops invalid ones, and caps the
// rest at the tier maximum. A malformed plan falls back to the original
// query rather than failing the session.
func (e *Engine) plan(ctx context.Context, sess *session, model string, ledger *cost.Ledger, logger *slog.Logger) ([]string, error) {
	resp, err := e.generate(ctx, "plan", model, e.prompts.Plan(sess.query, sess.profile.MaxInitialQueries), ledger, logger)
	if err != nil {
		return nil, err
	}

	candidates, perr := jsonx.ExtractJSONFromResponse[[]string](resp)
	if perr != nil {
		logger.Warn("query plan did not parse, falling back to the original query", "error", perr)
		candidates = []string{sess.query}
	}

	queries := make([]string, 0, sess.profile.MaxInitialQueries)
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if !quality.ValidQuery(q) {
			logger.Debug("dropping invalid planned query", "query", q)
			continue
		}
		queries = append(queries, q)
		if len(queries) == sess.profile.MaxInitialQueries {
			break
		}
	}
	if len(queries) == 0 {
		queries = []string{sess.query}
	}
	logger.Debug("planned queries", "count", len(queries))
	return queries, nil
}

// searchRound runs the round's queries strictly sequentially with the
// mandatory inter-query pacing delay, merging hits by URL. The merge is
// local to the round; global dedup happens at scrape time.
func (e *Engine) searchRound(ctx context.Context, sess *session, queries []string, logger *slog.Logger) ([]search.Hit, error) {
	var merged []search.Hit
	seenRound := make(map[string]struct{})

	for i, q := range queries {
		if i > 0 {
			if err := e.sleep(ctx, e.queryPace); err != nil {
				return nil, err
			}
		}
		hits, err := e.searcher.Search(ctx, q, sess.profile.MaxResultsPerQuery)
		if err != nil {
			return nil, fmt.Errorf("search for %q failed: %w", q, err)
		}
		sess.executedQueries = append(sess.executedQueries, q)
		for _, h := range hits {
			if _, ok := seenRound[h.URL]; ok {
				continue
			}
			seenRound[h.URL] = struct{}{}
			merged = append(merged, h)
		}
	}
	logger.Debug("round search complete", "queries", len(queries), "hits", len(merged))
	return merged, nil
}

// scrapeRound turns hits into scraped items. URLs already seen this
// session are marked duplicate and carry no content; fresh URLs go
// through the cache, then the batch scraper, with the search snippet as
// the per-URL failure fallback. Quality is scored exactly once per item
// and the round is returned sorted by score, best first.
func (e *Engine) scrapeRound(ctx context.Context, sess *session, hits []search.Hit, logger *slog.Logger) ([]ScrapedItem, error) {
	items := make([]ScrapedItem, 0, len(hits))
	var toFetch []search.Hit

	for _, h := range hits {
		if sess.markSeen(h.URL) {
			items = append(items, ScrapedItem{Title: h.Title, URL: h.URL, IsDuplicateURL: true})
			continue
		}
		if e.cache != nil {
			if content, ok := e.cache.Get(ctx, cache.URLKey(h.URL)); ok {
				item := ScrapedItem{Title: h.Title, URL: h.URL, Content: content, WasCached: true}
				item.QualityScore = quality.Score(item.Title, item.URL, item.Content)
				items = append(items, item)
				continue
			}
		}
		toFetch = append(toFetch, h)
	}

	if len(toFetch) > 0 {
		urls := make([]string, len(toFetch))
		for i, h := range toFetch {
			urls[i] = h.URL
		}
		fetched := e.scraper.ScrapeMany(ctx, urls)
		// A cancelled batch must surface as cancellation, not as a pile
		// of snippet fallbacks.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, f := range fetched {
			hit := toFetch[i]
			item := ScrapedItem{Title: hit.Title, URL: hit.URL}
			if f.Err == nil && f.Page != nil {
				item.Content = f.Page.Text
				if f.Page.Title != "" {
					item.Title = f.Page.Title
				}
				if e.cache != nil {
					e.cache.Set(ctx, cache.URLKey(hit.URL), item.Content)
				}
			} else {
				logger.Debug("scrape degraded to snippet", "url", hit.URL, "error", f.Err)
				item.Content = strings.TrimSpace(hit.Snippet)
				if item.Content == "" {
					item.Content = placeholderContent
				}
			}
			item.QualityScore = quality.Score(item.Title, item.URL, item.Content)
			items = append(items, item)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].QualityScore > items[j].QualityScore
	})
	for _, item := range items {
		if !item.IsDuplicateURL {
			sess.items = append(sess.items, item)
		}
	}
	return items, nil
}

// summarizeRound synthesizes one summary per non-duplicate item,
// sequentially. Content is truncated before being sent; a malformed
// summary keeps the raw response text tagged with the source.
func (e *Engine) summarizeRound(ctx context.Context, sess *session, items []ScrapedItem, model string, ledger *cost.Ledger, logger *slog.Logger) error {
	for _, item := range items {
		if item.IsDuplicateURL {
			continue
		}
		content := item.Content
		if len(content) > summarizeContentLimit {
			content = content[:summarizeContentLimit]
		}

		resp, err := e.generate(ctx, "summarize", model, e.prompts.Summarize(sess.query, item.Title, item.URL, content), ledger, logger)
		if err != nil {
			return err
		}

		var text string
		parsed, perr := jsonx.ExtractJSONFromResponse[summaryResponse](resp)
		if perr != nil || strings.TrimSpace(parsed.Summary) == "" {
			logger.Debug("summary did not parse, keeping raw response", "url", item.URL, "error", perr)
			text = fmt.Sprintf("[%s] (%s): %s", item.Title, item.URL, strings.TrimSpace(resp))
		} else {
			text = parsed.Summary
			if len(parsed.KeyFacts) > 0 {
				text += "\nKey facts: " + strings.Join(parsed.KeyFacts, "; ")
			}
		}
		sess.summaries = append(sess.summaries, Summary{URL: item.URL, Text: text})
	}
	return nil
}

// evaluate asks whether the accumulated summaries cover the goal. A
// parse failure is treated as goal met so a formatting hiccup stops
// spending budget instead of looping; it is logged distinctly from a
// genuine goal-met signal.
func (e *Engine) evaluate(ctx context.Context, sess *session, model string, ledger *cost.Ledger, logger *slog.Logger) (bool, []string, error) {
	resp, err := e.generate(ctx, "evaluate", model, e.prompts.Evaluate(sess.query, sess.summaryTexts()), ledger, logger)
	if err != nil {
		return false, nil, err
	}

	parsed, perr := jsonx.ExtractJSONFromResponse[evalResponse](resp)
	if perr != nil {
		logger.Warn("evaluation did not parse, treating goal as met", "error", perr)
		return true, nil, nil
	}
	if parsed.GoalMet {
		logger.Info("research goal met", "rounds", sess.rounds)
		return true, nil, nil
	}

	for _, gap := range parsed.Gaps {
		logger.Debug("coverage gap", "kind", gap.Kind, "impact", gap.Impact, "description", gap.Description)
	}

	proposed := parsed.FollowUpQueries
	if len(proposed) > maxFollowUpsProposed {
		proposed = proposed[:maxFollowUpsProposed]
	}
	followUps := make([]string, 0, maxFollowUpsPerRound)
	for _, q := range proposed {
		q = strings.TrimSpace(q)
		if !quality.ValidQuery(q) {
			continue
		}
		followUps = append(followUps, q)
		if len(followUps) == maxFollowUpsPerRound {
			break
		}
	}
	return false, followUps, nil
}

// rank asks for the accumulated sources in relevance order. A parse
// failure keeps the existing quality-sorted order unchanged.
func (e *Engine) rank(ctx context.Context, sess *session, model string, ledger *cost.Ledger, logger *slog.Logger) ([]RankedSource, error) {
	if len(sess.items) == 0 {
		return nil, nil
	}

	sources := make([]string, len(sess.items))
	for i, it := range sess.items {
		sources[i] = fmt.Sprintf("%s (%s, quality %d)", it.URL, it.Title, it.QualityScore)
	}

	resp, err := e.generate(ctx, "rank", model, e.prompts.Rank(sess.query, sources), ledger, logger)
	if err != nil {
		return nil, err
	}

	entries, perr := jsonx.ExtractJSONFromResponse[[]rankEntry](resp)
	if perr != nil || len(entries) == 0 {
		logger.Warn("ranking did not parse, keeping quality order", "error", perr)
		return qualityOrder(sess.items), nil
	}

	byURL := make(map[string]ScrapedItem, len(sess.items))
	for _, it := range sess.items {
		byURL[it.URL] = it
	}
	used := make(map[string]bool, len(entries))
	ranked := make([]RankedSource, 0, len(entries))
	for _, entry := range entries {
		item, ok := byURL[entry.URL]
		if !ok || used[entry.URL] {
			continue
		}
		used[entry.URL] = true
		rel := entry.Relevance
		if rel != "high" && rel != "medium" && rel != "low" {
			rel = "medium"
		}
		ranked = append(ranked, RankedSource{Item: item, Relevance: rel})
	}
	if len(ranked) == 0 {
		logger.Warn("ranking referenced no known sources, keeping quality order")
		return qualityOrder(sess.items), nil
	}
	return ranked, nil
}

// report synthesizes the final answer from the top-ranked sources,
// preferring summaries and truncating per item.
func (e *Engine) report(ctx context.Context, sess *session, ranked []RankedSource, model string, ledger *cost.Ledger, topN, contentLimit int) (string, error) {
	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}

	summaries := sess.summaryByURL()
	findings := make([]string, 0, len(top))
	for _, r := range top {
		body := summaries[r.Item.URL]
		if body == "" {
			body = r.Item.Content
		}
		if len(body) > contentLimit {
			body = body[:contentLimit]
		}
		findings = append(findings, fmt.Sprintf("%s (%s, relevance %s):\n%s", r.Item.Title, r.Item.URL, r.Relevance, body))
	}

	resp, err := e.generate(ctx, "report", model, e.prompts.Report(sess.query, findings), ledger, e.logger)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// partialReport is the degraded path after a mid-session failure: try a
// smaller report over what was gathered, and if even that fails, emit a
// deterministic plain-text listing with no further LLM calls.
func (e *Engine) partialReport(ctx context.Context, sess *session, model string, ledger *cost.Ledger, logger *slog.Logger) (string, []RankedSource) {
	ranked := qualityOrder(sess.items)
	report, err := e.report(ctx, sess, ranked, model, ledger, partialTopN, partialContentLimit)
	if err == nil && report != "" {
		return report, ranked
	}
	if err != nil {
		logger.Warn("partial report synthesis failed, listing sources instead", "error", err)
	}
	return sourceListing(sess), ranked
}

func sourceListing(sess *session) string {
	var b strings.Builder
	b.WriteString("Research ended early. Sources collected:\n")
	for i, it := range sess.items {
		fmt.Fprintf(&b, "%d. %s (%s, quality %d)\n", i+1, it.Title, it.URL, it.QualityScore)
	}
	return b.String()
}

func qualityOrder(items []ScrapedItem) []RankedSource {
	sorted := make([]ScrapedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].QualityScore > sorted[j].QualityScore
	})
	ranked := make([]RankedSource, len(sorted))
	for i, it := range sorted {
		ranked[i] = RankedSource{Item: it, Relevance: "medium"}
	}
	return ranked
}

// generate is the single LLM entry point: prompt-keyed cache lookup,
// retry with classification, usage recording, cache write-back.
func (e *Engine) generate(ctx context.Context, step, model, prompt string, ledger *cost.Ledger, logger *slog.Logger) (string, error) {
	key := cache.PromptKey(model, prompt)
	if e.cache != nil {
		if v, ok := e.cache.Get(ctx, key); ok {
			logger.Debug("llm cache hit", "step", step)
			return v, nil
		}
	}

	result, retries, err := retry.Do(ctx, e.policy, func(ctx context.Context) (llm.Result, error) {
		return e.provider.Generate(ctx, prompt, llm.GenerateOptions{
			Model:        model,
			SystemPrompt: e.prompts.System(),
			Temperature:  e.temperature,
			MaxTokens:    e.maxTokens,
		})
	})
	if retries > 0 {
		logger.Debug("llm call needed retries", "step", step, "retries", retries)
	}
	if err != nil {
		return "", fmt.Errorf("%s step failed: %w", step, err)
	}

	ledger.Record(step, model, len(prompt), len(result.Text))
	if e.cache != nil {
		e.cache.Set(ctx, key, result.Text)
	}
	return result.Text, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
