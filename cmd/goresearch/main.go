// Package main provides the goresearch CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alexxxmf/goresearch/cache"
	"github.com/alexxxmf/goresearch/config"
	"github.com/alexxxmf/goresearch/cost"
	"github.com/alexxxmf/goresearch/gate"
	"github.com/alexxxmf/goresearch/llm"
	"github.com/alexxxmf/goresearch/research"
	"github.com/alexxxmf/goresearch/retry"
	"github.com/alexxxmf/goresearch/scrape"
	"github.com/alexxxmf/goresearch/search"
)

var (
	// Global flags
	providerName string
	verbose      bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "goresearch",
		Short: "Iterative, budget-bounded web research",
		Long: `Run an iterative research workflow: plan search queries, retrieve and
score web content, summarize each source, evaluate coverage gaps, and
emit a cited report.`,
	}

	rootCmd.PersistentFlags().StringVarP(&providerName, "provider", "p", "openai", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging and progress")

	rootCmd.AddCommand(researchCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func researchCmd() *cobra.Command {
	var (
		depth     string
		model     string
		partial   bool
		trackCost bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "research [query]",
		Short: "Research a question and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResearch(args[0], depth, model, partial, trackCost, noCache)
		},
	}

	cmd.Flags().StringVarP(&depth, "depth", "d", "", "Depth tier: shallow, normal, deep")
	cmd.Flags().StringVarP(&model, "model", "m", "", "Explicit model ID (overrides the tier's choice)")
	cmd.Flags().BoolVar(&partial, "partial", false, "Return partial results when the session fails mid-way")
	cmd.Flags().BoolVar(&trackCost, "track-cost", false, "Track estimated LLM spend and print a breakdown")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the content and response cache")

	return cmd
}

func runResearch(query, depth, model string, partial, trackCost, noCache bool) error {
	logger := newLogger()

	settings, err := config.New(providerName)
	if err != nil {
		return err
	}
	if depth == "" {
		depth = settings.Research.Depth
	}
	if model == "" {
		model = settings.LLM.Model
	}

	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return err
	}
	provider, err := providerType.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strategy, err := search.ParseStrategy(settings.Search.Strategy)
	if err != nil {
		return err
	}
	searchPolicy := retry.Policy{
		MaxRetries: settings.Search.MaxRetries,
		BaseDelay:  settings.Search.BaseDelay,
	}
	searcher := search.NewFederated(search.NewClient(), settings.Search.Endpoints, strategy, searchPolicy, logger)

	g := gate.New(settings.Scrape.MaxConcurrent, settings.Scrape.MinInterval)
	scraper := scrape.NewClient(g, retry.DefaultPolicy(), logger)

	engine := research.NewEngine(provider, searcher, scraper).
		WithLogger(logger).
		WithGeneration(settings.LLM.MaxTokens, float32(settings.LLM.Temperature))

	if !noCache {
		store, err := cache.OpenSqlite(settings.Cache.Path)
		if err != nil {
			logger.Warn("cache unavailable, continuing without it", "error", err)
		} else {
			defer store.Close()
			engine.WithCache(cache.New(ctx, store, settings.Cache.TTL, logger))
		}
	}

	opts := research.Options{
		Depth:               depth,
		Model:               model,
		AllowPartialResults: partial || settings.Research.AllowPartialResults,
		TrackCost:           trackCost || settings.Research.TrackCost,
	}
	if verbose {
		opts.Progress = func(ev research.Event) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %-12s %s\n", ev.Percent, ev.Stage, ev.Message)
		}
	}

	result, err := engine.Research(ctx, query, opts)
	if err != nil {
		return err
	}

	if result.Metadata.Partial {
		fmt.Fprintf(os.Stderr, "Warning: partial results (%s)\n", result.Metadata.Error)
	}
	fmt.Println(result.Report)

	fmt.Fprintf(os.Stderr, "\nSources (%d):\n", len(result.Sources))
	for i, src := range result.Sources {
		fmt.Fprintf(os.Stderr, "%2d. [%s] %s (%s)\n", i+1, src.Relevance, src.Item.Title, src.Item.URL)
	}

	if result.Metadata.Cost != nil {
		printCost(result.Metadata.Cost)
	}
	return nil
}

func printCost(b *cost.Breakdown) {
	fmt.Fprintf(os.Stderr, "\nEstimated cost: $%.4f (%d prompt tokens, %d completion tokens)\n",
		b.TotalCostUSD, b.TotalPromptTokens, b.TotalCompletionTokens)
	for _, item := range b.Items {
		fmt.Fprintf(os.Stderr, "  %-10s %-28s $%.4f\n", item.Step, item.Model, item.CostUSD)
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and their per-million-token prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%-32s %12s %12s\n", "MODEL", "PROMPT $/1M", "OUTPUT $/1M")
			for _, model := range cost.KnownModels() {
				rate, _ := cost.RateFor(model)
				fmt.Printf("%-32s %12.2f %12.2f\n", model, rate.PromptUSD, rate.CompletionUSD)
			}
			return nil
		},
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
