// Package scrape retrieves web pages and reduces them to plain text for
// summarization. Retrieval runs through the shared admission gate and
// the retry policy; batch scraping degrades per URL instead of failing
// the batch.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexxxmf/goresearch/gate"
	"github.com/alexxxmf/goresearch/retry"
)

// maxContentBytes bounds extracted text so one page cannot overwhelm the
// model context downstream.
const maxContentBytes = 32 * 1024

const maxBodyBytes = 2 * 1024 * 1024

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Page is the extracted content of one fetched URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Item is the per-URL outcome of a batch scrape. Exactly one of Page and
// Err is set.
type Item struct {
	URL  string
	Page *Page
	Err  error
}

// Client fetches pages under the gate's concurrency and pacing budget,
// retrying transient failures per the policy.
type Client struct {
	httpClient *http.Client
	gate       *gate.Gate
	policy     retry.Policy
	logger     *slog.Logger
	userAgent  string
}

// NewClient creates a scraping client. The gate is shared with other
// outbound retrieval so the whole session honors one budget.
func NewClient(g *gate.Gate, policy retry.Policy, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		gate:       g,
		policy:     policy,
		logger:     logger,
		userAgent:  defaultUserAgent,
	}
}

// NewClientWithHTTP creates a scraping client using the supplied HTTP
// client.
func NewClientWithHTTP(httpClient *http.Client, g *gate.Gate, policy retry.Policy, logger *slog.Logger) *Client {
	c := NewClient(g, policy, logger)
	c.httpClient = httpClient
	return c
}

// Scrape fetches one URL and extracts its text. The call waits for gate
// admission, then retries transient failures within the admitted slot.
func (c *Client) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.New("scrape url is empty")
	}

	var page *Page
	err := c.gate.Run(ctx, func(ctx context.Context) error {
		p, retries, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*Page, error) {
			return c.fetch(ctx, rawURL)
		})
		if retries > 0 {
			c.logger.Debug("scrape needed retries", "url", rawURL, "retries", retries)
		}
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ScrapeMany fetches the URLs concurrently under the gate. Each URL
// succeeds or fails on its own; the returned items preserve input order
// and a failed URL carries its error rather than aborting the batch.
func (c *Client) ScrapeMany(ctx context.Context, urls []string) []Item {
	items := make([]Item, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			page, err := c.Scrape(ctx, u)
			items[i] = Item{URL: u, Page: page, Err: err}
			if err != nil {
				c.logger.Warn("scrape failed", "url", u, "error", err)
			}
		}(i, u)
	}
	wg.Wait()
	return items
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}

	title, text, err := ExtractText(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	if len(text) > maxContentBytes {
		text = text[:maxContentBytes]
	}
	return &Page{URL: rawURL, Title: title, Text: text}, nil
}
