// Package search provides the federated web search client: a SearXNG
// JSON API adapter plus the multi-endpoint failover wrapper applied on
// top of it.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexxxmf/goresearch/retry"
)

// Hit is one search result. URL is the dedup key downstream; the
// client itself does not deduplicate.
type Hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client queries one SearXNG instance at a time; the caller supplies
// the endpoint per request so the failover layer controls selection.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a search client with a modest timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  defaultUserAgent,
	}
}

// NewClientWithHTTP creates a search client using the supplied HTTP
// client. This is useful for overriding the default timeout.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, userAgent: defaultUserAgent}
}

// Search queries a single endpoint. Non-2xx responses return a
// *retry.HTTPError carrying the status (and any Retry-After hint) so
// the resilience layer can classify them.
func (c *Client) Search(ctx context.Context, endpoint, query string, limit int) ([]Hit, error) {
	base := strings.TrimRight(endpoint, "/")
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			RetryAfter: retryAfterHeader(resp.Header),
		}
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL == "" {
			continue
		}
		hits = append(hits, Hit{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if limit > 0 && len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

func retryAfterHeader(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
