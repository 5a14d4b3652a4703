// internal/news/client.go
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"news-assistant/internal/config"
)

// Client handles communication with the news search endpoint
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	breaker  *Breaker
	enricher *Enricher
}

// NewClient creates a news client from config. Enrichment is attached when
// news.enrich_content is set.
func NewClient(cfg config.NewsConfig) *Client {
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		APIKey:  cfg.APIKey,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		breaker: NewBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout()),
	}
	if cfg.EnrichContent {
		c.enricher = NewEnricher(c.HTTPClient, cfg.EnrichConcurrency, cfg.MaxContentChars)
	}
	return c
}

// Breaker exposes the circuit breaker guarding the endpoint
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Search performs one request against /v2/everything. pageSize is passed
// through untouched.
func (c *Client) Search(ctx context.Context, topic, pageSize string) (*SearchResponse, error) {
	u, err := url.Parse(c.BaseURL + "/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("q", topic)
	q.Set("pageSize", pageSize)
	q.Set("apiKey", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var out SearchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Status != "ok" {
		return nil, fmt.Errorf("news endpoint reported status %q: %s %s", out.Status, out.Code, out.Message)
	}
	return &out, nil
}

// FetchArticles returns one formatted block per article, in provider order.
// Every failure is logged and degrades to an empty result.
func (c *Client) FetchArticles(ctx context.Context, topic, pageSize string) []string {
	var resp *SearchResponse
	err := c.breaker.Call(ctx, func() error {
		var err error
		resp, err = c.Search(ctx, topic, pageSize)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			log.Printf("[News] Skipping request for %q: %v", topic, err)
		} else {
			log.Printf("[News] Error occurred during news request for %q: %v", topic, err)
		}
		return []string{}
	}

	articles := resp.Articles
	if c.enricher != nil {
		articles = c.enricher.Enrich(ctx, articles)
	}

	log.Printf("[News] Fetched %d articles for %q (total available: %d)", len(articles), topic, resp.TotalResults)
	return FormatAll(articles)
}
