package news

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/sync/errgroup"
)

const (
	enrichUserAgent = "news-assistant/1.0"
	maxPageBytes    = 2 << 20
	minReadableLen  = 200
)

var errNoReadableText = errors.New("no readable text")

// Enricher replaces the truncated vendor content of each article with text
// extracted from the article page.
type Enricher struct {
	httpClient *http.Client
	limit      int
	maxChars   int
}

// NewEnricher creates an enricher fetching at most limit pages at once
func NewEnricher(httpClient *http.Client, limit, maxChars int) *Enricher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if limit < 1 {
		limit = 4
	}
	if maxChars < 1 {
		maxChars = 1500
	}
	return &Enricher{httpClient: httpClient, limit: limit, maxChars: maxChars}
}

// Enrich returns a copy of articles with Content replaced where extraction
// succeeded. Order is preserved and failures keep the vendor content.
func (e *Enricher) Enrich(ctx context.Context, articles []Article) []Article {
	out := make([]Article, len(articles))
	copy(out, articles)

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i := range out {
		if out[i].URL == "" {
			continue
		}
		i := i
		g.Go(func() error {
			text, err := e.Extract(ctx, out[i].URL)
			if err != nil {
				log.Printf("[News] Enrichment failed for %s: %v", out[i].URL, err)
				return nil
			}
			out[i].Content = text
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Extract fetches pageURL and returns its readable text, truncated to the
// configured length.
func (e *Enricher) Extract(ctx context.Context, pageURL string) (string, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid article URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", enrichUserAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", fmt.Errorf("unsupported content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	text := ""
	if article, err := readability.FromReader(bytes.NewReader(data), parsed); err == nil {
		text = normalizeSpace(article.TextContent)
	}
	if len(text) < minReadableLen {
		// Readability gives up on short or oddly structured pages
		if fallback := paragraphText(data); len(fallback) > len(text) {
			text = fallback
		}
	}
	if text == "" {
		return "", errNoReadableText
	}
	return truncate(text, e.maxChars), nil
}

// paragraphText strips boilerplate and joins the remaining paragraph text.
func paragraphText(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("header, nav, footer, aside, script, style, noscript, svg, form").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return dedupe(parts)
}

// dedupe drops repeated paragraphs such as captions and share prompts
func dedupe(parts []string) string {
	seen := make(map[string]struct{}, len(parts))
	kept := parts[:0]
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		kept = append(kept, p)
	}
	return strings.Join(kept, " ")
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + "..."
}
