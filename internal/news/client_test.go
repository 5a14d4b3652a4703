package news

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"news-assistant/internal/config"
)

const threeArticles = `{
	"status": "ok",
	"totalResults": 3,
	"articles": [
		{"source": {"id": null, "name": "Wired"}, "author": "A. Writer", "title": "EV sales climb", "description": "Sales up", "url": "https://example.com/ev-sales", "content": "Body one"},
		{"source": {"id": "bbc", "name": "BBC"}, "author": null, "title": "Battery breakthrough", "description": "New chemistry", "url": "https://example.com/battery", "content": "Body two"},
		{"source": {"name": "Reuters"}, "author": "B. Reporter", "title": "Charging networks expand", "description": null, "url": "https://example.com/charging", "content": null}
	]
}`

func testNewsConfig(baseURL string) config.NewsConfig {
	return config.NewsConfig{
		BaseURL:               baseURL,
		APIKey:                "test-key",
		TimeoutSeconds:        2,
		BreakerThreshold:      3,
		BreakerTimeoutSeconds: 60,
	}
}

func TestFetchArticles_FormatsEveryArticle(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/everything" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{"q": q.Get("q"), "pageSize": q.Get("pageSize"), "apiKey": q.Get("apiKey")}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, threeArticles)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	blocks := c.FetchArticles(context.Background(), "electric vehicles", "3")

	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	wants := []struct{ title, url string }{
		{"EV sales climb", "https://example.com/ev-sales"},
		{"Battery breakthrough", "https://example.com/battery"},
		{"Charging networks expand", "https://example.com/charging"},
	}
	for i, w := range wants {
		if !strings.Contains(blocks[i], "Title: "+w.title) {
			t.Errorf("block %d missing title %q: %s", i, w.title, blocks[i])
		}
		if !strings.Contains(blocks[i], "URL: "+w.url) {
			t.Errorf("block %d missing url %q: %s", i, w.url, blocks[i])
		}
	}
	if !strings.Contains(blocks[0], "Source: Wired") || !strings.Contains(blocks[0], "Author: A. Writer") {
		t.Errorf("block 0 missing source/author: %s", blocks[0])
	}
	if gotQuery["q"] != "electric vehicles" || gotQuery["pageSize"] != "3" || gotQuery["apiKey"] != "test-key" {
		t.Errorf("unexpected query params: %+v", gotQuery)
	}
}

func TestFetchArticles_PageSizePassedThrough(t *testing.T) {
	var pageSize string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageSize = r.URL.Query().Get("pageSize")
		fmt.Fprint(w, `{"status":"ok","totalResults":0,"articles":[]}`)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	blocks := c.FetchArticles(context.Background(), "climate", "a few")
	if len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
	if pageSize != "a few" {
		t.Errorf("expected page size to pass through untouched, got %q", pageSize)
	}
}

func TestFetchArticles_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	c := NewClient(testNewsConfig("http://" + addr))
	blocks := c.FetchArticles(context.Background(), "climate", "2")
	if blocks == nil || len(blocks) != 0 {
		t.Errorf("expected empty non-nil result, got %#v", blocks)
	}
}

func TestFetchArticles_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status":"error","code":"apiKeyInvalid","message":"bad key"}`)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	if blocks := c.FetchArticles(context.Background(), "climate", "2"); len(blocks) != 0 {
		t.Errorf("expected empty result on HTTP error, got %d blocks", len(blocks))
	}
}

func TestFetchArticles_ErrorStatusInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","code":"rateLimited","message":"slow down"}`)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	if blocks := c.FetchArticles(context.Background(), "climate", "2"); len(blocks) != 0 {
		t.Errorf("expected empty result on error status, got %d blocks", len(blocks))
	}
}

func TestSearch_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok", "articles": [`)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	if _, err := c.Search(context.Background(), "climate", "2"); err == nil {
		t.Errorf("expected parse error")
	}
}

func TestFetchArticles_BreakerOpensAfterFailures(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testNewsConfig(server.URL)
	cfg.BreakerThreshold = 2
	c := NewClient(cfg)
	for i := 0; i < 4; i++ {
		c.FetchArticles(context.Background(), "climate", "2")
	}
	if hits != 2 {
		t.Errorf("expected breaker to stop requests after 2 failures, got %d hits", hits)
	}
	if c.Breaker().State() != StateOpen {
		t.Errorf("expected open breaker, got %s", c.Breaker().State())
	}
}

func TestBreaker_HalfOpenTrial(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), func() error { return fmt.Errorf("boom") })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
	if err := b.Call(context.Background(), func() error { return nil }); err != ErrCircuitOpen {
		t.Fatalf("expected ErrCircuitOpen during cool-down, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if err := b.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected trial to run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful trial, got %s", b.State())
	}
}

func TestBreaker_FailedTrialReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), func() error { return fmt.Errorf("boom") })
	now = now.Add(2 * time.Minute)
	_ = b.Call(context.Background(), func() error { return fmt.Errorf("still down") })
	if b.State() != StateOpen {
		t.Errorf("expected open after failed trial, got %s", b.State())
	}
}

func TestFetchArticles_CancelledCallsDoNotOpenBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, threeArticles)
	}))
	defer server.Close()

	c := NewClient(testNewsConfig(server.URL))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		if blocks := c.FetchArticles(ctx, "ev", "3"); len(blocks) != 0 {
			t.Fatalf("cancelled fetch returned %d blocks", len(blocks))
		}
	}
	if c.Breaker().State() != StateClosed {
		t.Fatalf("caller cancellations opened the breaker: %s", c.Breaker().State())
	}
	if blocks := c.FetchArticles(context.Background(), "ev", "3"); len(blocks) != 3 {
		t.Errorf("expected 3 blocks after cancellations, got %d", len(blocks))
	}
}

func TestBreaker_CancelledTrialAllowsAnother(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Now()
	b.now = func() time.Time { return now }

	_ = b.Call(context.Background(), func() error { return fmt.Errorf("boom") })
	now = now.Add(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = b.Call(ctx, func() error { return ctx.Err() })
	if err := b.Call(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected a new trial after a cancelled one, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful trial, got %s", b.State())
	}
}

func TestArticleFormat_OrderAndFields(t *testing.T) {
	a := Article{
		Source:      Source{Name: "AP"},
		Author:      "C. Author",
		Title:       "Headline",
		Description: "Desc",
		URL:         "https://example.com/x",
		Content:     "Snippet",
	}
	want := "Title: Headline\nAuthor: C. Author\nDescription: Desc\nSource: AP\nURL: https://example.com/x\nContent: Snippet\n"
	if got := a.Format(); got != want {
		t.Errorf("unexpected format:\n%s\nwant:\n%s", got, want)
	}
}
