// internal/tools/news.go
package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"news-assistant/internal/news"
)

// ArticleFetcher is the news lookup the get_news tool delegates to
type ArticleFetcher interface {
	FetchArticles(ctx context.Context, topic, pageSize string) []string
}

// NewsTool implements the get_news function the assistant calls
type NewsTool struct {
	fetcher         ArticleFetcher
	defaultPageSize string
}

// NewNewsTool creates the get_news tool. defaultPageSize is used when the
// assistant omits page_size.
func NewNewsTool(fetcher ArticleFetcher, defaultPageSize string) *NewsTool {
	if defaultPageSize == "" {
		defaultPageSize = "3"
	}
	return &NewsTool{fetcher: fetcher, defaultPageSize: defaultPageSize}
}

func (t *NewsTool) Name() string {
	return ToolNameGetNews
}

func (t *NewsTool) Description() string {
	return "Summarize the Content of the News articles"
}

func (t *NewsTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"topic": map[string]interface{}{
				"type":        "string",
				"description": "Write a summary of the News related to the topic given by the User",
			},
			"page_size": map[string]interface{}{
				"type":        "string",
				"description": "This is the number of articles the get_news function should have for page_size",
			},
		},
		"required": []string{"topic"},
	}
}

// Execute fetches and formats articles.
// Expected params:
//   - "topic" (string): search topic
//   - "page_size" (string, optional): number of articles, passed through as-is
func (t *NewsTool) Execute(ctx context.Context, params map[string]interface{}) (*ToolResult, error) {
	topic, ok := params["topic"].(string)
	if !ok || strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: missing or invalid 'topic' parameter", ErrInvalidArguments)
	}

	pageSize := t.defaultPageSize
	switch v := params["page_size"].(type) {
	case string:
		if v != "" {
			pageSize = v
		}
	case float64:
		// Models sometimes send numbers despite the string schema
		pageSize = strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
	default:
		return nil, fmt.Errorf("%w: 'page_size' must be a string", ErrInvalidArguments)
	}

	blocks := t.fetcher.FetchArticles(ctx, topic, pageSize)

	return &ToolResult{
		Output: news.JoinBlocks(blocks),
		Metadata: map[string]interface{}{
			"topic":     topic,
			"page_size": pageSize,
			"articles":  len(blocks),
		},
	}, nil
}
