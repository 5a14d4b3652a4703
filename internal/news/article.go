// internal/news/article.go
package news

import (
	"fmt"
	"strings"
)

// Source identifies the publisher of an article
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Article is a single item from the news search endpoint. All fields are
// vendor strings; JSON nulls decode to "".
type Article struct {
	Source      Source `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// SearchResponse is the body returned by /v2/everything
type SearchResponse struct {
	Status       string    `json:"status"`
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`

	// Set when Status is "error"
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Format renders an article as the flat text block handed to the assistant.
func (a Article) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	fmt.Fprintf(&b, "Author: %s\n", a.Author)
	fmt.Fprintf(&b, "Description: %s\n", a.Description)
	fmt.Fprintf(&b, "Source: %s\n", a.Source.Name)
	fmt.Fprintf(&b, "URL: %s\n", a.URL)
	fmt.Fprintf(&b, "Content: %s\n", a.Content)
	return b.String()
}

// FormatAll formats articles in order.
func FormatAll(articles []Article) []string {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		blocks = append(blocks, a.Format())
	}
	return blocks
}

// JoinBlocks concatenates formatted blocks into one tool output, separated by
// a blank line.
func JoinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n")
}
