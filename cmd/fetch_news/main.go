package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"news-assistant/internal/config"
	"news-assistant/internal/news"
)

func main() {
	topic := flag.String("topic", "", "news topic to search for")
	pageSize := flag.String("page-size", "", "number of articles (defaults to news.default_page_size)")
	enrich := flag.Bool("enrich", false, "replace vendor content with the readable text of each article")
	flag.Parse()

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "usage: fetch_news -topic <topic> [-page-size N] [-enrich]")
		os.Exit(2)
	}

	cfg, err := config.LoadNewsConfig(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *enrich {
		cfg.EnrichContent = true
	}
	size := *pageSize
	if size == "" {
		size = cfg.DefaultPageSize
	}

	blocks := news.NewClient(cfg).FetchArticles(context.Background(), *topic, size)
	fmt.Printf("\n=== %d articles for %q ===\n\n", len(blocks), *topic)
	fmt.Println(news.JoinBlocks(blocks))
}
