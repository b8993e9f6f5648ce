package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

// RSSScanner pulls records from publication RSS feeds. Feeds only cover
// recent items, so this strategy backs the ongoing-monitoring setup rather
// than the historical backfill.
type RSSScanner struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewRSSScanner builds the strategy around a shared feed parser.
func NewRSSScanner(log *slog.Logger) *RSSScanner {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSSScanner{parser: parser, logger: log}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan reads every configured feed and keeps items mentioning a keyword.
// With no keywords configured everything passes, for downstream filtering.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no feeds configured for site %s", req.SiteName)
	}

	var results []domain.Record
	for _, cat := range req.Categories {
		feed, err := r.parser.ParseURLWithContext(cat.URL, ctx)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", cat.Name, err)
		}

		kept := 0
		for _, item := range feed.Items {
			matched := matchKeywords(item.Title+" "+item.Description, req.Keywords)
			if len(req.Keywords) > 0 && len(matched) == 0 {
				continue
			}

			date := item.Published
			if item.PublishedParsed != nil {
				date = item.PublishedParsed.Format(time.RFC3339)
			}

			results = append(results, domain.Record{
				URL:             item.Link,
				Publication:     req.SiteName,
				Title:           item.Title,
				Text:            item.Description,
				Date:            date,
				KeywordsMatched: matched,
				ScrapedAt:       time.Now().Format(time.RFC3339),
			})
			kept++
		}
		r.logger.Info("feed read", "feed", cat.Name, "items", len(feed.Items), "kept", kept)
	}

	return dedupeRecords(results), nil
}

func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
