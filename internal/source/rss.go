package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"

	"draftbot/internal/config"
	"draftbot/internal/domain"
)

// RSSFeed reads one syndication feed. Items come back in feed order, which
// for the feeds we follow is newest first.
type RSSFeed struct {
	name     string
	url      string
	maxItems int
	parser   *gofeed.Parser
	logger   *slog.Logger
}

func NewRSSFeed(cfg config.SourceConfig, logger *slog.Logger) *RSSFeed {
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 25
	}
	return &RSSFeed{
		name:     cfg.Name,
		url:      cfg.URL,
		maxItems: maxItems,
		parser:   gofeed.NewParser(),
		logger:   logger.With("feed", cfg.Name),
	}
}

func (f *RSSFeed) Name() string {
	return f.name
}

func (f *RSSFeed) Fetch(ctx context.Context) ([]domain.CandidateItem, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.url, err)
	}

	items := make([]domain.CandidateItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(items) >= f.maxItems {
			break
		}
		if item.Title == "" || item.Link == "" {
			continue
		}

		items = append(items, domain.CandidateItem{
			Title:        item.Title,
			URL:          item.Link,
			Snippet:      item.Description,
			SourceName:   f.name,
			TextForMatch: strings.TrimSpace(item.Description + " " + item.Content),
			PublishedAt:  item.PublishedParsed,
		})
	}

	f.logger.Debug("fetched feed", "items", len(items))
	return items, nil
}
