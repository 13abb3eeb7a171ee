package source

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"draftbot/internal/domain"
)

// Feed is one candidate discovery channel.
type Feed interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.CandidateItem, error)
}

// Aggregator fans a fetch out to every configured feed. A failing feed
// contributes nothing; the pass continues with whatever the rest returned.
// Results keep the configured feed order so the downstream first-match scan
// honors source priority.
type Aggregator struct {
	feeds   []Feed
	timeout time.Duration
	logger  *slog.Logger
}

func NewAggregator(feeds []Feed, timeout time.Duration, logger *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Aggregator{
		feeds:   feeds,
		timeout: timeout,
		logger:  logger,
	}
}

func (a *Aggregator) FetchCandidates(ctx context.Context) ([]domain.CandidateItem, error) {
	results := make([][]domain.CandidateItem, len(a.feeds))

	var wg sync.WaitGroup
	for i, feed := range a.feeds {
		wg.Add(1)
		go func(i int, feed Feed) {
			defer wg.Done()

			feedCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			items, err := feed.Fetch(feedCtx)
			if err != nil {
				a.logger.Warn("feed fetch failed", "feed", feed.Name(), "error", err)
				return
			}
			results[i] = items
		}(i, feed)
	}
	wg.Wait()

	var all []domain.CandidateItem
	for _, items := range results {
		all = append(all, items...)
	}
	return all, nil
}
