package source

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"draftbot/internal/domain"
)

type stubFeed struct {
	name  string
	items []domain.CandidateItem
	err   error
	delay time.Duration
}

func (f *stubFeed) Name() string { return f.name }

func (f *stubFeed) Fetch(ctx context.Context) ([]domain.CandidateItem, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.items, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestAggregator_PreservesFeedOrder(t *testing.T) {
	feeds := []Feed{
		&stubFeed{name: "first", delay: 20 * time.Millisecond, items: []domain.CandidateItem{{Title: "a"}, {Title: "b"}}},
		&stubFeed{name: "second", items: []domain.CandidateItem{{Title: "c"}}},
	}

	agg := NewAggregator(feeds, time.Second, testLogger())
	items, err := agg.FetchCandidates(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Title)
	assert.Equal(t, "b", items[1].Title)
	assert.Equal(t, "c", items[2].Title)
}

func TestAggregator_FailingFeedIsIsolated(t *testing.T) {
	feeds := []Feed{
		&stubFeed{name: "broken", err: errors.New("dns failure")},
		&stubFeed{name: "working", items: []domain.CandidateItem{{Title: "survives"}}},
	}

	agg := NewAggregator(feeds, time.Second, testLogger())
	items, err := agg.FetchCandidates(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "survives", items[0].Title)
}

func TestAggregator_SlowFeedTimesOut(t *testing.T) {
	feeds := []Feed{
		&stubFeed{name: "slow", delay: 500 * time.Millisecond, items: []domain.CandidateItem{{Title: "late"}}},
		&stubFeed{name: "fast", items: []domain.CandidateItem{{Title: "fast"}}},
	}

	agg := NewAggregator(feeds, 50*time.Millisecond, testLogger())
	items, err := agg.FetchCandidates(context.Background())

	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "fast", items[0].Title)
}

func TestAggregator_NoFeeds(t *testing.T) {
	agg := NewAggregator(nil, time.Second, testLogger())
	items, err := agg.FetchCandidates(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, items)
}
