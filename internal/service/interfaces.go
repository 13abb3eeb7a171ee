package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"draftbot/internal/domain"
)

type DraftStore interface {
	Insert(ctx context.Context, draft *domain.Draft) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Draft, error)
	// ExistsByFingerprints reports whether some draft carries both hashes
	// together; a single matching hash is not a duplicate.
	ExistsByFingerprints(ctx context.Context, urlHash, titleHash string) (bool, error)
	// CountFoundBetween counts drafts discovered inside [from, to),
	// excluding the given types.
	CountFoundBetween(ctx context.Context, from, to time.Time, exclude []domain.DraftType) (int, error)
	SetStatus(ctx context.Context, id int64, status domain.DraftStatus) (*domain.Draft, error)
	MarkPosted(ctx context.Context, id int64, externalPostID string, postedAt time.Time) (*domain.Draft, error)
	ListByStatus(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error)
}

type MarketHistoryStore interface {
	// Upsert creates or overwrites the row keyed by (community, week-start).
	Upsert(ctx context.Context, record *domain.MarketHistory) error
	Latest(ctx context.Context, community string) (*domain.MarketHistory, error)
}

type CandidateSource interface {
	// FetchCandidates aggregates all configured feeds; a single failing
	// feed contributes nothing instead of failing the pass.
	FetchCandidates(ctx context.Context) ([]domain.CandidateItem, error)
}

type MLSSource interface {
	FetchPayload(ctx context.Context) (*domain.MLSPayload, error)
}

type Publisher interface {
	PublishText(ctx context.Context, message, link string) (string, error)
	PublishPhoto(ctx context.Context, image []byte, caption string) (string, error)
}

type Notifier interface {
	NotifyNewDraft(ctx context.Context, draftID int64, headline string) error
}

type AuditLog interface {
	Append(ctx context.Context, draft *domain.Draft) error
}

type Renderer interface {
	RenderMarket(ctx context.Context, payload domain.MarketRenderPayload) ([]byte, error)
	RenderListings(ctx context.Context, payload domain.ListingsRenderPayload) ([]byte, error)
}

type MarketDataProvider interface {
	// Fetch returns (nil, nil) when the provider is unavailable; callers
	// fall back to stored history.
	Fetch(ctx context.Context) (*domain.MarketFigures, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event domain.DraftEvent) error
	Close() error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
