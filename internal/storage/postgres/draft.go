package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"draftbot/internal/domain"
)

const draftColumns = `
	id, type, headline, bullets, local_context, source_url, source_name,
	status, url_hash, title_hash, render_payload, found_at, posted_at,
	external_post_id, created_at, updated_at`

type DraftStore struct {
	db *sqlx.DB
}

func NewDraftStore(db *sqlx.DB) *DraftStore {
	return &DraftStore{db: db}
}

func (s *DraftStore) Insert(ctx context.Context, draft *domain.Draft) (int64, error) {
	query := `
		INSERT INTO drafts (
			type, headline, bullets, local_context, source_url, source_name,
			status, url_hash, title_hash, render_payload, found_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		draft.Type,
		draft.Headline,
		draft.Bullets,
		draft.LocalContext,
		draft.SourceURL,
		draft.SourceName,
		draft.Status,
		draft.URLHash,
		draft.TitleHash,
		draft.RenderPayload,
		draft.FoundAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (s *DraftStore) GetByID(ctx context.Context, id int64) (*domain.Draft, error) {
	var draft domain.Draft
	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &draft, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// ExistsByFingerprints is a both-hashes match: a recycled URL with a new
// headline, or a syndicated headline under a new URL, still counts as fresh.
func (s *DraftStore) ExistsByFingerprints(ctx context.Context, urlHash, titleHash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM drafts WHERE url_hash = $1 AND title_hash = $2)`

	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, urlHash, titleHash)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (s *DraftStore) CountFoundBetween(ctx context.Context, from, to time.Time, exclude []domain.DraftType) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM drafts
		WHERE found_at >= $1 AND found_at < $2 AND type <> ALL($3)`

	excluded := make([]string, 0, len(exclude))
	for _, t := range exclude {
		excluded = append(excluded, string(t))
	}

	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, query, from, to, pq.Array(excluded))
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *DraftStore) SetStatus(ctx context.Context, id int64, status domain.DraftStatus) (*domain.Draft, error) {
	query := `
		UPDATE drafts
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + draftColumns

	var draft domain.Draft
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &draft, query, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (s *DraftStore) MarkPosted(ctx context.Context, id int64, externalPostID string, postedAt time.Time) (*domain.Draft, error) {
	query := `
		UPDATE drafts
		SET status = $2, external_post_id = $3, posted_at = $4, updated_at = now()
		WHERE id = $1
		RETURNING ` + draftColumns

	var draft domain.Draft
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &draft, query, id, domain.StatusPosted, externalPostID, postedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// ListByStatus backs the review API; newest first.
func (s *DraftStore) ListByStatus(ctx context.Context, status domain.DraftStatus, limit int) ([]domain.Draft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE status = $1
		ORDER BY found_at DESC
		LIMIT $2`

	var drafts []domain.Draft
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &drafts, query, status, limit)
	if err != nil {
		return nil, err
	}
	return drafts, nil
}
