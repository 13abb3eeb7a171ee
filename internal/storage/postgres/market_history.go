package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"draftbot/internal/domain"
)

type MarketHistoryStore struct {
	db *sqlx.DB
}

func NewMarketHistoryStore(db *sqlx.DB) *MarketHistoryStore {
	return &MarketHistoryStore{db: db}
}

// Upsert writes the week's row. Re-ingesting the same week overwrites the
// previous figures; COALESCE keeps an already-stored optional figure when
// the new ingestion could not supply one.
func (s *MarketHistoryStore) Upsert(ctx context.Context, record *domain.MarketHistory) error {
	query := `
		INSERT INTO market_history (
			community, week_start, active_count, pending_count, sold_last_30,
			median_sold_price, avg_days_on_market, price_reductions, new_listings_count
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (community, week_start) DO UPDATE SET
			active_count = EXCLUDED.active_count,
			pending_count = EXCLUDED.pending_count,
			sold_last_30 = COALESCE(EXCLUDED.sold_last_30, market_history.sold_last_30),
			median_sold_price = EXCLUDED.median_sold_price,
			avg_days_on_market = EXCLUDED.avg_days_on_market,
			price_reductions = EXCLUDED.price_reductions,
			new_listings_count = COALESCE(EXCLUDED.new_listings_count, market_history.new_listings_count)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		record.Community,
		record.WeekStart,
		record.ActiveCount,
		record.PendingCount,
		record.SoldLast30,
		record.MedianSoldPrice,
		record.AvgDaysOnMarket,
		record.PriceReductions,
		record.NewListingsCount,
	)
	return err
}

// Latest returns the most recent week's row, or nil when the community has
// no history yet.
func (s *MarketHistoryStore) Latest(ctx context.Context, community string) (*domain.MarketHistory, error) {
	var record domain.MarketHistory
	query := `
		SELECT id, community, week_start, active_count, pending_count, sold_last_30,
		       median_sold_price, avg_days_on_market, price_reductions, new_listings_count
		FROM market_history
		WHERE community = $1
		ORDER BY week_start DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &record, query, community)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
