package domain

import "time"

type DraftAction string

const (
	ActionCreated  DraftAction = "created"
	ActionPosted   DraftAction = "posted"
	ActionRejected DraftAction = "rejected"
)

// DraftEvent is emitted on the event bus at every lifecycle transition so
// downstream consumers (dashboards, ops tooling) can follow the queue
// without polling the store.
type DraftEvent struct {
	Action    DraftAction `json:"action"`
	DraftID   int64       `json:"draft_id"`
	Type      DraftType   `json:"type"`
	Headline  string      `json:"headline"`
	Timestamp time.Time   `json:"timestamp"`
}

// MarketFigures is a third-party market read (e.g. a portal's housing-market
// page) used to fill fields a listings-only ingestion cannot supply.
type MarketFigures struct {
	MedianSoldPrice int
	AvgDaysOnMarket int
	HomesSold       int
	PriceReductions int
}
