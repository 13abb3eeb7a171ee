package domain

import "time"

// MarketStats holds the figures parsed from one market-snapshot CSV.
// SoldLast30 is nil when the source omitted the column; rendering surfaces
// nil as "NEEDS REVIEW" instead of a fabricated zero.
type MarketStats struct {
	ActiveCount     int  `json:"activeCount"`
	PendingCount    int  `json:"pendingCount"`
	SoldLast30      *int `json:"soldLast30"`
	MedianSoldPrice int  `json:"medianSoldPrice"`
	AvgDaysOnMarket int  `json:"avgDOM"`
	PriceReductions int  `json:"priceReductions"`
}

// Listing is one extracted MLS listing. Beds, Baths and Sqft stay nil when
// the source text did not carry them.
type Listing struct {
	Address   string `json:"address"`
	Price     int    `json:"price"`
	Beds      *int   `json:"beds"`
	Baths     *int   `json:"baths"`
	Sqft      *int   `json:"sqft"`
	MLSNumber string `json:"mlsNumber,omitempty"`
	Status    string `json:"status"`
}

// Featured returns the highest-priced listing, or nil for an empty slice.
func Featured(listings []Listing) *Listing {
	var top *Listing
	for i := range listings {
		if top == nil || listings[i].Price > top.Price {
			top = &listings[i]
		}
	}
	return top
}

// MarketHistory is one rolling market row per (community, week-start).
type MarketHistory struct {
	ID               int64     `db:"id"`
	Community        string    `db:"community"`
	WeekStart        time.Time `db:"week_start"`
	ActiveCount      int       `db:"active_count"`
	PendingCount     int       `db:"pending_count"`
	SoldLast30       *int      `db:"sold_last_30"`
	MedianSoldPrice  int       `db:"median_sold_price"`
	AvgDaysOnMarket  int       `db:"avg_days_on_market"`
	PriceReductions  int       `db:"price_reductions"`
	NewListingsCount *int      `db:"new_listings_count"`
}

type MLSKind string

const (
	MLSMarket   MLSKind = "market"
	MLSListings MLSKind = "listings"
)

// MLSPayload is a raw weekly intake item. Kind is decided once from the
// e-mail subject and gates which extractor runs; it is never re-derived from
// the payload body downstream.
type MLSPayload struct {
	Kind    MLSKind
	Subject string
	Raw     string
	HTML    bool
}

// MarketRenderPayload drives the market snapshot graphic.
type MarketRenderPayload struct {
	MarketStats
}

// ListingsRenderPayload drives the weekly listings graphic.
type ListingsRenderPayload struct {
	Listings         []Listing `json:"listings"`
	MedianSoldPrice  int       `json:"medianSoldPrice"`
	NewListingsCount int       `json:"newListingsCount"`
	AvgDaysOnMarket  int       `json:"avgDOM"`
	PriceReductions  int       `json:"priceReductions"`
}
