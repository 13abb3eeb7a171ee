package domain

import "time"

type DraftType string

const (
	TypeNews     DraftType = "NEWS"
	TypeSchool   DraftType = "SCHOOL"
	TypeInfra    DraftType = "INFRA"
	TypeEvent    DraftType = "EVENT"
	TypeMarket   DraftType = "MARKET"
	TypeListings DraftType = "LISTINGS"
	TypeDev      DraftType = "DEV"
)

type DraftStatus string

const (
	StatusQueued   DraftStatus = "QUEUED"
	StatusApproved DraftStatus = "APPROVED"
	StatusRejected DraftStatus = "REJECTED"
	StatusPosted   DraftStatus = "POSTED"
)

// Terminal reports whether no further state transition is allowed.
func (s DraftStatus) Terminal() bool {
	return s == StatusRejected || s == StatusPosted
}

// CandidateItem is an unvetted content item discovered from a feed. It lives
// only for the duration of one ingestion pass.
type CandidateItem struct {
	Title        string
	URL          string
	Snippet      string
	SourceName   string
	TextForMatch string
	PublishedAt  *time.Time
}

// Draft is the durable unit of publishable content moving through approval.
// Bullets holds newline-delimited highlight lines. RenderPayload is a JSON
// cache consumed only by the image render step, never by decision logic.
type Draft struct {
	ID             int64       `db:"id" json:"id"`
	Type           DraftType   `db:"type" json:"type"`
	Headline       string      `db:"headline" json:"headline"`
	Bullets        string      `db:"bullets" json:"bullets"`
	LocalContext   string      `db:"local_context" json:"localContext,omitempty"`
	SourceURL      string      `db:"source_url" json:"sourceUrl,omitempty"`
	SourceName     string      `db:"source_name" json:"sourceName,omitempty"`
	Status         DraftStatus `db:"status" json:"status"`
	URLHash        string      `db:"url_hash" json:"-"`
	TitleHash      string      `db:"title_hash" json:"-"`
	RenderPayload  []byte      `db:"render_payload" json:"-"`
	FoundAt        time.Time   `db:"found_at" json:"foundAt"`
	PostedAt       *time.Time  `db:"posted_at" json:"postedAt,omitempty"`
	ExternalPostID *string     `db:"external_post_id" json:"externalPostId,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}
