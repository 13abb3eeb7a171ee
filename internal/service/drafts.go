package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"draftbot/internal/config"
	"draftbot/internal/content"
	"draftbot/internal/domain"
	"draftbot/internal/fingerprint"
	"draftbot/internal/mls"
)

// Deps wires all driven adapters into the lifecycle controller.
type Deps struct {
	Rules      content.Rules
	Composer   *content.Composer
	Candidates CandidateSource
	MLS        MLSSource
	Drafts     DraftStore
	History    MarketHistoryStore
	TxManager  TransactionManager
	Publisher  Publisher
	Notifier   Notifier
	Audit      AuditLog
	Renderer   Renderer
	MarketData MarketDataProvider
	Events     EventPublisher
	Logger     *slog.Logger
	Config     config.PipelineConfig
	Community  string
	Location   *time.Location
	Now        func() time.Time
}

// DraftService owns the draft lifecycle: creation with cap and duplicate
// enforcement, idempotent approval with bounded publish retry, rejection,
// and the market-history bookkeeping that accompanies weekly drafts.
type DraftService struct {
	rules      content.Rules
	composer   *content.Composer
	candidates CandidateSource
	mlsSource  MLSSource
	drafts     DraftStore
	history    MarketHistoryStore
	tx         TransactionManager
	publisher  Publisher
	notifier   Notifier
	audit      AuditLog
	renderer   Renderer
	marketData MarketDataProvider
	events     EventPublisher
	logger     *slog.Logger
	cfg        config.PipelineConfig
	community  string
	loc        *time.Location
	now        func() time.Time
	capExempt  []domain.DraftType

	// The cap count and duplicate lookup are read-then-write; a single
	// mutex serializes ingestion passes so two triggers cannot both pass
	// the checks before either writes its draft.
	ingestMu sync.Mutex

	// Approve and Reject read the status before acting on it; this mutex
	// keeps duplicate webhook deliveries from both observing QUEUED and
	// publishing twice. Separate from ingestMu: auto-approval runs Approve
	// while an ingestion pass holds that lock.
	lifecycleMu sync.Mutex
}

func NewDraftService(deps Deps) *DraftService {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	exempt := make([]domain.DraftType, 0, len(deps.Config.CapExemptTypes))
	for _, t := range deps.Config.CapExemptTypes {
		exempt = append(exempt, domain.DraftType(strings.ToUpper(t)))
	}

	return &DraftService{
		rules:      deps.Rules,
		composer:   deps.Composer,
		candidates: deps.Candidates,
		mlsSource:  deps.MLS,
		drafts:     deps.Drafts,
		history:    deps.History,
		tx:         deps.TxManager,
		publisher:  deps.Publisher,
		notifier:   deps.Notifier,
		audit:      deps.Audit,
		renderer:   deps.Renderer,
		marketData: deps.MarketData,
		events:     deps.Events,
		logger:     deps.Logger,
		cfg:        deps.Config,
		community:  deps.Community,
		loc:        loc,
		now:        now,
		capExempt:  exempt,
	}
}

// CreateDailyDraft runs one news ingestion pass. Candidates are scanned in
// source order and the first relevant non-duplicate becomes the draft; the
// rest of the batch is not evaluated. Returns (nil, nil) when the daily cap
// is already met or no candidate qualifies.
func (s *DraftService) CreateDailyDraft(ctx context.Context) (*domain.Draft, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	now := s.now().In(s.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	count, err := s.drafts.CountFoundBetween(ctx, dayStart, dayEnd, s.capExempt)
	if err != nil {
		return nil, fmt.Errorf("count today's drafts: %w", err)
	}
	if count >= s.cfg.DailyCap {
		s.logger.Info("daily cap reached, skipping pass", "count", count, "cap", s.cfg.DailyCap)
		return nil, nil
	}

	started := s.now()
	stats := domain.IngestStats{}

	candidates, err := s.candidates.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	stats.Fetched = len(candidates)

	for _, candidate := range candidates {
		if !s.rules.IsRelevant(candidate) {
			continue
		}
		stats.Relevant++

		urlHash := fingerprint.Hash(candidate.URL)
		titleHash := fingerprint.Hash(candidate.Title)
		exists, err := s.drafts.ExistsByFingerprints(ctx, urlHash, titleHash)
		if err != nil {
			return nil, fmt.Errorf("duplicate lookup: %w", err)
		}
		if exists {
			stats.Duplicates++
			s.logger.Debug("skipping duplicate candidate", "url", candidate.URL)
			continue
		}

		built := s.composer.FromCandidate(candidate)
		foundAt := now
		if candidate.PublishedAt != nil {
			foundAt = *candidate.PublishedAt
		}

		draft := &domain.Draft{
			Type:         built.Type,
			Headline:     built.Headline,
			Bullets:      strings.Join(built.Bullets, "\n"),
			LocalContext: built.LocalContext,
			SourceURL:    candidate.URL,
			SourceName:   candidate.SourceName,
			Status:       domain.StatusQueued,
			URLHash:      urlHash,
			TitleHash:    titleHash,
			FoundAt:      foundAt,
		}

		if err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
			id, err := s.drafts.Insert(txCtx, draft)
			if err != nil {
				return fmt.Errorf("insert draft: %w", err)
			}
			draft.ID = id
			return nil
		}); err != nil {
			return nil, err
		}

		stats.Created = 1
		stats.Duration = s.now().Sub(started)
		s.logPass(stats)
		return s.afterCreate(ctx, draft)
	}

	stats.Duration = s.now().Sub(started)
	s.logPass(stats)
	return nil, nil
}

func (s *DraftService) logPass(stats domain.IngestStats) {
	s.logger.Info("ingestion pass complete",
		"fetched", stats.Fetched,
		"relevant", stats.Relevant,
		"duplicates", stats.Duplicates,
		"created", stats.Created,
		"duration", stats.Duration,
	)
}

// IngestWeeklyMLS fetches the latest MLS payload and dispatches it to the
// extractor its intake kind selects. The two extractors never both run.
func (s *DraftService) IngestWeeklyMLS(ctx context.Context) (*domain.Draft, error) {
	payload, err := s.mlsSource.FetchPayload(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch mls payload: %w", err)
	}

	switch payload.Kind {
	case domain.MLSMarket:
		return s.CreateMarketDraft(ctx, mls.ParseMarketSnapshotCSV(payload.Raw))
	case domain.MLSListings:
		var listings []domain.Listing
		if payload.HTML {
			listings = mls.ParseListingsHTML(payload.Raw)
		} else {
			listings = mls.ParseListingsCSV(payload.Raw)
		}
		return s.CreateListingsDraft(ctx, listings)
	default:
		return nil, fmt.Errorf("unrecognized mls payload kind %q", payload.Kind)
	}
}

// CreateMarketDraft stores the weekly market snapshot and queues the draft.
// Market drafts are exempt from the daily cap: they originate from a weekly
// external trigger, not discovery volume.
func (s *DraftService) CreateMarketDraft(ctx context.Context, stats domain.MarketStats) (*domain.Draft, error) {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	now := s.now().In(s.loc)
	week := weekStart(now)

	record := &domain.MarketHistory{
		Community:       s.community,
		WeekStart:       week,
		ActiveCount:     stats.ActiveCount,
		PendingCount:    stats.PendingCount,
		SoldLast30:      stats.SoldLast30,
		MedianSoldPrice: stats.MedianSoldPrice,
		AvgDaysOnMarket: stats.AvgDaysOnMarket,
		PriceReductions: stats.PriceReductions,
	}

	payload, err := json.Marshal(domain.MarketRenderPayload{MarketStats: stats})
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}

	built := s.composer.MarketContent(stats)
	draft := &domain.Draft{
		Type:          domain.TypeMarket,
		Headline:      built.Headline,
		Bullets:       strings.Join(built.Bullets, "\n"),
		SourceName:    "MLS Email",
		Status:        domain.StatusQueued,
		URLHash:       fingerprint.Hash(fmt.Sprintf("market-%s-%s", s.community, week.Format("2006-01-02"))),
		TitleHash:     fingerprint.Hash(built.Headline),
		RenderPayload: payload,
		FoundAt:       now,
	}

	if err := s.persistWeekly(ctx, record, draft); err != nil {
		return nil, err
	}
	return s.afterCreate(ctx, draft)
}

// CreateListingsDraft queues the weekly new-listings draft. The accompanying
// market-history row merges third-party figures, or the latest stored row,
// over the fields a listings-only ingestion cannot supply.
func (s *DraftService) CreateListingsDraft(ctx context.Context, listings []domain.Listing) (*domain.Draft, error) {
	if len(listings) == 0 {
		s.logger.Info("no listings extracted, skipping draft")
		return nil, nil
	}

	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	now := s.now().In(s.loc)
	week := weekStart(now)
	count := len(listings)

	figures, err := s.marketData.Fetch(ctx)
	if err != nil {
		s.logger.Warn("market data provider failed, using stored history", "error", err)
		figures = nil
	}

	latest, err := s.history.Latest(ctx, s.community)
	if err != nil {
		return nil, fmt.Errorf("load latest market history: %w", err)
	}

	record := &domain.MarketHistory{
		Community:        s.community,
		WeekStart:        week,
		NewListingsCount: &count,
	}
	snapshot := domain.ListingsRenderPayload{
		Listings:         listings,
		NewListingsCount: count,
	}

	switch {
	case figures != nil:
		record.SoldLast30 = &figures.HomesSold
		record.MedianSoldPrice = figures.MedianSoldPrice
		record.AvgDaysOnMarket = figures.AvgDaysOnMarket
		record.PriceReductions = figures.PriceReductions
		if latest != nil {
			record.ActiveCount = latest.ActiveCount
			record.PendingCount = latest.PendingCount
		}
		snapshot.MedianSoldPrice = figures.MedianSoldPrice
		snapshot.AvgDaysOnMarket = figures.AvgDaysOnMarket
		snapshot.PriceReductions = figures.PriceReductions
	case latest != nil:
		record.ActiveCount = latest.ActiveCount
		record.PendingCount = latest.PendingCount
		record.SoldLast30 = latest.SoldLast30
		record.MedianSoldPrice = latest.MedianSoldPrice
		record.AvgDaysOnMarket = latest.AvgDaysOnMarket
		record.PriceReductions = latest.PriceReductions
		snapshot.MedianSoldPrice = latest.MedianSoldPrice
		snapshot.AvgDaysOnMarket = latest.AvgDaysOnMarket
		snapshot.PriceReductions = latest.PriceReductions
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal render payload: %w", err)
	}

	built := s.composer.ListingsContent(listings, snapshot)
	draft := &domain.Draft{
		Type:          domain.TypeListings,
		Headline:      built.Headline,
		Bullets:       strings.Join(built.Bullets, "\n"),
		SourceName:    "MLS Email",
		Status:        domain.StatusQueued,
		URLHash:       fingerprint.Hash(fmt.Sprintf("listings-%s-%s", s.community, week.Format("2006-01-02"))),
		TitleHash:     fingerprint.Hash(built.Headline),
		RenderPayload: payload,
		FoundAt:       now,
	}

	if err := s.persistWeekly(ctx, record, draft); err != nil {
		return nil, err
	}
	return s.afterCreate(ctx, draft)
}

// Approve publishes a draft. Approving an already-POSTED draft returns it
// unchanged without a second publish, so retried approval signals are safe.
// A publish failure surfaces to the caller; the draft stays APPROVED for a
// manual retry.
func (s *DraftService) Approve(ctx context.Context, draftID int64) (*domain.Draft, error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status == domain.StatusPosted {
		return draft, nil
	}
	if draft.Status == domain.StatusRejected {
		return nil, fmt.Errorf("approve draft %d: %w", draftID, domain.ErrTerminalState)
	}

	approved, err := s.drafts.SetStatus(ctx, draftID, domain.StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("mark approved: %w", err)
	}

	message := content.FormatPublishMessage(approved)
	postID, err := s.publish(ctx, approved, message)
	if err != nil {
		return approved, fmt.Errorf("publish draft %d: %w", draftID, err)
	}

	posted, err := s.drafts.MarkPosted(ctx, draftID, postID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark posted: %w", err)
	}

	s.emit(ctx, domain.ActionPosted, posted)
	s.logger.Info("draft posted", "draft_id", draftID, "post_id", postID)
	return posted, nil
}

// Queued returns the drafts awaiting review, newest first.
func (s *DraftService) Queued(ctx context.Context, limit int) ([]domain.Draft, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.drafts.ListByStatus(ctx, domain.StatusQueued, limit)
}

// Reject is terminal and has no external side effects.
func (s *DraftService) Reject(ctx context.Context, draftID int64) (*domain.Draft, error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	draft, err := s.drafts.GetByID(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status == domain.StatusRejected {
		return draft, nil
	}
	if draft.Status == domain.StatusPosted {
		return nil, fmt.Errorf("reject draft %d: %w", draftID, domain.ErrTerminalState)
	}

	rejected, err := s.drafts.SetStatus(ctx, draftID, domain.StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("mark rejected: %w", err)
	}

	s.emit(ctx, domain.ActionRejected, rejected)
	return rejected, nil
}

// persistWeekly writes the history upsert and the draft insert atomically.
func (s *DraftService) persistWeekly(ctx context.Context, record *domain.MarketHistory, draft *domain.Draft) error {
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.history.Upsert(txCtx, record); err != nil {
			return fmt.Errorf("upsert market history: %w", err)
		}
		id, err := s.drafts.Insert(txCtx, draft)
		if err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}
		draft.ID = id
		return nil
	})
}

// afterCreate runs the side channels and the optional auto-approval. Notify
// and audit are best-effort: their failure never fails draft creation.
func (s *DraftService) afterCreate(ctx context.Context, draft *domain.Draft) (*domain.Draft, error) {
	s.emit(ctx, domain.ActionCreated, draft)

	if s.audit != nil {
		if err := s.audit.Append(ctx, draft); err != nil {
			s.logger.Warn("audit append failed", "draft_id", draft.ID, "error", err)
		}
	}

	if !s.cfg.AutoApprove && s.notifier != nil {
		if err := s.notifier.NotifyNewDraft(ctx, draft.ID, draft.Headline); err != nil {
			s.logger.Warn("approval notification failed", "draft_id", draft.ID, "error", err)
		}
	}

	if s.cfg.AutoApprove {
		return s.Approve(ctx, draft.ID)
	}
	return draft, nil
}

// publish selects the strategy: a photo post when the category carries a
// render payload, a text post otherwise. Both go through bounded retry with
// linearly increasing backoff.
func (s *DraftService) publish(ctx context.Context, draft *domain.Draft, message string) (string, error) {
	renderable := draft.Type == domain.TypeMarket || draft.Type == domain.TypeListings
	if renderable && len(draft.RenderPayload) > 0 && s.renderer != nil {
		image, err := s.renderImage(ctx, draft)
		if err != nil {
			return "", fmt.Errorf("render image: %w", err)
		}
		return s.withRetry(ctx, func() (string, error) {
			return s.publisher.PublishPhoto(ctx, image, message)
		})
	}

	return s.withRetry(ctx, func() (string, error) {
		return s.publisher.PublishText(ctx, message, draft.SourceURL)
	})
}

func (s *DraftService) renderImage(ctx context.Context, draft *domain.Draft) ([]byte, error) {
	switch draft.Type {
	case domain.TypeMarket:
		var payload domain.MarketRenderPayload
		if err := json.Unmarshal(draft.RenderPayload, &payload); err != nil {
			return nil, fmt.Errorf("decode market payload: %w", err)
		}
		return s.renderer.RenderMarket(ctx, payload)
	default:
		var payload domain.ListingsRenderPayload
		if err := json.Unmarshal(draft.RenderPayload, &payload); err != nil {
			return nil, fmt.Errorf("decode listings payload: %w", err)
		}
		return s.renderer.RenderListings(ctx, payload)
	}
}

func (s *DraftService) withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.PublishRetry.MaxAttempts; attempt++ {
		id, err := fn()
		if err == nil {
			return id, nil
		}
		lastErr = err
		if attempt == s.cfg.PublishRetry.MaxAttempts {
			break
		}

		backoff := time.Duration(attempt) * s.cfg.PublishRetry.InitialBackoff
		s.logger.Warn("publish attempt failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
	return "", lastErr
}

func (s *DraftService) emit(ctx context.Context, action domain.DraftAction, draft *domain.Draft) {
	if s.events == nil {
		return
	}
	event := domain.DraftEvent{
		Action:    action,
		DraftID:   draft.ID,
		Type:      draft.Type,
		Headline:  draft.Headline,
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "action", action, "draft_id", draft.ID, "error", err)
	}
}

// weekStart truncates to the week's Monday at midnight local time.
func weekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
