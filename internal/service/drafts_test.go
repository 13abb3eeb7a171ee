package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"draftbot/internal/config"
	"draftbot/internal/content"
	"draftbot/internal/domain"
	"draftbot/internal/service/mocks"
)

type DraftServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	candidates *mocks.MockCandidateSource
	mlsSource  *mocks.MockMLSSource
	drafts     *mocks.MockDraftStore
	history    *mocks.MockMarketHistoryStore
	txManager  *mocks.MockTransactionManager
	publisher  *mocks.MockPublisher
	notifier   *mocks.MockNotifier
	audit      *mocks.MockAuditLog
	renderer   *mocks.MockRenderer
	marketData *mocks.MockMarketDataProvider
	events     *mocks.MockEventPublisher

	service *DraftService
	cfg     config.PipelineConfig
	logger  *slog.Logger
	now     time.Time
}

func (s *DraftServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.candidates = mocks.NewMockCandidateSource(s.ctrl)
	s.mlsSource = mocks.NewMockMLSSource(s.ctrl)
	s.drafts = mocks.NewMockDraftStore(s.ctrl)
	s.history = mocks.NewMockMarketHistoryStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.audit = mocks.NewMockAuditLog(s.ctrl)
	s.renderer = mocks.NewMockRenderer(s.ctrl)
	s.marketData = mocks.NewMockMarketDataProvider(s.ctrl)
	s.events = mocks.NewMockEventPublisher(s.ctrl)

	s.cfg = config.PipelineConfig{
		DailyCap:       1,
		CapExemptTypes: []string{"MARKET"},
		PublishRetry: config.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
		},
	}

	// Wednesday; the surrounding week starts Monday March 10.
	s.now = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.buildService()
}

func (s *DraftServiceTestSuite) buildService() {
	rules := content.DefaultRules()
	s.service = NewDraftService(Deps{
		Rules:      rules,
		Composer:   content.NewComposer("Two Rivers", []string{"Living in Two Rivers? Follow for weekly updates."}, rules),
		Candidates: s.candidates,
		MLS:        s.mlsSource,
		Drafts:     s.drafts,
		History:    s.history,
		TxManager:  s.txManager,
		Publisher:  s.publisher,
		Notifier:   s.notifier,
		Audit:      s.audit,
		Renderer:   s.renderer,
		MarketData: s.marketData,
		Events:     s.events,
		Logger:     s.logger,
		Config:     s.cfg,
		Community:  "Two Rivers",
		Location:   time.UTC,
		Now:        func() time.Time { return s.now },
	})
}

func (s *DraftServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestDraftServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DraftServiceTestSuite))
}

func (s *DraftServiceTestSuite) expectTransaction(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *DraftServiceTestSuite) TestCreateDailyDraft_FirstRelevantCandidateWins() {
	ctx := context.Background()

	candidates := []domain.CandidateItem{
		{Title: "Yankees take the series", URL: "https://news.test/yankees", SourceName: "Sports Desk"},
		{Title: "New elementary school breaks ground in Two Rivers", URL: "https://news.test/school", Snippet: "Construction starts next month.", SourceName: "Pasco Times"},
		{Title: "Two Rivers farmers market returns", URL: "https://news.test/market", SourceName: "Pasco Times"},
	}

	exempt := []domain.DraftType{domain.TypeMarket}
	dayStart := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	s.drafts.EXPECT().CountFoundBetween(ctx, dayStart, dayStart.AddDate(0, 0, 1), exempt).Return(0, nil)

	s.candidates.EXPECT().FetchCandidates(ctx).Return(candidates, nil)

	s.drafts.EXPECT().ExistsByFingerprints(ctx, gomock.Any(), gomock.Any()).Return(false, nil)

	s.expectTransaction(ctx)

	var inserted *domain.Draft
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, draft *domain.Draft) (int64, error) {
			inserted = draft
			return 42, nil
		},
	)

	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(42), "New elementary school breaks ground in Two Rivers").Return(nil)

	draft, err := s.service.CreateDailyDraft(ctx)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal(int64(42), draft.ID)
	s.Equal(domain.StatusQueued, draft.Status)
	s.Equal(domain.TypeSchool, draft.Type)
	s.Equal("https://news.test/school", draft.SourceURL)
	s.NotEmpty(inserted.URLHash)
	s.NotEmpty(inserted.TitleHash)
}

func (s *DraftServiceTestSuite) TestCreateDailyDraft_CapAlreadyMet() {
	ctx := context.Background()

	s.drafts.EXPECT().CountFoundBetween(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(1, nil)

	draft, err := s.service.CreateDailyDraft(ctx)

	s.NoError(err)
	s.Nil(draft)
}

func (s *DraftServiceTestSuite) TestCreateDailyDraft_DuplicateScansForward() {
	ctx := context.Background()

	candidates := []domain.CandidateItem{
		{Title: "Two Rivers pool reopens", URL: "https://news.test/pool", SourceName: "Pasco Times"},
		{Title: "Two Rivers trail extension approved", URL: "https://news.test/trail", SourceName: "Pasco Times"},
	}

	s.drafts.EXPECT().CountFoundBetween(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	s.candidates.EXPECT().FetchCandidates(ctx).Return(candidates, nil)

	gomock.InOrder(
		s.drafts.EXPECT().ExistsByFingerprints(ctx, gomock.Any(), gomock.Any()).Return(true, nil),
		s.drafts.EXPECT().ExistsByFingerprints(ctx, gomock.Any(), gomock.Any()).Return(false, nil),
	)

	s.expectTransaction(ctx)
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).Return(int64(7), nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(7), "Two Rivers trail extension approved").Return(nil)

	draft, err := s.service.CreateDailyDraft(ctx)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal("https://news.test/trail", draft.SourceURL)
}

func (s *DraftServiceTestSuite) TestCreateDailyDraft_NoQualifyingCandidate() {
	ctx := context.Background()

	s.drafts.EXPECT().CountFoundBetween(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	s.candidates.EXPECT().FetchCandidates(ctx).Return([]domain.CandidateItem{
		{Title: "Statewide lottery results", URL: "https://news.test/lottery"},
	}, nil)

	draft, err := s.service.CreateDailyDraft(ctx)

	s.NoError(err)
	s.Nil(draft)
}

func (s *DraftServiceTestSuite) TestCreateDailyDraft_AutoApprovePublishesImmediately() {
	ctx := context.Background()

	s.cfg.AutoApprove = true
	s.buildService()

	s.drafts.EXPECT().CountFoundBetween(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil)
	s.candidates.EXPECT().FetchCandidates(ctx).Return([]domain.CandidateItem{
		{Title: "Two Rivers road widening begins", URL: "https://news.test/road", SourceName: "Pasco Times"},
	}, nil)
	s.drafts.EXPECT().ExistsByFingerprints(ctx, gomock.Any(), gomock.Any()).Return(false, nil)

	s.expectTransaction(ctx)
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).Return(int64(11), nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil).Times(2)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)

	queued := &domain.Draft{
		ID:        11,
		Type:      domain.TypeInfra,
		Headline:  "Two Rivers road widening begins",
		Bullets:   "📰 Source: Pasco Times",
		SourceURL: "https://news.test/road",
		Status:    domain.StatusQueued,
	}
	approved := *queued
	approved.Status = domain.StatusApproved
	posted := approved
	posted.Status = domain.StatusPosted

	s.drafts.EXPECT().GetByID(ctx, int64(11)).Return(queued, nil)
	s.drafts.EXPECT().SetStatus(ctx, int64(11), domain.StatusApproved).Return(&approved, nil)
	s.publisher.EXPECT().PublishText(ctx, gomock.Any(), "https://news.test/road").Return("fb_123", nil)
	s.drafts.EXPECT().MarkPosted(ctx, int64(11), "fb_123", s.now).Return(&posted, nil)

	draft, err := s.service.CreateDailyDraft(ctx)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal(domain.StatusPosted, draft.Status)
}

func (s *DraftServiceTestSuite) TestApprove_PostedIsIdempotent() {
	ctx := context.Background()

	postID := "fb_900"
	existing := &domain.Draft{ID: 5, Status: domain.StatusPosted, ExternalPostID: &postID}
	s.drafts.EXPECT().GetByID(ctx, int64(5)).Return(existing, nil)

	draft, err := s.service.Approve(ctx, 5)

	s.NoError(err)
	s.Equal(existing, draft)
}

func (s *DraftServiceTestSuite) TestApprove_RejectedIsTerminal() {
	ctx := context.Background()

	s.drafts.EXPECT().GetByID(ctx, int64(5)).Return(&domain.Draft{ID: 5, Status: domain.StatusRejected}, nil)

	draft, err := s.service.Approve(ctx, 5)

	s.ErrorIs(err, domain.ErrTerminalState)
	s.Nil(draft)
}

func (s *DraftServiceTestSuite) TestApprove_RetriesThenSucceeds() {
	ctx := context.Background()

	queued := &domain.Draft{ID: 8, Type: domain.TypeNews, Headline: "Two Rivers news", SourceURL: "https://news.test/x", Status: domain.StatusQueued}
	approved := *queued
	approved.Status = domain.StatusApproved
	posted := approved
	posted.Status = domain.StatusPosted

	s.drafts.EXPECT().GetByID(ctx, int64(8)).Return(queued, nil)
	s.drafts.EXPECT().SetStatus(ctx, int64(8), domain.StatusApproved).Return(&approved, nil)

	gomock.InOrder(
		s.publisher.EXPECT().PublishText(ctx, gomock.Any(), "https://news.test/x").Return("", errors.New("rate limited")),
		s.publisher.EXPECT().PublishText(ctx, gomock.Any(), "https://news.test/x").Return("fb_456", nil),
	)

	s.drafts.EXPECT().MarkPosted(ctx, int64(8), "fb_456", s.now).Return(&posted, nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)

	draft, err := s.service.Approve(ctx, 8)

	s.NoError(err)
	s.Equal(domain.StatusPosted, draft.Status)
}

func (s *DraftServiceTestSuite) TestApprove_PublishFailureLeavesApproved() {
	ctx := context.Background()

	queued := &domain.Draft{ID: 9, Type: domain.TypeNews, Headline: "Two Rivers news", SourceURL: "https://news.test/y", Status: domain.StatusQueued}
	approved := *queued
	approved.Status = domain.StatusApproved

	s.drafts.EXPECT().GetByID(ctx, int64(9)).Return(queued, nil)
	s.drafts.EXPECT().SetStatus(ctx, int64(9), domain.StatusApproved).Return(&approved, nil)

	s.publisher.EXPECT().PublishText(ctx, gomock.Any(), "https://news.test/y").
		Return("", errors.New("graph api down")).
		Times(s.cfg.PublishRetry.MaxAttempts)

	draft, err := s.service.Approve(ctx, 9)

	s.Error(err)
	s.Require().NotNil(draft)
	s.Equal(domain.StatusApproved, draft.Status)
}

func (s *DraftServiceTestSuite) TestApprove_ConcurrentDeliveriesPublishOnce() {
	ctx := context.Background()

	current := &domain.Draft{ID: 17, Type: domain.TypeNews, Headline: "Two Rivers news", SourceURL: "https://news.test/z", Status: domain.StatusQueued}

	s.drafts.EXPECT().GetByID(ctx, int64(17)).DoAndReturn(
		func(ctx context.Context, id int64) (*domain.Draft, error) {
			snapshot := *current
			return &snapshot, nil
		},
	).Times(2)
	s.drafts.EXPECT().SetStatus(ctx, int64(17), domain.StatusApproved).DoAndReturn(
		func(ctx context.Context, id int64, status domain.DraftStatus) (*domain.Draft, error) {
			current.Status = status
			snapshot := *current
			return &snapshot, nil
		},
	)
	s.publisher.EXPECT().PublishText(ctx, gomock.Any(), "https://news.test/z").Return("fb_111", nil)
	s.drafts.EXPECT().MarkPosted(ctx, int64(17), "fb_111", s.now).DoAndReturn(
		func(ctx context.Context, id int64, postID string, at time.Time) (*domain.Draft, error) {
			current.Status = domain.StatusPosted
			snapshot := *current
			return &snapshot, nil
		},
	)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)

	var wg sync.WaitGroup
	results := make([]*domain.Draft, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.Approve(ctx, 17)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		s.NoError(errs[i])
		s.Require().NotNil(results[i])
		s.Equal(domain.StatusPosted, results[i].Status)
	}
}

func (s *DraftServiceTestSuite) TestApprove_MarketDraftPostsRenderedPhoto() {
	ctx := context.Background()

	sold := 12
	payload := []byte(`{"activeCount":40,"pendingCount":11,"soldLast30":12,"medianSoldPrice":450000,"avgDOM":33,"priceReductions":5}`)
	queued := &domain.Draft{ID: 13, Type: domain.TypeMarket, Headline: "Two Rivers Market Snapshot 📊", RenderPayload: payload, Status: domain.StatusQueued}
	approved := *queued
	approved.Status = domain.StatusApproved
	posted := approved
	posted.Status = domain.StatusPosted

	s.drafts.EXPECT().GetByID(ctx, int64(13)).Return(queued, nil)
	s.drafts.EXPECT().SetStatus(ctx, int64(13), domain.StatusApproved).Return(&approved, nil)

	image := []byte{0x89, 'P', 'N', 'G'}
	s.renderer.EXPECT().RenderMarket(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, p domain.MarketRenderPayload) ([]byte, error) {
			s.Equal(40, p.ActiveCount)
			s.Require().NotNil(p.SoldLast30)
			s.Equal(sold, *p.SoldLast30)
			return image, nil
		},
	)
	s.publisher.EXPECT().PublishPhoto(ctx, image, gomock.Any()).Return("fb_789", nil)
	s.drafts.EXPECT().MarkPosted(ctx, int64(13), "fb_789", s.now).Return(&posted, nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)

	draft, err := s.service.Approve(ctx, 13)

	s.NoError(err)
	s.Equal(domain.StatusPosted, draft.Status)
}

func (s *DraftServiceTestSuite) TestReject() {
	ctx := context.Background()

	queued := &domain.Draft{ID: 3, Status: domain.StatusQueued}
	rejected := *queued
	rejected.Status = domain.StatusRejected

	s.drafts.EXPECT().GetByID(ctx, int64(3)).Return(queued, nil)
	s.drafts.EXPECT().SetStatus(ctx, int64(3), domain.StatusRejected).Return(&rejected, nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)

	draft, err := s.service.Reject(ctx, 3)

	s.NoError(err)
	s.Equal(domain.StatusRejected, draft.Status)
}

func (s *DraftServiceTestSuite) TestReject_PostedIsTerminal() {
	ctx := context.Background()

	s.drafts.EXPECT().GetByID(ctx, int64(3)).Return(&domain.Draft{ID: 3, Status: domain.StatusPosted}, nil)

	draft, err := s.service.Reject(ctx, 3)

	s.ErrorIs(err, domain.ErrTerminalState)
	s.Nil(draft)
}

func (s *DraftServiceTestSuite) TestCreateMarketDraft_UpsertsHistoryAndSkipsCap() {
	ctx := context.Background()

	sold := 9
	stats := domain.MarketStats{
		ActiveCount:     38,
		PendingCount:    10,
		SoldLast30:      &sold,
		MedianSoldPrice: 462000,
		AvgDaysOnMarket: 29,
		PriceReductions: 4,
	}

	s.expectTransaction(ctx)

	weekStart := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	s.history.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, record *domain.MarketHistory) error {
			s.Equal("Two Rivers", record.Community)
			s.Equal(weekStart, record.WeekStart)
			s.Equal(38, record.ActiveCount)
			s.Require().NotNil(record.SoldLast30)
			s.Equal(sold, *record.SoldLast30)
			return nil
		},
	)

	s.drafts.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, draft *domain.Draft) (int64, error) {
			s.Equal(domain.TypeMarket, draft.Type)
			s.NotEmpty(draft.RenderPayload)
			return 21, nil
		},
	)

	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(21), gomock.Any()).Return(nil)

	draft, err := s.service.CreateMarketDraft(ctx, stats)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal(int64(21), draft.ID)
	s.Equal(domain.StatusQueued, draft.Status)
}

func (s *DraftServiceTestSuite) TestCreateListingsDraft_MergesProviderFigures() {
	ctx := context.Background()

	listings := []domain.Listing{
		{Address: "1673 Suttonset Trl", Price: 577777, Status: "Active"},
		{Address: "4410 Riverglen Ct", Price: 610000, Status: "Active"},
	}

	s.marketData.EXPECT().Fetch(ctx).Return(&domain.MarketFigures{
		MedianSoldPrice: 455000,
		AvgDaysOnMarket: 31,
		HomesSold:       14,
		PriceReductions: 6,
	}, nil)

	stored := &domain.MarketHistory{ActiveCount: 35, PendingCount: 8}
	s.history.EXPECT().Latest(ctx, "Two Rivers").Return(stored, nil)

	s.expectTransaction(ctx)
	s.history.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, record *domain.MarketHistory) error {
			s.Equal(455000, record.MedianSoldPrice)
			s.Equal(31, record.AvgDaysOnMarket)
			s.Require().NotNil(record.SoldLast30)
			s.Equal(14, *record.SoldLast30)
			s.Equal(35, record.ActiveCount)
			s.Require().NotNil(record.NewListingsCount)
			s.Equal(2, *record.NewListingsCount)
			return nil
		},
	)
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, draft *domain.Draft) (int64, error) {
			s.Equal(domain.TypeListings, draft.Type)
			return 31, nil
		},
	)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(31), gomock.Any()).Return(nil)

	draft, err := s.service.CreateListingsDraft(ctx, listings)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal(int64(31), draft.ID)
}

func (s *DraftServiceTestSuite) TestCreateListingsDraft_FallsBackToStoredHistory() {
	ctx := context.Background()

	listings := []domain.Listing{{Address: "1673 Suttonset Trl", Price: 577777, Status: "Active"}}

	s.marketData.EXPECT().Fetch(ctx).Return(nil, nil)

	sold := 11
	stored := &domain.MarketHistory{
		ActiveCount:     35,
		PendingCount:    8,
		SoldLast30:      &sold,
		MedianSoldPrice: 448000,
		AvgDaysOnMarket: 36,
		PriceReductions: 3,
	}
	s.history.EXPECT().Latest(ctx, "Two Rivers").Return(stored, nil)

	s.expectTransaction(ctx)
	s.history.EXPECT().Upsert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, record *domain.MarketHistory) error {
			s.Equal(448000, record.MedianSoldPrice)
			s.Equal(36, record.AvgDaysOnMarket)
			s.Require().NotNil(record.SoldLast30)
			s.Equal(sold, *record.SoldLast30)
			return nil
		},
	)
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).Return(int64(33), nil)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(33), gomock.Any()).Return(nil)

	draft, err := s.service.CreateListingsDraft(ctx, listings)

	s.NoError(err)
	s.Require().NotNil(draft)
}

func (s *DraftServiceTestSuite) TestCreateListingsDraft_EmptyExtraction() {
	ctx := context.Background()

	draft, err := s.service.CreateListingsDraft(ctx, nil)

	s.NoError(err)
	s.Nil(draft)
}

func (s *DraftServiceTestSuite) TestIngestWeeklyMLS_DispatchesMarketCSV() {
	ctx := context.Background()

	csv := "Active,Pending,Median Sold Price,Avg DOM,Price Reductions\n40,11,450000,33,5\n"
	s.mlsSource.EXPECT().FetchPayload(ctx).Return(&domain.MLSPayload{
		Kind:    domain.MLSMarket,
		Subject: "Weekly Market Snapshot",
		Raw:     csv,
	}, nil)

	s.expectTransaction(ctx)
	s.history.EXPECT().Upsert(ctx, gomock.Any()).Return(nil)
	s.drafts.EXPECT().Insert(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, draft *domain.Draft) (int64, error) {
			s.Equal(domain.TypeMarket, draft.Type)
			return 51, nil
		},
	)
	s.events.EXPECT().PublishEvent(ctx, gomock.Any()).Return(nil)
	s.audit.EXPECT().Append(ctx, gomock.Any()).Return(nil)
	s.notifier.EXPECT().NotifyNewDraft(ctx, int64(51), gomock.Any()).Return(nil)

	draft, err := s.service.IngestWeeklyMLS(ctx)

	s.NoError(err)
	s.Require().NotNil(draft)
	s.Equal(int64(51), draft.ID)
}

func TestWeekStart(t *testing.T) {
	loc := time.UTC

	sunday := time.Date(2025, time.March, 16, 23, 30, 0, 0, loc)
	monday := time.Date(2025, time.March, 10, 8, 0, 0, 0, loc)

	want := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	if got := weekStart(sunday); !got.Equal(want) {
		t.Errorf("weekStart(sunday) = %v, want %v", got, want)
	}
	if got := weekStart(monday); !got.Equal(want) {
		t.Errorf("weekStart(monday) = %v, want %v", got, want)
	}
}
