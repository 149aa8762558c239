package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/internal/queue"
	"github.com/sudamana23/NewsFlow-AI/internal/service/mocks"
)

type RefresherTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	scraper    *mocks.MockScraper
	stream     *mocks.MockStream
	articles   *mocks.MockArticleStore
	digests    *mocks.MockDigestStore
	classifier *mocks.MockClassifier
	txManager  *mocks.MockTransactionManager

	refresher *Refresher
}

func (s *RefresherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.scraper = mocks.NewMockScraper(s.ctrl)
	s.stream = mocks.NewMockStream(s.ctrl)
	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.digests = mocks.NewMockDigestStore(s.ctrl)
	s.classifier = mocks.NewMockClassifier(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	schedule := config.ScheduleConfig{QuietHoursStart: 23, QuietHoursEnd: 6}

	collector := NewCollector([]Scraper{s.scraper}, s.stream, schedule, logger)
	collector.now = func() time.Time { return time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC) }

	processor := NewProcessor(s.stream, s.articles, s.classifier, logger)

	digestSvc := NewDigestService(
		s.articles, s.digests, s.txManager,
		config.DigestConfig{MaxStories: 20},
		schedule,
		logger,
	)
	digestSvc.now = func() time.Time { return time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC) }

	s.scraper.EXPECT().Name().Return("BBC").AnyTimes()

	s.refresher = NewRefresher(collector, processor, digestSvc, logger)
}

func (s *RefresherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestRefresherTestSuite(t *testing.T) {
	suite.Run(t, new(RefresherTestSuite))
}

// A manual refresh during quiet hours still collects, drains the stream and
// builds a manual digest.
func (s *RefresherTestSuite) TestRefresh_FullPipeline() {
	ctx := context.Background()

	raw := domain.RawArticle{URL: "https://example.com/1", Title: "One", Source: "BBC"}

	s.scraper.EXPECT().Scrape(ctx).Return([]domain.RawArticle{raw}, nil)
	s.stream.EXPECT().Enqueue(ctx, raw).Return(uint64(1), nil)

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 1, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, raw).Return(domain.CategoryWorld, "Summary")
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	s.stream.EXPECT().Ack(uint64(1)).Return(nil)
	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return(nil)

	cat := domain.CategoryWorld
	s.articles.EXPECT().Query(ctx, gomock.Any()).Return([]domain.Article{
		{ID: "a1", URL: raw.URL, Category: &cat, IsProcessed: true},
	}, nil)
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
	s.digests.EXPECT().Create(ctx, gomock.Any(), gomock.Any()).Return(nil)

	result := s.refresher.Refresh(ctx)

	s.Equal(1, result.Collected)
	s.Equal(1, result.Processed)
	s.True(result.DigestCreated)
	s.Empty(result.Message)
}

func (s *RefresherTestSuite) TestRefresh_EmptyQueueNoDigest() {
	ctx := context.Background()

	s.scraper.EXPECT().Scrape(ctx).Return(nil, nil)
	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return(nil)
	s.articles.EXPECT().Query(ctx, gomock.Any()).Return(nil, nil)

	result := s.refresher.Refresh(ctx)

	s.Equal(0, result.Collected)
	s.Equal(0, result.Processed)
	s.False(result.DigestCreated)
}
