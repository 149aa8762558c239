package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/internal/queue"
	"github.com/sudamana23/NewsFlow-AI/internal/service/mocks"
)

type ProcessorTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	stream     *mocks.MockStream
	articles   *mocks.MockArticleStore
	classifier *mocks.MockClassifier

	processor *Processor
	logger    *slog.Logger
}

func (s *ProcessorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.stream = mocks.NewMockStream(s.ctrl)
	s.articles = mocks.NewMockArticleStore(s.ctrl)
	s.classifier = mocks.NewMockClassifier(s.ctrl)

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.processor = NewProcessor(s.stream, s.articles, s.classifier, s.logger)
}

func (s *ProcessorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestProcessorTestSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

func rawArticle(url string) domain.RawArticle {
	return domain.RawArticle{
		URL:        url,
		Title:      "Test Title",
		Content:    "Test content body",
		Source:     "BBC",
		SourceType: domain.SourceMainstream,
	}
}

func (s *ProcessorTestSuite) TestProcessBatch_CreatesNewArticle() {
	ctx := context.Background()
	raw := rawArticle("https://example.com/a")

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 1, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, raw).Return(domain.CategoryTech, "A summary.")

	s.articles.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, article *domain.Article) error {
			s.NotEmpty(article.ID)
			s.Equal(raw.URL, article.URL)
			s.Equal(domain.CategoryTech, *article.Category)
			s.Equal("A summary.", *article.Summary)
			s.True(article.IsProcessed)
			return nil
		},
	)
	s.stream.EXPECT().Ack(uint64(1)).Return(nil)

	stats := s.processor.ProcessBatch(ctx)

	s.Equal(1, stats.Read)
	s.Equal(1, stats.Created)
	s.Equal(0, stats.Duplicates)
	s.Equal(0, stats.Failures)
}

func (s *ProcessorTestSuite) TestProcessBatch_DuplicateAckedWithoutClassify() {
	ctx := context.Background()
	raw := rawArticle("https://example.com/dup")

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 7, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(true, nil)
	s.stream.EXPECT().Ack(uint64(7)).Return(nil)

	stats := s.processor.ProcessBatch(ctx)

	s.Equal(1, stats.Read)
	s.Equal(0, stats.Created)
	s.Equal(1, stats.Duplicates)
}

func (s *ProcessorTestSuite) TestProcessBatch_PersistFailureLeavesMessageUnacked() {
	ctx := context.Background()
	raw := rawArticle("https://example.com/fail")

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 3, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, raw).Return(domain.CategoryWorld, "Summary")
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

	// No Ack expectation: the message must stay claimed for redelivery.
	stats := s.processor.ProcessBatch(ctx)

	s.Equal(1, stats.Read)
	s.Equal(1, stats.Failures)
	s.Equal(0, stats.Created)
}

func (s *ProcessorTestSuite) TestProcessBatch_FailureDoesNotAffectSiblings() {
	ctx := context.Background()
	bad := rawArticle("https://example.com/bad")
	good := rawArticle("https://example.com/good")

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{
		{ID: 10, Article: bad},
		{ID: 11, Article: good},
	})

	s.articles.EXPECT().Exists(ctx, bad.URL).Return(false, errors.New("timeout"))

	s.articles.EXPECT().Exists(ctx, good.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, good).Return(domain.CategoryAI, "Summary")
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	s.stream.EXPECT().Ack(uint64(11)).Return(nil)

	stats := s.processor.ProcessBatch(ctx)

	s.Equal(2, stats.Read)
	s.Equal(1, stats.Created)
	s.Equal(1, stats.Failures)
}

func (s *ProcessorTestSuite) TestProcessBatch_EmptyRead() {
	ctx := context.Background()

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return(nil)

	stats := s.processor.ProcessBatch(ctx)

	s.Equal(0, stats.Read)
	s.Equal(0, stats.Created)
}

func (s *ProcessorTestSuite) TestProcessBatch_AckFailureAfterPersistStillCreated() {
	ctx := context.Background()
	raw := rawArticle("https://example.com/ack-fail")

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 5, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, raw).Return(domain.CategoryFinance, "Summary")
	s.articles.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	s.stream.EXPECT().Ack(uint64(5)).Return(errors.New("channel closed"))

	stats := s.processor.ProcessBatch(ctx)

	s.Equal(1, stats.Created)
	s.Equal(0, stats.Failures)
}

func (s *ProcessorTestSuite) TestProcessBatch_PublishedAtNormalizedToUTC() {
	ctx := context.Background()
	zone := time.FixedZone("CET", 3600)
	published := time.Date(2025, 3, 1, 12, 0, 0, 0, zone)

	raw := rawArticle("https://example.com/tz")
	raw.PublishedAt = &published

	s.stream.EXPECT().Read(ctx, defaultBatchSize).Return([]queue.Message{{ID: 2, Article: raw}})
	s.articles.EXPECT().Exists(ctx, raw.URL).Return(false, nil)
	s.classifier.EXPECT().CategorizeAndSummarize(ctx, raw).Return(domain.CategoryEurope, "Summary")

	s.articles.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, article *domain.Article) error {
			s.Equal(time.UTC, article.PublishedAt.Location())
			s.Equal(11, article.PublishedAt.Hour())
			return nil
		},
	)
	s.stream.EXPECT().Ack(uint64(2)).Return(nil)

	stats := s.processor.ProcessBatch(ctx)
	s.Equal(1, stats.Created)
}
