//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_articles.up.sql"),
			filepath.Join(migrationsPath, "002_create_digests.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM digest_articles")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM digests")
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM articles")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) newArticle(id, url string, scrapedAt time.Time, score float64) *domain.Article {
	return &domain.Article{
		ID:              id,
		URL:             url,
		Title:           "Title " + id,
		Content:         "Content " + id,
		Summary:         utils.Ptr("Summary " + id),
		Source:          "BBC News",
		SourceType:      domain.SourceMainstream,
		Category:        utils.Ptr(domain.CategoryWorld),
		PublishedAt:     utils.Ptr(scrapedAt.Add(-time.Hour)),
		ScrapedAt:       scrapedAt,
		EngagementScore: score,
		IsProcessed:     true,
	}
}

func (s *PostgresIntegrationSuite) TestArticleStore_CreateAndExists() {
	store := NewArticleStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	article := s.newArticle("a1", "https://example.com/1", now, 2.5)

	exists, err := store.Exists(s.ctx, article.URL)
	s.NoError(err)
	s.False(exists)

	s.NoError(store.Create(s.ctx, article))

	exists, err = store.Exists(s.ctx, article.URL)
	s.NoError(err)
	s.True(exists)

	count, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestArticleStore_DuplicateURLIsNoOp() {
	store := NewArticleStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := s.newArticle("a1", "https://example.com/same", now, 1)
	second := s.newArticle("a2", "https://example.com/same", now, 9)

	s.NoError(store.Create(s.ctx, first))
	s.NoError(store.Create(s.ctx, second))

	count, err := store.Count(s.ctx)
	s.NoError(err)
	s.Equal(1, count)

	articles, err := store.Query(s.ctx, domain.ArticleFilter{})
	s.NoError(err)
	s.Require().Len(articles, 1)
	s.Equal("a1", articles[0].ID)
}

func (s *PostgresIntegrationSuite) TestArticleStore_QueryRankingAndFilters() {
	store := NewArticleStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	low := s.newArticle("low", "https://example.com/low", now, 1)
	high := s.newArticle("high", "https://example.com/high", now.Add(-2*time.Hour), 10)
	recent := s.newArticle("recent", "https://example.com/recent", now, 5)
	unprocessed := s.newArticle("raw", "https://example.com/raw", now, 99)
	unprocessed.IsProcessed = false
	unprocessed.Category = nil

	for _, a := range []*domain.Article{low, high, recent, unprocessed} {
		s.Require().NoError(store.Create(s.ctx, a))
	}

	processed := true
	articles, err := store.Query(s.ctx, domain.ArticleFilter{Processed: &processed})
	s.NoError(err)
	s.Require().Len(articles, 3)
	s.Equal("high", articles[0].ID)
	s.Equal("recent", articles[1].ID)
	s.Equal("low", articles[2].ID)

	// Lookback filter cuts the older article despite its score.
	since := now.Add(-time.Hour)
	articles, err = store.Query(s.ctx, domain.ArticleFilter{ScrapedSince: &since, Processed: &processed})
	s.NoError(err)
	s.Require().Len(articles, 2)
	s.Equal("recent", articles[0].ID)

	articles, err = store.Query(s.ctx, domain.ArticleFilter{Limit: 1})
	s.NoError(err)
	s.Len(articles, 1)
}

func (s *PostgresIntegrationSuite) TestArticleStore_DeleteOlderThan() {
	store := NewArticleStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	old := s.newArticle("old", "https://example.com/old", now.Add(-48*time.Hour), 1)
	fresh := s.newArticle("fresh", "https://example.com/fresh", now, 1)

	s.Require().NoError(store.Create(s.ctx, old))
	s.Require().NoError(store.Create(s.ctx, fresh))

	deleted, err := store.DeleteOlderThan(s.ctx, now.Add(-24*time.Hour))
	s.NoError(err)
	s.Equal(int64(1), deleted)

	exists, err := store.Exists(s.ctx, fresh.URL)
	s.NoError(err)
	s.True(exists)
}

func (s *PostgresIntegrationSuite) TestDigestStore_CreateAndArticles() {
	articles := NewArticleStore(s.db)
	digests := NewDigestStore(s.db)
	txManager := NewTransactionManager(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	a1 := s.newArticle("a1", "https://example.com/1", now, 5)
	a2 := s.newArticle("a2", "https://example.com/2", now, 3)
	s.Require().NoError(articles.Create(s.ctx, a1))
	s.Require().NoError(articles.Create(s.ctx, a2))

	digest := &domain.Digest{
		ID:           "d1",
		CreatedAt:    now,
		DigestType:   domain.DigestHourly,
		StoriesCount: 2,
		Categories:   "world",
	}
	entries := []domain.DigestArticle{
		{DigestID: "d1", ArticleID: "a1", Position: 0, CategoryGroup: utils.Ptr(domain.CategoryWorld)},
		{DigestID: "d1", ArticleID: "a2", Position: 1, CategoryGroup: utils.Ptr(domain.CategoryWorld)},
	}

	err := txManager.WithTransaction(s.ctx, func(txCtx context.Context) error {
		return digests.Create(txCtx, digest, entries)
	})
	s.Require().NoError(err)

	got, err := digests.Articles(s.ctx, "d1")
	s.NoError(err)
	s.Require().Len(got, 2)
	s.Equal(0, got[0].Position)
	s.Equal("a1", got[0].Article.ID)
	s.Equal(1, got[1].Position)
	s.Equal("a2", got[1].Article.ID)
	s.Equal(domain.CategoryWorld, *got[0].CategoryGroup)
}

func (s *PostgresIntegrationSuite) TestDigestStore_TransactionRollsBackOnBadEntry() {
	digests := NewDigestStore(s.db)
	txManager := NewTransactionManager(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	digest := &domain.Digest{
		ID:         "d-bad",
		CreatedAt:  now,
		DigestType: domain.DigestHourly,
	}
	// References a missing article, so the association insert fails.
	entries := []domain.DigestArticle{
		{DigestID: "d-bad", ArticleID: "missing", Position: 0},
	}

	err := txManager.WithTransaction(s.ctx, func(txCtx context.Context) error {
		return digests.Create(txCtx, digest, entries)
	})
	s.Error(err)

	// The digest row must not survive the failed transaction.
	latest, err := digests.Latest(s.ctx)
	s.NoError(err)
	s.Nil(latest)
}

func (s *PostgresIntegrationSuite) TestDigestStore_LatestAndListSince() {
	digests := NewDigestStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	latest, err := digests.Latest(s.ctx)
	s.NoError(err)
	s.Nil(latest)

	older := &domain.Digest{ID: "d1", CreatedAt: now.Add(-2 * time.Hour), DigestType: domain.DigestMorning}
	newer := &domain.Digest{ID: "d2", CreatedAt: now, DigestType: domain.DigestHourly}
	s.Require().NoError(digests.Create(s.ctx, older, nil))
	s.Require().NoError(digests.Create(s.ctx, newer, nil))

	latest, err = digests.Latest(s.ctx)
	s.NoError(err)
	s.Require().NotNil(latest)
	s.Equal("d2", latest.ID)

	listed, err := digests.ListSince(s.ctx, now.Add(-time.Hour))
	s.NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("d2", listed[0].ID)
}

func (s *PostgresIntegrationSuite) TestDigestStore_ArchiveOlderThan() {
	digests := NewDigestStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	old := &domain.Digest{ID: "d1", CreatedAt: now.Add(-48 * time.Hour), DigestType: domain.DigestHourly}
	fresh := &domain.Digest{ID: "d2", CreatedAt: now, DigestType: domain.DigestHourly}
	s.Require().NoError(digests.Create(s.ctx, old, nil))
	s.Require().NoError(digests.Create(s.ctx, fresh, nil))

	archived, err := digests.ArchiveOlderThan(s.ctx, now.Add(-24*time.Hour))
	s.NoError(err)
	s.Equal(int64(1), archived)

	// Idempotent: a second pass archives nothing new.
	archived, err = digests.ArchiveOlderThan(s.ctx, now.Add(-24*time.Hour))
	s.NoError(err)
	s.Equal(int64(0), archived)

	listed, err := digests.ListSince(s.ctx, now.Add(-72*time.Hour))
	s.NoError(err)
	s.Require().Len(listed, 2)
	for _, d := range listed {
		if d.ID == "d1" {
			s.True(d.IsArchived)
		} else {
			s.False(d.IsArchived)
		}
	}
}

func (s *PostgresIntegrationSuite) TestArticleDeletionCascadesDigestAssociations() {
	articles := NewArticleStore(s.db)
	digests := NewDigestStore(s.db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	a := s.newArticle("a1", "https://example.com/1", now.Add(-48*time.Hour), 1)
	s.Require().NoError(articles.Create(s.ctx, a))

	digest := &domain.Digest{ID: "d1", CreatedAt: now.Add(-48 * time.Hour), DigestType: domain.DigestHourly, StoriesCount: 1}
	s.Require().NoError(digests.Create(s.ctx, digest, []domain.DigestArticle{
		{DigestID: "d1", ArticleID: "a1", Position: 0},
	}))

	_, err := articles.DeleteOlderThan(s.ctx, now.Add(-24*time.Hour))
	s.NoError(err)

	// The digest survives with an empty association set.
	entries, err := digests.Articles(s.ctx, "d1")
	s.NoError(err)
	s.Empty(entries)

	latest, err := digests.Latest(s.ctx)
	s.NoError(err)
	s.NotNil(latest)
}
