package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "url", "title", "content", "summary", "source", "source_type",
	"category", "published_at", "scraped_at", "engagement_score", "is_processed",
}

// ArticleStore persists URL-deduplicated articles. Create is the only
// mutation; rows are never updated, only expired by DeleteOlderThan.
type ArticleStore struct {
	db *sqlx.DB
}

func NewArticleStore(db *sqlx.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Exists reports whether an article with this URL was already persisted.
// Checked before every insert; this is what makes at-least-once queue
// delivery safe.
func (s *ArticleStore) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		"SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)", url)
	if err != nil {
		return false, fmt.Errorf("check article exists: %w", err)
	}
	return exists, nil
}

// Create inserts one article. Timestamps are normalized to zone-naive UTC
// before they hit the database. A concurrent duplicate URL is a silent no-op.
func (s *ArticleStore) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (
			id, url, title, content, summary, source, source_type,
			category, published_at, scraped_at, engagement_score, is_processed
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (url) DO NOTHING`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		article.ID,
		article.URL,
		article.Title,
		article.Content,
		article.Summary,
		article.Source,
		article.SourceType,
		article.Category,
		normalizeOptional(article.PublishedAt),
		normalize(article.ScrapedAt),
		article.EngagementScore,
		article.IsProcessed,
	)
	if err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// Query returns articles matching the filter, ranked by (engagement_score
// desc, scraped_at desc).
func (s *ArticleStore) Query(ctx context.Context, f domain.ArticleFilter) ([]domain.Article, error) {
	b := psql.Select(articleColumns...).
		From("articles").
		OrderBy("engagement_score DESC", "scraped_at DESC")

	if f.ScrapedSince != nil {
		b = b.Where(sq.GtOrEq{"scraped_at": normalize(*f.ScrapedSince)})
	}
	if f.Processed != nil {
		b = b.Where(sq.Eq{"is_processed": *f.Processed})
	}
	if f.Category != nil {
		b = b.Where(sq.Eq{"category": *f.Category})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	var articles []domain.Article
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &articles, query, args...); err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	return articles, nil
}

// DeleteOlderThan removes articles scraped before the cutoff and returns the
// number of rows dropped. Digest associations go with them; digest rows stay.
func (s *ArticleStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM articles WHERE scraped_at < $1", normalize(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old articles: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the total number of stored articles, for diagnostics.
func (s *ArticleStore) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM articles")
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

// normalize converts to UTC so the zone-naive column always stores UTC wall
// time regardless of the input's zone.
func normalize(t time.Time) time.Time {
	return t.UTC()
}

func normalizeOptional(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
