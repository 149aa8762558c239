package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// DigestStore persists digests and their ordered article associations.
type DigestStore struct {
	db *sqlx.DB
}

func NewDigestStore(db *sqlx.DB) *DigestStore {
	return &DigestStore{db: db}
}

// Create inserts the digest row and one association row per entry. Callers
// run it inside a TransactionManager transaction so a digest is either fully
// persisted or absent.
func (s *DigestStore) Create(ctx context.Context, digest *domain.Digest, entries []domain.DigestArticle) error {
	query := `
		INSERT INTO digests (id, created_at, digest_type, stories_count, categories, is_archived)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		digest.ID,
		normalize(digest.CreatedAt),
		digest.DigestType,
		digest.StoriesCount,
		digest.Categories,
		digest.IsArchived,
	)
	if err != nil {
		return fmt.Errorf("insert digest: %w", err)
	}

	if len(entries) == 0 {
		return nil
	}

	b := psql.Insert("digest_articles").
		Columns("digest_id", "article_id", "position", "category_group")
	for _, e := range entries {
		b = b.Values(e.DigestID, e.ArticleID, e.Position, e.CategoryGroup)
	}

	insert, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build digest_articles insert: %w", err)
	}
	if _, err := GetExecutor(ctx, s.db).ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("insert digest articles: %w", err)
	}
	return nil
}

// Latest returns the most recently created digest, or nil when none exists.
func (s *DigestStore) Latest(ctx context.Context) (*domain.Digest, error) {
	var digest domain.Digest
	query := `
		SELECT id, created_at, digest_type, stories_count, categories, is_archived
		FROM digests
		ORDER BY created_at DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &digest, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest digest: %w", err)
	}
	return &digest, nil
}

// ListSince returns digests created at or after the given time, newest first.
func (s *DigestStore) ListSince(ctx context.Context, since time.Time) ([]domain.Digest, error) {
	var digests []domain.Digest
	query := `
		SELECT id, created_at, digest_type, stories_count, categories, is_archived
		FROM digests
		WHERE created_at >= $1
		ORDER BY created_at DESC`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &digests, query, normalize(since)); err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	return digests, nil
}

// Articles returns a digest's articles in position order.
func (s *DigestStore) Articles(ctx context.Context, digestID string) ([]domain.DigestEntry, error) {
	query := `
		SELECT
			a.id, a.url, a.title, a.content, a.summary, a.source, a.source_type,
			a.category, a.published_at, a.scraped_at, a.engagement_score, a.is_processed,
			da.position, da.category_group
		FROM articles a
		INNER JOIN digest_articles da ON da.article_id = a.id
		WHERE da.digest_id = $1
		ORDER BY da.position`

	rows, err := GetExecutor(ctx, s.db).QueryxContext(ctx, query, digestID)
	if err != nil {
		return nil, fmt.Errorf("query digest articles: %w", err)
	}
	defer rows.Close()

	var entries []domain.DigestEntry
	for rows.Next() {
		var e domain.DigestEntry
		err := rows.Scan(
			&e.Article.ID, &e.Article.URL, &e.Article.Title, &e.Article.Content,
			&e.Article.Summary, &e.Article.Source, &e.Article.SourceType,
			&e.Article.Category, &e.Article.PublishedAt, &e.Article.ScrapedAt,
			&e.Article.EngagementScore, &e.Article.IsProcessed,
			&e.Position, &e.CategoryGroup,
		)
		if err != nil {
			return nil, fmt.Errorf("scan digest article: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ArchiveOlderThan flags digests created before the cutoff as archived.
// Archiving is the only mutation a digest ever sees.
func (s *DigestStore) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"UPDATE digests SET is_archived = TRUE WHERE created_at < $1 AND NOT is_archived",
		normalize(cutoff))
	if err != nil {
		return 0, fmt.Errorf("archive digests: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the total number of digests, for diagnostics.
func (s *DigestStore) Count(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n, "SELECT COUNT(*) FROM digests")
	if err != nil {
		return 0, fmt.Errorf("count digests: %w", err)
	}
	return n, nil
}
