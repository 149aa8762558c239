package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/internal/queue"
)

// Scraper is the capability a raw source adapter exposes to the pipeline.
// The pipeline never depends on concrete adapter types.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]domain.RawArticle, error)
}

// Stream is the durable ingestion queue between collection and processing.
type Stream interface {
	Enqueue(ctx context.Context, article domain.RawArticle) (uint64, error)
	Read(ctx context.Context, max int) []queue.Message
	Ack(id uint64) error
	Info() queue.Info
}

// Classifier assigns a category and summary to one raw article. It never
// fails; degraded paths resolve internally.
type Classifier interface {
	CategorizeAndSummarize(ctx context.Context, article domain.RawArticle) (domain.Category, string)
	Available(ctx context.Context) bool
}

type ArticleStore interface {
	Exists(ctx context.Context, url string) (bool, error)
	Create(ctx context.Context, article *domain.Article) error
	Query(ctx context.Context, f domain.ArticleFilter) ([]domain.Article, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

type DigestStore interface {
	Create(ctx context.Context, digest *domain.Digest, entries []domain.DigestArticle) error
	Latest(ctx context.Context) (*domain.Digest, error)
	ListSince(ctx context.Context, since time.Time) ([]domain.Digest, error)
	Articles(ctx context.Context, digestID string) ([]domain.DigestEntry, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
