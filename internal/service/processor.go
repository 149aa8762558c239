package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

const defaultBatchSize = 5

// Processor drains the ingestion queue: each claimed message is classified,
// summarized, persisted exactly once per URL, and only then acknowledged.
//
// Redelivery tolerance is the core contract here. A message is acknowledged
// in exactly two cases: its URL already exists (duplicate no-op), or the
// article row was durably created. Every other outcome leaves the message
// unacknowledged so the queue delivers it again.
type Processor struct {
	stream     Stream
	articles   ArticleStore
	classifier Classifier
	batchSize  int
	logger     *slog.Logger
	now        func() time.Time
}

func NewProcessor(stream Stream, articles ArticleStore, classifier Classifier, logger *slog.Logger) *Processor {
	return &Processor{
		stream:     stream,
		articles:   articles,
		classifier: classifier,
		batchSize:  defaultBatchSize,
		logger:     logger,
		now:        time.Now,
	}
}

// ProcessBatch claims one batch and processes each article independently.
// Failure of one article never affects its siblings.
func (p *Processor) ProcessBatch(ctx context.Context) *domain.ProcessStats {
	stats := &domain.ProcessStats{}

	messages := p.stream.Read(ctx, p.batchSize)
	if len(messages) == 0 {
		return stats
	}

	stats.Read = len(messages)
	p.logger.Info("processing articles from stream", "count", len(messages))

	for _, msg := range messages {
		switch p.processOne(ctx, msg.ID, msg.Article) {
		case outcomeCreated:
			stats.Created++
		case outcomeDuplicate:
			stats.Duplicates++
		case outcomeFailed:
			stats.Failures++
		}
	}

	return stats
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeDuplicate
	outcomeFailed
)

func (p *Processor) processOne(ctx context.Context, msgID uint64, raw domain.RawArticle) outcome {
	exists, err := p.articles.Exists(ctx, raw.URL)
	if err != nil {
		p.logger.Warn("existence check failed, leaving message for redelivery",
			"url", raw.URL, "error", err)
		return outcomeFailed
	}

	if exists {
		p.logger.Info("article already exists", "url", raw.URL)
		if err := p.stream.Ack(msgID); err != nil {
			p.logger.Warn("ack failed", "id", msgID, "error", err)
		}
		return outcomeDuplicate
	}

	category, summary := p.classifier.CategorizeAndSummarize(ctx, raw)

	article := &domain.Article{
		ID:              uuid.NewString(),
		URL:             raw.URL,
		Title:           raw.Title,
		Content:         raw.Content,
		Summary:         &summary,
		Source:          raw.Source,
		SourceType:      raw.SourceType,
		Category:        &category,
		PublishedAt:     normalizeUTC(raw.PublishedAt),
		ScrapedAt:       p.now().UTC(),
		EngagementScore: raw.EngagementScore,
		IsProcessed:     true,
	}

	if err := p.articles.Create(ctx, article); err != nil {
		p.logger.Warn("persist failed, leaving message for redelivery",
			"url", raw.URL, "error", err)
		return outcomeFailed
	}

	if err := p.stream.Ack(msgID); err != nil {
		// The article is durable; redelivery will hit the dedup check.
		p.logger.Warn("ack failed after persist", "id", msgID, "error", err)
	}

	p.logger.Info("processed article",
		"url", raw.URL,
		"category", category,
	)
	return outcomeCreated
}

// normalizeUTC strips any zone by converting to UTC wall time; stored
// timestamps are timezone-naive UTC throughout.
func normalizeUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
