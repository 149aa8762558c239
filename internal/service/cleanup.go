package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
)

// CleanupService enforces the retention window: articles older than the
// window are deleted, digests are kept but flagged archived.
type CleanupService struct {
	articles  ArticleStore
	digests   DigestStore
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewCleanupService(articles ArticleStore, digests DigestStore, cfg config.ScheduleConfig, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		articles:  articles,
		digests:   digests,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *CleanupService) Cleanup(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.retention)
	s.logger.Info("starting cleanup", "cutoff", cutoff)

	deleted, err := s.articles.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old articles: %w", err)
	}

	archived, err := s.digests.ArchiveOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive old digests: %w", err)
	}

	s.logger.Info("cleanup completed", "articles_deleted", deleted, "digests_archived", archived)
	return nil
}
