package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// Collector scrapes every configured source and feeds the raw articles into
// the ingestion queue. A failing source or an unavailable queue never aborts
// the run; articles that cannot be enqueued are dropped and logged.
type Collector struct {
	scrapers   []Scraper
	stream     Stream
	quietStart int
	quietEnd   int
	logger     *slog.Logger
	now        func() time.Time
}

func NewCollector(scrapers []Scraper, stream Stream, cfg config.ScheduleConfig, logger *slog.Logger) *Collector {
	return &Collector{
		scrapers:   scrapers,
		stream:     stream,
		quietStart: cfg.QuietHoursStart,
		quietEnd:   cfg.QuietHoursEnd,
		logger:     logger,
		now:        time.Now,
	}
}

// Collect is the scheduled entry point: it no-ops during quiet hours.
func (c *Collector) Collect(ctx context.Context) *domain.CollectStats {
	if hour := c.now().Hour(); InQuietHours(hour, c.quietStart, c.quietEnd) {
		c.logger.Info("skipping collection during quiet hours", "hour", hour)
		return &domain.CollectStats{}
	}
	return c.CollectNow(ctx)
}

// CollectNow runs a collection pass regardless of quiet hours (manual path).
func (c *Collector) CollectNow(ctx context.Context) *domain.CollectStats {
	start := c.now()
	stats := &domain.CollectStats{Sources: len(c.scrapers)}

	c.logger.Info("starting news collection", "sources", len(c.scrapers))

	for _, scraper := range c.scrapers {
		articles, err := scraper.Scrape(ctx)
		if err != nil {
			stats.Errors++
			c.logger.Warn("source scrape failed", "source", scraper.Name(), "error", err)
			continue
		}

		stats.Scraped += len(articles)
		c.logger.Info("collected articles", "source", scraper.Name(), "count", len(articles))

		for _, article := range articles {
			if _, err := c.stream.Enqueue(ctx, article); err != nil {
				stats.Dropped++
				c.logger.Warn("failed to enqueue article, dropping",
					"url", article.URL, "error", err)
				continue
			}
			stats.Enqueued++
		}
	}

	stats.Duration = c.now().Sub(start)
	c.logger.Info("collection completed",
		"scraped", stats.Scraped,
		"enqueued", stats.Enqueued,
		"dropped", stats.Dropped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)
	return stats
}
