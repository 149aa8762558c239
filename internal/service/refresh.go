package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// One manual refresh drains at most this many batches so a flooded queue
// cannot pin the request forever.
const maxDrainBatches = 50

// Refresher is the synchronous operator path: collect, drain the stream,
// build a manual digest. Quiet hours are bypassed and failures come back as
// a structured result instead of crashing the host.
type Refresher struct {
	collector *Collector
	processor *Processor
	digests   *DigestService
	logger    *slog.Logger
}

func NewRefresher(collector *Collector, processor *Processor, digests *DigestService, logger *slog.Logger) *Refresher {
	return &Refresher{
		collector: collector,
		processor: processor,
		digests:   digests,
		logger:    logger,
	}
}

func (r *Refresher) Refresh(ctx context.Context) domain.RefreshResult {
	r.logger.Info("manual refresh triggered")

	collected := r.collector.CollectNow(ctx)

	result := domain.RefreshResult{Collected: collected.Enqueued}

	for i := 0; i < maxDrainBatches; i++ {
		stats := r.processor.ProcessBatch(ctx)
		result.Processed += stats.Created + stats.Duplicates
		if stats.Read == 0 {
			break
		}
	}

	digest, err := r.digests.CreateDigest(ctx, domain.DigestManual)
	if err != nil {
		r.logger.Warn("manual digest creation failed", "error", err)
		result.Message = fmt.Sprintf("digest creation failed: %v", err)
		return result
	}

	result.DigestCreated = digest != nil
	r.logger.Info("manual refresh completed",
		"collected", result.Collected,
		"processed", result.Processed,
		"digest_created", result.DigestCreated,
	)
	return result
}
