package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/queue"
)

// Pinger reports database reachability. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthStatus struct {
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	Database   string     `json:"database"`
	Queue      queue.Info `json:"queue"`
	Classifier bool       `json:"classifier"`
	Articles   int        `json:"articles"`
	Digests    int        `json:"digests"`
}

type HealthService struct {
	db         Pinger
	stream     Stream
	classifier Classifier
	articles   ArticleStore
	digests    DigestStore
	logger     *slog.Logger

	now func() time.Time
}

func NewHealthService(
	db Pinger,
	stream Stream,
	classifier Classifier,
	articles ArticleStore,
	digests DigestStore,
	logger *slog.Logger,
) *HealthService {
	return &HealthService{
		db:         db,
		stream:     stream,
		classifier: classifier,
		articles:   articles,
		digests:    digests,
		logger:     logger,
		now:        time.Now,
	}
}

// Check reports overall status. The database is the only hard dependency;
// a disabled queue or unreachable model marks the service degraded.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: h.now().UTC(),
		Database:  "connected",
	}

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("health check: database unreachable", "error", err)
		status.Database = "disconnected"
		status.Status = "degraded"
	} else {
		if n, err := h.articles.Count(ctx); err == nil {
			status.Articles = n
		}
		if n, err := h.digests.Count(ctx); err == nil {
			status.Digests = n
		}
	}

	status.Queue = h.stream.Info()
	if !status.Queue.Enabled {
		status.Status = "degraded"
	}

	status.Classifier = h.classifier.Available(ctx)
	if !status.Classifier {
		status.Status = "degraded"
	}

	return status
}
