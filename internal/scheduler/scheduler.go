package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

// Collector runs one scheduled collection pass.
type Collector interface {
	Collect(ctx context.Context) *domain.CollectStats
}

// Processor drains one batch from the ingestion queue.
type Processor interface {
	ProcessBatch(ctx context.Context) *domain.ProcessStats
}

// Digester builds one digest of the given type.
type Digester interface {
	CreateDigest(ctx context.Context, digestType domain.DigestType) (*domain.Digest, error)
}

// Cleaner enforces the retention window.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

const jobTimeout = 5 * time.Minute

// job is one recurring task. next computes the following run time; mu keeps
// runs of the same job from overlapping (a slow run makes the next tick skip).
type job struct {
	name string
	next func(now time.Time) time.Time
	run  func(ctx context.Context) error
	mu   sync.Mutex
}

type Scheduler struct {
	jobs   []*job
	logger *slog.Logger
}

func New(
	collector Collector,
	processor Processor,
	digester Digester,
	cleaner Cleaner,
	cfg config.ScheduleConfig,
	logger *slog.Logger,
) *Scheduler {
	s := &Scheduler{logger: logger}

	s.jobs = []*job{
		{
			name: "collection",
			next: hourlyAt(0),
			run: func(ctx context.Context) error {
				collector.Collect(ctx)
				return nil
			},
		},
		{
			name: "stream-processing",
			next: every(cfg.StreamInterval),
			run: func(ctx context.Context) error {
				processor.ProcessBatch(ctx)
				return nil
			},
		},
		{
			name: "hourly-digest",
			next: hourlyAt(cfg.DigestMinute),
			run: func(ctx context.Context) error {
				_, err := digester.CreateDigest(ctx, domain.DigestHourly)
				return err
			},
		},
		{
			name: "morning-digest",
			next: dailyAt(cfg.MorningHour, 0),
			run: func(ctx context.Context) error {
				_, err := digester.CreateDigest(ctx, domain.DigestMorning)
				return err
			},
		},
		{
			name: "evening-digest",
			next: dailyAt(cfg.EveningHour, 0),
			run: func(ctx context.Context) error {
				_, err := digester.CreateDigest(ctx, domain.DigestEvening)
				return err
			},
		},
		{
			name: "cleanup",
			next: dailyAt(cfg.CleanupHour, 0),
			run:  cleaner.Cleanup,
		},
	}

	return s
}

// Start runs all jobs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "jobs", len(s.jobs))

	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			s.runLoop(ctx, j)
		}(j)
	}

	wg.Wait()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runLoop(ctx context.Context, j *job) {
	for {
		wait := time.Until(j.next(time.Now()))
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.runJob(ctx, j)
	}
}

func (s *Scheduler) runJob(ctx context.Context, j *job) {
	if !j.mu.TryLock() {
		s.logger.Warn("previous run still active, skipping", "job", j.name)
		return
	}
	defer j.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if err := j.run(jobCtx); err != nil {
		s.logger.Error("scheduled job failed", "job", j.name, "error", err)
	}
}

// every fires at a fixed interval from now.
func every(interval time.Duration) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		return now.Add(interval)
	}
}

// hourlyAt fires once per hour at the given minute.
func hourlyAt(minute int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return next
	}
}

// dailyAt fires once per day at the given hour and minute.
func dailyAt(hour, minute int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		return next
	}
}
