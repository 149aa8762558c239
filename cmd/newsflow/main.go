package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sudamana23/NewsFlow-AI/internal/classify"
	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/internal/queue"
	"github.com/sudamana23/NewsFlow-AI/internal/scheduler"
	"github.com/sudamana23/NewsFlow-AI/internal/server"
	"github.com/sudamana23/NewsFlow-AI/internal/service"
	"github.com/sudamana23/NewsFlow-AI/internal/source/rss"
	"github.com/sudamana23/NewsFlow-AI/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// The queue degrades to a disabled no-op when the broker is down; only
	// the database is a hard startup dependency.
	stream := queue.New(cfg.RabbitMQ, logger)
	defer stream.Close()

	classifier := classify.New(cfg.LMStudio, cfg.Digest.SummaryMaxLength, logger)

	articleStore := postgres.NewArticleStore(db)
	digestStore := postgres.NewDigestStore(db)
	txManager := postgres.NewTransactionManager(db)

	scrapers := []service.Scraper{
		rss.New("mainstream", domain.SourceMainstream, cfg.Sources.Mainstream, cfg.Sources, logger),
		rss.New("tech", domain.SourceTech, cfg.Sources.Tech, cfg.Sources, logger),
		rss.New("swiss", domain.SourceSwiss, cfg.Sources.Swiss, cfg.Sources, logger),
		rss.NewReddit(cfg.Sources.Subreddits, cfg.Sources, logger),
	}

	collector := service.NewCollector(scrapers, stream, cfg.Schedule, logger)
	processor := service.NewProcessor(stream, articleStore, classifier, logger)
	digestService := service.NewDigestService(articleStore, digestStore, txManager, cfg.Digest, cfg.Schedule, logger)
	cleanupService := service.NewCleanupService(articleStore, digestStore, cfg.Schedule, logger)
	refresher := service.NewRefresher(collector, processor, digestService, logger)
	healthService := service.NewHealthService(db, stream, classifier, articleStore, digestStore, logger)

	sched := scheduler.New(collector, processor, digestService, cleanupService, cfg.Schedule, logger)

	srv := server.New(healthService, refresher, digestStore, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.BindAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      3 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http server starting", "addr", cfg.Server.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- sched.Start(ctx)
	}()

	logger.Info("newsflow started",
		"sources", len(scrapers),
		"queue_enabled", stream.Info().Enabled,
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}

	if err := <-schedDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("scheduler error", "error", err)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
