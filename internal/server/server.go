package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sudamana23/NewsFlow-AI/internal/domain"
	"github.com/sudamana23/NewsFlow-AI/internal/service"
)

const (
	refreshTimeout = 2 * time.Minute
	queryTimeout   = 10 * time.Second

	defaultArchiveDays = 7
	maxArchiveDays     = 90
)

// Server is the operational HTTP surface: health, manual refresh and
// read-only digest access.
type Server struct {
	health    *service.HealthService
	refresher *service.Refresher
	digests   service.DigestStore
	logger    *slog.Logger

	now func() time.Time
}

func New(health *service.HealthService, refresher *service.Refresher, digests service.DigestStore, logger *slog.Logger) *Server {
	return &Server{
		health:    health,
		refresher: refresher,
		digests:   digests,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/refresh", s.handleRefresh)
	r.Get("/api/digest/latest", s.handleLatestDigest)
	r.Get("/api/archive", s.handleArchive)

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, s.health.Check(ctx))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshTimeout)
	defer cancel()

	writeJSON(w, http.StatusOK, s.refresher.Refresh(ctx))
}

type digestResponse struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	DigestType   domain.DigestType `json:"digest_type"`
	StoriesCount int               `json:"stories_count"`
	Categories   string            `json:"categories"`
	IsArchived   bool              `json:"is_archived"`
	Articles     []articleResponse `json:"articles,omitempty"`
}

type articleResponse struct {
	Position      int        `json:"position"`
	CategoryGroup string     `json:"category_group"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Summary       string     `json:"summary"`
	Source        string     `json:"source"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	Engagement    float64    `json:"engagement_score"`
}

// A missing digest is an empty-state placeholder, never an error.
func (s *Server) handleLatestDigest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	digest, err := s.digests.Latest(ctx)
	if err != nil {
		s.logger.Error("fetch latest digest", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load digest"})
		return
	}

	if digest == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_digest"})
		return
	}

	entries, err := s.digests.Articles(ctx, digest.ID)
	if err != nil {
		s.logger.Error("fetch digest articles", "digest_id", digest.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load digest articles"})
		return
	}

	writeJSON(w, http.StatusOK, toDigestResponse(digest, entries))
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	days := clampInt(r.URL.Query().Get("days"), defaultArchiveDays, maxArchiveDays)
	since := s.now().UTC().AddDate(0, 0, -days)

	digests, err := s.digests.ListSince(ctx, since)
	if err != nil {
		s.logger.Error("fetch digest archive", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load archive"})
		return
	}

	out := make([]digestResponse, len(digests))
	for i := range digests {
		out[i] = toDigestResponse(&digests[i], nil)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":    days,
		"digests": out,
	})
}

func toDigestResponse(digest *domain.Digest, entries []domain.DigestEntry) digestResponse {
	resp := digestResponse{
		ID:           digest.ID,
		CreatedAt:    digest.CreatedAt,
		DigestType:   digest.DigestType,
		StoriesCount: digest.StoriesCount,
		Categories:   digest.Categories,
		IsArchived:   digest.IsArchived,
	}

	for _, entry := range entries {
		article := articleResponse{
			Position:    entry.Position,
			URL:         entry.Article.URL,
			Title:       entry.Article.Title,
			Source:      entry.Article.Source,
			PublishedAt: entry.Article.PublishedAt,
			Engagement:  entry.Article.EngagementScore,
		}
		if entry.CategoryGroup != nil {
			article.CategoryGroup = string(*entry.CategoryGroup)
		}
		if entry.Article.Summary != nil {
			article.Summary = *entry.Article.Summary
		}
		resp.Articles = append(resp.Articles, article)
	}

	return resp
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
