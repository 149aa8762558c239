package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

const (
	hourlyLookback   = 1 * time.Hour
	deepReadLookback = 12 * time.Hour

	deepReadPerCategory = 5
	hourlyPerCategory   = 3
	overflowPerCategory = 2
)

// priorityCategories fixes the order categories appear in a digest. Anything
// outside the list is appended afterwards with a tighter cap.
var priorityCategories = []domain.Category{
	domain.CategoryUkraine,
	domain.CategoryGaza,
	domain.CategoryAI,
	domain.CategoryTech,
	domain.CategoryFinance,
	domain.CategoryPolitics,
	domain.CategoryPremierLeague,
	domain.CategorySwiss,
	domain.CategoryWorld,
}

// DigestService assembles ranked digest snapshots from processed articles.
type DigestService struct {
	articles   ArticleStore
	digests    DigestStore
	tx         TransactionManager
	maxStories int
	quietStart int
	quietEnd   int
	logger     *slog.Logger
	now        func() time.Time
}

func NewDigestService(
	articles ArticleStore,
	digests DigestStore,
	tx TransactionManager,
	digestCfg config.DigestConfig,
	scheduleCfg config.ScheduleConfig,
	logger *slog.Logger,
) *DigestService {
	return &DigestService{
		articles:   articles,
		digests:    digests,
		tx:         tx,
		maxStories: digestCfg.MaxStories,
		quietStart: scheduleCfg.QuietHoursStart,
		quietEnd:   scheduleCfg.QuietHoursEnd,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateDigest builds and persists one digest of the given type. It returns
// (nil, nil) when the digest is suppressed (hourly during quiet hours) or
// when no candidate articles exist: an empty digest is never created.
func (s *DigestService) CreateDigest(ctx context.Context, digestType domain.DigestType) (*domain.Digest, error) {
	now := s.now()

	if digestType == domain.DigestHourly && InQuietHours(now.Hour(), s.quietStart, s.quietEnd) {
		s.logger.Info("skipping hourly digest during quiet hours", "hour", now.Hour())
		return nil, nil
	}

	s.logger.Info("creating digest", "type", digestType)

	lookback := hourlyLookback
	if digestType.DeepRead() {
		lookback = deepReadLookback
	}

	since := now.Add(-lookback)
	processed := true
	candidates, err := s.articles.Query(ctx, domain.ArticleFilter{
		ScrapedSince: &since,
		Processed:    &processed,
		Limit:        s.maxStories * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("query digest candidates: %w", err)
	}

	if len(candidates) == 0 {
		s.logger.Info("no articles available for digest", "type", digestType)
		return nil, nil
	}

	selected := selectForDigest(candidates, digestType, s.maxStories)
	if len(selected) == 0 {
		s.logger.Info("no articles selected for digest", "type", digestType)
		return nil, nil
	}

	digest := &domain.Digest{
		ID:           uuid.NewString(),
		CreatedAt:    now.UTC(),
		DigestType:   digestType,
		StoriesCount: len(selected),
		Categories:   joinCategories(selected),
	}

	entries := make([]domain.DigestArticle, len(selected))
	for i, article := range selected {
		cat := article.CategoryOrWorld()
		entries[i] = domain.DigestArticle{
			DigestID:      digest.ID,
			ArticleID:     article.ID,
			Position:      i,
			CategoryGroup: &cat,
		}
	}

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.digests.Create(txCtx, digest, entries)
	})
	if err != nil {
		return nil, fmt.Errorf("persist digest: %w", err)
	}

	s.logger.Info("created digest",
		"type", digestType,
		"stories", digest.StoriesCount,
		"categories", digest.Categories,
	)
	return digest, nil
}

// selectForDigest applies the quota and priority rules to ranked candidates:
// priority categories first with the per-category cap, remaining categories
// after with a cap of two, then URL dedup (first occurrence wins) and the
// total-stories cap. Candidate order within a category is preserved, so the
// store's (score desc, time desc) ranking carries through.
func selectForDigest(candidates []domain.Article, digestType domain.DigestType, maxStories int) []domain.Article {
	byCategory := make(map[domain.Category][]domain.Article)
	var categoryOrder []domain.Category
	for _, article := range candidates {
		cat := article.CategoryOrWorld()
		if _, seen := byCategory[cat]; !seen {
			categoryOrder = append(categoryOrder, cat)
		}
		byCategory[cat] = append(byCategory[cat], article)
	}

	perCategory := hourlyPerCategory
	if digestType.DeepRead() {
		perCategory = deepReadPerCategory
	}

	var picked []domain.Article
	for _, cat := range priorityCategories {
		picked = append(picked, take(byCategory[cat], perCategory)...)
	}

	for _, cat := range categoryOrder {
		if isPriority(cat) {
			continue
		}
		picked = append(picked, take(byCategory[cat], overflowPerCategory)...)
	}

	seen := make(map[string]bool, len(picked))
	var final []domain.Article
	for _, article := range picked {
		if seen[article.URL] || len(final) >= maxStories {
			continue
		}
		seen[article.URL] = true
		final = append(final, article)
	}
	return final
}

func take(articles []domain.Article, n int) []domain.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}

func isPriority(cat domain.Category) bool {
	for _, p := range priorityCategories {
		if p == cat {
			return true
		}
	}
	return false
}

// joinCategories renders the sorted unique category set as a comma-delimited
// string.
func joinCategories(articles []domain.Article) string {
	set := make(map[string]bool)
	for _, article := range articles {
		set[string(article.CategoryOrWorld())] = true
	}

	cats := make([]string, 0, len(set))
	for cat := range set {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return strings.Join(cats, ",")
}
