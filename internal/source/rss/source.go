package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/mmcdole/gofeed"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

const userAgent = "NewsFlow/1.0 (News Aggregator)"

// feed is one subscription. When Label is empty the channel's own title is
// used as the article source name.
type feed struct {
	URL   string
	Label string
}

// Source scrapes a group of RSS/Atom feeds into raw articles. One Source
// covers one source family (mainstream, tech, swiss, social).
type Source struct {
	name       string
	sourceType domain.SourceType
	feeds      []feed

	httpClient     *http.Client
	maxPerFeed     int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration

	logger *slog.Logger
}

// New creates a scraper over plain feed URLs.
func New(name string, sourceType domain.SourceType, urls []string, cfg config.SourcesConfig, logger *slog.Logger) *Source {
	feeds := make([]feed, len(urls))
	for i, u := range urls {
		feeds[i] = feed{URL: u}
	}
	return newSource(name, sourceType, feeds, cfg, logger)
}

// NewReddit creates a scraper over the public hot feeds of the given
// subreddits. Articles are labeled "r/{sub}" regardless of the feed title.
func NewReddit(subreddits []string, cfg config.SourcesConfig, logger *slog.Logger) *Source {
	feeds := make([]feed, len(subreddits))
	for i, sub := range subreddits {
		feeds[i] = feed{
			URL:   fmt.Sprintf("https://www.reddit.com/r/%s/hot.rss", sub),
			Label: "r/" + sub,
		}
	}
	return newSource("reddit", domain.SourceSocial, feeds, cfg, logger)
}

func newSource(name string, sourceType domain.SourceType, feeds []feed, cfg config.SourcesConfig, logger *slog.Logger) *Source {
	return &Source{
		name:       name,
		sourceType: sourceType,
		feeds:      feeds,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		maxPerFeed:     cfg.MaxPerFeed,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source_group", name),
	}
}

func (s *Source) Name() string {
	return s.name
}

// Scrape fetches every feed in the group. A failing feed is logged and
// skipped; the rest still contribute articles.
func (s *Source) Scrape(ctx context.Context) ([]domain.RawArticle, error) {
	var articles []domain.RawArticle

	for _, f := range s.feeds {
		parsed, err := s.fetchFeed(ctx, f.URL)
		if err != nil {
			s.logger.Warn("feed fetch failed", "url", f.URL, "error", err)
			continue
		}

		label := f.Label
		if label == "" {
			label = strings.TrimSpace(parsed.Title)
		}
		if label == "" {
			label = f.URL
		}

		items := parsed.Items
		if len(items) > s.maxPerFeed {
			items = items[:s.maxPerFeed]
		}

		for _, it := range items {
			link := strings.TrimSpace(it.Link)
			if link == "" {
				continue
			}
			articles = append(articles, domain.RawArticle{
				URL:         link,
				Title:       strings.TrimSpace(it.Title),
				Content:     extractText(itemContent(it)),
				Source:      label,
				SourceType:  s.sourceType,
				PublishedAt: itemPublished(it),
			})
		}

		s.logger.Debug("fetched feed", "url", f.URL, "items", len(items))
	}

	return articles, nil
}

func (s *Source) fetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	var data []byte
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		data, err = s.doRequest(ctx, url)
		if err == nil {
			return parseFeed(data)
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"url", url,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return data, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}
