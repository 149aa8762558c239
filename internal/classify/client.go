package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/sudamana23/NewsFlow-AI/internal/config"
	"github.com/sudamana23/NewsFlow-AI/internal/domain"
)

const (
	categorySystemPrompt = "You are a news categorization expert. " +
		"Reply with exactly one category label from the provided list and nothing else."
	summarySystemPrompt = "You are a professional news summarizer. " +
		"Create concise, factual summaries in 1-2 sentences. Focus on key facts and avoid speculation."
)

// Client classifies and summarizes articles through an LM Studio instance
// speaking the OpenAI chat-completions protocol. Every failure path resolves
// to the deterministic keyword fallback; callers never see an error.
type Client struct {
	api           openai.Client
	fallbackModel string
	timeout       time.Duration
	checkEvery    time.Duration
	maxSummaryLen int
	logger        *slog.Logger

	mu        sync.Mutex
	model     string
	lastCheck time.Time
}

func New(cfg config.LMStudioConfig, maxSummaryLen int, logger *slog.Logger) *Client {
	api := openai.NewClient(
		option.WithBaseURL(cfg.BaseURL),
		option.WithAPIKey(cfg.APIKey),
	)
	return &Client{
		api:           api,
		fallbackModel: cfg.FallbackModel,
		timeout:       cfg.RequestTimeout,
		checkEvery:    cfg.ModelCheckEvery,
		maxSummaryLen: maxSummaryLen,
		logger:        logger,
	}
}

// CategorizeAndSummarize returns (category, summary) for one article. The
// model path is bounded by the configured timeout; timeouts, transport errors
// and out-of-set labels all fall through to the keyword path.
func (c *Client) CategorizeAndSummarize(ctx context.Context, article domain.RawArticle) (domain.Category, string) {
	category, err := c.categorize(ctx, article)
	if err != nil {
		c.logger.Warn("model categorization failed, using keyword fallback",
			"url", article.URL, "error", err)
		category = KeywordCategorize(article.Title, article.Content, article.Source)
	}

	summary, err := c.summarize(ctx, article)
	if err != nil {
		c.logger.Warn("model summarization failed, using fallback summary",
			"url", article.URL, "error", err)
		summary = FallbackSummary(article.Content, article.Source, c.maxSummaryLen)
	}

	return category, summary
}

// Available probes the models endpoint, for diagnostics only.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.api.Models.List(ctx)
	return err == nil
}

func (c *Client) categorize(ctx context.Context, article domain.RawArticle) (domain.Category, error) {
	prompt := c.buildCategoryPrompt(article)

	raw, err := c.complete(ctx, categorySystemPrompt, prompt, 20)
	if err != nil {
		return "", err
	}

	label := domain.Category(strings.ToLower(strings.TrimSpace(raw)))
	if !domain.ValidCategory(label) {
		return "", fmt.Errorf("model returned unknown category %q", raw)
	}
	return label, nil
}

func (c *Client) summarize(ctx context.Context, article domain.RawArticle) (string, error) {
	content := clip(article.Content, 1000)

	prompt := fmt.Sprintf("Summarize this news article in 1-2 clear, factual sentences:\n\nTitle: %s\nContent: %s\n\nSummary:",
		article.Title, content)

	raw, err := c.complete(ctx, summarySystemPrompt, prompt, 100)
	if err != nil {
		return "", err
	}

	summary := CleanSummary(raw, c.maxSummaryLen)
	if summary == "" {
		return "", fmt.Errorf("model returned empty summary")
	}
	return summary, nil
}

func (c *Client) complete(ctx context.Context, system, prompt string, maxTokens int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.currentModel(ctx),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(system),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return response.Choices[0].Message.Content, nil
}

func (c *Client) buildCategoryPrompt(article domain.RawArticle) string {
	content := clip(article.Content, 500)

	labels := make([]string, len(domain.Categories))
	for i, cat := range domain.Categories {
		labels[i] = string(cat)
	}

	var sb strings.Builder
	sb.WriteString("Pick the single best category for this article from: ")
	sb.WriteString(strings.Join(labels, ", "))
	sb.WriteString(".\nPrefer ukraine or gaza for conflict coverage and swiss for Switzerland-related stories.\n\n")
	sb.WriteString("Title: ")
	sb.WriteString(article.Title)
	sb.WriteString("\nContent: ")
	sb.WriteString(content)
	sb.WriteString("\n\nCategory:")
	return sb.String()
}

// currentModel returns the active model id, re-detecting at most once per
// check interval. Detection failure degrades to the configured fallback name.
func (c *Client) currentModel(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != "" && time.Since(c.lastCheck) < c.checkEvery {
		return c.model
	}

	page, err := c.api.Models.List(ctx)
	if err != nil || len(page.Data) == 0 {
		if err != nil {
			c.logger.Warn("model detection failed, using fallback model",
				"fallback", c.fallbackModel, "error", err)
		}
		return c.fallbackModel
	}

	detected := page.Data[0].ID
	if detected != c.model {
		c.logger.Info("detected active model", "model", detected)
	}
	c.model = detected
	c.lastCheck = time.Now()
	return c.model
}
