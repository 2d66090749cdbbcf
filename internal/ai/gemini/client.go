// Package gemini implements the generative-search collaborator on top of the
// Google GenAI client.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/jobscout/jobscout/internal/ai"
	"github.com/jobscout/jobscout/internal/logger"
	"github.com/jobscout/jobscout/internal/utils"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultMaxResults = 10
	defaultMaxLogLen  = 200

	retryBaseDelay = time.Second
)

//go:embed prompt.md
var promptTemplate string

// waitFor is stubbed in tests so retry backoff does not sleep for real.
var waitFor = utils.WaitFor

// contentGenerator abstracts the underlying model call so retry and breaker
// behavior can be tested against a fake.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// genaiModels adapts the genai client to contentGenerator.
type genaiModels struct {
	client *genai.Client
}

func (m genaiModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

// Config holds the provider settings loaded from the application config.
type Config struct {
	APIKey         string
	Model          string
	MaxRetries     int
	MaxResults     int
	MaxLogLength   int
	BreakerEnabled bool
}

// Client is an ai.SearchProvider backed by the Gemini API. Calls optionally
// run behind a circuit breaker so a flapping upstream stops burning quota.
type Client struct {
	models     contentGenerator
	model      string
	maxRetries int
	maxResults int
	maxLogLen  int
	breaker    *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
	logger     *zap.Logger
}

// New creates a Client configured for the Gemini API backend.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLen
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		models:     genaiModels{client: genaiClient},
		model:      model,
		maxRetries: cfg.MaxRetries,
		maxResults: maxResults,
		maxLogLen:  maxLogLen,
		logger:     log,
	}

	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](gobreaker.Settings{
			Name: "gemini-search",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return c, nil
}

// Search sends the query to Gemini and returns the raw text plus token
// usage. Transient failures are retried with a linear backoff.
func (c *Client) Search(ctx context.Context, query string) (*ai.SearchResult, error) {
	if c == nil || c.models == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	prompt := buildPrompt(query, c.maxResults)

	c.logger.Debug("gemini search request",
		zap.String("query", query),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, c.maxLogLen)),
	)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitFor(ctx, time.Duration(attempt)*retryBaseDelay); err != nil {
				return nil, err
			}
		}

		resp, err := c.generate(ctx, prompt)
		if err != nil {
			lastErr = err
			c.logger.Debug("gemini search attempt failed",
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		result := &ai.SearchResult{
			Text:  collectText(resp),
			Usage: extractUsage(resp),
		}
		if result.Text == "" {
			lastErr = errors.New("gemini api returned empty response")
			continue
		}

		c.logger.Debug("gemini search response",
			zap.Int("response_length", utf8.RuneCountInString(result.Text)),
			zap.String("response_preview", logger.TruncateForLog(result.Text, c.maxLogLen)),
			zap.Int("total_tokens", result.Usage.TotalTokens),
		)

		return result, nil
	}

	return nil, fmt.Errorf("gemini search failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func (c *Client) generate(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	call := func() (*genai.GenerateContentResponse, error) {
		return c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	}
	if c.breaker != nil {
		return c.breaker.Execute(call)
	}
	return call()
}

func buildPrompt(query string, maxResults int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Find open positions for: {{QUERY}}\nReturn at most {{MAX_RESULTS}} results as a JSON array."
	}
	prompt := strings.ReplaceAll(template, "{{QUERY}}", query)
	return strings.ReplaceAll(prompt, "{{MAX_RESULTS}}", fmt.Sprintf("%d", maxResults))
}

// collectText joins the textual parts of every candidate, matching how the
// API spreads longer answers over multiple parts.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

func extractUsage(resp *genai.GenerateContentResponse) ai.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return ai.TokenUsage{}
	}
	usage := resp.UsageMetadata
	return ai.TokenUsage{
		PromptTokens:     int(usage.PromptTokenCount),
		CompletionTokens: int(usage.CandidatesTokenCount),
		TotalTokens:      int(usage.TotalTokenCount),
	}
}
