package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeClient implements ports.Summarizer with the Anthropic Messages API.
type ClaudeClient struct {
	client        anthropic.Client
	model         string
	maxTokens     int
	summaryPrompt string
	reportPrompt  string
}

var _ ports.Summarizer = (*ClaudeClient)(nil)

// NewClaudeClient builds a client from configuration. A non-empty endpoint
// replaces the default API base URL.
func NewClaudeClient(cfg config.LLMConfig, opts ...option.RequestOption) *ClaudeClient {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(endpoint))
	}
	reqOpts = append(reqOpts, opts...)

	model := strings.TrimSpace(cfg.Model)
	if model == "" || !strings.HasPrefix(strings.ToLower(model), "claude") {
		model = defaultClaudeModel
	}

	return &ClaudeClient{
		client:        anthropic.NewClient(reqOpts...),
		model:         model,
		maxTokens:     maxTokens(cfg.MaxTokens),
		summaryPrompt: summaryPrompt(cfg.SummaryPrompt),
		reportPrompt:  reportPrompt(cfg.ReportPrompt),
	}
}

// Summarize asks Claude for a concise summary of one article.
func (c *ClaudeClient) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, c.summaryPrompt, summaryRequest(text))
}

// SynthesizeReport turns the numbered digest of summaries into a daily report.
func (c *ClaudeClient) SynthesizeReport(ctx context.Context, digest string) (string, error) {
	return c.complete(ctx, c.reportPrompt, reportRequest(digest))
}

func (c *ClaudeClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("claude returned no text")
	}
	return text, nil
}
