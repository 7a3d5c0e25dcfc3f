package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// OpenAIClient implements ports.Summarizer backed by OpenAI-compatible chat APIs.
type OpenAIClient struct {
	endpoint      string
	model         string
	apiKey        string
	maxTokens     int
	summaryPrompt string
	reportPrompt  string
	httpClient    *http.Client
}

var _ ports.Summarizer = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.LLMConfig, httpClient *http.Client) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &OpenAIClient{
		endpoint:      cfg.Endpoint,
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		maxTokens:     maxTokens(cfg.MaxTokens),
		summaryPrompt: summaryPrompt(cfg.SummaryPrompt),
		reportPrompt:  reportPrompt(cfg.ReportPrompt),
		httpClient:    httpClient,
	}
}

// Summarize asks the model for a concise summary of one article.
func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, c.summaryPrompt, summaryRequest(text))
}

// SynthesizeReport turns the numbered digest of summaries into a daily report.
func (c *OpenAIClient) SynthesizeReport(ctx context.Context, digest string) (string, error) {
	return c.complete(ctx, c.reportPrompt, reportRequest(digest))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("openai client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chat completion error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
