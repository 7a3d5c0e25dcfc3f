package llm

import (
	"log/slog"
	"strings"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// New picks the summarizer backend. Without an API key it degrades to the
// Placeholder instead of failing callers.
func New(cfg config.LLMConfig, logger *slog.Logger) ports.Summarizer {
	if strings.TrimSpace(cfg.APIKey) == "" {
		if logger != nil {
			logger.Warn("LLM API key not configured, summaries will be placeholders")
		}
		return Placeholder{}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic", "claude":
		return NewClaudeClient(cfg)
	default:
		return NewOpenAIClient(cfg, nil)
	}
}
