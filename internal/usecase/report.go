package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	noTitle   = "No Title"
	noSummary = "No Summary"
)

// ReportGenerator turns the stored summaries of one day into a narrative report.
type ReportGenerator struct {
	store      ports.NewsStore
	summarizer ports.Summarizer
	logger     *slog.Logger
}

// NewReportGenerator wires the store reader and the model.
func NewReportGenerator(store ports.NewsStore, summarizer ports.Summarizer, logger *slog.Logger) *ReportGenerator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ReportGenerator{store: store, summarizer: summarizer, logger: logger}
}

// Generate builds the report for day (YYYY-MM-DD), optionally limited to symbol.
func (g *ReportGenerator) Generate(ctx context.Context, day, symbol string) (string, error) {
	if g.store == nil || g.summarizer == nil {
		return "", fmt.Errorf("report generator is not configured")
	}

	label := symbol
	if label == "" {
		label = "All"
	}
	g.logger.Info("generating daily report", "day", day, "symbol", label)

	entries, err := g.store.QueryByDateRange(ctx, day, day, symbol)
	if err != nil {
		return "", fmt.Errorf("query summaries: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Sprintf("No news summaries found for %s (Symbol: %s) to generate a report.", day, label), nil
	}

	report, err := g.summarizer.SynthesizeReport(ctx, BuildDigest(entries))
	if err != nil {
		g.logger.Error("report synthesis failed", "day", day, "symbol", label, "error", err)
		return fmt.Sprintf("Error Daily Report: Failed to generate due to LLM error. Summaries provided: %d", len(entries)), nil
	}
	return report, nil
}

// BuildDigest renders the numbered title/summary list handed to the model.
func BuildDigest(entries []domain.ReportEntry) string {
	var b strings.Builder
	b.WriteString("Daily News Report:\n\n")
	for i, entry := range entries {
		title := entry.Title
		if title == "" {
			title = noTitle
		}
		summary := entry.Summary
		if summary == "" {
			summary = noSummary
		}
		fmt.Fprintf(&b, "%d. %s\n   Summary: %s\n", i+1, title, summary)
	}
	return b.String()
}
