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
	unknownSymbol = "UNKNOWN"
	previewRunes  = 100
)

// PipelineDeps wires all driven adapters into the processing pipeline.
type PipelineDeps struct {
	Store      ports.NewsStore
	Summarizer ports.Summarizer
	Logger     *slog.Logger
}

// Pipeline persists fetched batches and summarizes the stored backlog.
type Pipeline struct {
	store      ports.NewsStore
	summarizer ports.Summarizer
	logger     *slog.Logger
}

// ProcessResult reports both phases of one Process call.
type ProcessResult struct {
	Append domain.AppendResult
	Enrich domain.EnrichResult
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		store:      deps.Store,
		summarizer: deps.Summarizer,
		logger:     logger,
	}
}

// Process ingests the batch and then drains the whole backlog, which may
// include items left over from earlier runs.
func (p *Pipeline) Process(ctx context.Context, snapshot domain.Snapshot) (ProcessResult, error) {
	var result ProcessResult

	appended, err := p.Ingest(ctx, snapshot)
	result.Append = appended
	if err != nil {
		return result, err
	}

	enriched, err := p.Enrich(ctx)
	result.Enrich = enriched
	return result, err
}

// Ingest stamps every entry with the batch symbol and stores it.
func (p *Pipeline) Ingest(ctx context.Context, snapshot domain.Snapshot) (domain.AppendResult, error) {
	if p.store == nil {
		return domain.AppendResult{}, fmt.Errorf("news store is not configured")
	}

	symbol := strings.TrimSpace(snapshot.Symbol)
	if symbol == "" {
		symbol = unknownSymbol
	}

	if len(snapshot.News) == 0 {
		p.logger.Info("no news items to save", "symbol", symbol)
		return domain.AppendResult{}, nil
	}

	items := make([]domain.NewsItem, 0, len(snapshot.News))
	for _, raw := range snapshot.News {
		items = append(items, domain.NewsItem{
			Symbol:      symbol,
			Title:       raw.Title,
			Content:     raw.Content,
			Link:        raw.Link,
			Source:      raw.Source,
			PublishedAt: raw.Published,
		})
	}

	result, err := p.store.Append(ctx, items)
	if err != nil {
		return result, fmt.Errorf("append news: %w", err)
	}

	for _, item := range result.Items {
		if item.Outcome == domain.OutcomeError {
			p.logger.Warn("news item not stored", "link", item.Link, "error", item.Err)
		}
	}
	p.logger.Info("batch stored",
		"symbol", symbol,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"failed", result.Failed)

	return result, nil
}

// Enrich summarizes every stored item that has no summary yet. A summarizer
// failure is persisted as an error marker, so each pending item leaves the
// backlog after one attempt.
func (p *Pipeline) Enrich(ctx context.Context) (domain.EnrichResult, error) {
	var result domain.EnrichResult

	if p.store == nil || p.summarizer == nil {
		return result, fmt.Errorf("pipeline is not configured for enrichment")
	}

	pending, err := p.store.ListUnenriched(ctx)
	if err != nil {
		return result, fmt.Errorf("list unenriched: %w", err)
	}
	if len(pending) == 0 {
		p.logger.Info("no new news items to summarize")
		return result, nil
	}
	p.logger.Info("summarizing backlog", "count", len(pending))

	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("enrich interrupted: %w", err)
		}
		result.Processed++

		summary, sErr := p.summarize(ctx, item.Content)
		if sErr != nil {
			if ctx.Err() != nil {
				result.Processed--
				return result, fmt.Errorf("enrich interrupted: %w", ctx.Err())
			}
			p.logger.Warn("summarize failed", "id", item.ID, "title", item.Title, "error", sErr)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Errorf("summarize item %d: %w", item.ID, sErr))
			if err := p.store.MarkFailed(ctx, item.ID, ErrorSummary(item.Content)); err != nil {
				p.storeFailure(&result, item.ID, err)
			}
			continue
		}

		if err := p.store.SetSummary(ctx, item.ID, summary); err != nil {
			p.storeFailure(&result, item.ID, err)
			continue
		}
		result.Summarized++
	}

	p.logger.Info("backlog pass finished",
		"processed", result.Processed,
		"summarized", result.Summarized,
		"failed", result.Failed,
		"store_errors", result.StoreErrors)

	return result, nil
}

func (p *Pipeline) summarize(ctx context.Context, text string) (string, error) {
	summary, err := p.summarizer.Summarize(ctx, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("summarizer returned empty text")
	}
	return summary, nil
}

func (p *Pipeline) storeFailure(result *domain.EnrichResult, id int64, err error) {
	p.logger.Error("store summary failed", "id", id, "error", err)
	result.StoreErrors++
	result.Errors = append(result.Errors, fmt.Errorf("store summary %d: %w", id, err))
}

// ErrorSummary is the marker stored in place of a summary the model failed to produce.
func ErrorSummary(text string) string {
	return "Error Summary: Failed to summarize due to LLM error. Original text start: " + truncateRunes(text, previewRunes) + "..."
}

func truncateRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
