package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/newsfeed"
	"NewsDigest/internal/ports"
)

const (
	fetchFailedContent = "Failed to retrieve HTML content."
	snapshotTimeLayout = "2006-01-02T15:04:05"
)

// CollectorDeps wires the collaborators of one fetch run.
type CollectorDeps struct {
	Registry   *newsfeed.Registry
	Provider   string
	Fetcher    ports.DocumentFetcher
	Extractor  ports.Extractor
	Snapshots  ports.SnapshotWriter
	Exchange   string
	Language   string
	WindowDays int
	OpenHour   int
	OpenMinute int
	Logger     *slog.Logger
}

// Collector lists headlines for a symbol, downloads each article and
// assembles the raw batch handed to the pipeline.
type Collector struct {
	deps   CollectorDeps
	logger *slog.Logger
}

// NewCollector wires the provider registry with config-defined settings.
func NewCollector(deps CollectorDeps) *Collector {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.WindowDays <= 0 {
		deps.WindowDays = 1
	}
	return &Collector{deps: deps, logger: logger}
}

// Collect fetches the news for symbol in the window opening on day.
func (c *Collector) Collect(ctx context.Context, symbol string, day time.Time) (domain.Snapshot, error) {
	return c.CollectWindow(ctx, symbol, day, c.deps.WindowDays)
}

// CollectWindow is Collect with an explicit window length in days.
func (c *Collector) CollectWindow(ctx context.Context, symbol string, day time.Time, windowDays int) (domain.Snapshot, error) {
	if c.deps.Registry == nil {
		return domain.Snapshot{}, fmt.Errorf("news provider registry is not configured")
	}
	if c.deps.Fetcher == nil || c.deps.Extractor == nil {
		return domain.Snapshot{}, fmt.Errorf("collector is not configured for document fetch")
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Snapshot{}, fmt.Errorf("symbol is required")
	}
	if windowDays <= 0 {
		windowDays = c.deps.WindowDays
	}

	provider, err := c.deps.Registry.Resolve(c.deps.Provider)
	if err != nil {
		return domain.Snapshot{}, err
	}

	req := newsfeed.Request{
		Symbol:     symbol,
		Exchange:   c.deps.Exchange,
		Language:   c.deps.Language,
		Start:      time.Date(day.Year(), day.Month(), day.Day(), c.deps.OpenHour, c.deps.OpenMinute, 0, 0, time.UTC),
		WindowDays: windowDays,
	}

	c.logger.Debug("collect news", "provider", provider.Name(), "symbol", symbol,
		"start", req.Start.Format(snapshotTimeLayout), "end", req.End().Format(snapshotTimeLayout))

	headlines, err := provider.List(ctx, req)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("list news for %s: %w", symbol, err)
	}

	snapshot := domain.Snapshot{
		Symbol:    symbol,
		StartTime: req.Start.Format(snapshotTimeLayout),
		EndTime:   req.End().Format(snapshotTimeLayout),
		News:      make([]domain.RawNews, 0, len(headlines)),
	}

	for _, headline := range headlines {
		c.logger.Debug("fetching article", "title", headline.Title, "link", headline.Link)
		snapshot.News = append(snapshot.News, domain.RawNews{
			Title:          headline.Title,
			Source:         headline.Source,
			Published:      headline.Published.UTC().Format(domain.PublishedLayout),
			RelatedSymbols: strings.Join(headline.RelatedSymbols, ", "),
			Link:           headline.Link,
			Content:        c.content(ctx, headline.Link),
		})
	}

	c.logger.Info("collected news", "symbol", symbol, "count", len(snapshot.News))

	if c.deps.Snapshots != nil {
		path, err := c.deps.Snapshots.Write(snapshot)
		if err != nil {
			c.logger.Warn("write snapshot failed", "symbol", symbol, "error", err)
		} else {
			c.logger.Info("snapshot saved", "path", path)
		}
	}

	return snapshot, nil
}

func (c *Collector) content(ctx context.Context, link string) string {
	document, err := c.deps.Fetcher.Fetch(ctx, link)
	if err != nil {
		c.logger.Warn("fetch article failed", "link", link, "error", err)
		return fetchFailedContent
	}
	return c.deps.Extractor.Extract(document).Content
}
