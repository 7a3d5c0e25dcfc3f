package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// NewsStore persists news items and tracks the enrichment backlog.
type NewsStore interface {
	Initialize(ctx context.Context) error
	Append(ctx context.Context, items []domain.NewsItem) (domain.AppendResult, error)
	ListUnenriched(ctx context.Context) ([]domain.PendingItem, error)
	SetSummary(ctx context.Context, id int64, summary string) error
	MarkFailed(ctx context.Context, id int64, marker string) error
	QueryByDateRange(ctx context.Context, startDay, endDay, symbol string) ([]domain.ReportEntry, error)
	Stats(ctx context.Context) (domain.StoreStats, error)
}

// Summarizer is the remote model producing article summaries and reports.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
	SynthesizeReport(ctx context.Context, digest string) (string, error)
}

// Extractor turns a raw article document into title and body text.
type Extractor interface {
	Extract(document string) domain.ExtractionResult
}

// DocumentFetcher downloads raw article documents.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SnapshotWriter stores the informational artifact of a fetch run.
type SnapshotWriter interface {
	Write(snapshot domain.Snapshot) (string, error)
}

// Notifier delivers generated reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
