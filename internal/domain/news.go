package domain

import (
	"errors"
	"strings"
	"time"
)

// PublishedLayout is the textual timestamp convention used for published_at.
// Range queries compare these strings lexically, so every writer must use it.
const PublishedLayout = "2006-01-02 15:04:05 UTC"

// DayLayout is the date format accepted by range queries and reports.
const DayLayout = "2006-01-02"

// NewsItem is a persisted news record identified by its unique link.
// Symbol, Title and Link are required; the remaining text fields are optional
// and an empty string means absent.
type NewsItem struct {
	ID          int64
	Symbol      string
	Title       string
	Content     string
	Summary     string
	Link        string
	Source      string
	PublishedAt string
	CreatedAt   time.Time
	Status      EnrichmentStatus
}

// Enriched reports whether the item already carries a summary.
func (n NewsItem) Enriched() bool {
	return strings.TrimSpace(n.Summary) != ""
}

// Validate checks the fields the store refuses to persist without.
func (n NewsItem) Validate() error {
	var missing []string
	if strings.TrimSpace(n.Symbol) == "" {
		missing = append(missing, "symbol")
	}
	if strings.TrimSpace(n.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(n.Link) == "" {
		missing = append(missing, "link")
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.New("news item missing required fields: " + strings.Join(missing, ", "))
}

// EnrichmentStatus tracks the outcome of summarization separately from the summary text.
type EnrichmentStatus string

const (
	StatusPending EnrichmentStatus = "pending"
	StatusDone    EnrichmentStatus = "done"
	StatusFailed  EnrichmentStatus = "failed"
)

// ExtractionResult is the structured text pulled out of a raw article document.
type ExtractionResult struct {
	Title   string
	Content string
}

// PendingItem is a backlog entry awaiting a summary.
type PendingItem struct {
	ID      int64
	Title   string
	Content string
}

// ReportEntry is one title/summary pair fed into report synthesis.
type ReportEntry struct {
	Title   string
	Summary string
}

// StoreStats counts stored items by enrichment status.
type StoreStats struct {
	Total   int
	Pending int
	Done    int
	Failed  int
}
