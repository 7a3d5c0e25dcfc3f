package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/newsfeed"
)

// memoryStore mirrors the SQL store semantics closely enough for orchestration tests.
type memoryStore struct {
	mu        sync.Mutex
	items     []domain.NewsItem
	failSet   map[int64]bool
	appendErr error
	queries   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{failSet: map[int64]bool{}}
}

func (m *memoryStore) Initialize(context.Context) error { return nil }

func (m *memoryStore) Append(_ context.Context, items []domain.NewsItem) (domain.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result domain.AppendResult
	if m.appendErr != nil {
		return result, m.appendErr
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			result.Record(domain.ItemResult{Link: item.Link, Title: item.Title, Outcome: domain.OutcomeError, Err: err})
			continue
		}
		if m.find(item.Link) >= 0 {
			result.Record(domain.ItemResult{Link: item.Link, Title: item.Title, Outcome: domain.OutcomeDuplicate})
			continue
		}
		item.ID = int64(len(m.items) + 1)
		item.Status = domain.StatusPending
		m.items = append(m.items, item)
		result.Record(domain.ItemResult{Link: item.Link, Title: item.Title, Outcome: domain.OutcomeInserted})
	}
	return result, nil
}

func (m *memoryStore) find(link string) int {
	for i, item := range m.items {
		if item.Link == link {
			return i
		}
	}
	return -1
}

func (m *memoryStore) ListUnenriched(context.Context) ([]domain.PendingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var pending []domain.PendingItem
	for _, item := range m.items {
		if !item.Enriched() {
			pending = append(pending, domain.PendingItem{ID: item.ID, Title: item.Title, Content: item.Content})
		}
	}
	return pending, nil
}

func (m *memoryStore) SetSummary(_ context.Context, id int64, summary string) error {
	return m.resolve(id, summary, domain.StatusDone)
}

func (m *memoryStore) MarkFailed(_ context.Context, id int64, marker string) error {
	return m.resolve(id, marker, domain.StatusFailed)
}

func (m *memoryStore) resolve(id int64, summary string, status domain.EnrichmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet[id] {
		return fmt.Errorf("disk full")
	}
	for i := range m.items {
		if m.items[i].ID == id && !m.items[i].Enriched() {
			m.items[i].Summary = summary
			m.items[i].Status = status
		}
	}
	return nil
}

func (m *memoryStore) QueryByDateRange(_ context.Context, startDay, endDay, symbol string) ([]domain.ReportEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	var entries []domain.ReportEntry
	for _, item := range m.items {
		day := strings.SplitN(item.PublishedAt, " ", 2)[0]
		if day < startDay || day > endDay || !item.Enriched() {
			continue
		}
		if symbol != "" && item.Symbol != symbol {
			continue
		}
		entries = append(entries, domain.ReportEntry{Title: item.Title, Summary: item.Summary})
	}
	return entries, nil
}

func (m *memoryStore) Stats(context.Context) (domain.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats domain.StoreStats
	for _, item := range m.items {
		stats.Total++
		switch item.Status {
		case domain.StatusDone:
			stats.Done++
		case domain.StatusFailed:
			stats.Failed++
		default:
			stats.Pending++
		}
	}
	return stats, nil
}

func (m *memoryStore) summaryOf(link string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.find(link); i >= 0 {
		return m.items[i].Summary
	}
	return ""
}

type fakeSummarizer struct {
	mu          sync.Mutex
	fail        map[string]bool
	calls       []string
	digests     []string
	reportErr   error
	onSummarize func()
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	hook := f.onSummarize
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.fail[text] {
		return "", fmt.Errorf("upstream 500")
	}
	return "Summary: " + text, nil
}

func (f *fakeSummarizer) SynthesizeReport(_ context.Context, digest string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.digests = append(f.digests, digest)
	if f.reportErr != nil {
		return "", f.reportErr
	}
	return "REPORT", nil
}

type fakeProvider struct {
	headlines []domain.Headline
	err       error
	requests  []newsfeed.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) List(_ context.Context, req newsfeed.Request) ([]domain.Headline, error) {
	f.requests = append(f.requests, req)
	return f.headlines, f.err
}

type fakeFetcher struct {
	pages map[string]string
}

func (f fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	page, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("404 for %s", url)
	}
	return page, nil
}

type echoExtractor struct{}

func (echoExtractor) Extract(document string) domain.ExtractionResult {
	return domain.ExtractionResult{Title: "t", Content: "extracted:" + document}
}

type fakeSnapshots struct {
	written []domain.Snapshot
	err     error
}

func (f *fakeSnapshots) Write(snapshot domain.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.written = append(f.written, snapshot)
	return "/tmp/snapshot.json", nil
}

type fakeNotifier struct {
	reports []string
	err     error
}

func (f *fakeNotifier) PublishReport(_ context.Context, report string) error {
	f.reports = append(f.reports, report)
	return f.err
}

func rawNews(link, content string) domain.RawNews {
	return domain.RawNews{
		Title:     "Title " + link,
		Source:    "Reuters",
		Published: time.Date(2025, time.August, 2, 10, 0, 0, 0, time.UTC).Format(domain.PublishedLayout),
		Link:      link,
		Content:   content,
	}
}
