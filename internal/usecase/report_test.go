package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func seededStore(t *testing.T) *memoryStore {
	t.Helper()

	store := newMemoryStore()
	_, err := store.Append(context.Background(), []domain.NewsItem{
		{Symbol: "AAPL", Title: "Apple Q3", Link: "a1", PublishedAt: "2025-08-02 10:00:00 UTC"},
		{Symbol: "GOOG", Title: "Google AI", Link: "g1", PublishedAt: "2025-08-02 12:00:00 UTC"},
		{Symbol: "AAPL", Title: "Older", Link: "a0", PublishedAt: "2025-08-01 23:59:59 UTC"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SetSummary(context.Background(), 1, "strong iPhone sales"))
	require.NoError(t, store.SetSummary(context.Background(), 2, "NLP breakthrough"))
	require.NoError(t, store.SetSummary(context.Background(), 3, "old news"))
	return store
}

func TestReportGenerateBuildsNumberedDigest(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{}
	g := NewReportGenerator(seededStore(t), summarizer, nil)

	report, err := g.Generate(context.Background(), "2025-08-02", "")
	require.NoError(t, err)
	assert.Equal(t, "REPORT", report)

	require.Len(t, summarizer.digests, 1)
	assert.Equal(t,
		"Daily News Report:\n\n"+
			"1. Apple Q3\n   Summary: strong iPhone sales\n"+
			"2. Google AI\n   Summary: NLP breakthrough\n",
		summarizer.digests[0])
}

func TestReportGenerateFiltersBySymbol(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{}
	g := NewReportGenerator(seededStore(t), summarizer, nil)

	_, err := g.Generate(context.Background(), "2025-08-02", "AAPL")
	require.NoError(t, err)
	require.Len(t, summarizer.digests, 1)
	assert.NotContains(t, summarizer.digests[0], "Google")
}

func TestReportGenerateEmptyDaySkipsModel(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{}
	g := NewReportGenerator(seededStore(t), summarizer, nil)

	report, err := g.Generate(context.Background(), "2025-08-03", "")
	require.NoError(t, err)
	assert.Equal(t, "No news summaries found for 2025-08-03 (Symbol: All) to generate a report.", report)
	assert.Empty(t, summarizer.digests)

	report, err = g.Generate(context.Background(), "2025-08-03", "TSLA")
	require.NoError(t, err)
	assert.Equal(t, "No news summaries found for 2025-08-03 (Symbol: TSLA) to generate a report.", report)
}

func TestReportGenerateSynthesisFailure(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{reportErr: errors.New("timeout")}
	g := NewReportGenerator(seededStore(t), summarizer, nil)

	report, err := g.Generate(context.Background(), "2025-08-02", "")
	require.NoError(t, err)
	assert.Equal(t, "Error Daily Report: Failed to generate due to LLM error. Summaries provided: 2", report)
}

func TestBuildDigestDefaults(t *testing.T) {
	t.Parallel()

	digest := BuildDigest([]domain.ReportEntry{{}})
	assert.Equal(t, "Daily News Report:\n\n1. No Title\n   Summary: No Summary\n", digest)
}
