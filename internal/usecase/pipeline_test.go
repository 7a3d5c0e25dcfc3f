package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func TestPipelineProcessStoresAndSummarizes(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	summarizer := &fakeSummarizer{}
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: summarizer})

	result, err := p.Process(context.Background(), domain.Snapshot{
		Symbol: "AAPL",
		News:   []domain.RawNews{rawNews("l1", "apple beat"), rawNews("l2", "new iphone")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Append.Inserted)
	assert.Equal(t, 2, result.Enrich.Summarized)
	assert.Equal(t, "Summary: apple beat", store.summaryOf("l1"))
	assert.Equal(t, "AAPL", store.items[0].Symbol)
}

func TestPipelineIngestIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: &fakeSummarizer{}})
	batch := domain.Snapshot{Symbol: "TSLA", News: []domain.RawNews{rawNews("a", "x"), rawNews("b", "y"), rawNews("c", "z")}}

	first, err := p.Ingest(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Inserted)

	batch.News = append(batch.News, rawNews("d", "w"))
	second, err := p.Ingest(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Inserted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Len(t, store.items, 4)
}

func TestPipelineIngestDefaultsSymbol(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	p := NewPipeline(PipelineDeps{Store: store})

	_, err := p.Ingest(context.Background(), domain.Snapshot{News: []domain.RawNews{rawNews("a", "x")}})
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", store.items[0].Symbol)
}

func TestPipelineEmptyBatchStillDrainsBacklog(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	_, err := store.Append(context.Background(), []domain.NewsItem{
		{Symbol: "MSFT", Title: "old", Link: "old", Content: "left from yesterday"},
	})
	require.NoError(t, err)

	summarizer := &fakeSummarizer{}
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: summarizer})

	result, err := p.Process(context.Background(), domain.Snapshot{Symbol: "MSFT"})
	require.NoError(t, err)
	assert.Zero(t, result.Append.Inserted)
	assert.Equal(t, 1, result.Enrich.Summarized)
	assert.Equal(t, []string{"left from yesterday"}, summarizer.calls)
}

func TestPipelineEnrichFailureWritesMarker(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 150)
	store := newMemoryStore()
	summarizer := &fakeSummarizer{fail: map[string]bool{long: true}}
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: summarizer})

	result, err := p.Process(context.Background(), domain.Snapshot{
		Symbol: "NVDA",
		News:   []domain.RawNews{rawNews("bad", long), rawNews("good", "chips")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Enrich.Processed)
	assert.Equal(t, 1, result.Enrich.Failed)
	assert.Equal(t, 1, result.Enrich.Summarized)
	assert.Equal(t,
		"Error Summary: Failed to summarize due to LLM error. Original text start: "+strings.Repeat("é", 100)+"...",
		store.summaryOf("bad"))
	assert.Equal(t, "Summary: chips", store.summaryOf("good"))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StoreStats{Total: 2, Done: 1, Failed: 1}, stats)
}

func TestPipelineBacklogConverges(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	summarizer := &fakeSummarizer{fail: map[string]bool{"x": true}}
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: summarizer})

	_, err := p.Process(context.Background(), domain.Snapshot{
		Symbol: "AMD",
		News:   []domain.RawNews{rawNews("a", "x"), rawNews("b", "y")},
	})
	require.NoError(t, err)

	pending, err := store.ListUnenriched(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pending)

	second, err := p.Enrich(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Processed)
	assert.Len(t, summarizer.calls, 2)
}

func TestPipelineStoreErrorDoesNotAbortLoop(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: &fakeSummarizer{}})
	_, err := p.Ingest(context.Background(), domain.Snapshot{
		Symbol: "META",
		News:   []domain.RawNews{rawNews("a", "1"), rawNews("b", "2"), rawNews("c", "3")},
	})
	require.NoError(t, err)
	store.failSet[2] = true

	result, err := p.Enrich(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Summarized)
	assert.Equal(t, 1, result.StoreErrors)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Summary: 3", store.summaryOf("c"))
}

func TestPipelineEnrichStopsOnCancel(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summarizer := &fakeSummarizer{onSummarize: cancel}
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: summarizer})
	_, err := p.Ingest(context.Background(), domain.Snapshot{
		Symbol: "GOOG",
		News:   []domain.RawNews{rawNews("a", "1"), rawNews("b", "2")},
	})
	require.NoError(t, err)

	result, err := p.Enrich(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, summarizer.calls, 1)
	assert.Equal(t, 1, result.Summarized)

	pending, err := store.ListUnenriched(context.Background())
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPipelineIngestPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.appendErr = errors.New("begin tx: database is locked")
	p := NewPipeline(PipelineDeps{Store: store, Summarizer: &fakeSummarizer{}})

	_, err := p.Process(context.Background(), domain.Snapshot{Symbol: "X", News: []domain.RawNews{rawNews("a", "1")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestErrorSummaryShortText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Error Summary: Failed to summarize due to LLM error. Original text start: short...", ErrorSummary("short"))
}
