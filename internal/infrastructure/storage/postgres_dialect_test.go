package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsDigest/internal/domain"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSQLStore(db, DialectPostgres, nil), mock
}

func exact(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

const insertQuery = "INSERT INTO news (symbol,title,content,link,source,published_at) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (link) DO NOTHING"

func TestPostgresAppendUsesSavepointsPerItem(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()

	mock.ExpectExec(exact("SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(insertQuery)).
		WithArgs("TSLA", "new", "body", "https://example.com/new", "Reuters", "2025-07-31 10:00:00 UTC").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(exact("RELEASE SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(exact("SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(insertQuery)).
		WithArgs("TSLA", "dup", nil, "https://example.com/dup", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact("RELEASE SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectExec(exact("SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(insertQuery)).
		WithArgs("TSLA", "broken", nil, "https://example.com/broken", nil, nil).
		WillReturnError(errors.New("value too long"))
	mock.ExpectExec(exact("ROLLBACK TO SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact("RELEASE SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectCommit()

	res, err := store.Append(context.Background(), []domain.NewsItem{
		{Symbol: "TSLA", Title: "new", Content: "body", Link: "https://example.com/new", Source: "Reuters", PublishedAt: "2025-07-31 10:00:00 UTC"},
		{Symbol: "TSLA", Title: "dup", Link: "https://example.com/dup"},
		{Symbol: "TSLA", Title: "broken", Link: "https://example.com/broken"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 1, res.Failed)
	assert.ErrorContains(t, res.Items[2].Err, "value too long")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAppendCommitFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(exact("SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(exact(insertQuery)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(exact("RELEASE SAVEPOINT news_item")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := store.Append(context.Background(), []domain.NewsItem{
		{Symbol: "TSLA", Title: "t", Link: "https://example.com/t"},
	})
	require.ErrorContains(t, err, "commit batch")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetSummaryGuardsExistingSummary(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectExec(exact("UPDATE news SET summary = $1, enrichment_status = $2 WHERE id = $3 AND (summary IS NULL OR summary = $4)")).
		WithArgs("Summary: done", "done", int64(7), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetSummary(context.Background(), 7, "Summary: done"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresQueryByDateRange(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery(exact("SELECT title, summary FROM news WHERE published_at BETWEEN $1 AND $2 AND symbol = $3 ORDER BY id ASC")).
		WithArgs("2025-08-01 00:00:00 UTC", "2025-08-01 23:59:59 UTC", "AAPL").
		WillReturnRows(sqlmock.NewRows([]string{"title", "summary"}).
			AddRow("Apple earnings", "Summary: strong").
			AddRow("Apple leak", nil))

	entries, err := store.QueryByDateRange(context.Background(), "2025-08-01", "2025-08-01", "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []domain.ReportEntry{
		{Title: "Apple earnings", Summary: "Summary: strong"},
		{Title: "Apple leak"},
	}, entries)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListUnenriched(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery(exact("SELECT id, title, content FROM news WHERE (summary IS NULL OR summary = $1) ORDER BY id ASC")).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "content"}).
			AddRow(int64(3), "three", "body").
			AddRow(int64(5), "five", nil))

	pending, err := store.ListUnenriched(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.PendingItem{
		{ID: 3, Title: "three", Content: "body"},
		{ID: 5, Title: "five"},
	}, pending)

	require.NoError(t, mock.ExpectationsWereMet())
}
