package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	newsTable = "news"
	savepoint = "news_item"
)

var errEmptySummary = errors.New("summary is empty")

// SQLStore persists news items into SQLite or Postgres.
// Every method checks out its own connection and returns it before exiting;
// nothing guards against other processes writing the same database.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ ports.NewsStore = (*SQLStore)(nil)

// Open connects to the configured database.
func Open(cfg config.DatabaseConfig, logger *slog.Logger) (*SQLStore, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite {
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.driverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return NewSQLStore(db, dialect, logger), nil
}

// NewSQLStore wires an existing sql.DB.
func NewSQLStore(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLStore{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.placeholders()),
		logger:  logger,
	}
}

// Close releases the underlying pool.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates the news table and its indexes when missing.
func (s *SQLStore) Initialize(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	for _, stmt := range s.dialect.schema() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	s.logger.Debug("schema ensured", "dialect", s.dialect)
	return nil
}

// Append inserts the candidates in one transaction. Duplicate links and
// per-item failures are reported in the result and never abort the batch;
// the error return is reserved for connection and commit failures.
func (s *SQLStore) Append(ctx context.Context, items []domain.NewsItem) (domain.AppendResult, error) {
	var result domain.AppendResult
	if len(items) == 0 {
		return result, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return result, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, item := range items {
		outcome := s.insertOne(ctx, tx, item)
		switch outcome.Outcome {
		case domain.OutcomeDuplicate:
			s.logger.Info("skipping duplicate news", "title", item.Title, "link", item.Link)
		case domain.OutcomeError:
			s.logger.Warn("save news item failed", "title", item.Title, "link", item.Link, "error", outcome.Err)
		}
		result.Record(outcome)
	}

	if err := tx.Commit(); err != nil {
		return domain.AppendResult{}, fmt.Errorf("commit batch: %w", err)
	}
	committed = true

	s.logger.Info("saved news items",
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"failed", result.Failed)
	return result, nil
}

func (s *SQLStore) insertOne(ctx context.Context, tx *sql.Tx, item domain.NewsItem) domain.ItemResult {
	res := domain.ItemResult{Link: item.Link, Title: item.Title, Outcome: domain.OutcomeError}

	if err := item.Validate(); err != nil {
		res.Err = err
		return res
	}

	query, args, err := s.builder.
		Insert(newsTable).
		Columns("symbol", "title", "content", "link", "source", "published_at").
		Values(item.Symbol, item.Title, nullable(item.Content), item.Link, nullable(item.Source), nullable(item.PublishedAt)).
		Suffix("ON CONFLICT (link) DO NOTHING").
		ToSql()
	if err != nil {
		res.Err = fmt.Errorf("build insert: %w", err)
		return res
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		res.Err = fmt.Errorf("savepoint: %w", err)
		return res
	}

	execRes, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		res.Err = fmt.Errorf("insert news: %w", err)
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepoint); rbErr != nil {
			res.Err = fmt.Errorf("%w (rollback: %v)", res.Err, rbErr)
			return res
		}
		_, _ = tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint)
		return res
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepoint); err != nil {
		res.Err = fmt.Errorf("release savepoint: %w", err)
		return res
	}

	affected, err := execRes.RowsAffected()
	if err != nil {
		res.Err = fmt.Errorf("rows affected: %w", err)
		return res
	}
	if affected == 0 {
		res.Outcome = domain.OutcomeDuplicate
		return res
	}

	res.Outcome = domain.OutcomeInserted
	return res
}

// ListUnenriched returns every item without a summary, oldest first.
func (s *SQLStore) ListUnenriched(ctx context.Context) ([]domain.PendingItem, error) {
	query, args, err := s.builder.
		Select("id", "title", "content").
		From(newsTable).
		Where(sq.Or{sq.Eq{"summary": nil}, sq.Eq{"summary": ""}}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build backlog query: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query backlog: %w", err)
	}

	var pending []domain.PendingItem
	for rows.Next() {
		var (
			item    domain.PendingItem
			content sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &content); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan backlog row: %w", err)
		}
		item.Content = content.String
		pending = append(pending, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return pending, nil
}

// SetSummary stores the summary of an item that has none yet.
// Unknown ids and already summarized items are left untouched.
func (s *SQLStore) SetSummary(ctx context.Context, id int64, summary string) error {
	return s.resolve(ctx, id, summary, domain.StatusDone)
}

// MarkFailed stores an error-marker summary and flags the item as failed.
func (s *SQLStore) MarkFailed(ctx context.Context, id int64, marker string) error {
	return s.resolve(ctx, id, marker, domain.StatusFailed)
}

func (s *SQLStore) resolve(ctx context.Context, id int64, summary string, status domain.EnrichmentStatus) error {
	if strings.TrimSpace(summary) == "" {
		return fmt.Errorf("update news %d: %w", id, errEmptySummary)
	}

	query, args, err := s.builder.
		Update(newsTable).
		Set("summary", summary).
		Set("enrichment_status", string(status)).
		Where(sq.Eq{"id": id}).
		Where(sq.Or{sq.Eq{"summary": nil}, sq.Eq{"summary": ""}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update news %d: %w", id, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		s.logger.Debug("summary update matched no pending item", "id", id)
		return nil
	}

	s.logger.Debug("updated summary", "id", id, "status", status)
	return nil
}

// QueryByDateRange returns title/summary pairs published between the start of
// startDay and the end of endDay (inclusive), optionally for one symbol,
// ordered by id.
func (s *SQLStore) QueryByDateRange(ctx context.Context, startDay, endDay, symbol string) ([]domain.ReportEntry, error) {
	start, err := time.Parse(domain.DayLayout, strings.TrimSpace(startDay))
	if err != nil {
		return nil, fmt.Errorf("invalid start day %q: %w", startDay, err)
	}
	end, err := time.Parse(domain.DayLayout, strings.TrimSpace(endDay))
	if err != nil {
		return nil, fmt.Errorf("invalid end day %q: %w", endDay, err)
	}

	lower := start.Format(domain.DayLayout) + " 00:00:00 UTC"
	upper := end.Format(domain.DayLayout) + " 23:59:59 UTC"

	builder := s.builder.
		Select("title", "summary").
		From(newsTable).
		Where("published_at BETWEEN ? AND ?", lower, upper)
	if symbol = strings.TrimSpace(symbol); symbol != "" {
		builder = builder.Where(sq.Eq{"symbol": symbol})
	}

	query, args, err := builder.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query range: %w", err)
	}

	var entries []domain.ReportEntry
	for rows.Next() {
		var (
			entry   domain.ReportEntry
			summary sql.NullString
		)
		if err := rows.Scan(&entry.Title, &summary); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan range row: %w", err)
		}
		entry.Summary = summary.String
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

// Stats counts stored items per enrichment status.
func (s *SQLStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats

	query, args, err := s.builder.
		Select("enrichment_status", "COUNT(*)").
		From(newsTable).
		GroupBy("enrichment_status").
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("build stats query: %w", err)
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return stats, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return domain.StoreStats{}, fmt.Errorf("scan stats row: %w", err)
		}
		stats.Total += count
		switch domain.EnrichmentStatus(status) {
		case domain.StatusPending:
			stats.Pending += count
		case domain.StatusDone:
			stats.Done += count
		case domain.StatusFailed:
			stats.Failed += count
		}
	}

	if err := rows.Err(); err != nil {
		return domain.StoreStats{}, fmt.Errorf("rows iteration: %w", err)
	}

	return stats, nil
}

func nullable(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	return nil
}
