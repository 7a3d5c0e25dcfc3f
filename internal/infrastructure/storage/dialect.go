package storage

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Dialect selects the SQL backend behind SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured driver name to a Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) schema() []string {
	table := `CREATE TABLE IF NOT EXISTS news (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		summary TEXT,
		enrichment_status TEXT NOT NULL DEFAULT 'pending',
		link TEXT UNIQUE NOT NULL,
		source TEXT,
		published_at TEXT,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`
	if d == DialectPostgres {
		table = `CREATE TABLE IF NOT EXISTS news (
		id BIGSERIAL PRIMARY KEY,
		symbol TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		summary TEXT,
		enrichment_status TEXT NOT NULL DEFAULT 'pending',
		link TEXT UNIQUE NOT NULL,
		source TEXT,
		published_at TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`
	}

	return []string{
		table,
		`CREATE INDEX IF NOT EXISTS idx_news_published_at ON news (published_at)`,
		`CREATE INDEX IF NOT EXISTS idx_news_symbol ON news (symbol)`,
	}
}
