// Package database opens the relational store behind the chat logs and the
// disease catalog. Postgres is migrated with golang-migrate; SQLite gets its
// schema applied on open.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
// Question marks inside single-quoted literals are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Options selects and locates the store.
type Options struct {
	Driver     string
	URL        string
	Path       string
	Retries    int
	RetryDelay time.Duration
}

// Open connects to the configured store and brings its schema up to date.
func Open(ctx context.Context, opts Options) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(opts.Driver)
	if err != nil {
		return nil, "", err
	}

	switch dialect {
	case Postgres:
		db, err := OpenPostgres(ctx, opts.URL, opts.Retries, opts.RetryDelay)
		if err != nil {
			return nil, "", err
		}
		if err := Migrate(opts.URL); err != nil {
			db.Close()
			return nil, "", err
		}
		return db, dialect, nil
	default:
		db, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, "", err
		}
		return db, dialect, nil
	}
}
