// Package store is the relational record store for chairs and estates.
// It runs on Postgres (pgx) in production and SQLite (modernc) for embedded
// mode and tests; the SQL is shared and only placeholders and row locking
// differ between the two.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/mohammed-shakir/isuumo/internal/core/observability"
)

var ErrNotFound = errors.New("not found")

type Config struct {
	Driver       string // postgres | sqlite
	DSN          string
	MaxOpenConns int
}

type dialect struct {
	name        string
	sqlDriver   string
	placeholder sq.PlaceholderFormat
	lockSuffix  string
}

var dialects = map[string]dialect{
	"postgres": {name: "postgres", sqlDriver: "pgx", placeholder: sq.Dollar, lockSuffix: "FOR UPDATE"},
	"sqlite":   {name: "sqlite", sqlDriver: "sqlite", placeholder: sq.Question},
}

type Store struct {
	db *sql.DB
	d  dialect
	sb sq.StatementBuilderType
}

// Open connects, applies the schema and returns a ready store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	db, err := sql.Open(d.sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}

	if d.name == "sqlite" {
		// one writer at a time; every statement shares the single connection
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	s := &Store{db: db, d: d, sb: sq.StatementBuilder.PlaceholderFormat(d.placeholder)}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.name, err)
	}
	if d.name == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if err := s.applySchema(ctx, s.db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Driver() string { return s.d.name }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops both tables and recreates the empty schema.
func (s *Store) Reset(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { observe("reset", start, err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range dropStatements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset %q: %w", stmt, err)
		}
	}
	if err = s.applySchema(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("reset commit: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) applySchema(ctx context.Context, db execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	observability.ObserveDB(op, err, time.Since(start).Seconds())
}

type rowScanner interface {
	Scan(dest ...any) error
}
