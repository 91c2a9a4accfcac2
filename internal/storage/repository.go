// Package storage is the ledger store: the authoritative, SQLite-backed
// collection of accounts, categories, transactions and documents. Balances
// are always derived from the transaction log, never cached, and every
// mutation runs in a single write transaction together with its audit-trail
// entry.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SourceAPI and SourceSystem tag audit entries with their origin.
const (
	SourceAPI    = "api"
	SourceSystem = "system"
)

type Repository struct {
	db     *sql.DB
	source string
}

// NewRepository opens (creating if necessary) the SQLite database at dbPath,
// runs migrations and returns a ready repository. source tags audit entries
// written through this handle.
func NewRepository(dbPath, source string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if source == "" {
		source = SourceAPI
	}
	return &Repository{db: db, source: source}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// writeTx runs fn inside a single write transaction. The _txlock=immediate
// DSN option makes the transaction take the write lock up front, so writers
// serialize against each other while readers proceed.
func (r *Repository) writeTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Monetary columns hold integer cents; amounts are rounded to 2 decimals
// before they reach the store, so the conversion is exact.

func cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

const timeLayout = time.RFC3339Nano

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	// CURRENT_TIMESTAMP default used by older rows
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func parseRate(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
