package store

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	"github.com/simonvc/projectledger/internal/ledger"
	_ "modernc.org/sqlite"
)

type AccountFilter struct {
	Type     ledger.AccountType
	Category string
	Limit    int
	Offset   int
}

type EntryFilter struct {
	AccountCode string
	ProjectID   string
	SourceRef   string
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

type AssetFilter struct {
	// Depreciable limits the result to assets with book value above zero.
	Depreciable bool
	Limit       int
	Offset      int
}

type ProjectFilter struct {
	Status ledger.ProjectStatus
	Limit  int
	Offset int
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries holds every read and write. Store and Tx embed it, so each
// method is written once and runs either on the connection pools or
// inside one SQL transaction.
type queries struct {
	read  queryer
	write queryer
	// writer is nil inside a Tx.
	writer *sql.DB
}

// atomic runs fn in a transaction, or directly when already inside one.
func (q *queries) atomic(ctx context.Context, fn func(queryer) error) error {
	if q.writer == nil {
		return fn(q.write)
	}
	tx, err := q.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type Store struct {
	queries
	writer *sql.DB
	reader *sql.DB
}

// Tx is a store bound to one write transaction. Get one from WithTx.
type Tx struct {
	queries
}

func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}
	reader.SetMaxOpenConns(runtime.NumCPU())

	s := &Store{
		queries: queries{read: reader, write: writer, writer: writer},
		writer:  writer,
		reader:  reader,
	}

	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	err1 := s.writer.Close()
	err2 := s.reader.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// WithTx runs fn inside one write transaction and commits when fn
// returns nil. The writer pool has a single connection, so fn must use
// the Tx it is given and never the Store's own write methods.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{queries{read: tx, write: tx}}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func paginate(query string, limit, offset int) string {
	if limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, limit)
		if offset > 0 {
			query += fmt.Sprintf(` OFFSET %d`, offset)
		}
	}
	return query
}

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(ledger.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func formatDay(t time.Time) string {
	return t.Format(ledger.DateLayout)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
