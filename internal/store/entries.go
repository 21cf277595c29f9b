package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonvc/projectledger/internal/ledger"
)

const entryColumns = `id, correlation_id, date, account_code, direction, side, amount, description,
	COALESCE(project_id, ''), notes, is_counter_entry, COALESCE(counter_account_code, ''),
	COALESCE(reverses_correlation_id, ''), COALESCE(source_ref, ''), created_at`

// InsertEntries writes all entries in one transaction and fills in their
// ids and creation times.
func (q *queries) InsertEntries(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	created := nowUTC()
	return q.atomic(ctx, func(db queryer) error {
		for i := range entries {
			e := &entries[i]
			if !e.Amount.IsPositive() {
				return fmt.Errorf("entry %d: %w", i, ledger.ErrInvalidAmount)
			}
			res, err := db.ExecContext(ctx,
				`INSERT INTO entries (correlation_id, date, account_code, direction, side, amount, description,
					project_id, notes, is_counter_entry, counter_account_code, reverses_correlation_id, source_ref, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				e.CorrelationID, formatDay(e.Date), e.AccountCode, string(e.Direction), string(e.Side),
				e.Amount.String(), e.Description, nullString(e.ProjectID), e.Notes, boolToInt(e.IsCounterEntry),
				nullString(e.CounterAccountCode), nullString(e.ReversesCorrelationID), nullString(e.SourceRef), created,
			)
			if err != nil {
				return fmt.Errorf("insert entry %d: %w", i, mapConstraint(err))
			}
			if e.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("entry id: %w", err)
			}
			e.CreatedAt = parseTimestamp(created)
		}
		return nil
	})
}

// EntriesByCorrelation returns the entries of one posting in insert order.
func (q *queries) EntriesByCorrelation(ctx context.Context, correlationID string) ([]ledger.Entry, error) {
	rows, err := q.read.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE correlation_id = ? ORDER BY id`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("entries by correlation: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// GetPosting loads a posting by correlation id.
func (q *queries) GetPosting(ctx context.Context, correlationID string) (*ledger.Posting, error) {
	entries, err := q.EntriesByCorrelation(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ledger.ErrPostingNotFound
	}
	return &ledger.Posting{CorrelationID: correlationID, Entries: entries}, nil
}

func (q *queries) IsReversed(ctx context.Context, correlationID string) (bool, error) {
	var n int
	err := q.read.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE reverses_correlation_id = ?`, correlationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("is reversed: %w", err)
	}
	return n > 0, nil
}

// OpenPostings returns the correlation ids of postings with the given
// source ref that are neither reversals nor reversed, oldest first.
func (q *queries) OpenPostings(ctx context.Context, sourceRef string) ([]string, error) {
	rows, err := q.read.QueryContext(ctx,
		`SELECT e.correlation_id FROM entries e
		WHERE e.source_ref = ? AND e.reverses_correlation_id IS NULL
		  AND NOT EXISTS (SELECT 1 FROM entries r WHERE r.reverses_correlation_id = e.correlation_id)
		GROUP BY e.correlation_id
		ORDER BY MIN(e.id)`, sourceRef)
	if err != nil {
		return nil, fmt.Errorf("open postings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan correlation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *queries) ListEntries(ctx context.Context, filter EntryFilter) ([]ledger.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE 1=1`
	args := []any{}

	if filter.AccountCode != "" {
		query += ` AND account_code = ?`
		args = append(args, filter.AccountCode)
	}
	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.SourceRef != "" {
		query += ` AND source_ref = ?`
		args = append(args, filter.SourceRef)
	}
	if !filter.From.IsZero() {
		query += ` AND date >= ?`
		args = append(args, formatDay(filter.From))
	}
	if !filter.To.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDay(filter.To))
	}

	query = paginate(query+` ORDER BY date DESC, id DESC`, filter.Limit, filter.Offset)

	rows, err := q.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var date, createdAt string
		var isCounter int
		if err := rows.Scan(&e.ID, &e.CorrelationID, &date, &e.AccountCode, &e.Direction, &e.Side,
			&e.Amount, &e.Description, &e.ProjectID, &e.Notes, &isCounter, &e.CounterAccountCode,
			&e.ReversesCorrelationID, &e.SourceRef, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		d, err := parseDay(date)
		if err != nil {
			return nil, err
		}
		e.Date = d
		e.IsCounterEntry = isCounter == 1
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
