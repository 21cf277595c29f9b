package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simonvc/projectledger/internal/ledger"
)

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	var version int
	err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version < 1 {
		if err := migrateV1(ctx, tx); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}
	if version < 2 {
		if err := migrateV2(ctx, tx); err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
	}

	return tx.Commit()
}

// migrateV1 creates the chart of accounts and the ledger.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			code       TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			type       TEXT NOT NULL CHECK (type IN ('asset','contra_asset','liability','equity','revenue','expense')),
			category   TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_type ON accounts(type)`,

		`CREATE TABLE IF NOT EXISTS cashflow_categories (
			account_code TEXT PRIMARY KEY REFERENCES accounts(code) ON UPDATE CASCADE ON DELETE CASCADE,
			category     TEXT NOT NULL CHECK (category IN ('operating','investing','financing')),
			subcategory  TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			correlation_id          TEXT NOT NULL,
			date                    TEXT NOT NULL,
			account_code            TEXT NOT NULL REFERENCES accounts(code),
			direction               TEXT NOT NULL CHECK (direction IN ('increase','decrease')),
			side                    TEXT NOT NULL CHECK (side IN ('debit','credit')),
			amount                  TEXT NOT NULL,
			description             TEXT NOT NULL,
			project_id              TEXT,
			notes                   TEXT NOT NULL DEFAULT '',
			is_counter_entry        INTEGER NOT NULL DEFAULT 0,
			counter_account_code    TEXT,
			reverses_correlation_id TEXT,
			source_ref              TEXT,
			created_at              TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_correlation ON entries(correlation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_account ON entries(account_code, date)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_reverses ON entries(reverses_correlation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_ref)`,

		// Entries are append-only; corrections are reversal postings.
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_entries_update
		BEFORE UPDATE ON entries
		BEGIN
			SELECT RAISE(ABORT, 'ledger entries are immutable');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_immutable_entries_delete
		BEFORE DELETE ON entries
		BEGIN
			SELECT RAISE(ABORT, 'ledger entries are immutable');
		END`,

		// A posting may be reversed by exactly one other posting.
		`CREATE TRIGGER IF NOT EXISTS trg_single_reversal
		BEFORE INSERT ON entries
		WHEN NEW.reverses_correlation_id IS NOT NULL AND EXISTS (
			SELECT 1 FROM entries
			WHERE reverses_correlation_id = NEW.reverses_correlation_id
			  AND correlation_id != NEW.correlation_id
		)
		BEGIN
			SELECT RAISE(ABORT, 'posting already reversed');
		END`,

		// Account codes freeze once the ledger references them.
		`CREATE TRIGGER IF NOT EXISTS trg_account_code_in_use
		BEFORE UPDATE OF code ON accounts
		WHEN OLD.code != NEW.code AND EXISTS (SELECT 1 FROM entries WHERE account_code = OLD.code)
		BEGIN
			SELECT RAISE(ABORT, 'account is referenced by ledger entries');
		END`,
		`CREATE TRIGGER IF NOT EXISTS trg_account_delete_in_use
		BEFORE DELETE ON accounts
		WHEN EXISTS (SELECT 1 FROM entries WHERE account_code = OLD.code)
		BEGIN
			SELECT RAISE(ABORT, 'account is referenced by ledger entries');
		END`,

		`INSERT INTO schema_version (version) VALUES (1)`,
	}

	if err := execAll(ctx, tx, stmts); err != nil {
		return err
	}

	for _, c := range ledger.DefaultChart {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO accounts (code, name, type, category) VALUES (?, ?, ?, ?)`,
			c.Code, c.Name, string(c.Type), c.Category,
		)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", c.Code, err)
		}
	}
	for _, cf := range ledger.DefaultCashflow {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO cashflow_categories (account_code, category, subcategory) VALUES (?, ?, ?)`,
			cf.AccountCode, string(cf.Category), cf.Subcategory,
		)
		if err != nil {
			return fmt.Errorf("seed cashflow category %s: %w", cf.AccountCode, err)
		}
	}
	return nil
}

// migrateV2 adds fixed assets, projects, costs and billings.
func migrateV2(ctx context.Context, tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS fixed_assets (
			id                       TEXT PRIMARY KEY,
			name                     TEXT NOT NULL,
			acquisition_date         TEXT NOT NULL,
			value                    TEXT NOT NULL,
			useful_life              INTEGER NOT NULL CHECK (useful_life > 0),
			accumulated_depreciation TEXT NOT NULL DEFAULT '0',
			book_value               TEXT NOT NULL,
			asset_account_code       TEXT REFERENCES accounts(code) ON UPDATE CASCADE,
			expense_account_code     TEXT NOT NULL REFERENCES accounts(code) ON UPDATE CASCADE,
			contra_account_code      TEXT NOT NULL REFERENCES accounts(code) ON UPDATE CASCADE,
			last_depreciated_at      TEXT,
			created_at               TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		// The original cost never changes after acquisition.
		`CREATE TRIGGER IF NOT EXISTS trg_asset_value_immutable
		BEFORE UPDATE OF value ON fixed_assets
		WHEN OLD.value != NEW.value
		BEGIN
			SELECT RAISE(ABORT, 'asset value is immutable');
		END`,

		`CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			code        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL DEFAULT '',
			total_value TEXT NOT NULL,
			status      TEXT NOT NULL CHECK (status IN ('ongoing','completed','cancelled')),
			progress    INTEGER NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 100),
			created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS project_costs (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			category   TEXT NOT NULL DEFAULT '',
			amount     TEXT NOT NULL,
			date       TEXT NOT NULL,
			status     TEXT NOT NULL CHECK (status IN ('pending','approved','rejected'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_project_costs_project ON project_costs(project_id)`,

		`CREATE TABLE IF NOT EXISTS billings (
			id           TEXT PRIMARY KEY,
			project_id   TEXT NOT NULL REFERENCES projects(id),
			billing_date TEXT NOT NULL,
			percentage   TEXT,
			amount       TEXT NOT NULL,
			status       TEXT NOT NULL CHECK (status IN ('pending','unpaid','paid','rejected')),
			invoice      TEXT NOT NULL DEFAULT '',
			updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_billings_project ON billings(project_id)`,

		`INSERT INTO schema_version (version) VALUES (2)`,
	}
	return execAll(ctx, tx, stmts)
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			head := stmt
			if len(head) > 60 {
				head = head[:60]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}
