package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/simonvc/projectledger/internal/ledger"
)

const accountColumns = `code, name, type, category, created_at`

// mapConstraint turns trigger and constraint failures into ledger errors.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "referenced by ledger entries"):
		return fmt.Errorf("%w: %v", ledger.ErrAccountInUse, err)
	case strings.Contains(msg, "posting already reversed"):
		return fmt.Errorf("%w: %v", ledger.ErrAlreadyReversed, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", ledger.ErrAccountNotFound, err)
	}
	return err
}

func (q *queries) CreateAccount(ctx context.Context, acct *ledger.Account) error {
	if err := acct.Validate(); err != nil {
		return err
	}
	if _, err := q.GetAccount(ctx, acct.Code); err == nil {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateAccount, acct.Code)
	}

	_, err := q.write.ExecContext(ctx,
		`INSERT INTO accounts (code, name, type, category) VALUES (?, ?, ?, ?)`,
		acct.Code, acct.Name, string(acct.Type), acct.Category,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (q *queries) GetAccount(ctx context.Context, code string) (*ledger.Account, error) {
	row := q.read.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE code = ?`, code)
	return scanAccount(row)
}

func (q *queries) ListAccounts(ctx context.Context, filter AccountFilter) ([]ledger.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(filter.Type))
	}
	if filter.Category != "" {
		query += ` AND lower(trim(category)) = lower(trim(?))`
		args = append(args, filter.Category)
	}

	query = paginate(query+` ORDER BY code`, filter.Limit, filter.Offset)

	rows, err := q.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *acct)
	}
	return accounts, rows.Err()
}

// AccountsByType lists accounts of one type ordered by code.
func (q *queries) AccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error) {
	return q.ListAccounts(ctx, AccountFilter{Type: t})
}

// UpdateAccount changes the name and category of an account.
func (q *queries) UpdateAccount(ctx context.Context, code, name, category string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("account name is required")
	}
	res, err := q.write.ExecContext(ctx,
		`UPDATE accounts SET name = ?, category = ? WHERE code = ?`, name, category, code)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, ledger.ErrAccountNotFound)
}

// ChangeAccountCode renames an account's code. It fails with
// ledger.ErrAccountInUse once entries reference the account.
func (q *queries) ChangeAccountCode(ctx context.Context, oldCode, newCode string) error {
	probe := ledger.Account{Code: newCode, Name: "x", Type: ledger.TypeAsset}
	if err := probe.Validate(); err != nil {
		return err
	}
	if _, err := q.GetAccount(ctx, newCode); err == nil {
		return fmt.Errorf("%w: %s", ledger.ErrDuplicateAccount, newCode)
	}
	res, err := q.write.ExecContext(ctx, `UPDATE accounts SET code = ? WHERE code = ?`, newCode, oldCode)
	if err != nil {
		return fmt.Errorf("change account code: %w", mapConstraint(err))
	}
	return requireRow(res, ledger.ErrAccountNotFound)
}

func (q *queries) DeleteAccount(ctx context.Context, code string) error {
	if _, err := q.GetAccount(ctx, code); err != nil {
		return err
	}
	if _, err := q.write.ExecContext(ctx, `DELETE FROM accounts WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete account: %w", mapConstraint(err))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*ledger.Account, error) {
	var acct ledger.Account
	var createdAt string
	err := row.Scan(&acct.Code, &acct.Name, &acct.Type, &acct.Category, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.CreatedAt = parseTimestamp(createdAt)
	return &acct, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
