package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simonvc/projectledger/internal/ledger"
)

func (q *queries) ListCashflowCategories(ctx context.Context) ([]ledger.CashflowCategory, error) {
	rows, err := q.read.QueryContext(ctx,
		`SELECT account_code, category, subcategory FROM cashflow_categories ORDER BY category, account_code`)
	if err != nil {
		return nil, fmt.Errorf("list cashflow categories: %w", err)
	}
	defer rows.Close()

	var out []ledger.CashflowCategory
	for rows.Next() {
		var cf ledger.CashflowCategory
		if err := rows.Scan(&cf.AccountCode, &cf.Category, &cf.Subcategory); err != nil {
			return nil, fmt.Errorf("scan cashflow category: %w", err)
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}

func (q *queries) GetCashflowCategory(ctx context.Context, accountCode string) (*ledger.CashflowCategory, error) {
	var cf ledger.CashflowCategory
	err := q.read.QueryRowContext(ctx,
		`SELECT account_code, category, subcategory FROM cashflow_categories WHERE account_code = ?`, accountCode,
	).Scan(&cf.AccountCode, &cf.Category, &cf.Subcategory)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no mapping for %s", ledger.ErrInvalidCashflow, accountCode)
	}
	if err != nil {
		return nil, fmt.Errorf("get cashflow category: %w", err)
	}
	return &cf, nil
}

// UpsertCashflowCategory sets the single mapping of an account.
func (q *queries) UpsertCashflowCategory(ctx context.Context, cf ledger.CashflowCategory) error {
	if err := cf.Validate(); err != nil {
		return err
	}
	if _, err := q.GetAccount(ctx, cf.AccountCode); err != nil {
		return err
	}
	_, err := q.write.ExecContext(ctx,
		`INSERT INTO cashflow_categories (account_code, category, subcategory) VALUES (?, ?, ?)
		 ON CONFLICT(account_code) DO UPDATE SET category = excluded.category, subcategory = excluded.subcategory`,
		cf.AccountCode, string(cf.Category), cf.Subcategory,
	)
	if err != nil {
		return fmt.Errorf("upsert cashflow category: %w", err)
	}
	return nil
}

func (q *queries) DeleteCashflowCategory(ctx context.Context, accountCode string) error {
	_, err := q.write.ExecContext(ctx,
		`DELETE FROM cashflow_categories WHERE account_code = ?`, accountCode)
	if err != nil {
		return fmt.Errorf("delete cashflow category: %w", err)
	}
	return nil
}
