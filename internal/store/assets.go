package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

const assetColumns = `id, name, acquisition_date, value, useful_life, accumulated_depreciation, book_value,
	COALESCE(asset_account_code, ''), expense_account_code, contra_account_code, last_depreciated_at, created_at`

// CreateAsset stores a new fixed asset. Book value is always derived
// from value and the opening accumulated depreciation.
func (q *queries) CreateAsset(ctx context.Context, a *ledger.FixedAsset) error {
	if a.ID == "" {
		a.ID = uuid.Must(uuid.NewV7()).String()
	}
	a.AcquisitionDate = ledger.Day(a.AcquisitionDate)
	if err := a.Validate(); err != nil {
		return err
	}
	for _, code := range []string{a.AssetAccountCode, a.ExpenseAccountCode, a.ContraAccountCode} {
		if code == "" {
			continue
		}
		if _, err := q.GetAccount(ctx, code); err != nil {
			return fmt.Errorf("asset account %s: %w", code, err)
		}
	}
	a.BookValue = ledger.ComputeBookValue(a.Value, a.AccumulatedDepreciation)

	created := nowUTC()
	_, err := q.write.ExecContext(ctx,
		`INSERT INTO fixed_assets (id, name, acquisition_date, value, useful_life, accumulated_depreciation,
			book_value, asset_account_code, expense_account_code, contra_account_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, formatDay(a.AcquisitionDate), a.Value.String(), a.UsefulLife,
		a.AccumulatedDepreciation.String(), a.BookValue.String(), nullString(a.AssetAccountCode),
		a.ExpenseAccountCode, a.ContraAccountCode, created,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	a.CreatedAt = parseTimestamp(created)
	return nil
}

func (q *queries) GetAsset(ctx context.Context, id string) (*ledger.FixedAsset, error) {
	row := q.read.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM fixed_assets WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAssetNotFound
	}
	return a, err
}

func (q *queries) ListAssets(ctx context.Context, filter AssetFilter) ([]ledger.FixedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM fixed_assets ORDER BY acquisition_date, id`
	// book_value is TEXT, so the depreciable filter is applied in Go.
	if !filter.Depreciable {
		query = paginate(query, filter.Limit, filter.Offset)
	}

	rows, err := q.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []ledger.FixedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		if filter.Depreciable && !a.BookValue.IsPositive() {
			continue
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Depreciable {
		assets = window(assets, filter.Limit, filter.Offset)
	}
	return assets, nil
}

// UpdateAsset changes the descriptive fields and posting accounts of an
// asset. Value and depreciation figures are not touched.
func (q *queries) UpdateAsset(ctx context.Context, a *ledger.FixedAsset) error {
	current, err := q.GetAsset(ctx, a.ID)
	if err != nil {
		return err
	}
	current.Name = a.Name
	current.UsefulLife = a.UsefulLife
	current.AssetAccountCode = a.AssetAccountCode
	current.ExpenseAccountCode = a.ExpenseAccountCode
	current.ContraAccountCode = a.ContraAccountCode
	if err := current.Validate(); err != nil {
		return err
	}
	_, err = q.write.ExecContext(ctx,
		`UPDATE fixed_assets SET name = ?, useful_life = ?, asset_account_code = ?,
			expense_account_code = ?, contra_account_code = ? WHERE id = ?`,
		current.Name, current.UsefulLife, nullString(current.AssetAccountCode),
		current.ExpenseAccountCode, current.ContraAccountCode, current.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", mapConstraint(err))
	}
	*a = *current
	return nil
}

// SetAssetDepreciation stores a new accumulated depreciation and the
// book value derived from it.
func (q *queries) SetAssetDepreciation(ctx context.Context, id string, accumulated decimal.Decimal, asOf time.Time) error {
	var value decimal.Decimal
	err := q.read.QueryRowContext(ctx, `SELECT value FROM fixed_assets WHERE id = ?`, id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrAssetNotFound
	}
	if err != nil {
		return fmt.Errorf("load asset value: %w", err)
	}
	if accumulated.IsNegative() || accumulated.GreaterThan(value) {
		return fmt.Errorf("%w: %s of %s", ledger.ErrInconsistentAsset, accumulated, value)
	}
	bookValue := ledger.ComputeBookValue(value, accumulated)
	res, err := q.write.ExecContext(ctx,
		`UPDATE fixed_assets SET accumulated_depreciation = ?, book_value = ?, last_depreciated_at = ? WHERE id = ?`,
		accumulated.String(), bookValue.String(), formatDay(asOf), id,
	)
	if err != nil {
		return fmt.Errorf("update asset depreciation: %w", err)
	}
	return requireRow(res, ledger.ErrAssetNotFound)
}

func scanAsset(row rowScanner) (*ledger.FixedAsset, error) {
	var a ledger.FixedAsset
	var acquired, createdAt string
	var lastDepreciated sql.NullString
	err := row.Scan(&a.ID, &a.Name, &acquired, &a.Value, &a.UsefulLife, &a.AccumulatedDepreciation,
		&a.BookValue, &a.AssetAccountCode, &a.ExpenseAccountCode, &a.ContraAccountCode, &lastDepreciated, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan asset: %w", err)
	}
	if a.AcquisitionDate, err = parseDay(acquired); err != nil {
		return nil, err
	}
	if lastDepreciated.Valid {
		t, err := parseDay(lastDepreciated.String)
		if err != nil {
			return nil, err
		}
		a.LastDepreciatedAt = &t
	}
	a.CreatedAt = parseTimestamp(createdAt)
	return &a, nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
