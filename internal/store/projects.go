package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

const projectColumns = `id, code, name, total_value, status, progress, created_at`

func (q *queries) CreateProject(ctx context.Context, p *ledger.Project) error {
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.Status == "" {
		p.Status = ledger.ProjectOngoing
	}
	if err := p.Validate(); err != nil {
		return err
	}
	created := nowUTC()
	_, err := q.write.ExecContext(ctx,
		`INSERT INTO projects (id, code, name, total_value, status, progress, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, p.Name, p.TotalValue.String(), string(p.Status), p.Progress, created,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: code %s already exists", ledger.ErrInvalidProject, p.Code)
		}
		return fmt.Errorf("insert project: %w", err)
	}
	p.CreatedAt = parseTimestamp(created)
	return nil
}

// GetProject finds a project by id or, failing that, by code.
func (q *queries) GetProject(ctx context.Context, idOrCode string) (*ledger.Project, error) {
	row := q.read.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? OR code = ? ORDER BY id = ? DESC LIMIT 1`,
		idOrCode, idOrCode, idOrCode)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrProjectNotFound
	}
	return p, err
}

func (q *queries) ListProjects(ctx context.Context, filter ProjectFilter) ([]ledger.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query = paginate(query+` ORDER BY code`, filter.Limit, filter.Offset)

	rows, err := q.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []ledger.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProjectStatus sets status and progress.
func (q *queries) UpdateProjectStatus(ctx context.Context, id string, status ledger.ProjectStatus, progress int) error {
	probe := ledger.Project{Code: "x", Status: status, Progress: progress}
	if err := probe.Validate(); err != nil {
		return err
	}
	res, err := q.write.ExecContext(ctx,
		`UPDATE projects SET status = ?, progress = ? WHERE id = ?`, string(status), progress, id)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	return requireRow(res, ledger.ErrProjectNotFound)
}

func scanProject(row rowScanner) (*ledger.Project, error) {
	var p ledger.Project
	var createdAt string
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.TotalValue, &p.Status, &p.Progress, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.CreatedAt = parseTimestamp(createdAt)
	return &p, nil
}

func (q *queries) AddCost(ctx context.Context, c *ledger.ProjectCost) error {
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	if c.Status == "" {
		c.Status = ledger.CostPending
	}
	if err := c.Validate(); err != nil {
		return err
	}
	p, err := q.GetProject(ctx, c.ProjectID)
	if err != nil {
		return err
	}
	c.ProjectID = p.ID
	c.Date = ledger.Day(c.Date)
	_, err = q.write.ExecContext(ctx,
		`INSERT INTO project_costs (id, project_id, category, amount, date, status) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Category, c.Amount.String(), formatDay(c.Date), string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("insert cost: %w", err)
	}
	return nil
}

func (q *queries) GetCost(ctx context.Context, id string) (*ledger.ProjectCost, error) {
	var c ledger.ProjectCost
	var date string
	err := q.read.QueryRowContext(ctx,
		`SELECT id, project_id, category, amount, date, status FROM project_costs WHERE id = ?`, id,
	).Scan(&c.ID, &c.ProjectID, &c.Category, &c.Amount, &date, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrCostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cost: %w", err)
	}
	if c.Date, err = parseDay(date); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *queries) SetCostStatus(ctx context.Context, id string, status ledger.CostStatus) error {
	switch status {
	case ledger.CostPending, ledger.CostApproved, ledger.CostRejected:
	default:
		return fmt.Errorf("invalid cost status %q", status)
	}
	res, err := q.write.ExecContext(ctx, `UPDATE project_costs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update cost: %w", err)
	}
	return requireRow(res, ledger.ErrCostNotFound)
}

func (q *queries) ListCosts(ctx context.Context, projectID string) ([]ledger.ProjectCost, error) {
	rows, err := q.read.QueryContext(ctx,
		`SELECT id, project_id, category, amount, date, status FROM project_costs WHERE project_id = ? ORDER BY date, id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list costs: %w", err)
	}
	defer rows.Close()

	var costs []ledger.ProjectCost
	for rows.Next() {
		var c ledger.ProjectCost
		var date string
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Category, &c.Amount, &date, &c.Status); err != nil {
			return nil, fmt.Errorf("scan cost: %w", err)
		}
		if c.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}

const billingColumns = `id, project_id, billing_date, percentage, amount, status, invoice, updated_at`

// CreateBilling stores a billing in pending state, resolving a
// percentage-driven amount against the project's contract value.
func (q *queries) CreateBilling(ctx context.Context, b *ledger.Billing) error {
	if b.ID == "" {
		b.ID = uuid.Must(uuid.NewV7()).String()
	}
	p, err := q.GetProject(ctx, b.ProjectID)
	if err != nil {
		return err
	}
	b.ProjectID = p.ID
	if err := b.ResolveAmount(p); err != nil {
		return err
	}
	if b.BillingDate.IsZero() {
		return fmt.Errorf("%w: billing date is required", ledger.ErrInvalidBilling)
	}
	b.BillingDate = ledger.Day(b.BillingDate)
	b.Status = ledger.BillingPending

	var pct sql.NullString
	if b.Percentage != nil {
		pct = sql.NullString{String: b.Percentage.String(), Valid: true}
	}
	updated := nowUTC()
	_, err = q.write.ExecContext(ctx,
		`INSERT INTO billings (id, project_id, billing_date, percentage, amount, status, invoice, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ProjectID, formatDay(b.BillingDate), pct, b.Amount.String(), string(b.Status), b.Invoice, updated,
	)
	if err != nil {
		return fmt.Errorf("insert billing: %w", err)
	}
	b.UpdatedAt = parseTimestamp(updated)
	return nil
}

func (q *queries) GetBilling(ctx context.Context, id string) (*ledger.Billing, error) {
	row := q.read.QueryRowContext(ctx, `SELECT `+billingColumns+` FROM billings WHERE id = ?`, id)
	b, err := scanBilling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrBillingNotFound
	}
	return b, err
}

func (q *queries) ListBillings(ctx context.Context, projectID string) ([]ledger.Billing, error) {
	query := `SELECT ` + billingColumns + ` FROM billings`
	args := []any{}
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	rows, err := q.read.QueryContext(ctx, query+` ORDER BY billing_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list billings: %w", err)
	}
	defer rows.Close()

	var billings []ledger.Billing
	for rows.Next() {
		b, err := scanBilling(rows)
		if err != nil {
			return nil, err
		}
		billings = append(billings, *b)
	}
	return billings, rows.Err()
}

// SetBillingStatus moves a billing from one status to another. It only
// succeeds when the stored status still equals from.
func (q *queries) SetBillingStatus(ctx context.Context, id string, from, to ledger.BillingStatus) error {
	res, err := q.write.ExecContext(ctx,
		`UPDATE billings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), nowUTC(), id, string(from))
	if err != nil {
		return fmt.Errorf("update billing status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		current, err := q.GetBilling(ctx, id)
		if err != nil {
			return err
		}
		return &ledger.TransitionError{BillingID: id, From: current.Status, To: to}
	}
	return nil
}

func scanBilling(row rowScanner) (*ledger.Billing, error) {
	var b ledger.Billing
	var date, updated string
	var pct sql.NullString
	err := row.Scan(&b.ID, &b.ProjectID, &date, &pct, &b.Amount, &b.Status, &b.Invoice, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan billing: %w", err)
	}
	if b.BillingDate, err = parseDay(date); err != nil {
		return nil, err
	}
	if pct.Valid {
		d, err := decimal.NewFromString(pct.String)
		if err != nil {
			return nil, fmt.Errorf("parse billing percentage: %w", err)
		}
		b.Percentage = &d
	}
	b.UpdatedAt = parseTimestamp(updated)
	return &b, nil
}
