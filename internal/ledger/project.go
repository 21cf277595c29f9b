package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	ProjectOngoing   ProjectStatus = "ongoing"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

type Project struct {
	ID         string          `json:"id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	TotalValue decimal.Decimal `json:"total_value"`
	Status     ProjectStatus   `json:"status"`
	Progress   int             `json:"progress"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: project code is required", ErrInvalidProject)
	}
	if p.TotalValue.IsNegative() {
		return fmt.Errorf("%w: total value cannot be negative", ErrInvalidProject)
	}
	switch p.Status {
	case ProjectOngoing, ProjectCompleted, ProjectCancelled:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidProject, p.Status)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidProject)
	}
	return nil
}

type CostStatus string

const (
	CostPending  CostStatus = "pending"
	CostApproved CostStatus = "approved"
	CostRejected CostStatus = "rejected"
)

type ProjectCost struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Status    CostStatus      `json:"status"`
}

func (c *ProjectCost) Validate() error {
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	switch c.Status {
	case CostPending, CostApproved, CostRejected:
		return nil
	default:
		return fmt.Errorf("invalid cost status %q", c.Status)
	}
}

type BillingStatus string

const (
	BillingPending  BillingStatus = "pending"
	BillingUnpaid   BillingStatus = "unpaid"
	BillingPaid     BillingStatus = "paid"
	BillingRejected BillingStatus = "rejected"
)

func ValidBillingStatus(s BillingStatus) bool {
	switch s {
	case BillingPending, BillingUnpaid, BillingPaid, BillingRejected:
		return true
	}
	return false
}

// Issued reports whether a billing counts as billed for WIP purposes.
func (s BillingStatus) Issued() bool {
	return s == BillingUnpaid || s == BillingPaid
}

type Billing struct {
	ID          string           `json:"id"`
	ProjectID   string           `json:"project_id"`
	BillingDate time.Time        `json:"billing_date"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Status      BillingStatus    `json:"status"`
	Invoice     string           `json:"invoice,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// ResolveAmount derives the amount from the percentage of the project's
// contract value when the billing is percentage-driven.
func (b *Billing) ResolveAmount(p *Project) error {
	if b.Percentage != nil {
		pct := *b.Percentage
		if !pct.IsPositive() || pct.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage must be in (0, 100]", ErrInvalidBilling)
		}
		b.Amount = p.TotalValue.Mul(pct).Div(hundred)
	}
	if !b.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBilling)
	}
	return nil
}
