// Package wip values unbilled project work from approved costs and
// issued billings.
package wip

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/store"
)

// ProjectWip is the derived work-in-progress figure of one project.
type ProjectWip struct {
	ProjectID   string               `json:"project_id"`
	ProjectCode string               `json:"project_code"`
	Status      ledger.ProjectStatus `json:"status"`
	Costs       decimal.Decimal      `json:"approved_costs"`
	Billed      decimal.Decimal      `json:"billed"`
	// Value is signed. A negative value means the project billed more
	// than it has costed so far.
	Value      decimal.Decimal `json:"wip_value"`
	OverBilled bool            `json:"over_billed"`
}

// Warning flags a completed project that still carries WIP.
type Warning struct {
	ProjectID   string          `json:"project_id"`
	ProjectCode string          `json:"project_code"`
	Value       decimal.Decimal `json:"wip_value"`
	Message     string          `json:"message"`
}

type Summary struct {
	// Total sums the positive WIP of ongoing projects. This is the
	// balance sheet figure.
	Total    decimal.Decimal `json:"total"`
	Projects []ProjectWip    `json:"projects"`
	Warnings []Warning       `json:"warnings"`
}

// ComputeProjectWip returns approved costs minus billings that are
// unpaid or paid. Costs and billings of other projects are ignored.
func ComputeProjectWip(p ledger.Project, costs []ledger.ProjectCost, billings []ledger.Billing) ProjectWip {
	w := ProjectWip{
		ProjectID:   p.ID,
		ProjectCode: p.Code,
		Status:      p.Status,
		Costs:       decimal.Zero,
		Billed:      decimal.Zero,
	}
	for _, c := range costs {
		if c.ProjectID == p.ID && c.Status == ledger.CostApproved {
			w.Costs = w.Costs.Add(c.Amount)
		}
	}
	for _, b := range billings {
		if b.ProjectID == p.ID && b.Status.Issued() {
			w.Billed = w.Billed.Add(b.Amount)
		}
	}
	w.Value = w.Costs.Sub(w.Billed)
	w.OverBilled = w.Value.IsNegative()
	return w
}

// Aggregate totals WIP for the balance sheet. Only ongoing projects
// contribute and negative values count as zero. Completed projects with
// a non-zero value are returned as warnings.
func Aggregate(projects []ProjectWip) Summary {
	s := Summary{Total: decimal.Zero, Projects: projects, Warnings: []Warning{}}
	if s.Projects == nil {
		s.Projects = []ProjectWip{}
	}
	for _, w := range projects {
		switch w.Status {
		case ledger.ProjectOngoing:
			if w.Value.IsPositive() {
				s.Total = s.Total.Add(w.Value)
			}
		case ledger.ProjectCompleted:
			if w.Value.IsZero() {
				continue
			}
			msg := "completed project still has unbilled work"
			if w.OverBilled {
				msg = "completed project is over-billed"
			}
			s.Warnings = append(s.Warnings, Warning{
				ProjectID:   w.ProjectID,
				ProjectCode: w.ProjectCode,
				Value:       w.Value,
				Message:     msg,
			})
		}
	}
	return s
}

// Service reads projects, costs and billings from the store and values
// them. Nothing is cached; every call recomputes.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Project values one project given its id or code.
func (s *Service) Project(ctx context.Context, idOrCode string) (*ProjectWip, error) {
	p, err := s.store.GetProject(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	w, err := s.value(ctx, *p)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Summary values every project and aggregates the result.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	projects, err := s.store.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	values := make([]ProjectWip, 0, len(projects))
	for _, p := range projects {
		w, err := s.value(ctx, p)
		if err != nil {
			return nil, err
		}
		values = append(values, w)
	}
	sum := Aggregate(values)
	return &sum, nil
}

// Total is the balance sheet WIP figure.
func (s *Service) Total(ctx context.Context) (decimal.Decimal, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Total, nil
}

func (s *Service) value(ctx context.Context, p ledger.Project) (ProjectWip, error) {
	costs, err := s.store.ListCosts(ctx, p.ID)
	if err != nil {
		return ProjectWip{}, fmt.Errorf("costs of %s: %w", p.Code, err)
	}
	billings, err := s.store.ListBillings(ctx, p.ID)
	if err != nil {
		return ProjectWip{}, fmt.Errorf("billings of %s: %w", p.Code, err)
	}
	return ComputeProjectWip(p, costs, billings), nil
}
