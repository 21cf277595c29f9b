package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/store"
)

type ProjectRequest struct {
	Code       string               `json:"code"`
	Name       string               `json:"name"`
	TotalValue decimal.Decimal      `json:"total_value"`
	Status     ledger.ProjectStatus `json:"status,omitempty"`
	Progress   *int                 `json:"progress,omitempty"`
}

type CostRequest struct {
	Category string            `json:"category"`
	Amount   decimal.Decimal   `json:"amount"`
	Date     string            `json:"date,omitempty"`
	Status   ledger.CostStatus `json:"status,omitempty"`
}

// BillingRequest creates a billing from either a percentage of the
// contract value or a fixed amount.
type BillingRequest struct {
	BillingDate string           `json:"billing_date,omitempty"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	Amount      decimal.Decimal  `json:"amount"`
	Invoice     string           `json:"invoice,omitempty"`
}

type TransitionRequest struct {
	To              ledger.BillingStatus `json:"to"`
	CashAccountCode string               `json:"cash_account_code,omitempty"`
	Date            string               `json:"date,omitempty"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !decode(w, r, &req) {
		return
	}
	p := &ledger.Project{Code: req.Code, Name: req.Name, TotalValue: req.TotalValue, Status: req.Status}
	if req.Progress != nil {
		p.Progress = *req.Progress
	}
	if err := s.store.CreateProject(r.Context(), p); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	filter := store.ProjectFilter{Status: ledger.ProjectStatus(r.URL.Query().Get("status"))}
	projects, err := s.store.ListProjects(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	var req ProjectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if req.Progress != nil {
		p.Progress = *req.Progress
	}
	if err := s.store.UpdateProjectStatus(r.Context(), p.ID, p.Status, p.Progress); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) addCost(w http.ResponseWriter, r *http.Request) {
	var req CostRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := dateField(req.Date, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	c := &ledger.ProjectCost{
		ProjectID: chi.URLParam(r, "id"),
		Category:  req.Category,
		Amount:    req.Amount,
		Date:      date,
		Status:    req.Status,
	}
	if err := s.store.AddCost(r.Context(), c); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listCosts(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	costs, err := s.store.ListCosts(r.Context(), p.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(costs))
}

func (s *Server) updateCost(w http.ResponseWriter, r *http.Request) {
	var req CostRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.SetCostStatus(r.Context(), id, req.Status); err != nil {
		fail(w, r, err)
		return
	}
	c, err := s.store.GetCost(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createBilling(w http.ResponseWriter, r *http.Request) {
	var req BillingRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := dateField(req.BillingDate, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	b := &ledger.Billing{
		ProjectID:   chi.URLParam(r, "id"),
		BillingDate: date,
		Percentage:  req.Percentage,
		Amount:      req.Amount,
		Invoice:     req.Invoice,
	}
	if err := s.store.CreateBilling(r.Context(), b); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) listBillings(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	billings, err := s.store.ListBillings(r.Context(), p.ID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(billings))
}

func (s *Server) getBilling(w http.ResponseWriter, r *http.Request) {
	b, err := s.store.GetBilling(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) transitionBilling(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if !decode(w, r, &req) {
		return
	}
	date, err := dateField(req.Date, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.billing.Transition(r.Context(), billing.Request{
		BillingID:       chi.URLParam(r, "id"),
		To:              req.To,
		CashAccountCode: req.CashAccountCode,
		Date:            date,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) projectWip(w http.ResponseWriter, r *http.Request) {
	pw, err := s.wip.Project(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pw)
}

func (s *Server) wipSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.wip.Summary(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
