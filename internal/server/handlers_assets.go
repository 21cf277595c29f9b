package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/store"
)

// AssetRequest creates or updates a fixed asset. Value and acquisition
// date cannot change after creation.
type AssetRequest struct {
	Name                    string          `json:"name"`
	AcquisitionDate         string          `json:"acquisition_date,omitempty"`
	Value                   decimal.Decimal `json:"value"`
	UsefulLife              int             `json:"useful_life"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	AssetAccountCode        string          `json:"asset_account_code,omitempty"`
	ExpenseAccountCode      string          `json:"expense_account_code,omitempty"`
	ContraAccountCode       string          `json:"contra_account_code,omitempty"`
}

// AsOfRequest carries the date a depreciation run catches up to.
type AsOfRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

// ScheduleResponse is an asset with its projected depreciation.
type ScheduleResponse struct {
	Asset       *ledger.FixedAsset       `json:"asset"`
	Granularity depreciation.Granularity `json:"granularity"`
	Periods     []depreciation.Period    `json:"periods"`
}

func (s *Server) createAsset(w http.ResponseWriter, r *http.Request) {
	var req AssetRequest
	if !decode(w, r, &req) {
		return
	}
	acquired, err := dateField(req.AcquisitionDate, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}

	a := &ledger.FixedAsset{
		Name:                    req.Name,
		AcquisitionDate:         acquired,
		Value:                   req.Value,
		UsefulLife:              req.UsefulLife,
		AccumulatedDepreciation: req.AccumulatedDepreciation,
		AssetAccountCode:        req.AssetAccountCode,
		ExpenseAccountCode:      req.ExpenseAccountCode,
		ContraAccountCode:       req.ContraAccountCode,
	}
	if a.ExpenseAccountCode == "" {
		a.ExpenseAccountCode = s.defaults.DepreciationExpense
	}
	if a.ContraAccountCode == "" {
		a.ContraAccountCode = s.defaults.AccumulatedDepreciation
	}
	if err := s.store.CreateAsset(r.Context(), a); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) listAssets(w http.ResponseWriter, r *http.Request) {
	filter := store.AssetFilter{Depreciable: r.URL.Query().Get("depreciable") == "true"}
	var err error
	if filter.Limit, err = intParam(r, "limit"); err != nil {
		fail(w, r, err)
		return
	}
	if filter.Offset, err = intParam(r, "offset"); err != nil {
		fail(w, r, err)
		return
	}
	assets, err := s.store.ListAssets(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(assets))
}

func (s *Server) getAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) updateAsset(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	var req AssetRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name != "" {
		a.Name = req.Name
	}
	if req.UsefulLife != 0 {
		a.UsefulLife = req.UsefulLife
	}
	if req.AssetAccountCode != "" {
		a.AssetAccountCode = req.AssetAccountCode
	}
	if req.ExpenseAccountCode != "" {
		a.ExpenseAccountCode = req.ExpenseAccountCode
	}
	if req.ContraAccountCode != "" {
		a.ContraAccountCode = req.ContraAccountCode
	}
	if err := s.store.UpdateAsset(r.Context(), a); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) assetDepreciation(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	asOf, err := dateParam(r, "as_of", s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, depreciation.Calculate(*a, asOf))
}

func (s *Server) assetSchedule(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	g, err := depreciation.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ScheduleResponse{
		Asset:       a,
		Granularity: g,
		Periods:     nonNil(depreciation.Rows(*a, g)),
	})
}

func (s *Server) recordDepreciation(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	if !decode(w, r, &req) {
		return
	}
	asOf, err := dateField(req.AsOf, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.recorder.RecordPeriod(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) runDepreciation(w http.ResponseWriter, r *http.Request) {
	var req AsOfRequest
	if !decode(w, r, &req) {
		return
	}
	asOf, err := dateField(req.AsOf, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	report, err := s.recorder.RunBatch(r.Context(), asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
