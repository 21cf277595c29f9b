package server

import (
	"net/http"

	"github.com/simonvc/projectledger/internal/ledger"
)

func (s *Server) listCashflowCategories(w http.ResponseWriter, r *http.Request) {
	cfs, err := s.store.ListCashflowCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cfs))
}

type upsertCashflowRequest struct {
	Category    ledger.CashflowSection `json:"category"`
	Subcategory string                 `json:"subcategory"`
}

func (s *Server) upsertCashflowCategory(w http.ResponseWriter, r *http.Request) {
	var req upsertCashflowRequest
	if !decode(w, r, &req) {
		return
	}

	cf := ledger.CashflowCategory{AccountCode: codeParam(r), Category: req.Category, Subcategory: req.Subcategory}
	if err := s.store.UpsertCashflowCategory(r.Context(), cf); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cf)
}

func (s *Server) deleteCashflowCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCashflowCategory(r.Context(), codeParam(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
