package server

import (
	"net/http"
)

func (s *Server) balanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	bs, err := s.store.BalanceSheet(r.Context(), asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	// WIP comes from project records, not from entries.
	if bs.WorkInProgress, err = s.wip.Total(r.Context()); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) trialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "as_of", s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	tb, err := s.store.TrialBalance(r.Context(), asOf)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) cashflow(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	from, err := dateParam(r, "from", now.AddDate(0, 0, 1-now.YearDay()))
	if err != nil {
		fail(w, r, err)
		return
	}
	to, err := dateParam(r, "to", now)
	if err != nil {
		fail(w, r, err)
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}
	cf, err := s.store.CashflowSummary(r.Context(), from, to)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cf)
}
