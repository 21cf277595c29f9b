package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/store"
)

type createAccountRequest struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Type     ledger.AccountType `json:"type"`
	Category string             `json:"category,omitempty"`
}

func codeParam(r *http.Request) string {
	code, _ := url.PathUnescape(chi.URLParam(r, "code"))
	return code
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decode(w, r, &req) {
		return
	}

	// Fill name, type and category from the standard chart when omitted.
	if ce := ledger.LookupChartEntry(req.Code); ce != nil {
		if req.Name == "" {
			req.Name = ce.Name
		}
		if req.Type == "" {
			req.Type = ce.Type
		}
		if req.Category == "" {
			req.Category = ce.Category
		}
	}

	acct := &ledger.Account{Code: req.Code, Name: req.Name, Type: req.Type, Category: req.Category}
	if err := s.store.CreateAccount(r.Context(), acct); err != nil {
		fail(w, r, err)
		return
	}

	created, err := s.store.GetAccount(r.Context(), acct.Code)
	if err != nil {
		writeJSON(w, http.StatusCreated, acct)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AccountFilter{
		Type:     ledger.AccountType(q.Get("type")),
		Category: q.Get("category"),
	}
	if filter.Type != "" && !ledger.ValidAccountType(filter.Type) {
		writeError(w, http.StatusBadRequest, "unknown account type: "+string(filter.Type))
		return
	}

	accounts, err := s.store.ListAccounts(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(accounts))
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.store.GetAccount(r.Context(), codeParam(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

type updateAccountRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	// Code renames the account. Only allowed before any entry uses it.
	Code string `json:"code,omitempty"`
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	code := codeParam(r)
	var req updateAccountRequest
	if !decode(w, r, &req) {
		return
	}

	current, err := s.store.GetAccount(r.Context(), code)
	if err != nil {
		fail(w, r, err)
		return
	}
	if req.Name != nil || req.Category != nil {
		name, category := current.Name, current.Category
		if req.Name != nil {
			name = *req.Name
		}
		if req.Category != nil {
			category = *req.Category
		}
		if err := s.store.UpdateAccount(r.Context(), code, name, category); err != nil {
			fail(w, r, err)
			return
		}
	}
	if newCode := strings.TrimSpace(req.Code); newCode != "" && newCode != code {
		if err := s.store.ChangeAccountCode(r.Context(), code, newCode); err != nil {
			fail(w, r, err)
			return
		}
		code = newCode
	}

	acct, err := s.store.GetAccount(r.Context(), code)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), codeParam(r)); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAccountBalance(w http.ResponseWriter, r *http.Request) {
	code := codeParam(r)
	asOf, err := dateParam(r, "as_of", s.now())
	if err != nil {
		fail(w, r, err)
		return
	}
	balance, err := s.store.AccountBalance(r.Context(), code, asOf)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account_code": code,
		"as_of":        asOf.Format(ledger.DateLayout),
		"balance":      balance,
		"formatted":    ledger.FormatSigned(balance),
	})
}

func (s *Server) listAccountEntries(w http.ResponseWriter, r *http.Request) {
	code := codeParam(r)
	if _, err := s.store.GetAccount(r.Context(), code); err != nil {
		fail(w, r, err)
		return
	}
	filter, err := s.entryFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	filter.AccountCode = code

	entries, err := s.store.ListEntries(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.DefaultChart)
}

func (s *Server) getTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.Templates)
}
