package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
)

// PostingRequest is the wire form of a financial event.
type PostingRequest struct {
	// Template pre-fills account, direction and counter account.
	Template           string           `json:"template,omitempty"`
	Date               string           `json:"date,omitempty"`
	AccountCode        string           `json:"account_code"`
	Amount             decimal.Decimal  `json:"amount"`
	Direction          ledger.Direction `json:"direction"`
	Description        string           `json:"description"`
	ProjectID          string           `json:"project_id,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	CounterAccountCode string           `json:"counter_account_code,omitempty"`
	// CreateCounterEntry defaults to true.
	CreateCounterEntry *bool `json:"create_counter_entry,omitempty"`
	ConfirmUnusual     bool  `json:"confirm_unusual,omitempty"`
}

func (req *PostingRequest) event(today time.Time) (posting.Event, error) {
	if req.Template != "" {
		tpl := ledger.LookupTemplate(req.Template)
		if tpl == nil {
			return posting.Event{}, fmt.Errorf("%w: unknown template %q", errBadRequest, req.Template)
		}
		if req.AccountCode == "" {
			req.AccountCode = tpl.AccountCode
		}
		if req.Direction == "" {
			req.Direction = tpl.Direction
		}
		if req.CounterAccountCode == "" {
			req.CounterAccountCode = tpl.CounterAccountCode
		}
		if req.Description == "" {
			req.Description = tpl.Name
		}
	}
	date, err := dateField(req.Date, today)
	if err != nil {
		return posting.Event{}, err
	}
	counter := true
	if req.CreateCounterEntry != nil {
		counter = *req.CreateCounterEntry
	}
	return posting.Event{
		Date:               date,
		AccountCode:        req.AccountCode,
		Amount:             req.Amount,
		Direction:          req.Direction,
		Description:        req.Description,
		ProjectID:          req.ProjectID,
		Notes:              req.Notes,
		CounterAccountCode: req.CounterAccountCode,
		CreateCounterEntry: counter,
		ConfirmUnusual:     req.ConfirmUnusual,
	}, nil
}

func (s *Server) createPosting(w http.ResponseWriter, r *http.Request) {
	var req PostingRequest
	if !decode(w, r, &req) {
		return
	}
	ev, err := req.event(s.now())
	if err != nil {
		fail(w, r, err)
		return
	}

	var p *ledger.Posting
	err = s.store.WithTx(r.Context(), func(tx *store.Tx) error {
		var err error
		p, err = s.engine.Post(r.Context(), tx, ev)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPosting(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPosting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ReverseRequest optionally overrides the date and description of a
// reversal.
type ReverseRequest struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *Server) reversePosting(w http.ResponseWriter, r *http.Request) {
	var req ReverseRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	date, err := dateField(req.Date, s.now())
	if err != nil {
		fail(w, r, err)
		return
	}

	var p *ledger.Posting
	err = s.store.WithTx(r.Context(), func(tx *store.Tx) error {
		var err error
		p, err = s.engine.Reverse(r.Context(), tx, chi.URLParam(r, "id"), date, req.Description)
		return err
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) entryFilter(r *http.Request) (store.EntryFilter, error) {
	q := r.URL.Query()
	f := store.EntryFilter{
		AccountCode: q.Get("account"),
		ProjectID:   q.Get("project"),
		SourceRef:   q.Get("source"),
		Limit:       100,
	}
	var err error
	if f.From, err = dateParam(r, "from", time.Time{}); err != nil {
		return f, err
	}
	if f.To, err = dateParam(r, "to", time.Time{}); err != nil {
		return f, err
	}
	if limit, err := intParam(r, "limit"); err != nil {
		return f, err
	} else if limit > 0 {
		f.Limit = limit
	}
	if f.Offset, err = intParam(r, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := s.entryFilter(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	entries, err := s.store.ListEntries(r.Context(), filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}
