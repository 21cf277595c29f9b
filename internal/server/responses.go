package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/simonvc/projectledger/internal/ledger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail writes err with the status mapError picks for it.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func mapError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound),
		errors.Is(err, ledger.ErrPostingNotFound),
		errors.Is(err, ledger.ErrAssetNotFound),
		errors.Is(err, ledger.ErrProjectNotFound),
		errors.Is(err, ledger.ErrCostNotFound),
		errors.Is(err, ledger.ErrBillingNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrDuplicateAccount),
		errors.Is(err, ledger.ErrAccountInUse),
		errors.Is(err, ledger.ErrAlreadyReversed),
		errors.Is(err, ledger.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidCombination),
		errors.Is(err, ledger.ErrNoCounterAccount),
		errors.Is(err, ledger.ErrInconsistentAsset):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidAccountCode),
		errors.Is(err, ledger.ErrInvalidAccountType),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidDirection),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrEmptyDescription),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidCashflow),
		errors.Is(err, ledger.ErrInvalidAsset),
		errors.Is(err, ledger.ErrInvalidProject),
		errors.Is(err, ledger.ErrInvalidBilling),
		errors.Is(err, ledger.ErrCashAccountRequired),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// dateParam reads a YYYY-MM-DD query parameter, falling back to def.
func dateParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return ledger.Day(def), nil
	}
	return ledger.ParseDate(s)
}

// dateField parses an optional date from a request body.
func dateField(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return ledger.Day(def), nil
	}
	return ledger.ParseDate(s)
}

func intParam(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
