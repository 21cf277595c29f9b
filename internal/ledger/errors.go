package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAccountCode  = errors.New("invalid account code")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrAccountInUse        = errors.New("account is referenced by ledger entries")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidDirection    = errors.New("invalid entry direction")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyDescription    = errors.New("description is required")
	ErrSameAccount         = errors.New("primary and counter account must differ")
	ErrNoCounterAccount    = errors.New("no counter account available")
	ErrInvalidCombination  = errors.New("unusual account combination")
	ErrPostingNotFound     = errors.New("posting not found")
	ErrAlreadyReversed     = errors.New("posting already reversed")
	ErrInvalidCashflow     = errors.New("invalid cashflow category")
	ErrAssetNotFound       = errors.New("fixed asset not found")
	ErrInvalidAsset        = errors.New("invalid fixed asset")
	ErrInconsistentAsset   = errors.New("accumulated depreciation exceeds asset value")
	ErrProjectNotFound     = errors.New("project not found")
	ErrInvalidProject      = errors.New("invalid project")
	ErrCostNotFound        = errors.New("project cost not found")
	ErrBillingNotFound     = errors.New("billing not found")
	ErrInvalidBilling      = errors.New("invalid billing")
	ErrInvalidTransition   = errors.New("invalid billing status transition")
	ErrCashAccountRequired = errors.New("cash or bank account is required for payment")
)

// CombinationError describes an unusual primary/counter pairing that the
// caller has to confirm explicitly.
type CombinationError struct {
	PrimaryCode string
	PrimaryType AccountType
	CounterCode string
	CounterType AccountType
	Direction   Direction
	Reason      string
}

func (e *CombinationError) Error() string {
	return fmt.Sprintf("%s: %s %s (%s) against %s (%s): %s",
		ErrInvalidCombination, e.Direction, e.PrimaryCode, e.PrimaryType, e.CounterCode, e.CounterType, e.Reason)
}

func (e *CombinationError) Unwrap() error {
	return ErrInvalidCombination
}

// TransitionError is returned for a billing status change the lifecycle does not allow.
type TransitionError struct {
	BillingID string
	From      BillingStatus
	To        BillingStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: billing %s cannot move from %s to %s", ErrInvalidTransition, e.BillingID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
