// Package billing moves project billings through their lifecycle and
// posts the revenue, receivable and cash entries each step implies.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/simonvc/projectledger/internal/keylock"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
)

// RecognitionPolicy decides when billed revenue reaches the ledger.
type RecognitionPolicy string

const (
	// OnIssue books receivable and revenue when the invoice goes out and
	// clears the receivable on payment.
	OnIssue RecognitionPolicy = "on_issue"
	// OnPayment books revenue against cash when the customer pays.
	OnPayment RecognitionPolicy = "on_payment"
)

func ParsePolicy(s string) (RecognitionPolicy, error) {
	switch RecognitionPolicy(s) {
	case "", OnIssue:
		return OnIssue, nil
	case OnPayment:
		return OnPayment, nil
	default:
		return "", fmt.Errorf("unknown recognition policy %q", s)
	}
}

var transitions = map[ledger.BillingStatus][]ledger.BillingStatus{
	ledger.BillingPending: {ledger.BillingUnpaid, ledger.BillingRejected},
	ledger.BillingUnpaid:  {ledger.BillingPaid, ledger.BillingRejected},
}

// Allowed reports whether a billing may move from one status to another.
// Paid and rejected are terminal.
func Allowed(from, to ledger.BillingStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Accounts are the ledger accounts billing postings use.
type Accounts struct {
	Receivable string
	Revenue    string
}

// Request asks for one status change.
type Request struct {
	BillingID string
	To        ledger.BillingStatus
	// CashAccountCode receives the payment. Required for paid and never
	// inferred.
	CashAccountCode string
	// Date of the postings; today when zero.
	Date time.Time
}

type Result struct {
	Billing  *ledger.Billing      `json:"billing"`
	From     ledger.BillingStatus `json:"from"`
	Postings []*ledger.Posting    `json:"postings"`
	// Reversals lists the reversing postings written on rejection.
	Reversals []*ledger.Posting `json:"reversals"`
}

type Service struct {
	store    *store.Store
	engine   *posting.Engine
	policy   RecognitionPolicy
	accounts Accounts
	locks    keylock.Map
}

func NewService(s *store.Store, e *posting.Engine, policy RecognitionPolicy, accounts Accounts) *Service {
	return &Service{store: s, engine: e, policy: policy, accounts: accounts}
}

func (s *Service) Policy() RecognitionPolicy { return s.policy }

// Transition applies req. The status change and its postings commit in
// one transaction; an invalid transition changes nothing. Concurrent
// requests for the same billing run one at a time and the status update
// is a compare-and-set, so a lost race surfaces as a TransitionError.
func (s *Service) Transition(ctx context.Context, req Request) (*Result, error) {
	if !ledger.ValidBillingStatus(req.To) {
		return nil, fmt.Errorf("%w: unknown status %q", ledger.ErrInvalidTransition, req.To)
	}
	unlock := s.locks.Lock(req.BillingID)
	defer unlock()

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = ledger.Day(date)

	var res *Result
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		b, err := tx.GetBilling(ctx, req.BillingID)
		if err != nil {
			return err
		}
		if !Allowed(b.Status, req.To) {
			return &ledger.TransitionError{BillingID: b.ID, From: b.Status, To: req.To}
		}

		var cash *ledger.Account
		if req.To == ledger.BillingPaid {
			if cash, err = cashAccount(ctx, tx, req.CashAccountCode); err != nil {
				return err
			}
		}

		if err := tx.SetBillingStatus(ctx, b.ID, b.Status, req.To); err != nil {
			return err
		}
		res = &Result{From: b.Status, Postings: []*ledger.Posting{}, Reversals: []*ledger.Posting{}}

		switch req.To {
		case ledger.BillingRejected:
			res.Reversals, err = s.reverseAll(ctx, tx, b, date)
		default:
			for _, ev := range s.plan(b, req.To, cash, date) {
				p, perr := s.engine.Post(ctx, tx, ev)
				if perr != nil {
					err = fmt.Errorf("post %s: %w", ev.Description, perr)
					break
				}
				res.Postings = append(res.Postings, p)
			}
		}
		if err != nil {
			return err
		}

		res.Billing, err = tx.GetBilling(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "billing transition",
		"billing_id", res.Billing.ID,
		"from", res.From,
		"to", res.Billing.Status,
		"postings", len(res.Postings),
		"reversals", len(res.Reversals))
	return res, nil
}

// plan lists the postings for a move into to under the active policy.
func (s *Service) plan(b *ledger.Billing, to ledger.BillingStatus, cash *ledger.Account, date time.Time) []posting.Event {
	base := posting.Event{
		Date:               date,
		Amount:             b.Amount,
		Direction:          ledger.Increase,
		ProjectID:          b.ProjectID,
		Notes:              b.Invoice,
		CreateCounterEntry: true,
		SourceRef:          ledger.BillingSource(b.ID),
	}
	ref := b.Invoice
	if ref == "" {
		ref = b.ID
	}

	switch {
	case to == ledger.BillingUnpaid && s.policy == OnIssue:
		ev := base
		ev.AccountCode = s.accounts.Receivable
		ev.CounterAccountCode = s.accounts.Revenue
		ev.Description = "Billing issued " + ref
		return []posting.Event{ev}
	case to == ledger.BillingPaid && s.policy == OnIssue:
		ev := base
		ev.AccountCode = cash.Code
		ev.CounterAccountCode = s.accounts.Receivable
		ev.Description = "Payment received " + ref
		return []posting.Event{ev}
	case to == ledger.BillingPaid && s.policy == OnPayment:
		ev := base
		ev.AccountCode = cash.Code
		ev.CounterAccountCode = s.accounts.Revenue
		ev.Description = "Payment received " + ref
		return []posting.Event{ev}
	}
	return nil
}

func (s *Service) reverseAll(ctx context.Context, tx *store.Tx, b *ledger.Billing, date time.Time) ([]*ledger.Posting, error) {
	open, err := tx.OpenPostings(ctx, ledger.BillingSource(b.ID))
	if err != nil {
		return nil, err
	}
	out := make([]*ledger.Posting, 0, len(open))
	for _, id := range open {
		p, err := s.engine.Reverse(ctx, tx, id, date, "")
		if err != nil {
			return nil, fmt.Errorf("reverse %s: %w", id, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func cashAccount(ctx context.Context, tx *store.Tx, code string) (*ledger.Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ledger.ErrCashAccountRequired
	}
	acct, err := tx.GetAccount(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("cash account %s: %w", code, err)
	}
	if acct.Type != ledger.TypeAsset {
		return nil, fmt.Errorf("%w: %s is a %s account", ledger.ErrCashAccountRequired, code, acct.Type)
	}
	return acct, nil
}
