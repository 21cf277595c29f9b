package posting

import (
	"context"
	"fmt"

	"github.com/simonvc/projectledger/internal/ledger"
)

// Candidate selects counter accounts by type and, optionally, category.
// An empty Category matches every account of the type.
type Candidate struct {
	Type     ledger.AccountType
	Category string
}

func (c Candidate) matches(a *ledger.Account) bool {
	if a.Type != c.Type {
		return false
	}
	return c.Category == "" || a.HasCategory(c.Category)
}

type policyKey struct {
	Type      ledger.AccountType
	Direction ledger.Direction
}

// CounterPolicy infers the counter account of a posting from the type of
// the primary account and the event direction. Candidates are tried in
// order; the first account of the opposite-side type is always the final
// fallback, so every (type, direction) pair resolves when the chart has
// such an account.
type CounterPolicy struct {
	table map[policyKey][]Candidate
}

var (
	bank       = Candidate{Type: ledger.TypeAsset, Category: ledger.CategoryBank}
	cash       = Candidate{Type: ledger.TypeAsset, Category: ledger.CategoryCash}
	receivable = Candidate{Type: ledger.TypeAsset, Category: ledger.CategoryReceivable}
	payable    = Candidate{Type: ledger.TypeLiability, Category: ledger.CategoryPayable}
)

// DefaultCounterPolicy returns the precedence table used by the engine.
func DefaultCounterPolicy() *CounterPolicy {
	return &CounterPolicy{table: map[policyKey][]Candidate{
		{ledger.TypeRevenue, ledger.Increase}: {bank, cash, receivable},
		{ledger.TypeRevenue, ledger.Decrease}: {bank, cash, receivable},

		{ledger.TypeExpense, ledger.Increase}: {bank, cash, payable, {Type: ledger.TypeLiability}},
		{ledger.TypeExpense, ledger.Decrease}: {bank, cash, payable},

		{ledger.TypeAsset, ledger.Increase}: {bank, cash, payable, {Type: ledger.TypeEquity}},
		{ledger.TypeAsset, ledger.Decrease}: {bank, cash, {Type: ledger.TypeExpense}},

		{ledger.TypeContraAsset, ledger.Increase}: {
			{Type: ledger.TypeExpense, Category: ledger.CategoryDepreciation},
			{Type: ledger.TypeExpense},
		},
		{ledger.TypeContraAsset, ledger.Decrease}: {
			{Type: ledger.TypeAsset, Category: ledger.CategoryFixedAsset},
		},

		{ledger.TypeLiability, ledger.Increase}: {bank, cash, {Type: ledger.TypeExpense}},
		{ledger.TypeLiability, ledger.Decrease}: {bank, cash},

		{ledger.TypeEquity, ledger.Increase}: {bank, cash},
		{ledger.TypeEquity, ledger.Decrease}: {bank, cash},
	}}
}

// Set replaces the candidates for one (type, direction) pair.
func (p *CounterPolicy) Set(t ledger.AccountType, d ledger.Direction, candidates ...Candidate) {
	p.table[policyKey{t, d}] = candidates
}

// OppositeSideType is the account type a posting falls back to when no
// preferred candidate exists.
func OppositeSideType(t ledger.AccountType) ledger.AccountType {
	switch t {
	case ledger.TypeAsset:
		return ledger.TypeLiability
	case ledger.TypeContraAsset:
		return ledger.TypeExpense
	default:
		return ledger.TypeAsset
	}
}

// Candidates returns the full ordered candidate list for a pair,
// including the opposite-side fallback.
func (p *CounterPolicy) Candidates(t ledger.AccountType, d ledger.Direction) []Candidate {
	out := append([]Candidate(nil), p.table[policyKey{t, d}]...)
	return append(out, Candidate{Type: OppositeSideType(t)})
}

// AccountLister is the read side the policy needs.
type AccountLister interface {
	AccountsByType(ctx context.Context, t ledger.AccountType) ([]ledger.Account, error)
}

// Resolve picks the counter account for a posting against primary.
func (p *CounterPolicy) Resolve(ctx context.Context, l AccountLister, primary *ledger.Account, d ledger.Direction) (*ledger.Account, error) {
	byType := map[ledger.AccountType][]ledger.Account{}
	for _, c := range p.Candidates(primary.Type, d) {
		accounts, ok := byType[c.Type]
		if !ok {
			var err error
			accounts, err = l.AccountsByType(ctx, c.Type)
			if err != nil {
				return nil, fmt.Errorf("list %s accounts: %w", c.Type, err)
			}
			byType[c.Type] = accounts
		}
		for i := range accounts {
			if accounts[i].Code == primary.Code {
				continue
			}
			if c.matches(&accounts[i]) {
				return &accounts[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s %s on %s", ledger.ErrNoCounterAccount, d, primary.Type, primary.Code)
}
