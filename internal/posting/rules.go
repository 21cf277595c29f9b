package posting

import "github.com/simonvc/projectledger/internal/ledger"

// Rule flags one unusual primary/counter pairing.
type Rule struct {
	Name   string
	Reason string
	Match  func(primary, counter ledger.AccountType, d ledger.Direction) bool
}

type Rules []Rule

// DefaultRules is the rule set applied to every balanced posting.
var DefaultRules = Rules{
	{
		Name:   "revenue-against-expense",
		Reason: "revenue must not be posted against an expense account",
		Match: func(p, c ledger.AccountType, _ ledger.Direction) bool {
			return p == ledger.TypeRevenue && c == ledger.TypeExpense
		},
	},
	{
		Name:   "expense-against-revenue",
		Reason: "expenses must not be posted against a revenue account",
		Match: func(p, c ledger.AccountType, _ ledger.Direction) bool {
			return p == ledger.TypeExpense && c == ledger.TypeRevenue
		},
	},
	{
		Name:   "income-statement-against-equity",
		Reason: "revenue and expenses reach equity only through closing",
		Match: func(p, c ledger.AccountType, _ ledger.Direction) bool {
			pnl := func(t ledger.AccountType) bool { return t == ledger.TypeRevenue || t == ledger.TypeExpense }
			return (pnl(p) && c == ledger.TypeEquity) || (p == ledger.TypeEquity && pnl(c))
		},
	},
	{
		Name:   "contra-asset-counterpart",
		Reason: "accumulated depreciation moves only against an expense or an asset account",
		Match: func(p, c ledger.AccountType, _ ledger.Direction) bool {
			other := func(t ledger.AccountType) bool { return t != ledger.TypeExpense && t != ledger.TypeAsset }
			return (p == ledger.TypeContraAsset && other(c)) || (c == ledger.TypeContraAsset && other(p))
		},
	},
	{
		Name:   "revenue-decrease-against-liability",
		Reason: "reducing revenue against a liability is unusual; use a receivable or bank account",
		Match: func(p, c ledger.AccountType, d ledger.Direction) bool {
			return p == ledger.TypeRevenue && d == ledger.Decrease && c == ledger.TypeLiability
		},
	},
}

// Check returns a *ledger.CombinationError for the first matching rule.
func (r Rules) Check(primary, counter *ledger.Account, d ledger.Direction) error {
	for _, rule := range r {
		if rule.Match(primary.Type, counter.Type, d) {
			return &ledger.CombinationError{
				PrimaryCode: primary.Code,
				PrimaryType: primary.Type,
				CounterCode: counter.Code,
				CounterType: counter.Type,
				Direction:   d,
				Reason:      rule.Reason,
			}
		}
	}
	return nil
}
