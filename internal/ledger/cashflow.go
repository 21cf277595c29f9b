package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CashflowSection is the cashflow statement section an account rolls up into.
type CashflowSection string

const (
	CashflowOperating CashflowSection = "operating"
	CashflowInvesting CashflowSection = "investing"
	CashflowFinancing CashflowSection = "financing"
)

var AllCashflowSections = []CashflowSection{CashflowOperating, CashflowInvesting, CashflowFinancing}

// CashflowCategory is the single cashflow mapping of an account code.
type CashflowCategory struct {
	AccountCode string          `json:"account_code"`
	Category    CashflowSection `json:"category"`
	Subcategory string          `json:"subcategory"`
}

func (c *CashflowCategory) Validate() error {
	if c.AccountCode == "" {
		return ErrInvalidAccountCode
	}
	switch c.Category {
	case CashflowOperating, CashflowInvesting, CashflowFinancing:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCashflow, c.Category)
	}
}

// CashflowLine is the cash effect of postings against one mapped account.
type CashflowLine struct {
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Subcategory string          `json:"subcategory"`
	Amount      decimal.Decimal `json:"amount"`
}

type CashflowSectionReport struct {
	Section CashflowSection `json:"section"`
	Lines   []CashflowLine  `json:"lines"`
	Total   decimal.Decimal `json:"total"`
}

// CashflowStatement groups cash and bank movements by the account on the
// other side of each posting.
type CashflowStatement struct {
	From         time.Time               `json:"from"`
	To           time.Time               `json:"to"`
	Sections     []CashflowSectionReport `json:"sections"`
	Unclassified decimal.Decimal         `json:"unclassified"`
	NetChange    decimal.Decimal         `json:"net_change"`
	GeneratedAt  time.Time               `json:"generated_at"`
}
