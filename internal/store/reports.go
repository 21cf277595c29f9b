package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/ledger"
)

// debitBalances sums every entry up to asOf (inclusive, zero means all)
// per account as a debit-positive figure. Amounts are TEXT, so the sum
// happens in Go at full precision.
func (q *queries) debitBalances(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	query := `SELECT account_code, side, amount FROM entries`
	args := []any{}
	if !asOf.IsZero() {
		query += ` WHERE date <= ?`
		args = append(args, formatDay(asOf))
	}
	rows, err := q.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("balances query: %w", err)
	}
	defer rows.Close()

	out := map[string]decimal.Decimal{}
	for rows.Next() {
		var code string
		var side ledger.Side
		var amount decimal.Decimal
		if err := rows.Scan(&code, &side, &amount); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		if side == ledger.Credit {
			amount = amount.Neg()
		}
		out[code] = out[code].Add(amount)
	}
	return out, rows.Err()
}

// naturalBalance flips a debit-positive figure for credit-normal accounts.
func naturalBalance(t ledger.AccountType, debit decimal.Decimal) decimal.Decimal {
	if ledger.NormalSide(t) == ledger.Credit {
		return debit.Neg()
	}
	return debit
}

// AccountBalance returns the balance of an account in its natural
// direction as of a date (zero means all entries).
func (q *queries) AccountBalance(ctx context.Context, code string, asOf time.Time) (decimal.Decimal, error) {
	acct, err := q.GetAccount(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	query := `SELECT side, amount FROM entries WHERE account_code = ?`
	args := []any{code}
	if !asOf.IsZero() {
		query += ` AND date <= ?`
		args = append(args, formatDay(asOf))
	}
	rows, err := q.read.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account balance: %w", err)
	}
	defer rows.Close()

	debit := decimal.Zero
	for rows.Next() {
		var side ledger.Side
		var amount decimal.Decimal
		if err := rows.Scan(&side, &amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan account balance: %w", err)
		}
		if side == ledger.Credit {
			amount = amount.Neg()
		}
		debit = debit.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, err
	}
	return naturalBalance(acct.Type, debit), nil
}

func (q *queries) BalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error) {
	accounts, err := q.ListAccounts(ctx, AccountFilter{})
	if err != nil {
		return nil, err
	}
	balances, err := q.debitBalances(ctx, asOf)
	if err != nil {
		return nil, err
	}

	bs := &ledger.BalanceSheet{
		AsOf:        asOf,
		GeneratedAt: time.Now().UTC(),
	}
	revenue, expense := decimal.Zero, decimal.Zero

	for _, a := range accounts {
		debit, ok := balances[a.Code]
		if !ok || debit.IsZero() {
			continue
		}
		line := ledger.BalanceSheetLine{
			AccountCode: a.Code,
			AccountName: a.Name,
			Type:        a.Type,
			Balance:     naturalBalance(a.Type, debit),
		}
		switch a.Type {
		case ledger.TypeAsset:
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(line.Balance)
		case ledger.TypeContraAsset:
			// Shown under assets as a deduction.
			line.Balance = line.Balance.Neg()
			bs.Assets = append(bs.Assets, line)
			bs.TotalAssets = bs.TotalAssets.Add(line.Balance)
		case ledger.TypeLiability:
			bs.Liabilities = append(bs.Liabilities, line)
			bs.TotalLiabilities = bs.TotalLiabilities.Add(line.Balance)
		case ledger.TypeEquity:
			bs.Equity = append(bs.Equity, line)
			bs.TotalEquity = bs.TotalEquity.Add(line.Balance)
		case ledger.TypeRevenue:
			revenue = revenue.Add(line.Balance)
		case ledger.TypeExpense:
			expense = expense.Add(line.Balance)
		}
	}

	// Without closing, current earnings sit in equity.
	bs.NetIncome = revenue.Sub(expense)
	bs.TotalEquity = bs.TotalEquity.Add(bs.NetIncome)
	bs.Balanced = bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs, nil
}

func (q *queries) TrialBalance(ctx context.Context, asOf time.Time) (*ledger.TrialBalance, error) {
	accounts, err := q.ListAccounts(ctx, AccountFilter{})
	if err != nil {
		return nil, err
	}
	balances, err := q.debitBalances(ctx, asOf)
	if err != nil {
		return nil, err
	}

	tb := &ledger.TrialBalance{
		GeneratedAt: time.Now().UTC(),
	}
	for _, a := range accounts {
		debit, ok := balances[a.Code]
		if !ok || debit.IsZero() {
			continue
		}
		line := ledger.TrialBalanceLine{AccountCode: a.Code, AccountName: a.Name}
		if debit.IsPositive() {
			line.Debit = debit
			tb.TotalDebit = tb.TotalDebit.Add(debit)
		} else {
			line.Credit = debit.Neg()
			tb.TotalCredit = tb.TotalCredit.Add(line.Credit)
		}
		tb.Lines = append(tb.Lines, line)
	}
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb, nil
}

// CashflowSummary groups the movement of cash and bank accounts between
// two dates (inclusive) by the cashflow category of the account on the
// other side of each posting. Transfers between cash accounts cancel out
// and are skipped; movements without a mapped counter account are
// reported as unclassified.
func (q *queries) CashflowSummary(ctx context.Context, from, to time.Time) (*ledger.CashflowStatement, error) {
	accounts, err := q.ListAccounts(ctx, AccountFilter{})
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]ledger.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	mappings, err := q.ListCashflowCategories(ctx)
	if err != nil {
		return nil, err
	}
	mapped := make(map[string]ledger.CashflowCategory, len(mappings))
	for _, m := range mappings {
		mapped[m.AccountCode] = m
	}

	entries, err := q.ListEntries(ctx, EntryFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	cs := &ledger.CashflowStatement{From: from, To: to, GeneratedAt: time.Now().UTC()}
	lines := map[ledger.CashflowSection]map[string]*ledger.CashflowLine{}

	for i := range entries {
		e := &entries[i]
		acct, ok := byCode[e.AccountCode]
		if !ok || acct.Type != ledger.TypeAsset || !acct.IsCashOrBank() {
			continue
		}
		counter, ok := byCode[e.CounterAccountCode]
		if ok && counter.Type == ledger.TypeAsset && counter.IsCashOrBank() {
			continue
		}
		amount := e.Signed()
		cs.NetChange = cs.NetChange.Add(amount)

		m, ok := mapped[e.CounterAccountCode]
		if !ok {
			cs.Unclassified = cs.Unclassified.Add(amount)
			continue
		}
		if lines[m.Category] == nil {
			lines[m.Category] = map[string]*ledger.CashflowLine{}
		}
		line := lines[m.Category][m.AccountCode]
		if line == nil {
			line = &ledger.CashflowLine{
				AccountCode: m.AccountCode,
				AccountName: counter.Name,
				Subcategory: m.Subcategory,
			}
			lines[m.Category][m.AccountCode] = line
		}
		line.Amount = line.Amount.Add(amount)
	}

	for _, section := range ledger.AllCashflowSections {
		report := ledger.CashflowSectionReport{Section: section}
		for _, l := range lines[section] {
			report.Lines = append(report.Lines, *l)
			report.Total = report.Total.Add(l.Amount)
		}
		sort.Slice(report.Lines, func(i, j int) bool { return report.Lines[i].AccountCode < report.Lines[j].AccountCode })
		cs.Sections = append(cs.Sections, report)
	}
	return cs, nil
}
