package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func pair(corr, debitCode, creditCode, amount string) []ledger.Entry {
	return []ledger.Entry{
		{CorrelationID: corr, Date: day, AccountCode: debitCode, Direction: ledger.Increase, Side: ledger.Debit,
			Amount: dec(amount), Description: "test", CounterAccountCode: creditCode},
		{CorrelationID: corr, Date: day, AccountCode: creditCode, Direction: ledger.Increase, Side: ledger.Credit,
			Amount: dec(amount), Description: "test", CounterAccountCode: debitCode, IsCounterEntry: true},
	}
}

func TestOpenSeedsChart(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	accounts, err := s.ListAccounts(ctx, AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accounts, len(ledger.DefaultChart))

	banks, err := s.ListAccounts(ctx, AccountFilter{Type: ledger.TypeAsset, Category: "BANK"})
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "1120", banks[0].Code)

	cfs, err := s.ListCashflowCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cfs, len(ledger.DefaultCashflow))
}

func TestReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	accounts, err := s.ListAccounts(context.Background(), AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, accounts, len(ledger.DefaultChart))
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	acct := &ledger.Account{Code: "1125", Name: "Bank - Escrow", Type: ledger.TypeAsset, Category: ledger.CategoryBank}
	require.NoError(t, s.CreateAccount(ctx, acct))
	assert.ErrorIs(t, s.CreateAccount(ctx, acct), ledger.ErrDuplicateAccount)

	require.NoError(t, s.UpdateAccount(ctx, "1125", "Bank - Escrow EUR", ledger.CategoryBank))
	got, err := s.GetAccount(ctx, "1125")
	require.NoError(t, err)
	assert.Equal(t, "Bank - Escrow EUR", got.Name)

	// The code can change while nothing references it.
	require.NoError(t, s.ChangeAccountCode(ctx, "1125", "1126"))
	_, err = s.GetAccount(ctx, "1125")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	require.NoError(t, s.InsertEntries(ctx, pair("c1", "1126", "3110", "10")))
	assert.ErrorIs(t, s.ChangeAccountCode(ctx, "1126", "1127"), ledger.ErrAccountInUse)
	assert.ErrorIs(t, s.DeleteAccount(ctx, "1126"), ledger.ErrAccountInUse)

	require.NoError(t, s.CreateAccount(ctx, &ledger.Account{Code: "9990", Name: "Spare", Type: ledger.TypeExpense}))
	require.NoError(t, s.DeleteAccount(ctx, "9990"))
	assert.ErrorIs(t, s.DeleteAccount(ctx, "9990"), ledger.ErrAccountNotFound)
}

func TestInsertEntriesIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entries := pair("c1", "5110", "1120", "7500000")
	entries[1].AccountCode = "0000"
	err := s.InsertEntries(ctx, entries)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	got, err := s.ListEntries(ctx, EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	entries = pair("c2", "5110", "1120", "7500000")
	require.NoError(t, s.InsertEntries(ctx, entries))
	assert.NotZero(t, entries[0].ID)
	assert.NotZero(t, entries[1].ID)

	p, err := s.GetPosting(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)
	assert.True(t, p.Entries[0].Amount.Equal(dec("7500000")))
	assert.Equal(t, day, p.Entries[0].Date)
	assert.True(t, p.Entries[1].IsCounterEntry)
	assert.True(t, p.Balanced())
}

func TestEntriesAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.InsertEntries(ctx, pair("c1", "5110", "1120", "10")))

	_, err := s.writer.ExecContext(ctx, `UPDATE entries SET amount = '11'`)
	assert.ErrorContains(t, err, "immutable")
	_, err = s.writer.ExecContext(ctx, `DELETE FROM entries`)
	assert.ErrorContains(t, err, "immutable")
}

func TestReversalTracking(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	orig := pair("c1", "1130", "4110", "100")
	for i := range orig {
		orig[i].SourceRef = ledger.BillingSource("b1")
	}
	require.NoError(t, s.InsertEntries(ctx, orig))

	open, err := s.OpenPostings(ctx, ledger.BillingSource("b1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, open)

	rev := pair("r1", "4110", "1130", "100")
	for i := range rev {
		rev[i].SourceRef = ledger.BillingSource("b1")
		rev[i].ReversesCorrelationID = "c1"
	}
	require.NoError(t, s.InsertEntries(ctx, rev))

	reversed, err := s.IsReversed(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, reversed)

	open, err = s.OpenPostings(ctx, ledger.BillingSource("b1"))
	require.NoError(t, err)
	assert.Empty(t, open)

	again := pair("r2", "4110", "1130", "100")
	for i := range again {
		again[i].ReversesCorrelationID = "c1"
	}
	assert.ErrorIs(t, s.InsertEntries(ctx, again), ledger.ErrAlreadyReversed)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.InsertEntries(ctx, pair("c1", "5110", "1120", "10")); err != nil {
			return err
		}
		got, err := tx.EntriesByCorrelation(ctx, "c1")
		require.NoError(t, err)
		assert.Len(t, got, 2, "the transaction sees its own writes")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.EntriesByCorrelation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAssetDepreciationUpdates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := &ledger.FixedAsset{
		Name:               "Excavator",
		AcquisitionDate:    time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Value:              dec("185000000"),
		UsefulLife:         5,
		AssetAccountCode:   "1510",
		ExpenseAccountCode: "6110",
		ContraAccountCode:  "1590",
	}
	require.NoError(t, s.CreateAsset(ctx, a))
	assert.True(t, a.BookValue.Equal(a.Value))

	asOf := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetAssetDepreciation(ctx, a.ID, dec("3083333.33"), asOf))
	got, err := s.GetAsset(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.BookValue.Equal(dec("181916666.67")))
	require.NotNil(t, got.LastDepreciatedAt)
	assert.Equal(t, asOf, *got.LastDepreciatedAt)

	assert.ErrorIs(t, s.SetAssetDepreciation(ctx, a.ID, dec("185000000.01"), asOf), ledger.ErrInconsistentAsset)
	assert.ErrorIs(t, s.SetAssetDepreciation(ctx, "nope", dec("1"), asOf), ledger.ErrAssetNotFound)

	require.NoError(t, s.SetAssetDepreciation(ctx, a.ID, a.Value, asOf))
	depreciable, err := s.ListAssets(ctx, AssetFilter{Depreciable: true})
	require.NoError(t, err)
	assert.Empty(t, depreciable)
	all, err := s.ListAssets(ctx, AssetFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.writer.ExecContext(ctx, `UPDATE fixed_assets SET value = '1' WHERE id = ?`, a.ID)
	assert.ErrorContains(t, err, "immutable")
}

func TestBillingCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := &ledger.Project{Code: "PRJ-1", Name: "Bridge", TotalValue: dec("225000000")}
	require.NoError(t, s.CreateProject(ctx, p))
	assert.Equal(t, ledger.ProjectOngoing, p.Status)

	byCode, err := s.GetProject(ctx, "PRJ-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	pct := dec("20")
	b := &ledger.Billing{ProjectID: "PRJ-1", BillingDate: day, Percentage: &pct, Invoice: "INV-1"}
	require.NoError(t, s.CreateBilling(ctx, b))
	assert.Equal(t, p.ID, b.ProjectID)
	assert.True(t, b.Amount.Equal(dec("45000000")))

	require.NoError(t, s.SetBillingStatus(ctx, b.ID, ledger.BillingPending, ledger.BillingUnpaid))

	err = s.SetBillingStatus(ctx, b.ID, ledger.BillingPending, ledger.BillingRejected)
	var te *ledger.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ledger.BillingUnpaid, te.From)

	got, err := s.GetBilling(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingUnpaid, got.Status)
	require.NotNil(t, got.Percentage)
	assert.True(t, got.Percentage.Equal(pct))

	_, err = s.GetBilling(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrBillingNotFound)
}

func TestProjectCosts(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := &ledger.Project{Code: "PRJ-2", TotalValue: dec("1000")}
	require.NoError(t, s.CreateProject(ctx, p))
	assert.ErrorIs(t, s.CreateProject(ctx, &ledger.Project{Code: "PRJ-2", TotalValue: dec("1")}), ledger.ErrInvalidProject)

	c := &ledger.ProjectCost{ProjectID: p.ID, Category: "materials", Amount: dec("400"), Date: day}
	require.NoError(t, s.AddCost(ctx, c))
	require.NoError(t, s.SetCostStatus(ctx, c.ID, ledger.CostApproved))
	assert.ErrorIs(t, s.SetCostStatus(ctx, "missing", ledger.CostApproved), ledger.ErrCostNotFound)

	costs, err := s.ListCosts(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, ledger.CostApproved, costs[0].Status)

	assert.ErrorIs(t, s.AddCost(ctx, &ledger.ProjectCost{ProjectID: "nope", Amount: dec("1"), Date: day}), ledger.ErrProjectNotFound)

	require.NoError(t, s.UpdateProjectStatus(ctx, p.ID, ledger.ProjectCompleted, 100))
	done, err := s.ListProjects(ctx, ProjectFilter{Status: ledger.ProjectCompleted})
	require.NoError(t, err)
	assert.Len(t, done, 1)
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Capital 1000 into bank, buy equipment 600, depreciation 50,
	// bill 300 on credit, receive 200.
	require.NoError(t, s.InsertEntries(ctx, pair("c1", "1120", "3110", "1000")))
	require.NoError(t, s.InsertEntries(ctx, pair("c2", "1510", "1120", "600")))
	require.NoError(t, s.InsertEntries(ctx, pair("c3", "6110", "1590", "50")))
	require.NoError(t, s.InsertEntries(ctx, pair("c4", "1130", "4110", "300")))
	require.NoError(t, s.InsertEntries(ctx, pair("c5", "1120", "1130", "200")))

	bal, err := s.AccountBalance(ctx, "1120", time.Time{})
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("600")), bal.String())

	bal, err = s.AccountBalance(ctx, "1590", time.Time{})
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("50")), "contra balances are positive in their natural direction")

	_, err = s.AccountBalance(ctx, "0000", time.Time{})
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	bs, err := s.BalanceSheet(ctx, time.Time{})
	require.NoError(t, err)
	// 600 bank + 600 equipment - 50 depreciation + 100 receivable
	assert.True(t, bs.TotalAssets.Equal(dec("1250")), bs.TotalAssets.String())
	assert.True(t, bs.NetIncome.Equal(dec("250")), bs.NetIncome.String())
	assert.True(t, bs.TotalEquity.Equal(dec("1250")), bs.TotalEquity.String())
	assert.True(t, bs.Balanced)

	tb, err := s.TrialBalance(ctx, time.Time{})
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(tb.TotalCredit))

	early, err := s.BalanceSheet(ctx, day.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.True(t, early.TotalAssets.IsZero())

	cf, err := s.CashflowSummary(ctx, day, day)
	require.NoError(t, err)
	assert.True(t, cf.NetChange.Equal(dec("600")), cf.NetChange.String())
	sections := map[ledger.CashflowSection]decimal.Decimal{}
	for _, sec := range cf.Sections {
		sections[sec.Section] = sec.Total
	}
	assert.True(t, sections[ledger.CashflowFinancing].Equal(dec("1000")))
	assert.True(t, sections[ledger.CashflowInvesting].Equal(dec("-600")))
	assert.True(t, sections[ledger.CashflowOperating].Equal(dec("200")))
	assert.True(t, cf.Unclassified.IsZero())
}
