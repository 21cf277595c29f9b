package billing

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
)

var day = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store   *store.Store
	service *Service
	billing *ledger.Billing
}

func setup(t *testing.T, policy RecognitionPolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	p := &ledger.Project{Code: "BRIDGE", Name: "Bridge", TotalValue: decimal.RequireFromString("225000000")}
	require.NoError(t, s.CreateProject(ctx, p))

	pct := decimal.NewFromInt(20)
	b := &ledger.Billing{ProjectID: p.ID, BillingDate: day, Percentage: &pct, Invoice: "INV-001"}
	require.NoError(t, s.CreateBilling(ctx, b))

	svc := NewService(s, posting.NewEngine(), policy, Accounts{Receivable: "1130", Revenue: "4110"})
	return &fixture{store: s, service: svc, billing: b}
}

func (f *fixture) balance(t *testing.T, code string) string {
	t.Helper()
	bal, err := f.store.AccountBalance(context.Background(), code, day.AddDate(1, 0, 0))
	require.NoError(t, err)
	return bal.String()
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		from, to ledger.BillingStatus
		want     bool
	}{
		{ledger.BillingPending, ledger.BillingUnpaid, true},
		{ledger.BillingPending, ledger.BillingRejected, true},
		{ledger.BillingUnpaid, ledger.BillingPaid, true},
		{ledger.BillingUnpaid, ledger.BillingRejected, true},
		{ledger.BillingPending, ledger.BillingPaid, false},
		{ledger.BillingPaid, ledger.BillingRejected, false},
		{ledger.BillingPaid, ledger.BillingUnpaid, false},
		{ledger.BillingRejected, ledger.BillingPending, false},
		{ledger.BillingUnpaid, ledger.BillingPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestIssueAndPayOnIssue(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)
	assert.Equal(t, "45000000", f.billing.Amount.String())

	res, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid, Date: day})
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingUnpaid, res.Billing.Status)
	require.Len(t, res.Postings, 1)
	assert.True(t, res.Postings[0].Balanced())
	assert.Equal(t, "45000000", f.balance(t, "1130"))
	assert.Equal(t, "45000000", f.balance(t, "4110"))

	res, err = f.service.Transition(ctx, Request{
		BillingID: f.billing.ID, To: ledger.BillingPaid, CashAccountCode: "1120", Date: day.AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingPaid, res.Billing.Status)
	assert.Equal(t, "0", f.balance(t, "1130"))
	assert.Equal(t, "45000000", f.balance(t, "1120"))
	assert.Equal(t, "45000000", f.balance(t, "4110"))

	entries, err := f.store.ListEntries(ctx, store.EntryFilter{SourceRef: ledger.BillingSource(f.billing.ID)})
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	for _, e := range entries {
		assert.Equal(t, f.billing.ProjectID, e.ProjectID)
	}
}

func TestPayOnPayment(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnPayment)

	res, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid, Date: day})
	require.NoError(t, err)
	assert.Empty(t, res.Postings)
	assert.Equal(t, "0", f.balance(t, "4110"))

	_, err = f.service.Transition(ctx, Request{
		BillingID: f.billing.ID, To: ledger.BillingPaid, CashAccountCode: "1110", Date: day,
	})
	require.NoError(t, err)
	assert.Equal(t, "45000000", f.balance(t, "1110"))
	assert.Equal(t, "45000000", f.balance(t, "4110"))
	assert.Equal(t, "0", f.balance(t, "1130"))
}

func TestPaidRequiresCashAccount(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)
	_, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid, Date: day})
	require.NoError(t, err)

	for _, code := range []string{"", "2110", "9999"} {
		_, err = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingPaid, CashAccountCode: code})
		assert.Error(t, err, code)
	}
	_, err = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingPaid})
	assert.ErrorIs(t, err, ledger.ErrCashAccountRequired)
	_, err = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingPaid, CashAccountCode: "2110"})
	assert.ErrorIs(t, err, ledger.ErrCashAccountRequired)

	b, err := f.store.GetBilling(ctx, f.billing.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingUnpaid, b.Status)
}

func TestInvalidTransitionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)

	_, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingPaid, CashAccountCode: "1120"})
	var te *ledger.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ledger.BillingPending, te.From)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)

	_, err = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: "archived"})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)

	_, err = f.service.Transition(ctx, Request{BillingID: "missing", To: ledger.BillingUnpaid})
	assert.ErrorIs(t, err, ledger.ErrBillingNotFound)

	b, err := f.store.GetBilling(ctx, f.billing.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingPending, b.Status)
	assert.Equal(t, "0", f.balance(t, "1130"))
}

func TestRejectReversesIssuedBilling(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)

	_, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid, Date: day})
	require.NoError(t, err)

	res, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingRejected, Date: day})
	require.NoError(t, err)
	assert.Equal(t, ledger.BillingRejected, res.Billing.Status)
	require.Len(t, res.Reversals, 1)
	assert.Equal(t, "0", f.balance(t, "1130"))
	assert.Equal(t, "0", f.balance(t, "4110"))

	open, err := f.store.OpenPostings(ctx, ledger.BillingSource(f.billing.ID))
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition, "rejected is terminal")
}

func TestRejectPendingPostsNothing(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)

	res, err := f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingRejected})
	require.NoError(t, err)
	assert.Empty(t, res.Reversals)
	assert.Empty(t, res.Postings)
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t, OnIssue)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.service.Transition(ctx, Request{BillingID: f.billing.ID, To: ledger.BillingUnpaid, Date: day})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, "45000000", f.balance(t, "1130"))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, OnIssue, p)
	p, err = ParsePolicy("on_payment")
	require.NoError(t, err)
	assert.Equal(t, OnPayment, p)
	_, err = ParsePolicy("never")
	assert.Error(t, err)
}
