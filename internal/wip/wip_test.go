package wip

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func bridge() ledger.Project {
	return ledger.Project{ID: "p1", Code: "BRIDGE", TotalValue: dec("225000000"), Status: ledger.ProjectOngoing}
}

func cost(amount string, status ledger.CostStatus) ledger.ProjectCost {
	return ledger.ProjectCost{ProjectID: "p1", Category: "materials", Amount: dec(amount), Date: day, Status: status}
}

func bill(amount string, status ledger.BillingStatus) ledger.Billing {
	return ledger.Billing{ProjectID: "p1", BillingDate: day, Amount: dec(amount), Status: status}
}

func TestComputeProjectWipExample(t *testing.T) {
	w := ComputeProjectWip(bridge(),
		[]ledger.ProjectCost{cost("50000000", ledger.CostApproved)},
		[]ledger.Billing{bill("30000000", ledger.BillingUnpaid)})

	assert.Equal(t, "20000000", w.Value.String())
	assert.False(t, w.OverBilled)
	assert.Equal(t, "BRIDGE", w.ProjectCode)
}

func TestComputeProjectWipIgnoresUnapprovedAndUnissued(t *testing.T) {
	costs := []ledger.ProjectCost{
		cost("50000000", ledger.CostApproved),
		cost("7000000", ledger.CostPending),
		cost("9000000", ledger.CostRejected),
		{ProjectID: "other", Amount: dec("1000"), Status: ledger.CostApproved},
	}
	billings := []ledger.Billing{
		bill("30000000", ledger.BillingPaid),
		bill("4000000", ledger.BillingPending),
		bill("5000000", ledger.BillingRejected),
	}
	w := ComputeProjectWip(bridge(), costs, billings)
	assert.Equal(t, "20000000", w.Value.String())
}

func TestComputeProjectWipIsAdditive(t *testing.T) {
	costs := []ledger.ProjectCost{cost("50000000", ledger.CostApproved)}
	billings := []ledger.Billing{bill("30000000", ledger.BillingUnpaid)}
	base := ComputeProjectWip(bridge(), costs, billings)

	again := ComputeProjectWip(bridge(), costs, billings)
	assert.True(t, base.Value.Equal(again.Value))

	withCost := ComputeProjectWip(bridge(), append(costs, cost("1234.56", ledger.CostApproved)), billings)
	assert.True(t, withCost.Value.Sub(base.Value).Equal(dec("1234.56")))

	withBill := ComputeProjectWip(bridge(), costs, append(billings, bill("789.01", ledger.BillingPaid)))
	assert.True(t, base.Value.Sub(withBill.Value).Equal(dec("789.01")))
}

func TestComputeProjectWipOverBilled(t *testing.T) {
	w := ComputeProjectWip(bridge(),
		[]ledger.ProjectCost{cost("10", ledger.CostApproved)},
		[]ledger.Billing{bill("25", ledger.BillingPaid)})
	assert.Equal(t, "-15", w.Value.String())
	assert.True(t, w.OverBilled)
}

func TestAggregate(t *testing.T) {
	values := []ProjectWip{
		{ProjectCode: "A", Status: ledger.ProjectOngoing, Value: dec("100")},
		{ProjectCode: "B", Status: ledger.ProjectOngoing, Value: dec("-40"), OverBilled: true},
		{ProjectCode: "C", Status: ledger.ProjectCompleted, Value: dec("55")},
		{ProjectCode: "D", Status: ledger.ProjectCompleted, Value: dec("-5"), OverBilled: true},
		{ProjectCode: "E", Status: ledger.ProjectCompleted, Value: decimal.Zero},
		{ProjectCode: "F", Status: ledger.ProjectCancelled, Value: dec("70")},
	}
	s := Aggregate(values)

	assert.Equal(t, "100", s.Total.String())
	require.Len(t, s.Warnings, 2)
	assert.Equal(t, "C", s.Warnings[0].ProjectCode)
	assert.Equal(t, "D", s.Warnings[1].ProjectCode)
	assert.Contains(t, s.Warnings[1].Message, "over-billed")
	assert.Len(t, s.Projects, len(values))

	empty := Aggregate(nil)
	assert.True(t, empty.Total.IsZero())
	assert.NotNil(t, empty.Projects)
	assert.NotNil(t, empty.Warnings)
}

func TestServiceReadsStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer s.Close()

	p := bridge()
	p.ID = ""
	require.NoError(t, s.CreateProject(ctx, &p))

	c := cost("50000000", ledger.CostApproved)
	c.ProjectID = p.Code
	require.NoError(t, s.AddCost(ctx, &c))

	b := bill("30000000", "")
	b.ProjectID = p.Code
	require.NoError(t, s.CreateBilling(ctx, &b))

	svc := NewService(s)

	w, err := svc.Project(ctx, "BRIDGE")
	require.NoError(t, err)
	assert.Equal(t, "50000000", w.Value.String(), "pending billing is not yet billed")

	require.NoError(t, s.SetBillingStatus(ctx, b.ID, ledger.BillingPending, ledger.BillingUnpaid))
	w, err = svc.Project(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "20000000", w.Value.String())

	total, err := svc.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20000000", total.String())

	require.NoError(t, s.UpdateProjectStatus(ctx, p.ID, ledger.ProjectCompleted, 100))
	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, sum.Total.IsZero())
	require.Len(t, sum.Warnings, 1)

	_, err = svc.Project(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrProjectNotFound)
}
