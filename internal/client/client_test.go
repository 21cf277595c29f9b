package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/config"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/server"
	"github.com/simonvc/projectledger/internal/store"
	"github.com/simonvc/projectledger/internal/wip"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := posting.NewEngine()
	srv := server.New(server.Deps{
		Store:    st,
		Engine:   engine,
		Recorder: depreciation.NewRecorder(st, engine, depreciation.DefaultTolerance),
		Billing:  billing.NewService(st, engine, billing.OnIssue, billing.Accounts{Receivable: "1130", Revenue: "4110"}),
		Wip:      wip.NewService(st),
		Accounts: config.Default().Accounts,
	}, "")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	require.NoError(t, c.Ping(ctx))

	p, err := c.Post(ctx, server.PostingRequest{
		Date:        "2025-03-10",
		AccountCode: "5110",
		Amount:      decimal.NewFromInt(7500000),
		Direction:   ledger.Increase,
		Description: "Cement delivery",
	})
	require.NoError(t, err)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, "1120", p.Entries[1].AccountCode)

	bal, err := c.GetAccountBalance(ctx, "1120", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "-7500000", bal.Balance.String())
	assert.Equal(t, "(7,500,000.00)", bal.Formatted)

	entries, err := c.ListEntries(ctx, EntryQuery{AccountCode: "5110"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClientAssetAndProjectFlow(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)

	a, err := c.CreateAsset(ctx, server.AssetRequest{
		Name:            "Excavator",
		AcquisitionDate: "2025-01-15",
		Value:           decimal.NewFromInt(185000000),
		UsefulLife:      5,
	})
	require.NoError(t, err)

	sched, err := c.AssetSchedule(ctx, a.ID, depreciation.Monthly)
	require.NoError(t, err)
	assert.Len(t, sched.Periods, 61)

	report, err := c.RunDepreciation(ctx, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	_, err = c.CreateProject(ctx, server.ProjectRequest{Code: "BRIDGE", TotalValue: decimal.NewFromInt(225000000)})
	require.NoError(t, err)
	_, err = c.AddCost(ctx, "BRIDGE", server.CostRequest{Category: "labour", Amount: decimal.NewFromInt(50000000), Status: ledger.CostApproved})
	require.NoError(t, err)
	b, err := c.CreateBilling(ctx, "BRIDGE", server.BillingRequest{Amount: decimal.NewFromInt(30000000)})
	require.NoError(t, err)
	_, err = c.TransitionBilling(ctx, b.ID, server.TransitionRequest{To: ledger.BillingUnpaid})
	require.NoError(t, err)

	w, err := c.ProjectWip(ctx, "BRIDGE")
	require.NoError(t, err)
	assert.Equal(t, "20000000", w.Value.String())
}

func TestClientAPIError(t *testing.T) {
	c := newClient(t)
	_, err := c.GetAccount(context.Background(), "9999")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "account not found")
}
