package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/config"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
	"github.com/simonvc/projectledger/internal/wip"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(newServer(t).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func newServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	engine := posting.NewEngine()
	accounts := config.Default().Accounts
	srv := New(Deps{
		Store:    st,
		Engine:   engine,
		Recorder: depreciation.NewRecorder(st, engine, depreciation.DefaultTolerance),
		Billing: billing.NewService(st, engine, billing.OnIssue, billing.Accounts{
			Receivable: accounts.Receivable,
			Revenue:    accounts.Revenue,
		}),
		Wip:      wip.NewService(st),
		Accounts: accounts,
	}, "")
	srv.now = func() time.Time { return time.Date(2025, 6, 30, 9, 0, 0, 0, time.UTC) }
	return srv
}

func call(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+"/api/v1"+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestPostingInfersCounterAccount(t *testing.T) {
	ts := newTestServer(t)

	var p ledger.Posting
	status := call(t, ts, http.MethodPost, "/postings", map[string]any{
		"date":         "2025-03-10",
		"account_code": "5110",
		"amount":       "7500000",
		"direction":    "increase",
		"description":  "Cement delivery",
	}, &p)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, p.Entries, 2)
	assert.Equal(t, "1120", p.Entries[1].AccountCode)
	assert.Equal(t, ledger.Credit, p.Entries[1].Side)

	var got ledger.Posting
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/postings/"+p.CorrelationID, nil, &got))
	assert.Len(t, got.Entries, 2)

	var rev ledger.Posting
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/postings/"+p.CorrelationID+"/reverse", ReverseRequest{}, &rev))
	assert.Equal(t, p.CorrelationID, rev.Entries[0].ReversesCorrelationID)
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/postings/"+p.CorrelationID+"/reverse", ReverseRequest{}, nil))

	var bal map[string]any
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/accounts/1120/balance", nil, &bal))
	assert.Equal(t, "0", bal["balance"])
}

func TestPostingErrors(t *testing.T) {
	ts := newTestServer(t)

	unusual := map[string]any{
		"date": "2025-03-10", "account_code": "4110", "amount": "100",
		"direction": "increase", "description": "odd", "counter_account_code": "6120",
	}
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, ts, http.MethodPost, "/postings", unusual, nil))

	unusual["confirm_unusual"] = true
	assert.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/postings", unusual, nil))

	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/postings", map[string]any{
		"account_code": "5110", "amount": "-1", "direction": "increase", "description": "x",
	}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodPost, "/postings", map[string]any{
		"account_code": "9999", "amount": "1", "direction": "increase", "description": "x",
	}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/postings", map[string]any{
		"template": "nope", "amount": "1",
	}, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/postings/missing", nil, nil))
}

func TestTemplatePosting(t *testing.T) {
	ts := newTestServer(t)

	var p ledger.Posting
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/postings", map[string]any{
		"template": "capital-injection", "amount": "1000", "date": "2025-01-02",
	}, &p))
	assert.Equal(t, "3110", p.Entries[0].AccountCode)
	assert.Equal(t, "1120", p.Entries[1].AccountCode)
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var acct ledger.Account
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/accounts", map[string]any{
		"code": "1125", "name": "Escrow", "type": "asset", "category": "bank",
	}, &acct))
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/accounts", map[string]any{
		"code": "1125", "name": "Escrow", "type": "asset",
	}, nil))

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPatch, "/accounts/1125", map[string]any{
		"name": "Escrow EUR", "code": "1126",
	}, &acct))
	assert.Equal(t, "1126", acct.Code)
	assert.Equal(t, "Escrow EUR", acct.Name)

	var banks []ledger.Account
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/accounts?category=bank", nil, &banks))
	assert.Len(t, banks, 3)

	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPut, "/cashflow-categories/1126",
		map[string]any{"category": "financing", "subcategory": "escrow"}, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPut, "/cashflow-categories/1126",
		map[string]any{"category": "sideways"}, nil))

	assert.Equal(t, http.StatusNoContent, call(t, ts, http.MethodDelete, "/accounts/1126", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/accounts/1126", nil, nil))

	// Accounts with entries cannot be deleted.
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/postings", map[string]any{
		"template": "capital-injection", "amount": "10",
	}, nil))
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodDelete, "/accounts/3110", nil, nil))
}

func TestProjectBillingAndWip(t *testing.T) {
	ts := newTestServer(t)

	var p ledger.Project
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/projects", map[string]any{
		"code": "BRIDGE", "name": "Bridge", "total_value": "225000000",
	}, &p))
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/projects/BRIDGE/costs", map[string]any{
		"category": "materials", "amount": "50000000", "status": "approved", "date": "2025-03-01",
	}, nil))

	var b ledger.Billing
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/projects/BRIDGE/billings", map[string]any{
		"amount": "30000000", "invoice": "INV-1", "billing_date": "2025-04-01",
	}, &b))
	assert.Equal(t, ledger.BillingPending, b.Status)

	var res billing.Result
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/billings/"+b.ID+"/transition",
		TransitionRequest{To: ledger.BillingUnpaid, Date: "2025-04-01"}, &res))
	assert.Equal(t, ledger.BillingUnpaid, res.Billing.Status)

	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodPost, "/billings/"+b.ID+"/transition",
		TransitionRequest{To: ledger.BillingPaid}, nil))
	assert.Equal(t, http.StatusConflict, call(t, ts, http.MethodPost, "/billings/"+b.ID+"/transition",
		TransitionRequest{To: ledger.BillingPending}, nil))

	var pw wip.ProjectWip
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/projects/BRIDGE/wip", nil, &pw))
	assert.Equal(t, "20000000", pw.Value.String())

	var bs ledger.BalanceSheet
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/reports/balance-sheet?as_of=2025-06-30", nil, &bs))
	assert.Equal(t, "20000000", bs.WorkInProgress.String())
	assert.True(t, bs.Balanced)
	assert.Equal(t, "30000000", bs.TotalAssets.String())

	var sum wip.Summary
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/wip", nil, &sum))
	assert.Equal(t, "20000000", sum.Total.String())
}

func TestAssetDepreciation(t *testing.T) {
	ts := newTestServer(t)

	var a ledger.FixedAsset
	require.Equal(t, http.StatusCreated, call(t, ts, http.MethodPost, "/assets", map[string]any{
		"name": "Excavator", "acquisition_date": "2025-01-15", "value": "185000000",
		"useful_life": 5, "asset_account_code": "1510",
	}, &a))
	assert.Equal(t, "6110", a.ExpenseAccountCode)
	assert.Equal(t, "1590", a.ContraAccountCode)

	var calc depreciation.Calculation
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/assets/"+a.ID+"/depreciation?as_of=2025-02-15", nil, &calc))
	assert.Equal(t, "181916666.67", calc.BookValue.StringFixed(2))

	var sched ScheduleResponse
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/assets/"+a.ID+"/schedule?granularity=yearly", nil, &sched))
	assert.Len(t, sched.Periods, 6)
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/assets/"+a.ID+"/schedule?granularity=weekly", nil, nil))

	var res depreciation.Result
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/assets/"+a.ID+"/record", AsOfRequest{AsOf: "2025-02-15"}, &res))
	assert.Equal(t, depreciation.OutcomeRecorded, res.Outcome)

	var report depreciation.Report
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodPost, "/depreciation/run", AsOfRequest{AsOf: "2025-02-15"}, &report))
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Updated)

	var entries []ledger.Entry
	require.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/entries?source="+ledger.DepreciationSource(a.ID), nil, &entries))
	assert.Len(t, entries, 2)

	assert.Equal(t, http.StatusNotFound, call(t, ts, http.MethodGet, "/assets/missing", nil, nil))
}

func TestReportsRejectBadDates(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/reports/trial-balance?as_of=yesterday", nil, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, ts, http.MethodGet, "/reports/cashflow?from=2025-06-01&to=2025-01-01", nil, nil))

	var cf ledger.CashflowStatement
	assert.Equal(t, http.StatusOK, call(t, ts, http.MethodGet, "/reports/cashflow", nil, &cf))
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := newServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/chart")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
