package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/server"
	"github.com/simonvc/projectledger/internal/store"
	"github.com/simonvc/projectledger/internal/wip"
)

// services is the local wiring shared by serve, tui and the offline
// depreciation run.
type services struct {
	store    *store.Store
	engine   *posting.Engine
	recorder *depreciation.Recorder
	billing  *billing.Service
	wip      *wip.Service
}

func openServices() (*services, error) {
	tol, err := cfg.Depreciation.ToleranceValue()
	if err != nil {
		return nil, err
	}
	policy, err := billing.ParsePolicy(cfg.Billing.Recognition)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	engine := posting.NewEngine()
	return &services{
		store:    st,
		engine:   engine,
		recorder: depreciation.NewRecorder(st, engine, tol),
		billing: billing.NewService(st, engine, policy, billing.Accounts{
			Receivable: cfg.Accounts.Receivable,
			Revenue:    cfg.Accounts.Revenue,
		}),
		wip: wip.NewService(st),
	}, nil
}

func (s *services) deps() server.Deps {
	return server.Deps{
		Store:    s.store,
		Engine:   s.engine,
		Recorder: s.recorder,
		Billing:  s.billing,
		Wip:      s.wip,
		Accounts: cfg.Accounts,
	}
}

func (s *services) Close() error { return s.store.Close() }

func newClient() *client.Client {
	return client.New(cfg.Client.Server)
}

// parseDay parses a YYYY-MM-DD flag; empty means today.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return ledger.Day(time.Now()), nil
	}
	return ledger.ParseDate(s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	return ledger.ParsePositiveAmount(s)
}

func center(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-2] + ".."
	}
	return s
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format(ledger.DateLayout)
}
