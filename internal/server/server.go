// Package server exposes the ledger over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/config"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/posting"
	"github.com/simonvc/projectledger/internal/store"
	"github.com/simonvc/projectledger/internal/wip"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the handlers call into.
type Deps struct {
	Store    *store.Store
	Engine   *posting.Engine
	Recorder *depreciation.Recorder
	Billing  *billing.Service
	Wip      *wip.Service
	// Accounts fills in posting accounts a request leaves out.
	Accounts config.AccountsConfig
}

type Server struct {
	store    *store.Store
	engine   *posting.Engine
	recorder *depreciation.Recorder
	billing  *billing.Service
	wip      *wip.Service
	defaults config.AccountsConfig
	router   chi.Router
	addr     string
	// now is the clock behind default as-of dates.
	now func() time.Time
}

func New(d Deps, addr string) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	s := &Server{
		store:    d.Store,
		engine:   d.Engine,
		recorder: d.Recorder,
		billing:  d.Billing,
		wip:      d.Wip,
		defaults: d.Accounts,
		router:   r,
		addr:     addr,
		now:      time.Now,
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Accounts
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccounts)
		r.Get("/accounts/{code}", s.getAccount)
		r.Patch("/accounts/{code}", s.updateAccount)
		r.Delete("/accounts/{code}", s.deleteAccount)
		r.Get("/accounts/{code}/balance", s.getAccountBalance)
		r.Get("/accounts/{code}/entries", s.listAccountEntries)

		// Reference data
		r.Get("/chart", s.getChart)
		r.Get("/templates", s.getTemplates)
		r.Get("/cashflow-categories", s.listCashflowCategories)
		r.Put("/cashflow-categories/{code}", s.upsertCashflowCategory)
		r.Delete("/cashflow-categories/{code}", s.deleteCashflowCategory)

		// Postings
		r.Post("/postings", s.createPosting)
		r.Get("/postings/{id}", s.getPosting)
		r.Post("/postings/{id}/reverse", s.reversePosting)
		r.Get("/entries", s.listEntries)

		// Fixed assets
		r.Post("/assets", s.createAsset)
		r.Get("/assets", s.listAssets)
		r.Get("/assets/{id}", s.getAsset)
		r.Patch("/assets/{id}", s.updateAsset)
		r.Get("/assets/{id}/depreciation", s.assetDepreciation)
		r.Get("/assets/{id}/schedule", s.assetSchedule)
		r.Post("/assets/{id}/record", s.recordDepreciation)
		r.Post("/depreciation/run", s.runDepreciation)

		// Projects
		r.Post("/projects", s.createProject)
		r.Get("/projects", s.listProjects)
		r.Get("/projects/{id}", s.getProject)
		r.Patch("/projects/{id}", s.updateProject)
		r.Post("/projects/{id}/costs", s.addCost)
		r.Get("/projects/{id}/costs", s.listCosts)
		r.Patch("/costs/{id}", s.updateCost)
		r.Post("/projects/{id}/billings", s.createBilling)
		r.Get("/projects/{id}/billings", s.listBillings)
		r.Get("/projects/{id}/wip", s.projectWip)
		r.Get("/billings/{id}", s.getBilling)
		r.Post("/billings/{id}/transition", s.transitionBilling)
		r.Get("/wip", s.wipSummary)

		// Reports
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/cashflow", s.cashflow)
	})

	return s
}

// ListenAndServe serves on the configured address until ctx is done,
// then drains in-flight requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "error", err)
		}
	}()

	slog.Info("projectledger server listening", "addr", ln.Addr().String())
	err := httpSrv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs one line per request through slog.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.DebugContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
