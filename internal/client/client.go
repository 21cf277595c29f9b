// Package client is the typed HTTP client for the projectledger API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/billing"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
	"github.com/simonvc/projectledger/internal/wip"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Accounts

func (c *Client) CreateAccount(ctx context.Context, acct *ledger.Account) (*ledger.Account, error) {
	body := map[string]any{
		"code":     acct.Code,
		"name":     acct.Name,
		"type":     acct.Type,
		"category": acct.Category,
	}
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccounts(ctx context.Context, t ledger.AccountType, category string) ([]ledger.Account, error) {
	params := url.Values{}
	if t != "" {
		params.Set("type", string(t))
	}
	if category != "" {
		params.Set("category", category)
	}
	var result []ledger.Account
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, code string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(code), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type BalanceResponse struct {
	AccountCode string          `json:"account_code"`
	AsOf        string          `json:"as_of"`
	Balance     decimal.Decimal `json:"balance"`
	Formatted   string          `json:"formatted"`
}

// GetAccountBalance returns the balance as of asOf, or today when asOf
// is zero.
func (c *Client) GetAccountBalance(ctx context.Context, code string, asOf time.Time) (*BalanceResponse, error) {
	var result BalanceResponse
	path := "/api/v1/accounts/" + url.PathEscape(code) + "/balance" + asOfQuery(asOf)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccountEntries(ctx context.Context, code string) ([]ledger.Entry, error) {
	var result []ledger.Entry
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(code)+"/entries", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateAccount changes name and category. Empty values are left as they are.
func (c *Client) UpdateAccount(ctx context.Context, code, name, category string) (*ledger.Account, error) {
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if category != "" {
		body["category"] = category
	}
	var result ledger.Account
	if err := c.patch(ctx, "/api/v1/accounts/"+url.PathEscape(code), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteAccount(ctx context.Context, code string) error {
	return c.del(ctx, "/api/v1/accounts/"+url.PathEscape(code))
}

func (c *Client) GetChart(ctx context.Context) ([]ledger.ChartEntry, error) {
	var result []ledger.ChartEntry
	if err := c.get(ctx, "/api/v1/chart", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListCashflowCategories(ctx context.Context) ([]ledger.CashflowCategory, error) {
	var result []ledger.CashflowCategory
	if err := c.get(ctx, "/api/v1/cashflow-categories", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Postings

func (c *Client) Post(ctx context.Context, req server.PostingRequest) (*ledger.Posting, error) {
	var result ledger.Posting
	if err := c.post(ctx, "/api/v1/postings", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetPosting(ctx context.Context, correlationID string) (*ledger.Posting, error) {
	var result ledger.Posting
	if err := c.get(ctx, "/api/v1/postings/"+url.PathEscape(correlationID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Reverse(ctx context.Context, correlationID string, req server.ReverseRequest) (*ledger.Posting, error) {
	var result ledger.Posting
	if err := c.post(ctx, "/api/v1/postings/"+url.PathEscape(correlationID)+"/reverse", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EntryQuery filters ListEntries. Zero fields are ignored.
type EntryQuery struct {
	AccountCode string
	ProjectID   string
	SourceRef   string
	From        time.Time
	To          time.Time
	Limit       int
}

func (c *Client) ListEntries(ctx context.Context, q EntryQuery) ([]ledger.Entry, error) {
	params := url.Values{}
	if q.AccountCode != "" {
		params.Set("account", q.AccountCode)
	}
	if q.ProjectID != "" {
		params.Set("project", q.ProjectID)
	}
	if q.SourceRef != "" {
		params.Set("source", q.SourceRef)
	}
	if !q.From.IsZero() {
		params.Set("from", q.From.Format(ledger.DateLayout))
	}
	if !q.To.IsZero() {
		params.Set("to", q.To.Format(ledger.DateLayout))
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}
	var result []ledger.Entry
	if err := c.get(ctx, "/api/v1/entries?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Fixed assets

func (c *Client) CreateAsset(ctx context.Context, req server.AssetRequest) (*ledger.FixedAsset, error) {
	var result ledger.FixedAsset
	if err := c.post(ctx, "/api/v1/assets", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAssets(ctx context.Context) ([]ledger.FixedAsset, error) {
	var result []ledger.FixedAsset
	if err := c.get(ctx, "/api/v1/assets", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAsset(ctx context.Context, id string) (*ledger.FixedAsset, error) {
	var result ledger.FixedAsset
	if err := c.get(ctx, "/api/v1/assets/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AssetDepreciation(ctx context.Context, id string, asOf time.Time) (*depreciation.Calculation, error) {
	var result depreciation.Calculation
	if err := c.get(ctx, "/api/v1/assets/"+url.PathEscape(id)+"/depreciation"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AssetSchedule(ctx context.Context, id string, g depreciation.Granularity) (*server.ScheduleResponse, error) {
	var result server.ScheduleResponse
	path := "/api/v1/assets/" + url.PathEscape(id) + "/schedule?granularity=" + url.QueryEscape(string(g))
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RecordDepreciation(ctx context.Context, id string, asOf time.Time) (*depreciation.Result, error) {
	var result depreciation.Result
	if err := c.post(ctx, "/api/v1/assets/"+url.PathEscape(id)+"/record", asOfBody(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RunDepreciation(ctx context.Context, asOf time.Time) (*depreciation.Report, error) {
	var result depreciation.Report
	if err := c.post(ctx, "/api/v1/depreciation/run", asOfBody(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Projects

func (c *Client) CreateProject(ctx context.Context, req server.ProjectRequest) (*ledger.Project, error) {
	var result ledger.Project
	if err := c.post(ctx, "/api/v1/projects", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListProjects(ctx context.Context, status ledger.ProjectStatus) ([]ledger.Project, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", string(status))
	}
	var result []ledger.Project
	if err := c.get(ctx, "/api/v1/projects?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetProject(ctx context.Context, idOrCode string) (*ledger.Project, error) {
	var result ledger.Project
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(idOrCode), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateProject changes status and progress. Zero fields are left as
// they are.
func (c *Client) UpdateProject(ctx context.Context, idOrCode string, req server.ProjectRequest) (*ledger.Project, error) {
	var result ledger.Project
	if err := c.patch(ctx, "/api/v1/projects/"+url.PathEscape(idOrCode), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListCosts(ctx context.Context, project string) ([]ledger.ProjectCost, error) {
	var result []ledger.ProjectCost
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(project)+"/costs", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AddCost(ctx context.Context, project string, req server.CostRequest) (*ledger.ProjectCost, error) {
	var result ledger.ProjectCost
	if err := c.post(ctx, "/api/v1/projects/"+url.PathEscape(project)+"/costs", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SetCostStatus(ctx context.Context, id string, status ledger.CostStatus) (*ledger.ProjectCost, error) {
	var result ledger.ProjectCost
	if err := c.patch(ctx, "/api/v1/costs/"+url.PathEscape(id), server.CostRequest{Status: status}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateBilling(ctx context.Context, project string, req server.BillingRequest) (*ledger.Billing, error) {
	var result ledger.Billing
	if err := c.post(ctx, "/api/v1/projects/"+url.PathEscape(project)+"/billings", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListBillings(ctx context.Context, project string) ([]ledger.Billing, error) {
	var result []ledger.Billing
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(project)+"/billings", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) TransitionBilling(ctx context.Context, id string, req server.TransitionRequest) (*billing.Result, error) {
	var result billing.Result
	if err := c.post(ctx, "/api/v1/billings/"+url.PathEscape(id)+"/transition", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ProjectWip(ctx context.Context, project string) (*wip.ProjectWip, error) {
	var result wip.ProjectWip
	if err := c.get(ctx, "/api/v1/projects/"+url.PathEscape(project)+"/wip", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) WipSummary(ctx context.Context) (*wip.Summary, error) {
	var result wip.Summary
	if err := c.get(ctx, "/api/v1/wip", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Reports

func (c *Client) BalanceSheet(ctx context.Context, asOf time.Time) (*ledger.BalanceSheet, error) {
	var result ledger.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalance(ctx context.Context, asOf time.Time) (*ledger.TrialBalance, error) {
	var result ledger.TrialBalance
	if err := c.get(ctx, "/api/v1/reports/trial-balance"+asOfQuery(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Cashflow(ctx context.Context, from, to time.Time) (*ledger.CashflowStatement, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format(ledger.DateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.Format(ledger.DateLayout))
	}
	var result ledger.CashflowStatement
	if err := c.get(ctx, "/api/v1/reports/cashflow?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks if the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/chart", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func asOfQuery(asOf time.Time) string {
	if asOf.IsZero() {
		return ""
	}
	return "?as_of=" + asOf.Format(ledger.DateLayout)
}

func asOfBody(asOf time.Time) server.AsOfRequest {
	if asOf.IsZero() {
		return server.AsOfRequest{}
	}
	return server.AsOfRequest{AsOf: asOf.Format(ledger.DateLayout)}
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, nil)
}

func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, http.MethodPatch, path, body, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.send(ctx, http.MethodPost, path, body, result)
}

func (c *Client) send(ctx context.Context, method, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) doRequest(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(bodyBytes)}
	}

	if result != nil && len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
