package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

func TestGroupPostings(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	entries := []ledger.Entry{
		{CorrelationID: "a", Date: day, AccountCode: "5110", Amount: decimal.NewFromInt(100), Description: "Cement"},
		{CorrelationID: "a", Date: day, AccountCode: "1120", Amount: decimal.NewFromInt(100), Description: "Cement", IsCounterEntry: true},
		{CorrelationID: "b", Date: day, AccountCode: "5110", Amount: decimal.NewFromInt(100), Description: "Reversal: Cement", ReversesCorrelationID: "a"},
		{CorrelationID: "b", Date: day, AccountCode: "1120", Amount: decimal.NewFromInt(100), Description: "Reversal: Cement", ReversesCorrelationID: "a"},
		{CorrelationID: "c", Date: day, AccountCode: "3110", Amount: decimal.NewFromInt(5), Description: "Capital"},
	}

	rows := groupPostings(entries)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[0].correlationID)
	assert.Equal(t, 1, rows[0].entries)
	assert.Equal(t, "b", rows[1].correlationID)
	assert.True(t, rows[1].reversal)
	assert.Equal(t, "a", rows[2].correlationID)
	assert.Equal(t, "5110", rows[2].accountCode)
	assert.Equal(t, 2, rows[2].entries)
	assert.False(t, rows[2].reversal)
}

func TestMissingChartEntries(t *testing.T) {
	chart := []ledger.ChartEntry{{Code: "1110"}, {Code: "1120"}, {Code: "4110"}}
	existing := []ledger.Account{{Code: "1120"}}

	missing := missingChartEntries(chart, existing)
	require.Len(t, missing, 2)
	assert.Equal(t, "1110", missing[0].Code)
	assert.Equal(t, "4110", missing[1].Code)
	assert.Empty(t, missingChartEntries(chart[1:2], existing))
}

func TestAppTabs(t *testing.T) {
	app := NewApp(client.New("http://127.0.0.1:0"))
	_, _ = app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	tab := tea.KeyMsg{Type: tea.KeyTab}
	for _, want := range []mode{modeLedger, modeAssets, modeWip, modeBalanceSheet, modeAccountList} {
		_, _ = app.Update(tab)
		assert.Equal(t, want, app.mode)
	}

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, modeBalanceSheet, app.mode)
	assert.Contains(t, app.View(), "Balance Sheet")
}

func TestAppPostFormCancel(t *testing.T) {
	app := NewApp(client.New("http://127.0.0.1:0"))

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	require.Equal(t, modePostForm, app.mode)
	assert.Contains(t, app.View(), "Post Financial Event")

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeLedger, app.mode)
	assert.Equal(t, 1, app.tabIndex)
	assert.Equal(t, "Posting cancelled", app.statusMsg)
}

func TestPostFormTemplatePrefill(t *testing.T) {
	m := newPostForm()
	c := client.New("http://127.0.0.1:0")

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyDown}, c)
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}, c)
	require.Equal(t, pfStepAccount, m.step)

	tpl := ledger.Templates[0]
	assert.Equal(t, tpl.AccountCode, m.account.Value())
	assert.Equal(t, tpl.CounterAccountCode, m.counter.Value())

	// Amount must parse before moving on.
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}, c)
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}, c)
	require.Equal(t, pfStepAmount, m.step)
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}, c)
	assert.Error(t, m.err)
	assert.Equal(t, pfStepAmount, m.step)

	m.amount.SetValue("7,500,000")
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEnter}, c)
	assert.NoError(t, m.err)
	assert.Equal(t, pfStepDescription, m.step)

	req := m.request(false)
	assert.Equal(t, "7500000", req.Amount.String())
	assert.Equal(t, ledger.Increase, req.Direction)
}
