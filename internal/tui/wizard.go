package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

type chartLoadedMsg struct {
	entries []ledger.ChartEntry
	err     error
}

type accountCreatedMsg struct {
	account *ledger.Account
	err     error
}

// wizardModel adds accounts from the standard chart that the ledger
// does not have yet.
type wizardModel struct {
	entries   []ledger.ChartEntry
	cursor    int
	loading   bool
	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
	height    int
}

func newWizard() wizardModel {
	return wizardModel{loading: true}
}

func (m *wizardModel) load(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		chart, err := c.GetChart(ctx)
		if err != nil {
			return chartLoadedMsg{err: err}
		}
		existing, err := c.ListAccounts(ctx, "", "")
		if err != nil {
			return chartLoadedMsg{err: err}
		}
		return chartLoadedMsg{entries: missingChartEntries(chart, existing)}
	}
}

// missingChartEntries returns the chart entries with no account yet,
// in chart order.
func missingChartEntries(chart []ledger.ChartEntry, existing []ledger.Account) []ledger.ChartEntry {
	have := make(map[string]bool, len(existing))
	for _, a := range existing {
		have[a.Code] = true
	}
	var out []ledger.ChartEntry
	for _, e := range chart {
		if !have[e.Code] {
			out = append(out, e)
		}
	}
	return out
}

func (m wizardModel) update(msg tea.Msg, c *client.Client) (wizardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case chartLoadedMsg:
		m.loading = false
		m.entries = msg.entries
		m.err = msg.err

	case accountCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Account %s (%s) created", msg.account.Code, msg.account.Name)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Escape):
			m.cancelled = true
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if m.cursor >= len(m.entries) {
				return m, nil
			}
			acct := m.entries[m.cursor].Account()
			m.err = nil
			return m, func() tea.Msg {
				created, err := c.CreateAccount(context.Background(), &acct)
				return accountCreatedMsg{account: created, err: err}
			}
		}
	}
	return m, nil
}

func (m *wizardModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Add Account from Chart"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString("Loading chart of accounts...")
	case len(m.entries) == 0 && m.err == nil:
		b.WriteString(dimStyle.Render("  Every chart account already exists."))
	default:
		header := fmt.Sprintf("  %-6s %-34s %-10s %s", "CODE", "NAME", "TYPE", "CATEGORY")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		start, maxRows := visibleWindow(m.cursor, m.height-10)
		for i := start; i < len(m.entries) && i < start+maxRows; i++ {
			e := m.entries[i]
			line := fmt.Sprintf("  %-6s %-34s %-10s %s", e.Code, truncate(e.Name, 32), e.Type, e.Category)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + line[2:]))
			} else {
				b.WriteString(line)
			}
			b.WriteString("\n")
		}
		if m.cursor < len(m.entries) && m.entries[m.cursor].Description != "" {
			b.WriteString("\n" + hintBoxStyle.Width(min(max(m.width-4, 40), 80)).Render(m.entries[m.cursor].Description))
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}
	b.WriteString("\n" + dimStyle.Render("  enter: create  esc: cancel"))
	return b.String()
}
