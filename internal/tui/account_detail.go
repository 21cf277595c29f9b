package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

type accountDetailLoadedMsg struct {
	account *ledger.Account
	balance *client.BalanceResponse
	entries []ledger.Entry
	err     error
}

type accountDetailModel struct {
	account *ledger.Account
	balance *client.BalanceResponse
	entries []ledger.Entry
	loading bool
	err     error
	width   int
}

func (m *accountDetailModel) init(c *client.Client, code string) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		ctx := context.Background()
		acct, err := c.GetAccount(ctx, code)
		if err != nil {
			return accountDetailLoadedMsg{err: err}
		}
		bal, err := c.GetAccountBalance(ctx, code, time.Time{})
		if err != nil {
			return accountDetailLoadedMsg{account: acct, err: err}
		}
		entries, err := c.ListAccountEntries(ctx, code)
		return accountDetailLoadedMsg{account: acct, balance: bal, entries: entries, err: err}
	}
}

func (m accountDetailModel) update(msg tea.Msg) (accountDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountDetailLoadedMsg:
		m.loading = false
		m.account = msg.account
		m.balance = msg.balance
		m.entries = msg.entries
		m.err = msg.err
	}
	return m, nil
}

func (m *accountDetailModel) view() string {
	if m.loading {
		return "Loading account..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.account == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Account: %s", m.account.Code)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Name:"), m.account.Name))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Type:"), ledger.AccountTypeLabel(m.account.Type)))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Category:"), m.account.Category))
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Normal side:"), ledger.NormalSide(m.account.Type)))
	if m.balance != nil {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Balance:"), m.balance.Formatted))
	}
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString(dimStyle.Render("  No entries."))
	} else {
		header := fmt.Sprintf("  %-10s %-6s %16s  %-36s", "DATE", "SIDE", "AMOUNT", "DESCRIPTION")
		b.WriteString(headerStyle.Render(header))
		b.WriteString("\n")

		for _, e := range m.entries {
			line := fmt.Sprintf("  %-10s %-6s %16s  %-36s",
				e.Date.Format(ledger.DateLayout), e.Side, ledger.FormatAmount(e.Amount), truncate(e.Description, 36))
			if e.Side == ledger.Debit {
				b.WriteString(debitStyle.Render(line))
			} else {
				b.WriteString(creditStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("  Press ESC to go back"))
	return b.String()
}
