package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

type balanceSheetLoadedMsg struct {
	bs  *ledger.BalanceSheet
	err error
}

type balanceSheetModel struct {
	bs      *ledger.BalanceSheet
	loading bool
	err     error
	width   int
	height  int
}

func (m *balanceSheetModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		bs, err := c.BalanceSheet(context.Background(), time.Time{})
		return balanceSheetLoadedMsg{bs: bs, err: err}
	}
}

func (m balanceSheetModel) update(msg tea.Msg) (balanceSheetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceSheetLoadedMsg:
		m.loading = false
		m.bs = msg.bs
		m.err = msg.err
	}
	return m, nil
}

func (m *balanceSheetModel) view() string {
	if m.loading {
		return "Loading balance sheet..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.bs == nil {
		return dimStyle.Render("No data available.")
	}

	var b strings.Builder
	w := m.width
	if w < 60 {
		w = 80
	}

	// NAME column flexes: indent(4) + code(6) + gaps(3) + amount(16) = 29
	nameW := min(max(w-29, 10), 40)
	totalLabelW := nameW + 7

	b.WriteString(titleStyle.Render(centerStr("BALANCE SHEET", w)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(centerStr("as of "+m.bs.AsOf.Format(ledger.DateLayout), w)))
	b.WriteString("\n\n")

	renderSection := func(title string, lines []ledger.BalanceSheetLine, total decimal.Decimal) {
		b.WriteString(fmt.Sprintf("  %s\n", headerStyle.Render(title)))
		if len(lines) == 0 {
			b.WriteString(dimStyle.Render("    (no entries)") + "\n")
		}
		for _, l := range lines {
			b.WriteString(fmt.Sprintf("    %-6s %-*s %16s\n",
				l.AccountCode, nameW, truncate(l.AccountName, nameW), ledger.FormatSigned(l.Balance)))
		}
		b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("─", totalLabelW+17)))
		b.WriteString(fmt.Sprintf("    %-*s %16s\n\n", totalLabelW, "Total "+title, ledger.FormatSigned(total)))
	}

	renderSection("Assets", m.bs.Assets, m.bs.TotalAssets)
	renderSection("Liabilities", m.bs.Liabilities, m.bs.TotalLiabilities)
	renderSection("Equity", m.bs.Equity, m.bs.TotalEquity)

	b.WriteString(fmt.Sprintf("    %s\n", strings.Repeat("═", totalLabelW+17)))
	b.WriteString(fmt.Sprintf("    %-*s %16s\n",
		totalLabelW, "Total L + E", ledger.FormatSigned(m.bs.TotalLiabilities.Add(m.bs.TotalEquity))))

	if !m.bs.WorkInProgress.IsZero() {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("    %-*s %16s", totalLabelW, "Work in progress (memo)", ledger.FormatAmount(m.bs.WorkInProgress))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.bs.Balanced {
		b.WriteString(successStyle.Render("    [BALANCED]"))
	} else {
		b.WriteString(errorStyle.Render("    [UNBALANCED!]"))
	}

	return b.String()
}

func centerStr(s string, w int) string {
	if len(s) >= w {
		return s
	}
	pad := (w - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
