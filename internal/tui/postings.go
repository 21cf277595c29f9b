package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

const ledgerPageSize = 500

type postingsLoadedMsg struct {
	rows []postingRow
	err  error
}

// postingRow summarises the entries sharing one correlation ID.
type postingRow struct {
	correlationID string
	date          time.Time
	description   string
	accountCode   string
	amount        decimal.Decimal
	entries       int
	reversal      bool
}

// groupPostings collapses entries into postings, newest first. The
// first entry of each posting is taken as its primary entry.
func groupPostings(entries []ledger.Entry) []postingRow {
	index := make(map[string]int)
	var rows []postingRow
	for _, e := range entries {
		i, ok := index[e.CorrelationID]
		if !ok {
			i = len(rows)
			index[e.CorrelationID] = i
			rows = append(rows, postingRow{
				correlationID: e.CorrelationID,
				date:          e.Date,
				description:   e.Description,
				accountCode:   e.AccountCode,
				amount:        e.Amount,
				reversal:      e.ReversesCorrelationID != "",
			})
		}
		rows[i].entries++
	}
	slices.Reverse(rows)
	return rows
}

type postingListModel struct {
	rows    []postingRow
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *postingListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		entries, err := c.ListEntries(context.Background(), client.EntryQuery{Limit: ledgerPageSize})
		if err != nil {
			return postingsLoadedMsg{err: err}
		}
		return postingsLoadedMsg{rows: groupPostings(entries)}
	}
}

func (m postingListModel) update(msg tea.Msg) (postingListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postingsLoadedMsg:
		m.loading = false
		m.rows = msg.rows
		m.err = msg.err
		if m.cursor >= len(m.rows) {
			m.cursor = max(len(m.rows)-1, 0)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *postingListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor].correlationID
	}
	return ""
}

func (m *postingListModel) view() string {
	if m.loading {
		return "Loading ledger..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.rows) == 0 {
		return dimStyle.Render("No postings yet. Press 'p' to post an event.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Ledger"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-10s %-8s %-7s %16s  %s", "DATE", "ACCOUNT", "ENTRIES", "AMOUNT", "DESCRIPTION")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, maxRows := visibleWindow(m.cursor, m.height-4)
	for i := start; i < len(m.rows) && i < start+maxRows; i++ {
		r := m.rows[i]
		desc := r.description
		if r.reversal {
			desc = "↺ " + desc
		}
		line := fmt.Sprintf("  %-10s %-8s %-7d %16s  %s",
			r.date.Format(ledger.DateLayout),
			r.accountCode,
			r.entries,
			ledger.FormatAmount(r.amount),
			truncate(desc, 40),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d postings", len(m.rows)))
	return b.String()
}
