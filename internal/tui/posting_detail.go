package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

type postingDetailLoadedMsg struct {
	posting *ledger.Posting
	err     error
}

type postingReversedMsg struct {
	original string
	reversal *ledger.Posting
	err      error
}

type postingDetailModel struct {
	posting        *ledger.Posting
	loading        bool
	confirmReverse bool
	err            error
	width          int
}

func (m *postingDetailModel) init(c *client.Client, correlationID string) tea.Cmd {
	m.loading = true
	m.confirmReverse = false
	return func() tea.Msg {
		p, err := c.GetPosting(context.Background(), correlationID)
		return postingDetailLoadedMsg{posting: p, err: err}
	}
}

func (m postingDetailModel) update(msg tea.Msg, c *client.Client) (postingDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postingDetailLoadedMsg:
		m.loading = false
		m.posting = msg.posting
		m.err = msg.err

	case postingReversedMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if m.confirmReverse {
			m.confirmReverse = false
			if msg.String() == "y" || msg.String() == "Y" {
				id := m.posting.CorrelationID
				return m, func() tea.Msg {
					p, err := c.Reverse(context.Background(), id, server.ReverseRequest{})
					return postingReversedMsg{original: id, reversal: p, err: err}
				}
			}
			return m, nil
		}
		if key.Matches(msg, keys.Reverse) && m.posting != nil {
			m.confirmReverse = true
			m.err = nil
		}
	}
	return m, nil
}

func (m *postingDetailModel) view() string {
	if m.loading {
		return "Loading posting..."
	}
	if m.posting == nil {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Posting: %s", m.posting.CorrelationID)))
	b.WriteString("\n")

	if len(m.posting.Entries) > 0 {
		first := m.posting.Entries[0]
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), first.Description))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Date:"), first.Date.Format(ledger.DateLayout)))
		if first.ProjectID != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Project:"), first.ProjectID))
		}
		if first.SourceRef != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Source:"), first.SourceRef))
		}
		if first.ReversesCorrelationID != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Reverses:"), first.ReversesCorrelationID))
		}
	}
	b.WriteString(fmt.Sprintf("%s %v\n", labelStyle.Render("Balanced:"), m.posting.Balanced()))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-4s %-8s %16s %16s  %s", "TYPE", "ACCOUNT", "DEBIT", "CREDIT", "DIRECTION")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, e := range m.posting.Entries {
		debit, credit, side := "", "", "DR"
		if e.Side == ledger.Debit {
			debit = ledger.FormatAmount(e.Amount)
		} else {
			credit = ledger.FormatAmount(e.Amount)
			side = "CR"
		}
		line := fmt.Sprintf("  %-4s %-8s %16s %16s  %s", side, e.AccountCode, debit, credit, e.Direction)
		if e.Side == ledger.Debit {
			b.WriteString(debitStyle.Render(line))
		} else {
			b.WriteString(creditStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.confirmReverse {
		b.WriteString("\n" + errorStyle.Render("  Post a reversal of this posting? (y/n)"))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}
	b.WriteString("\n" + dimStyle.Render("  x: reverse  esc: back"))
	return b.String()
}
