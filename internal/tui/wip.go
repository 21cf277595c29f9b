package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/wip"
)

type wipLoadedMsg struct {
	summary *wip.Summary
	err     error
}

type wipModel struct {
	summary *wip.Summary
	loading bool
	err     error
	width   int
	height  int
}

func (m *wipModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		s, err := c.WipSummary(context.Background())
		return wipLoadedMsg{summary: s, err: err}
	}
}

func (m wipModel) update(msg tea.Msg) (wipModel, tea.Cmd) {
	switch msg := msg.(type) {
	case wipLoadedMsg:
		m.loading = false
		m.summary = msg.summary
		m.err = msg.err
	}
	return m, nil
}

func (m *wipModel) view() string {
	if m.loading {
		return "Loading work in progress..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.summary == nil || len(m.summary.Projects) == 0 {
		return dimStyle.Render("No projects. Create one with 'projectledger project create'.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Work in Progress"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-12s %-10s %16s %16s %16s", "PROJECT", "STATUS", "APPROVED COSTS", "BILLED", "WIP")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for _, p := range m.summary.Projects {
		line := fmt.Sprintf("  %-12s %-10s %16s %16s %16s",
			truncate(p.ProjectCode, 12),
			p.Status,
			ledger.FormatAmount(p.Costs),
			ledger.FormatAmount(p.Billed),
			ledger.FormatSigned(p.Value),
		)
		if p.OverBilled {
			b.WriteString(warnStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("  %s\n", strings.Repeat("─", 74)))
	b.WriteString(fmt.Sprintf("  %-56s %16s\n", "Total WIP (ongoing projects)", ledger.FormatAmount(m.summary.Total)))

	if len(m.summary.Warnings) > 0 {
		b.WriteString("\n")
		for _, w := range m.summary.Warnings {
			b.WriteString(warnStyle.Render(fmt.Sprintf("  ! %s: %s (%s)", w.ProjectCode, w.Message, ledger.FormatSigned(w.Value))))
			b.WriteString("\n")
		}
	}
	return b.String()
}
