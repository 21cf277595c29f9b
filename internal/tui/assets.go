package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
)

type assetsLoadedMsg struct {
	assets []ledger.FixedAsset
	err    error
}

type depreciationRunMsg struct {
	report *depreciation.Report
	err    error
}

type assetListModel struct {
	assets  []ledger.FixedAsset
	cursor  int
	loading bool
	err     error
	width   int
	height  int
}

func (m *assetListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		assets, err := c.ListAssets(context.Background())
		return assetsLoadedMsg{assets: assets, err: err}
	}
}

// runDepreciation catches every asset up to today.
func runDepreciation(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		report, err := c.RunDepreciation(context.Background(), ledger.Day(time.Now()))
		return depreciationRunMsg{report: report, err: err}
	}
}

func (m assetListModel) update(msg tea.Msg) (assetListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case assetsLoadedMsg:
		m.loading = false
		m.assets = msg.assets
		m.err = msg.err
		if m.cursor >= len(m.assets) {
			m.cursor = max(len(m.assets)-1, 0)
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.assets)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

func (m *assetListModel) selectedID() string {
	if m.cursor >= 0 && m.cursor < len(m.assets) {
		return m.assets[m.cursor].ID
	}
	return ""
}

func (m *assetListModel) view() string {
	if m.loading {
		return "Loading assets..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.assets) == 0 {
		return dimStyle.Render("No fixed assets. Register one with 'projectledger asset create'.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Fixed Assets"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-26s %-10s %4s %16s %16s %-10s", "NAME", "ACQUIRED", "LIFE", "VALUE", "BOOK VALUE", "LAST RUN")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, maxRows := visibleWindow(m.cursor, m.height-4)
	for i := start; i < len(m.assets) && i < start+maxRows; i++ {
		a := m.assets[i]
		last := "-"
		if a.LastDepreciatedAt != nil {
			last = a.LastDepreciatedAt.Format(ledger.DateLayout)
		}
		line := fmt.Sprintf("  %-26s %-10s %4d %16s %16s %-10s",
			truncate(a.Name, 26),
			a.AcquisitionDate.Format(ledger.DateLayout),
			a.UsefulLife,
			ledger.FormatAmount(a.Value),
			ledger.FormatAmount(a.BookValue),
			last,
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\n  %d assets", len(m.assets)))
	return b.String()
}

type scheduleLoadedMsg struct {
	asset       *ledger.FixedAsset
	granularity depreciation.Granularity
	periods     []depreciation.Period
	err         error
}

type scheduleModel struct {
	assetID     string
	asset       *ledger.FixedAsset
	granularity depreciation.Granularity
	periods     []depreciation.Period
	cursor      int
	loading     bool
	err         error
	width       int
	height      int
}

func (m *scheduleModel) init(c *client.Client, assetID string, g depreciation.Granularity) tea.Cmd {
	m.loading = true
	m.assetID = assetID
	m.granularity = g
	m.cursor = 0
	return func() tea.Msg {
		resp, err := c.AssetSchedule(context.Background(), assetID, g)
		if err != nil {
			return scheduleLoadedMsg{granularity: g, err: err}
		}
		return scheduleLoadedMsg{asset: resp.Asset, granularity: resp.Granularity, periods: resp.Periods}
	}
}

func (m scheduleModel) update(msg tea.Msg, c *client.Client) (scheduleModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scheduleLoadedMsg:
		m.loading = false
		m.asset = msg.asset
		m.granularity = msg.granularity
		m.periods = msg.periods
		m.err = msg.err

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.periods)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Granularity):
			next := depreciation.Monthly
			if m.granularity == depreciation.Monthly {
				next = depreciation.Yearly
			}
			cmd := m.init(c, m.assetID, next)
			return m, cmd
		}
	}
	return m, nil
}

func (m *scheduleModel) view() string {
	if m.loading {
		return "Loading schedule..."
	}
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.asset == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s schedule", m.asset.Name, m.granularity)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Value:"), ledger.FormatAmount(m.asset.Value)))
	b.WriteString(fmt.Sprintf("%s %d years\n", labelStyle.Render("Useful life:"), m.asset.UsefulLife))
	b.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("Book value:"), ledger.FormatAmount(m.asset.BookValue)))

	header := fmt.Sprintf("  %4s %-10s %-10s %16s %16s %16s", "#", "START", "END", "DEPRECIATION", "ACCUMULATED", "ENDING")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, maxRows := visibleWindow(m.cursor, m.height-10)
	for i := start; i < len(m.periods) && i < start+maxRows; i++ {
		p := m.periods[i]
		line := fmt.Sprintf("  %4d %-10s %-10s %16s %16s %16s",
			p.Index,
			p.Start.Format(ledger.DateLayout),
			p.End.Format(ledger.DateLayout),
			ledger.FormatAmount(p.PeriodDepreciation),
			ledger.FormatAmount(p.AccumulatedDepreciation),
			ledger.FormatAmount(p.EndingValue),
		)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n" + dimStyle.Render("  g: yearly/monthly  esc: back"))
	return b.String()
}
