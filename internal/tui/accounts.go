package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
)

type accountsLoadedMsg struct {
	accounts []ledger.Account
	err      error
}

// accountDeleteConfirmedMsg is sent when the user confirms deletion in the TUI.
type accountDeleteConfirmedMsg struct {
	code string
}

// accountDeletedMsg is sent after the server processes the delete.
type accountDeletedMsg struct {
	code string
	err  error
}

type accountRenameRequestMsg struct {
	code string
	name string
}

type accountRenamedMsg struct {
	code string
	err  error
}

type accountListModel struct {
	accounts      []ledger.Account
	cursor        int
	loading       bool
	err           error
	width         int
	height        int
	confirmDelete bool
	renaming      bool
	target        string
	nameInput     textinput.Model
}

func (m *accountListModel) init(c *client.Client) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		accounts, err := c.ListAccounts(context.Background(), "", "")
		return accountsLoadedMsg{accounts: accounts, err: err}
	}
}

func (m accountListModel) update(msg tea.Msg) (accountListModel, tea.Cmd) {
	switch msg := msg.(type) {
	case accountsLoadedMsg:
		m.loading = false
		m.accounts = msg.accounts
		m.err = msg.err
		if m.cursor >= len(m.accounts) {
			m.cursor = max(len(m.accounts)-1, 0)
		}

	case accountDeletedMsg:
		m.confirmDelete = false
		m.target = ""
		m.err = msg.err

	case accountRenamedMsg:
		m.renaming = false
		m.target = ""
		m.err = msg.err

	case tea.KeyMsg:
		if m.confirmDelete {
			code := m.target
			m.confirmDelete = false
			m.target = ""
			if msg.String() == "y" || msg.String() == "Y" {
				return m, func() tea.Msg { return accountDeleteConfirmedMsg{code: code} }
			}
			return m, nil
		}

		if m.renaming {
			switch {
			case key.Matches(msg, keys.Escape):
				m.renaming = false
				m.target = ""
				return m, nil
			case key.Matches(msg, keys.Enter):
				code, name := m.target, strings.TrimSpace(m.nameInput.Value())
				if name == "" {
					m.err = fmt.Errorf("name is required")
					return m, nil
				}
				return m, func() tea.Msg { return accountRenameRequestMsg{code: code, name: name} }
			}
			var cmd tea.Cmd
			m.nameInput, cmd = m.nameInput.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.accounts)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Delete):
			if code := m.selectedCode(); code != "" {
				m.confirmDelete = true
				m.target = code
				m.err = nil
			}
		case key.Matches(msg, keys.Rename):
			if code := m.selectedCode(); code != "" {
				m.renaming = true
				m.target = code
				m.err = nil
				m.nameInput = textinput.New()
				m.nameInput.CharLimit = 60
				m.nameInput.SetValue(m.accounts[m.cursor].Name)
				return m, m.nameInput.Focus()
			}
		}
	}
	return m, nil
}

// busy reports whether the list is capturing keys for an inline prompt.
func (m *accountListModel) busy() bool {
	return m.confirmDelete || m.renaming
}

func (m *accountListModel) selectedCode() string {
	if m.cursor >= 0 && m.cursor < len(m.accounts) {
		return m.accounts[m.cursor].Code
	}
	return ""
}

func (m *accountListModel) view() string {
	if m.loading {
		return "Loading accounts..."
	}
	if len(m.accounts) == 0 {
		if m.err != nil {
			return errorStyle.Render("Error: " + m.err.Error())
		}
		return dimStyle.Render("No accounts found. Press 'n' to add one from the chart.")
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Accounts"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-6s %-34s %-10s %-16s %s", "CODE", "NAME", "TYPE", "CATEGORY", "NORMAL")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	start, maxRows := visibleWindow(m.cursor, m.height-4)
	for i := start; i < len(m.accounts) && i < start+maxRows; i++ {
		a := m.accounts[i]
		line := fmt.Sprintf("  %-6s %-34s %-10s %-16s %s",
			a.Code, truncate(a.Name, 32), a.Type, a.Category, ledger.NormalSide(a.Type))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	switch {
	case m.confirmDelete:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("  Delete account %s? (y/n)", m.target)))
	case m.renaming:
		b.WriteString(fmt.Sprintf("\n  Rename %s: %s", m.target, m.nameInput.View()))
	default:
		b.WriteString(fmt.Sprintf("\n  %d accounts", len(m.accounts)))
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("  "+m.err.Error()))
	}

	return b.String()
}
