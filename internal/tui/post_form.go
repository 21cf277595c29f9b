package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

type pfStep int

const (
	pfStepTemplate pfStep = iota
	pfStepAccount
	pfStepDirection
	pfStepAmount
	pfStepDescription
	pfStepCounter
	pfStepConfirm
)

type postingCreatedMsg struct {
	posting *ledger.Posting
	err     error
}

// postFormModel walks through one financial event. The engine picks
// debit or credit from the direction and infers the counter account
// when none is given.
type postFormModel struct {
	step        pfStep
	tplCursor   int // 0 is "no template"
	account     textinput.Model
	increase    bool
	amount      textinput.Model
	description textinput.Model
	counter     textinput.Model
	unusual     bool

	err       error
	done      bool
	cancelled bool
	statusMsg string
	width     int
}

func newPostForm() postFormModel {
	account := textinput.New()
	account.Placeholder = "e.g. 5110"
	account.CharLimit = 10

	amount := textinput.New()
	amount.Placeholder = "e.g. 7,500,000"
	amount.CharLimit = 24

	desc := textinput.New()
	desc.Placeholder = "e.g. Cement delivery"
	desc.CharLimit = 100

	counter := textinput.New()
	counter.Placeholder = "blank to infer"
	counter.CharLimit = 10

	return postFormModel{
		step:        pfStepTemplate,
		account:     account,
		increase:    true,
		amount:      amount,
		description: desc,
		counter:     counter,
	}
}

func (m *postFormModel) template() *ledger.EventTemplate {
	if m.tplCursor == 0 {
		return nil
	}
	return &ledger.Templates[m.tplCursor-1]
}

func (m postFormModel) update(msg tea.Msg, c *client.Client) (postFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case postingCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.unusual = strings.Contains(msg.err.Error(), ledger.ErrInvalidCombination.Error())
			return m, nil
		}
		m.done = true
		m.statusMsg = fmt.Sprintf("Posted %s (%d entries)", msg.posting.CorrelationID, len(msg.posting.Entries))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Escape) {
			m.cancelled = true
			return m, nil
		}
		switch m.step {
		case pfStepTemplate:
			return m.updateTemplate(msg)
		case pfStepAccount:
			return m, m.updateText(msg, &m.account, pfStepDirection, "account code is required")
		case pfStepDirection:
			return m.updateDirection(msg)
		case pfStepAmount:
			return m.updateAmount(msg)
		case pfStepDescription:
			return m, m.updateText(msg, &m.description, pfStepCounter, "description is required")
		case pfStepCounter:
			return m, m.updateText(msg, &m.counter, pfStepConfirm, "")
		case pfStepConfirm:
			return m.updateConfirm(msg, c)
		}
	}
	return m, nil
}

func (m postFormModel) updateTemplate(msg tea.KeyMsg) (postFormModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.tplCursor > 0 {
			m.tplCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.tplCursor < len(ledger.Templates) {
			m.tplCursor++
		}
	case key.Matches(msg, keys.Enter):
		if tpl := m.template(); tpl != nil {
			m.account.SetValue(tpl.AccountCode)
			m.increase = tpl.Direction == ledger.Increase
			m.counter.SetValue(tpl.CounterAccountCode)
			m.description.SetValue(tpl.Name)
		}
		m.step = pfStepAccount
		return m, m.account.Focus()
	}
	return m, nil
}

// updateText edits input and advances to next on enter. An empty
// required message makes the field optional.
func (m *postFormModel) updateText(msg tea.KeyMsg, input *textinput.Model, next pfStep, required string) tea.Cmd {
	if key.Matches(msg, keys.Enter) {
		if required != "" && strings.TrimSpace(input.Value()) == "" {
			m.err = errors.New(required)
			return nil
		}
		m.err = nil
		input.Blur()
		m.step = next
		return m.focusStep()
	}
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return cmd
}

func (m postFormModel) updateDirection(msg tea.KeyMsg) (postFormModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
		m.increase = !m.increase
	case key.Matches(msg, keys.Enter):
		m.step = pfStepAmount
		return m, m.amount.Focus()
	}
	return m, nil
}

func (m postFormModel) updateAmount(msg tea.KeyMsg) (postFormModel, tea.Cmd) {
	if key.Matches(msg, keys.Enter) {
		if _, err := ledger.ParsePositiveAmount(m.amount.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.amount.Blur()
		m.step = pfStepDescription
		return m, m.description.Focus()
	}
	var cmd tea.Cmd
	m.amount, cmd = m.amount.Update(msg)
	return m, cmd
}

func (m *postFormModel) focusStep() tea.Cmd {
	switch m.step {
	case pfStepAccount:
		return m.account.Focus()
	case pfStepDescription:
		return m.description.Focus()
	case pfStepCounter:
		return m.counter.Focus()
	}
	return nil
}

func (m postFormModel) updateConfirm(msg tea.KeyMsg, c *client.Client) (postFormModel, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return m, m.submit(c, false)
	case "u", "U":
		if m.unusual {
			return m, m.submit(c, true)
		}
	case "n", "N":
		m.cancelled = true
	}
	return m, nil
}

func (m *postFormModel) request(confirmUnusual bool) server.PostingRequest {
	amount, _ := ledger.ParsePositiveAmount(m.amount.Value())
	dir := ledger.Decrease
	if m.increase {
		dir = ledger.Increase
	}
	return server.PostingRequest{
		AccountCode:        strings.TrimSpace(m.account.Value()),
		Amount:             amount,
		Direction:          dir,
		Description:        strings.TrimSpace(m.description.Value()),
		CounterAccountCode: strings.TrimSpace(m.counter.Value()),
		ConfirmUnusual:     confirmUnusual,
	}
}

func (m *postFormModel) submit(c *client.Client, confirmUnusual bool) tea.Cmd {
	req := m.request(confirmUnusual)
	return func() tea.Msg {
		p, err := c.Post(context.Background(), req)
		return postingCreatedMsg{posting: p, err: err}
	}
}

func (m *postFormModel) view() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Post Financial Event"))
	b.WriteString("\n")

	switch m.step {
	case pfStepTemplate:
		b.WriteString("Start from a template:\n\n")
		opts := []string{"(none)"}
		for _, t := range ledger.Templates {
			opts = append(opts, t.Name)
		}
		for i, o := range opts {
			if i == m.tplCursor {
				b.WriteString(selectedStyle.Render("  > " + o))
			} else {
				b.WriteString("    " + o)
			}
			b.WriteString("\n")
		}
		if tpl := m.template(); tpl != nil {
			b.WriteString("\n" + hintBoxStyle.Width(min(max(m.width-4, 40), 80)).Render(tpl.Description))
		}
	case pfStepAccount:
		b.WriteString("Primary account: " + m.account.View())
	case pfStepDirection:
		b.WriteString("Direction:\n\n")
		for _, inc := range []bool{true, false} {
			label := string(ledger.Decrease)
			if inc {
				label = string(ledger.Increase)
			}
			if inc == m.increase {
				b.WriteString(selectedStyle.Render("  > " + label))
			} else {
				b.WriteString("    " + label)
			}
			b.WriteString("\n")
		}
	case pfStepAmount:
		b.WriteString("Amount: " + m.amount.View())
	case pfStepDescription:
		b.WriteString("Description: " + m.description.View())
	case pfStepCounter:
		b.WriteString("Counter account: " + m.counter.View())
	case pfStepConfirm:
		req := m.request(false)
		counter := req.CounterAccountCode
		if counter == "" {
			counter = "(inferred)"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Account:"), req.AccountCode))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Direction:"), req.Direction))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Amount:"), ledger.FormatAmount(req.Amount)))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Description:"), req.Description))
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Counter:"), counter))
		b.WriteString("\nPost this event? (y/n)")
		if m.unusual {
			b.WriteString(warnStyle.Render("  u: post anyway"))
		}
	}

	if m.err != nil {
		b.WriteString("\n\n" + errorStyle.Render("  "+m.err.Error()))
	}
	b.WriteString("\n\n" + dimStyle.Render("  esc: cancel"))
	return b.String()
}
