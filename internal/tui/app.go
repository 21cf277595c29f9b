package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/depreciation"
)

type mode int

const (
	modeAccountList mode = iota
	modeAccountDetail
	modeLedger
	modePostingDetail
	modeAssets
	modeAssetSchedule
	modeWip
	modeBalanceSheet
	modeWizard
	modePostForm
)

var tabModes = []mode{modeAccountList, modeLedger, modeAssets, modeWip, modeBalanceSheet}

func tabLabel(m mode) string {
	switch m {
	case modeAccountList:
		return "Accounts"
	case modeLedger:
		return "Ledger"
	case modeAssets:
		return "Assets"
	case modeWip:
		return "WIP"
	case modeBalanceSheet:
		return "Balance Sheet"
	default:
		return ""
	}
}

type App struct {
	client        *client.Client
	mode          mode
	tabIndex      int
	width, height int
	err           error
	statusMsg     string

	accountList   accountListModel
	accountDetail accountDetailModel
	ledgerList    postingListModel
	postingDetail postingDetailModel
	assets        assetListModel
	schedule      scheduleModel
	wip           wipModel
	balanceSheet  balanceSheetModel
	wizard        wizardModel
	postForm      postFormModel
}

func NewApp(c *client.Client) *App {
	return &App{
		client:   c,
		mode:     modeAccountList,
		tabIndex: 0,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.accountList.init(a.client),
		a.ledgerList.init(a.client),
		a.assets.init(a.client),
		a.wip.init(a.client),
		a.balanceSheet.init(a.client),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		a.resize(msg.Width, msg.Height)
		return a, nil
	}

	// Loads fire for every tab at once, so data messages are routed by
	// type rather than by the active mode.
	switch typedMsg := msg.(type) {
	case accountsLoadedMsg:
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	case postingsLoadedMsg:
		var cmd tea.Cmd
		a.ledgerList, cmd = a.ledgerList.update(msg)
		return a, cmd
	case assetsLoadedMsg:
		var cmd tea.Cmd
		a.assets, cmd = a.assets.update(msg)
		return a, cmd
	case wipLoadedMsg:
		var cmd tea.Cmd
		a.wip, cmd = a.wip.update(msg)
		return a, cmd
	case balanceSheetLoadedMsg:
		var cmd tea.Cmd
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
		return a, cmd
	case accountDetailLoadedMsg:
		var cmd tea.Cmd
		a.accountDetail, cmd = a.accountDetail.update(msg)
		return a, cmd
	case postingDetailLoadedMsg:
		var cmd tea.Cmd
		a.postingDetail, cmd = a.postingDetail.update(msg, a.client)
		return a, cmd
	case scheduleLoadedMsg:
		var cmd tea.Cmd
		a.schedule, cmd = a.schedule.update(msg, a.client)
		return a, cmd
	case accountDeleteConfirmedMsg:
		code := typedMsg.code
		return a, func() tea.Msg {
			err := a.client.DeleteAccount(context.Background(), code)
			return accountDeletedMsg{code: code, err: err}
		}
	case accountDeletedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account " + typedMsg.code + " deleted"
		return a, tea.Batch(a.accountList.init(a.client), a.balanceSheet.init(a.client))
	case accountRenameRequestMsg:
		code, name := typedMsg.code, typedMsg.name
		return a, func() tea.Msg {
			_, err := a.client.UpdateAccount(context.Background(), code, name, "")
			return accountRenamedMsg{code: code, err: err}
		}
	case accountRenamedMsg:
		a.accountList, _ = a.accountList.update(msg)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = "Account " + typedMsg.code + " renamed"
		return a, tea.Batch(a.accountList.init(a.client), a.balanceSheet.init(a.client))
	case postingReversedMsg:
		a.postingDetail, _ = a.postingDetail.update(msg, a.client)
		if typedMsg.err != nil {
			return a, nil
		}
		a.statusMsg = fmt.Sprintf("Reversed %s as %s", typedMsg.original, typedMsg.reversal.CorrelationID)
		return a, tea.Batch(
			a.postingDetail.init(a.client, typedMsg.reversal.CorrelationID),
			a.refreshData(),
		)
	case depreciationRunMsg:
		if typedMsg.err != nil {
			a.err = typedMsg.err
			return a, nil
		}
		a.err = nil
		a.statusMsg = depreciationStatus(typedMsg.report)
		return a, a.refreshData()
	}

	// Modal modes: delegate ALL message types (not just keys)
	if a.mode == modeWizard {
		var cmd tea.Cmd
		a.wizard, cmd = a.wizard.update(msg, a.client)
		if a.wizard.done {
			a.mode = modeAccountList
			a.statusMsg = a.wizard.statusMsg
			return a, tea.Batch(a.accountList.init(a.client), a.balanceSheet.init(a.client))
		}
		if a.wizard.cancelled {
			a.mode = modeAccountList
			a.statusMsg = "Account creation cancelled"
		}
		return a, cmd
	}

	if a.mode == modePostForm {
		var cmd tea.Cmd
		a.postForm, cmd = a.postForm.update(msg, a.client)
		if a.postForm.done {
			a.mode, a.tabIndex = modeLedger, 1
			a.statusMsg = a.postForm.statusMsg
			return a, a.refreshData()
		}
		if a.postForm.cancelled {
			a.mode, a.tabIndex = modeLedger, 1
			a.statusMsg = "Posting cancelled"
		}
		return a, cmd
	}

	// Inline prompts capture every key
	if a.mode == modeAccountList && a.accountList.busy() {
		var cmd tea.Cmd
		a.accountList, cmd = a.accountList.update(msg)
		return a, cmd
	}
	if a.mode == modePostingDetail && a.postingDetail.confirmReverse {
		var cmd tea.Cmd
		a.postingDetail, cmd = a.postingDetail.update(msg, a.client)
		return a, cmd
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit

		case key.Matches(msg, keys.Tab):
			a.tabIndex = (a.tabIndex + 1) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.ShiftTab):
			a.tabIndex = (a.tabIndex - 1 + len(tabModes)) % len(tabModes)
			a.mode = tabModes[a.tabIndex]
			a.statusMsg = ""
			return a, a.refreshTab()

		case key.Matches(msg, keys.Refresh):
			return a, a.refreshData()

		case key.Matches(msg, keys.Escape):
			switch a.mode {
			case modeAccountDetail:
				a.mode = modeAccountList
			case modePostingDetail:
				a.mode = modeLedger
			case modeAssetSchedule:
				a.mode = modeAssets
			}
			return a, nil

		case key.Matches(msg, keys.New):
			if a.mode == modeAccountList {
				a.mode = modeWizard
				a.wizard = newWizard()
				a.wizard.width, a.wizard.height = a.width, a.height
				return a, a.wizard.load(a.client)
			}

		case key.Matches(msg, keys.NewPosting):
			if a.mode == modeLedger || a.mode == modeAccountList {
				a.mode = modePostForm
				a.postForm = newPostForm()
				a.postForm.width = a.width
				return a, nil
			}

		case key.Matches(msg, keys.RunDeprec):
			if a.mode == modeAssets {
				a.statusMsg = "Running depreciation..."
				return a, runDepreciation(a.client)
			}

		case key.Matches(msg, keys.Enter):
			switch a.mode {
			case modeAccountList:
				if code := a.accountList.selectedCode(); code != "" {
					a.mode = modeAccountDetail
					return a, a.accountDetail.init(a.client, code)
				}
				return a, nil
			case modeLedger:
				if id := a.ledgerList.selectedID(); id != "" {
					a.mode = modePostingDetail
					return a, a.postingDetail.init(a.client, id)
				}
				return a, nil
			case modeAssets:
				if id := a.assets.selectedID(); id != "" {
					a.mode = modeAssetSchedule
					return a, a.schedule.init(a.client, id, depreciation.Yearly)
				}
				return a, nil
			}
		}
	}

	// Delegate update to active sub-model
	var cmd tea.Cmd
	switch a.mode {
	case modeAccountList:
		a.accountList, cmd = a.accountList.update(msg)
	case modeAccountDetail:
		a.accountDetail, cmd = a.accountDetail.update(msg)
	case modeLedger:
		a.ledgerList, cmd = a.ledgerList.update(msg)
	case modePostingDetail:
		a.postingDetail, cmd = a.postingDetail.update(msg, a.client)
	case modeAssets:
		a.assets, cmd = a.assets.update(msg)
	case modeAssetSchedule:
		a.schedule, cmd = a.schedule.update(msg, a.client)
	case modeWip:
		a.wip, cmd = a.wip.update(msg)
	case modeBalanceSheet:
		a.balanceSheet, cmd = a.balanceSheet.update(msg)
	}
	return a, cmd
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	a.accountList.width, a.accountList.height = w, h-6
	a.accountDetail.width = w
	a.ledgerList.width, a.ledgerList.height = w, h-6
	a.postingDetail.width = w
	a.assets.width, a.assets.height = w, h-6
	a.schedule.width, a.schedule.height = w, h-6
	a.wip.width, a.wip.height = w, h-6
	a.balanceSheet.width, a.balanceSheet.height = w, h-6
	a.wizard.width, a.wizard.height = w, h-6
	a.postForm.width = w
}

func (a *App) refreshTab() tea.Cmd {
	switch a.mode {
	case modeAccountList:
		return a.accountList.init(a.client)
	case modeLedger:
		return a.ledgerList.init(a.client)
	case modeAssets:
		return a.assets.init(a.client)
	case modeWip:
		return a.wip.init(a.client)
	case modeBalanceSheet:
		return a.balanceSheet.init(a.client)
	}
	return nil
}

// refreshData reloads every view a posting can change.
func (a *App) refreshData() tea.Cmd {
	return tea.Batch(
		a.ledgerList.init(a.client),
		a.assets.init(a.client),
		a.wip.init(a.client),
		a.balanceSheet.init(a.client),
	)
}

func depreciationStatus(r *depreciation.Report) string {
	s := fmt.Sprintf("Depreciation: %d processed, %d updated", r.Processed, r.Updated)
	if n := len(r.Errors); n > 0 {
		s += fmt.Sprintf(", %d errors", n)
	}
	return s
}

func (a *App) helpText() string {
	switch a.mode {
	case modeAccountList:
		return "tab:switch  enter:select  n:new  d:delete  r:rename  p:post  q:quit"
	case modeLedger:
		return "tab:switch  enter:select  p:post  ctrl+r:refresh  q:quit"
	case modePostingDetail:
		return "x:reverse  esc:back  q:quit"
	case modeAssets:
		return "tab:switch  enter:schedule  R:run depreciation  q:quit"
	case modeAssetSchedule:
		return "g:yearly/monthly  esc:back  q:quit"
	case modeWizard, modePostForm:
		return "enter:confirm  esc:cancel"
	default:
		return "tab:switch  esc:back  ctrl+r:refresh  q:quit"
	}
}

func (a *App) View() string {
	// Tab bar
	tabs := ""
	for i, m := range tabModes {
		label := tabLabel(m)
		if i == a.tabIndex && a.mode != modeWizard && a.mode != modePostForm {
			tabs += activeTabStyle.Render(label)
		} else {
			tabs += inactiveTabStyle.Render(label)
		}
		if i < len(tabModes)-1 {
			tabs += " "
		}
	}

	var content string
	switch a.mode {
	case modeAccountList:
		content = a.accountList.view()
	case modeAccountDetail:
		content = a.accountDetail.view()
	case modeLedger:
		content = a.ledgerList.view()
	case modePostingDetail:
		content = a.postingDetail.view()
	case modeAssets:
		content = a.assets.view()
	case modeAssetSchedule:
		content = a.schedule.view()
	case modeWip:
		content = a.wip.view()
	case modeBalanceSheet:
		content = a.balanceSheet.view()
	case modeWizard:
		content = a.wizard.view()
	case modePostForm:
		content = a.postForm.view()
	}

	// Status bar
	status := ""
	if a.statusMsg != "" {
		status = successStyle.Render(a.statusMsg)
	}
	if a.err != nil {
		status = errorStyle.Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		tabs,
		"",
		content,
		"",
		status,
		dimStyle.Render(a.helpText()),
	)
}
