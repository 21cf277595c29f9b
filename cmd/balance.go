package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/ledger"
)

var reportAsOf string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show balance sheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(reportAsOf)
		if err != nil {
			return err
		}
		bs, err := newClient().BalanceSheet(cmd.Context(), asOf)
		if err != nil {
			return err
		}
		printBalanceSheet(bs)
		return nil
	},
}

var trialBalanceCmd = &cobra.Command{
	Use:   "trial",
	Short: "Show trial balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(reportAsOf)
		if err != nil {
			return err
		}
		tb, err := newClient().TrialBalance(cmd.Context(), asOf)
		if err != nil {
			return err
		}
		printTrialBalance(tb)
		return nil
	},
}

var (
	cashflowFrom string
	cashflowTo   string
)

var cashflowCmd = &cobra.Command{
	Use:   "cashflow",
	Short: "Show cash flow statement",
	RunE: func(cmd *cobra.Command, args []string) error {
		var from, to time.Time
		var err error
		if cashflowFrom != "" {
			if from, err = ledger.ParseDate(cashflowFrom); err != nil {
				return err
			}
		}
		if cashflowTo != "" {
			if to, err = ledger.ParseDate(cashflowTo); err != nil {
				return err
			}
		}
		cf, err := newClient().Cashflow(cmd.Context(), from, to)
		if err != nil {
			return err
		}
		printCashflow(cf)
		return nil
	},
}

func printBalanceSheet(bs *ledger.BalanceSheet) {
	w := 64
	fmt.Println()
	fmt.Println(center("BALANCE SHEET", w))
	fmt.Println(center("as of "+bs.AsOf.Format(ledger.DateLayout), w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	printSection("ASSETS", bs.Assets, w)
	printTotal("Total Assets", bs.TotalAssets, w, "─")
	fmt.Println()

	printSection("LIABILITIES", bs.Liabilities, w)
	printTotal("Total Liabilities", bs.TotalLiabilities, w, "─")
	fmt.Println()

	printSection("EQUITY", bs.Equity, w)
	fmt.Printf("  %-6s %-*s%18s\n", "", w-27, "Net income (unclosed)", ledger.FormatSigned(bs.NetIncome))
	printTotal("Total Equity", bs.TotalEquity, w, "─")
	fmt.Println()

	printTotal("Total L + E", bs.TotalLiabilities.Add(bs.TotalEquity), w, "═")

	if !bs.WorkInProgress.IsZero() {
		fmt.Printf("\n%-*s%18s\n", w-18, "Work in progress (memo)", ledger.FormatAmount(bs.WorkInProgress))
	}

	if bs.Balanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
}

func printTotal(label string, amount decimal.Decimal, w int, rule string) {
	fmt.Printf("%*s%s\n", w-16, "", strings.Repeat(rule, 16))
	fmt.Printf("%-*s%18s\n", w-18, label, ledger.FormatSigned(amount))
}

func printSection(title string, lines []ledger.BalanceSheetLine, w int) {
	fmt.Printf("  %s\n", title)
	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	for _, l := range lines {
		fmt.Printf("  %-6s %-*s%18s\n", l.AccountCode, w-27, truncate(l.AccountName, w-29), ledger.FormatSigned(l.Balance))
	}
}

func printTrialBalance(tb *ledger.TrialBalance) {
	w := 76
	fmt.Println()
	fmt.Println(center("TRIAL BALANCE", w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	fmt.Printf("  %-8s %-30s %16s %16s\n", "CODE", "NAME", "DEBIT", "CREDIT")
	fmt.Printf("  %-8s %-30s %16s %16s\n", "----", "----", "-----", "------")

	for _, l := range tb.Lines {
		debit := ""
		credit := ""
		if l.Debit.IsPositive() {
			debit = ledger.FormatAmount(l.Debit)
		}
		if l.Credit.IsPositive() {
			credit = ledger.FormatAmount(l.Credit)
		}
		fmt.Printf("  %-8s %-30s %16s %16s\n", l.AccountCode, truncate(l.AccountName, 28), debit, credit)
	}

	fmt.Printf("  %s\n", strings.Repeat("─", w-4))
	fmt.Printf("  %-39s %16s %16s\n", "TOTALS",
		ledger.FormatAmount(tb.TotalDebit),
		ledger.FormatAmount(tb.TotalCredit))

	if tb.Balanced {
		fmt.Println("\n  [BALANCED]")
	} else {
		fmt.Println("\n  [UNBALANCED!]")
	}
}

func printCashflow(cf *ledger.CashflowStatement) {
	w := 64
	fmt.Println()
	fmt.Println(center("CASH FLOW STATEMENT", w))
	fmt.Println(center(cf.From.Format(ledger.DateLayout)+" to "+cf.To.Format(ledger.DateLayout), w))
	fmt.Println(center(strings.Repeat("=", 20), w))
	fmt.Println()

	for _, sec := range cf.Sections {
		fmt.Printf("  %s\n", strings.ToUpper(string(sec.Section)))
		fmt.Printf("  %s\n", strings.Repeat("─", w-4))
		for _, l := range sec.Lines {
			fmt.Printf("  %-6s %-*s%18s\n", l.AccountCode, w-27, truncate(l.AccountName, w-29), ledger.FormatSigned(l.Amount))
		}
		printTotal("Net "+string(sec.Section), sec.Total, w, "─")
		fmt.Println()
	}
	if !cf.Unclassified.IsZero() {
		fmt.Printf("%-*s%18s\n", w-18, "Unclassified", ledger.FormatSigned(cf.Unclassified))
	}
	printTotal("Net change in cash", cf.NetChange, w, "═")
}

func init() {
	balanceCmd.PersistentFlags().StringVar(&reportAsOf, "as-of", "", "Report date YYYY-MM-DD (default today)")
	cashflowCmd.Flags().StringVar(&cashflowFrom, "from", "", "Start date YYYY-MM-DD (default 1 January)")
	cashflowCmd.Flags().StringVar(&cashflowTo, "to", "", "End date YYYY-MM-DD (default today)")

	balanceCmd.AddCommand(trialBalanceCmd)
	balanceCmd.AddCommand(cashflowCmd)
	rootCmd.AddCommand(balanceCmd)
}
