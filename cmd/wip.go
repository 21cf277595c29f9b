package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/ledger"
)

var wipCmd = &cobra.Command{
	Use:   "wip [project]",
	Short: "Show work-in-progress valuation",
	Long: `Show work in progress: approved costs less issued billings. With a
project argument only that project is shown; otherwise every project is
listed with the balance sheet total.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return showProjectWip(cmd, args[0])
		}

		sum, err := newClient().WipSummary(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%-12s %-10s %18s %18s %18s\n", "PROJECT", "STATUS", "APPROVED COSTS", "BILLED", "WIP")
		for _, w := range sum.Projects {
			fmt.Printf("%-12s %-10s %18s %18s %18s\n",
				w.ProjectCode, w.Status,
				ledger.FormatAmount(w.Costs),
				ledger.FormatAmount(w.Billed),
				ledger.FormatSigned(w.Value))
		}
		fmt.Printf("\n%-42s %37s\n", "Total WIP (balance sheet)", ledger.FormatAmount(sum.Total))
		for _, warn := range sum.Warnings {
			fmt.Printf("  warning: %s %s (%s)\n", warn.ProjectCode, warn.Message, ledger.FormatSigned(warn.Value))
		}
		return nil
	},
}

func showProjectWip(cmd *cobra.Command, project string) error {
	w, err := newClient().ProjectWip(cmd.Context(), project)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", w.ProjectCode, w.Status)
	printProjectWip(w.Costs, w.Billed, w.Value)
	return nil
}

func printProjectWip(costs, billed, value decimal.Decimal) {
	fmt.Printf("  Approved costs: %18s\n", ledger.FormatAmount(costs))
	fmt.Printf("  Billed:         %18s\n", ledger.FormatAmount(billed))
	fmt.Printf("  WIP:            %18s\n", ledger.FormatSigned(value))
	if value.IsNegative() {
		fmt.Println("\n  [OVER-BILLED]")
	}
}

func init() {
	rootCmd.AddCommand(wipCmd)
}
