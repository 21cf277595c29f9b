package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/scheduler"
)

var depreciationCmd = &cobra.Command{
	Use:   "depreciation",
	Short: "Run depreciation across all assets",
}

var (
	depRunAsOf  string
	depRunLocal bool
)

var depreciationRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Catch every depreciable asset up to a date",
	Long: `Catch every depreciable asset up to a date. Assets already
depreciated to that date are left alone, so the run can be repeated.
With --local the batch runs directly against the database instead of
through the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(depRunAsOf)
		if err != nil {
			return err
		}

		var report *depreciation.Report
		if depRunLocal {
			svc, err := openServices()
			if err != nil {
				return err
			}
			defer svc.Close()
			report, err = scheduler.New(svc.recorder, 0, 0).RunOnce(cmd.Context(), asOf)
			if err != nil {
				return err
			}
		} else {
			report, err = newClient().RunDepreciation(cmd.Context(), asOf)
			if err != nil {
				return err
			}
		}
		printReport(report)
		return nil
	},
}

func printReport(r *depreciation.Report) {
	fmt.Printf("Depreciation run as of %s\n\n", r.AsOf.Format(ledger.DateLayout))
	for _, d := range r.Details {
		status := string(d.Outcome)
		if d.Error != "" {
			status = "error: " + d.Error
		}
		fmt.Printf("  %-24s %-26s %16s\n", truncate(d.AssetName, 22), status, ledger.FormatAmount(d.Delta))
	}
	fmt.Printf("\nProcessed %d, updated %d, errors %d\n", r.Processed, r.Updated, len(r.Errors))
	if r.Cancelled {
		fmt.Println("  [CANCELLED]")
	}
}

func init() {
	depreciationRunCmd.Flags().StringVar(&depRunAsOf, "as-of", "", "Date YYYY-MM-DD (default today)")
	depreciationRunCmd.Flags().BoolVar(&depRunLocal, "local", false, "Run against the database directly")

	depreciationCmd.AddCommand(depreciationRunCmd)
	rootCmd.AddCommand(depreciationCmd)
}
