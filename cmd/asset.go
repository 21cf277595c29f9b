package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/depreciation"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Manage fixed assets",
}

var (
	assetName        string
	assetDate        string
	assetValue       string
	assetLife        int
	assetAccumulated string
	assetAccount     string
	assetExpense     string
	assetContra      string
)

var assetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a fixed asset",
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseAmount(assetValue)
		if err != nil {
			return err
		}
		accumulated := decimal.Zero
		if assetAccumulated != "" {
			if accumulated, err = ledger.ParseAmount(assetAccumulated); err != nil {
				return err
			}
		}
		a, err := newClient().CreateAsset(cmd.Context(), server.AssetRequest{
			Name:                    assetName,
			AcquisitionDate:         assetDate,
			Value:                   value,
			UsefulLife:              assetLife,
			AccumulatedDepreciation: accumulated,
			AssetAccountCode:        assetAccount,
			ExpenseAccountCode:      assetExpense,
			ContraAccountCode:       assetContra,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Asset created: %s (%s)\n", a.ID, a.Name)
		printAsset(a)
		return nil
	},
}

var assetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List fixed assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, err := newClient().ListAssets(cmd.Context())
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			fmt.Println("No assets found.")
			return nil
		}
		fmt.Printf("%-36s %-24s %-10s %4s %18s %18s %-10s\n", "ID", "NAME", "ACQUIRED", "LIFE", "VALUE", "BOOK VALUE", "LAST RUN")
		for _, a := range assets {
			fmt.Printf("%-36s %-24s %-10s %4d %18s %18s %-10s\n",
				a.ID,
				truncate(a.Name, 22),
				a.AcquisitionDate.Format(ledger.DateLayout),
				a.UsefulLife,
				ledger.FormatAmount(a.Value),
				ledger.FormatAmount(a.BookValue),
				formatDate(a.LastDepreciatedAt))
		}
		return nil
	},
}

var assetGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get asset details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newClient().GetAsset(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printAsset(a)
		return nil
	},
}

var assetAsOf string

var assetDepreciationCmd = &cobra.Command{
	Use:   "depreciation [id]",
	Short: "Compute depreciation as of a date without posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(assetAsOf)
		if err != nil {
			return err
		}
		calc, err := newClient().AssetDepreciation(cmd.Context(), args[0], asOf)
		if err != nil {
			return err
		}
		fmt.Printf("As of:         %s\n", calc.AsOf.Format(ledger.DateLayout))
		fmt.Printf("Elapsed:       %d days (%d months, %d years)\n", calc.DaysElapsed, calc.MonthsElapsed, calc.YearsElapsed)
		fmt.Printf("Accrual days:  %s\n", calc.AccrualDays.StringFixed(4))
		fmt.Printf("Daily rate:    %s\n", ledger.FormatAmount(calc.DailyRate))
		fmt.Printf("Accumulated:   %s\n", ledger.FormatAmount(calc.AccumulatedDepreciation))
		fmt.Printf("Book value:    %s\n", ledger.FormatAmount(calc.BookValue))
		fmt.Printf("Remaining:     %d months (%d years)\n", calc.RemainingMonths, calc.RemainingYears)
		if calc.IsFullyDepreciated {
			fmt.Println("\n  [FULLY DEPRECIATED]")
		}
		return nil
	},
}

var assetGranularity string

var assetScheduleCmd = &cobra.Command{
	Use:   "schedule [id]",
	Short: "Show the projected depreciation schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := depreciation.ParseGranularity(assetGranularity)
		if err != nil {
			return err
		}
		sched, err := newClient().AssetSchedule(cmd.Context(), args[0], g)
		if err != nil {
			return err
		}
		fmt.Printf("%s, %s schedule\n\n", sched.Asset.Name, sched.Granularity)
		fmt.Printf("%4s %-10s %-10s %18s %16s %18s %18s\n", "#", "START", "END", "BEGINNING", "DEPRECIATION", "ACCUMULATED", "ENDING")
		for _, p := range sched.Periods {
			fmt.Printf("%4d %-10s %-10s %18s %16s %18s %18s\n",
				p.Index,
				p.Start.Format(ledger.DateLayout),
				p.End.Format(ledger.DateLayout),
				ledger.FormatAmount(p.BeginningValue),
				ledger.FormatAmount(p.PeriodDepreciation),
				ledger.FormatAmount(p.AccumulatedDepreciation),
				ledger.FormatAmount(p.EndingValue))
		}
		return nil
	},
}

var assetRecordCmd = &cobra.Command{
	Use:   "record [id]",
	Short: "Post depreciation for one asset up to a date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(assetAsOf)
		if err != nil {
			return err
		}
		res, err := newClient().RecordDepreciation(cmd.Context(), args[0], asOf)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s", res.AssetName, res.Outcome)
		if res.Outcome == depreciation.OutcomeRecorded {
			fmt.Printf(" %s (%s)", ledger.FormatAmount(res.Delta), res.CorrelationID)
		}
		fmt.Printf("\nBook value: %s\n", ledger.FormatAmount(res.Calculation.BookValue))
		return nil
	},
}

func printAsset(a *ledger.FixedAsset) {
	fmt.Printf("ID:            %s\n", a.ID)
	fmt.Printf("Name:          %s\n", a.Name)
	fmt.Printf("Acquired:      %s\n", a.AcquisitionDate.Format(ledger.DateLayout))
	fmt.Printf("Value:         %s\n", ledger.FormatAmount(a.Value))
	fmt.Printf("Useful life:   %d years\n", a.UsefulLife)
	fmt.Printf("Accumulated:   %s\n", ledger.FormatAmount(a.AccumulatedDepreciation))
	fmt.Printf("Book value:    %s\n", ledger.FormatAmount(a.BookValue))
	fmt.Printf("Accounts:      asset %s, expense %s, contra %s\n", a.AssetAccountCode, a.ExpenseAccountCode, a.ContraAccountCode)
	fmt.Printf("Last run:      %s\n", formatDate(a.LastDepreciatedAt))
}

func init() {
	assetCreateCmd.Flags().StringVar(&assetName, "name", "", "Asset name")
	assetCreateCmd.Flags().StringVar(&assetDate, "date", "", "Acquisition date YYYY-MM-DD (default today)")
	assetCreateCmd.Flags().StringVar(&assetValue, "value", "", "Acquisition value")
	assetCreateCmd.Flags().IntVar(&assetLife, "life", 0, "Useful life in years")
	assetCreateCmd.Flags().StringVar(&assetAccumulated, "accumulated", "", "Opening accumulated depreciation")
	assetCreateCmd.Flags().StringVar(&assetAccount, "asset-account", "", "Asset account code")
	assetCreateCmd.Flags().StringVar(&assetExpense, "expense-account", "", "Depreciation expense account (default from accounts.depreciation_expense)")
	assetCreateCmd.Flags().StringVar(&assetContra, "contra-account", "", "Accumulated depreciation account (default from accounts.accumulated_depreciation)")
	assetCreateCmd.MarkFlagRequired("name")
	assetCreateCmd.MarkFlagRequired("value")
	assetCreateCmd.MarkFlagRequired("life")

	assetDepreciationCmd.Flags().StringVar(&assetAsOf, "as-of", "", "Date YYYY-MM-DD (default today)")
	assetRecordCmd.Flags().StringVar(&assetAsOf, "as-of", "", "Date YYYY-MM-DD (default today)")
	assetScheduleCmd.Flags().StringVar(&assetGranularity, "granularity", "yearly", "yearly or monthly")

	assetCmd.AddCommand(assetCreateCmd)
	assetCmd.AddCommand(assetListCmd)
	assetCmd.AddCommand(assetGetCmd)
	assetCmd.AddCommand(assetDepreciationCmd)
	assetCmd.AddCommand(assetScheduleCmd)
	assetCmd.AddCommand(assetRecordCmd)

	rootCmd.AddCommand(assetCmd)
}
