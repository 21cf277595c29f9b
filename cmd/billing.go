package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Move billings through their lifecycle",
}

var (
	transitionCash string
	transitionDate string
)

var billingTransitionCmd = &cobra.Command{
	Use:   "transition [billing-id] [unpaid|paid|rejected]",
	Short: "Change a billing's status and post the matching entries",
	Long: `Change a billing's status. Issuing (unpaid) and payment (paid)
post entries according to billing.recognition; rejecting reverses
everything already posted for the billing. Payment needs --cash.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().TransitionBilling(cmd.Context(), args[0], server.TransitionRequest{
			To:              ledger.BillingStatus(args[1]),
			CashAccountCode: transitionCash,
			Date:            transitionDate,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Billing %s: %s -> %s\n", res.Billing.ID, res.From, res.Billing.Status)
		for _, p := range res.Postings {
			fmt.Printf("\nPosted %s\n", p.CorrelationID)
			printEntries(p.Entries)
		}
		for _, p := range res.Reversals {
			fmt.Printf("\nReversal %s\n", p.CorrelationID)
			printEntries(p.Entries)
		}
		return nil
	},
}

var billingListCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List a project's billings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		billings, err := newClient().ListBillings(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(billings) == 0 {
			fmt.Println("No billings found.")
			return nil
		}
		fmt.Printf("%-36s %-10s %-16s %-9s %16s\n", "ID", "DATE", "INVOICE", "STATUS", "AMOUNT")
		for _, b := range billings {
			fmt.Printf("%-36s %-10s %-16s %-9s %16s\n",
				b.ID, b.BillingDate.Format(ledger.DateLayout), truncate(b.Invoice, 16), b.Status, ledger.FormatAmount(b.Amount))
		}
		return nil
	},
}

func init() {
	billingTransitionCmd.Flags().StringVar(&transitionCash, "cash", "", "Cash or bank account receiving payment")
	billingTransitionCmd.Flags().StringVar(&transitionDate, "date", "", "Posting date YYYY-MM-DD (default today)")

	billingCmd.AddCommand(billingTransitionCmd)
	billingCmd.AddCommand(billingListCmd)
	rootCmd.AddCommand(billingCmd)
}
