package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

var (
	postTemplate  string
	postAccount   string
	postAmount    string
	postDirection string
	postDesc      string
	postCounter   string
	postNoCounter bool
	postDate      string
	postProject   string
	postNotes     string
	postConfirm   bool
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a financial event",
	Long: `Post a financial event to the ledger. The engine derives the
debit/credit side from the account type and direction, and adds a
balancing counter entry unless --no-counter is given.

Examples:
  projectledger post --account 5110 --amount 7500000 --direction increase --desc "Cement delivery"
  projectledger post --template pay-supplier --amount 2000000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(postAmount)
		if err != nil {
			return err
		}
		req := server.PostingRequest{
			Template:           postTemplate,
			Date:               postDate,
			AccountCode:        postAccount,
			Amount:             amount,
			Direction:          ledger.Direction(strings.ToLower(postDirection)),
			Description:        postDesc,
			ProjectID:          postProject,
			Notes:              postNotes,
			CounterAccountCode: postCounter,
			ConfirmUnusual:     postConfirm,
		}
		if postNoCounter {
			counter := false
			req.CreateCounterEntry = &counter
		}

		p, err := newClient().Post(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Printf("Posted: %s\n", p.CorrelationID)
		printEntries(p.Entries)
		return nil
	},
}

var postingGetCmd = &cobra.Command{
	Use:   "posting [correlation-id]",
	Short: "Show the entries of one posting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newClient().GetPosting(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Posting: %s\n", p.CorrelationID)
		printEntries(p.Entries)
		return nil
	},
}

var (
	reverseDate string
	reverseDesc string
)

var reverseCmd = &cobra.Command{
	Use:   "reverse [correlation-id]",
	Short: "Reverse a posting with mirror entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newClient().Reverse(cmd.Context(), args[0], server.ReverseRequest{
			Date:        reverseDate,
			Description: reverseDesc,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Reversed %s as %s\n", args[0], p.CorrelationID)
		printEntries(p.Entries)
		return nil
	},
}

var (
	entriesAccount string
	entriesProject string
	entriesSource  string
	entriesFrom    string
	entriesTo      string
	entriesLimit   int
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List ledger entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := client.EntryQuery{
			AccountCode: entriesAccount,
			ProjectID:   entriesProject,
			SourceRef:   entriesSource,
			Limit:       entriesLimit,
		}
		var err error
		if entriesFrom != "" {
			if q.From, err = ledger.ParseDate(entriesFrom); err != nil {
				return err
			}
		}
		if entriesTo != "" {
			if q.To, err = ledger.ParseDate(entriesTo); err != nil {
				return err
			}
		}
		entries, err := newClient().ListEntries(cmd.Context(), q)
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

func printEntries(entries []ledger.Entry) {
	if len(entries) == 0 {
		fmt.Println("No entries found.")
		return
	}
	fmt.Printf("%-10s %-8s %-6s %18s  %-36s %s\n", "DATE", "ACCOUNT", "SIDE", "AMOUNT", "DESCRIPTION", "CORRELATION")
	fmt.Printf("%-10s %-8s %-6s %18s  %-36s %s\n", "----", "-------", "----", "------", "-----------", "-----------")
	for _, e := range entries {
		desc := e.Description
		if e.IsCounterEntry {
			desc = "  " + desc
		}
		fmt.Printf("%-10s %-8s %-6s %18s  %-36s %s\n",
			e.Date.Format(ledger.DateLayout),
			e.AccountCode,
			e.Side,
			ledger.FormatAmount(e.Amount),
			truncate(desc, 34),
			e.CorrelationID)
	}
}

func init() {
	postCmd.Flags().StringVar(&postTemplate, "template", "", "Event template (see GET /api/v1/templates)")
	postCmd.Flags().StringVar(&postAccount, "account", "", "Primary account code")
	postCmd.Flags().StringVar(&postAmount, "amount", "", "Amount, e.g. 7500000 or 7,500,000.50")
	postCmd.Flags().StringVar(&postDirection, "direction", "", "increase or decrease")
	postCmd.Flags().StringVar(&postDesc, "desc", "", "Description")
	postCmd.Flags().StringVar(&postCounter, "counter", "", "Counter account code (inferred when empty)")
	postCmd.Flags().BoolVar(&postNoCounter, "no-counter", false, "Post a single entry without a counter entry")
	postCmd.Flags().StringVar(&postDate, "date", "", "Entry date YYYY-MM-DD (default today)")
	postCmd.Flags().StringVar(&postProject, "project", "", "Project ID")
	postCmd.Flags().StringVar(&postNotes, "notes", "", "Free-form notes")
	postCmd.Flags().BoolVar(&postConfirm, "confirm-unusual", false, "Accept an unusual account combination")
	postCmd.MarkFlagRequired("amount")

	reverseCmd.Flags().StringVar(&reverseDate, "date", "", "Reversal date YYYY-MM-DD (default today)")
	reverseCmd.Flags().StringVar(&reverseDesc, "desc", "", "Description (default \"Reversal: <original>\")")

	entriesCmd.Flags().StringVar(&entriesAccount, "account", "", "Filter by account code")
	entriesCmd.Flags().StringVar(&entriesProject, "project", "", "Filter by project ID")
	entriesCmd.Flags().StringVar(&entriesSource, "source", "", "Filter by source reference")
	entriesCmd.Flags().StringVar(&entriesFrom, "from", "", "Start date YYYY-MM-DD")
	entriesCmd.Flags().StringVar(&entriesTo, "to", "", "End date YYYY-MM-DD")
	entriesCmd.Flags().IntVar(&entriesLimit, "limit", 100, "Maximum entries")

	rootCmd.AddCommand(postCmd)
	rootCmd.AddCommand(postingGetCmd)
	rootCmd.AddCommand(reverseCmd)
	rootCmd.AddCommand(entriesCmd)
}
