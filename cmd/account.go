package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/ledger"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

// account create
var (
	acctCreateCode     string
	acctCreateName     string
	acctCreateType     string
	acctCreateCategory string
)

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	Long: `Create a new account. Type, name and category default to the
chart-of-accounts entry for the code when one exists.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := newClient().CreateAccount(cmd.Context(), &ledger.Account{
			Code:     acctCreateCode,
			Name:     acctCreateName,
			Type:     ledger.AccountType(acctCreateType),
			Category: acctCreateCategory,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Account created: %s (%s) [%s] %s\n", created.Code, created.Name, created.Type, created.Category)
		return nil
	},
}

// account list
var (
	acctListType     string
	acctListCategory string
)

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := newClient().ListAccounts(cmd.Context(), ledger.AccountType(acctListType), acctListCategory)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No accounts found.")
			return nil
		}

		fmt.Printf("%-8s %-36s %-10s %s\n", "CODE", "NAME", "TYPE", "CATEGORY")
		fmt.Printf("%-8s %-36s %-10s %s\n", "----", "----", "----", "--------")
		for _, a := range accounts {
			fmt.Printf("%-8s %-36s %-10s %s\n", a.Code, truncate(a.Name, 34), a.Type, a.Category)
		}
		return nil
	},
}

var accountGetCmd = &cobra.Command{
	Use:   "get [code]",
	Short: "Get account details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newClient().GetAccount(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Code:     %s\n", acct.Code)
		fmt.Printf("Name:     %s\n", acct.Name)
		fmt.Printf("Type:     %s (%s)\n", acct.Type, ledger.AccountTypeLabel(acct.Type))
		fmt.Printf("Category: %s\n", acct.Category)
		fmt.Printf("Normal:   %s\n", ledger.NormalSide(acct.Type))
		fmt.Printf("Created:  %s\n", acct.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var acctBalanceAsOf string

var accountBalanceCmd = &cobra.Command{
	Use:   "balance [code]",
	Short: "Get account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf, err := parseDay(acctBalanceAsOf)
		if err != nil {
			return err
		}
		bal, err := newClient().GetAccountBalance(cmd.Context(), args[0], asOf)
		if err != nil {
			return err
		}
		fmt.Printf("Account: %s\n", bal.AccountCode)
		fmt.Printf("As of:   %s\n", bal.AsOf)
		fmt.Printf("Balance: %s (%s)\n", bal.Formatted, bal.Balance.String())
		return nil
	},
}

var accountEntriesCmd = &cobra.Command{
	Use:   "entries [code]",
	Short: "List entries posted to an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newClient().ListAccountEntries(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printEntries(entries)
		return nil
	},
}

var (
	acctUpdateName     string
	acctUpdateCategory string
)

var accountUpdateCmd = &cobra.Command{
	Use:   "update [code]",
	Short: "Rename or recategorise an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acct, err := newClient().UpdateAccount(cmd.Context(), args[0], acctUpdateName, acctUpdateCategory)
		if err != nil {
			return err
		}
		fmt.Printf("Account updated: %s (%s) %s\n", acct.Code, acct.Name, acct.Category)
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete [code]",
	Short: "Delete an account with no entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().DeleteAccount(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Account %s deleted\n", args[0])
		return nil
	},
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Show the standard chart of accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		chart, err := newClient().GetChart(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%-8s %-36s %-10s %s\n", "CODE", "NAME", "TYPE", "CATEGORY")
		for _, e := range chart {
			fmt.Printf("%-8s %-36s %-10s %s\n", e.Code, truncate(e.Name, 34), e.Type, e.Category)
		}
		return nil
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&acctCreateCode, "code", "", "Account code (e.g. 1120)")
	accountCreateCmd.Flags().StringVar(&acctCreateName, "name", "", "Account name")
	accountCreateCmd.Flags().StringVar(&acctCreateType, "type", "", "Account type (asset, liability, equity, revenue, expense)")
	accountCreateCmd.Flags().StringVar(&acctCreateCategory, "category", "", "Account category (e.g. cash, bank, contra_asset)")
	accountCreateCmd.MarkFlagRequired("code")

	accountListCmd.Flags().StringVar(&acctListType, "type", "", "Filter by type")
	accountListCmd.Flags().StringVar(&acctListCategory, "category", "", "Filter by category")

	accountBalanceCmd.Flags().StringVar(&acctBalanceAsOf, "as-of", "", "Balance date YYYY-MM-DD (default today)")

	accountUpdateCmd.Flags().StringVar(&acctUpdateName, "name", "", "New name")
	accountUpdateCmd.Flags().StringVar(&acctUpdateCategory, "category", "", "New category")

	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountBalanceCmd)
	accountCmd.AddCommand(accountEntriesCmd)
	accountCmd.AddCommand(accountUpdateCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(chartCmd)

	rootCmd.AddCommand(accountCmd)
}
