package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/ledger"
	"github.com/simonvc/projectledger/internal/server"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage construction projects, costs and billings",
}

var (
	projCode     string
	projName     string
	projValue    string
	projStatus   string
	projProgress int
)

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseAmount(projValue)
		if err != nil {
			return err
		}
		p, err := newClient().CreateProject(cmd.Context(), server.ProjectRequest{
			Code:       projCode,
			Name:       projName,
			TotalValue: value,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Project created: %s (%s) %s\n", p.Code, p.ID, ledger.FormatAmount(p.TotalValue))
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := newClient().ListProjects(cmd.Context(), ledger.ProjectStatus(projStatus))
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}
		fmt.Printf("%-12s %-30s %-10s %8s %18s\n", "CODE", "NAME", "STATUS", "PROGRESS", "CONTRACT VALUE")
		for _, p := range projects {
			fmt.Printf("%-12s %-30s %-10s %7d%% %18s\n",
				p.Code, truncate(p.Name, 28), p.Status, p.Progress, ledger.FormatAmount(p.TotalValue))
		}
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [id|code]",
	Short: "Change project status or progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := server.ProjectRequest{Status: ledger.ProjectStatus(projStatus)}
		if cmd.Flags().Changed("progress") {
			req.Progress = &projProgress
		}
		p, err := newClient().UpdateProject(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Printf("Project %s: %s, %d%%\n", p.Code, p.Status, p.Progress)
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [id|code]",
	Short: "Show a project with its costs, billings and WIP",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := newClient()
		p, err := c.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		costs, err := c.ListCosts(ctx, p.ID)
		if err != nil {
			return err
		}
		billings, err := c.ListBillings(ctx, p.ID)
		if err != nil {
			return err
		}
		w, err := c.ProjectWip(ctx, p.ID)
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", p.Code, p.Name)
		fmt.Printf("Status: %s, %d%%  Contract: %s\n\n", p.Status, p.Progress, ledger.FormatAmount(p.TotalValue))

		fmt.Println("  COSTS")
		for _, k := range costs {
			fmt.Printf("  %-36s %-10s %-16s %-9s %16s\n",
				k.ID, k.Date.Format(ledger.DateLayout), truncate(k.Category, 16), k.Status, ledger.FormatAmount(k.Amount))
		}
		fmt.Println("\n  BILLINGS")
		for _, b := range billings {
			fmt.Printf("  %-36s %-10s %-16s %-9s %16s\n",
				b.ID, b.BillingDate.Format(ledger.DateLayout), truncate(b.Invoice, 16), b.Status, ledger.FormatAmount(b.Amount))
		}
		fmt.Println()
		printProjectWip(w.Costs, w.Billed, w.Value)
		return nil
	},
}

var (
	costCategory string
	costAmount   string
	costDate     string
	costStatus   string
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Record and approve project costs",
}

var costAddCmd = &cobra.Command{
	Use:   "add [project]",
	Short: "Add a cost to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(costAmount)
		if err != nil {
			return err
		}
		k, err := newClient().AddCost(cmd.Context(), args[0], server.CostRequest{
			Category: costCategory,
			Amount:   amount,
			Date:     costDate,
			Status:   ledger.CostStatus(costStatus),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Cost added: %s %s (%s)\n", k.ID, ledger.FormatAmount(k.Amount), k.Status)
		return nil
	},
}

var costStatusCmd = &cobra.Command{
	Use:   "status [cost-id] [pending|approved|rejected]",
	Short: "Change the approval status of a cost",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := newClient().SetCostStatus(cmd.Context(), args[0], ledger.CostStatus(args[1]))
		if err != nil {
			return err
		}
		fmt.Printf("Cost %s is now %s\n", k.ID, k.Status)
		return nil
	},
}

var (
	billDate       string
	billPercentage string
	billAmount     string
	billInvoice    string
)

var billCmd = &cobra.Command{
	Use:   "bill [project]",
	Short: "Create a pending billing for a project",
	Long: `Create a pending billing. Give either --percentage of the contract
value or a fixed --amount. Nothing is posted until the billing is issued
with "billing transition".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := server.BillingRequest{BillingDate: billDate, Invoice: billInvoice}
		switch {
		case billPercentage != "":
			pct, err := decimal.NewFromString(billPercentage)
			if err != nil {
				return fmt.Errorf("invalid percentage %q: %w", billPercentage, err)
			}
			req.Percentage = &pct
		case billAmount != "":
			amount, err := parseAmount(billAmount)
			if err != nil {
				return err
			}
			req.Amount = amount
		default:
			return fmt.Errorf("one of --percentage or --amount is required")
		}
		b, err := newClient().CreateBilling(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Printf("Billing created: %s %s (%s)\n", b.ID, ledger.FormatAmount(b.Amount), b.Status)
		return nil
	},
}

var projectWipCmd = &cobra.Command{
	Use:   "wip [id|code]",
	Short: "Show a project's work-in-progress value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showProjectWip(cmd, args[0])
	},
}

func init() {
	projectCreateCmd.Flags().StringVar(&projCode, "code", "", "Project code")
	projectCreateCmd.Flags().StringVar(&projName, "name", "", "Project name")
	projectCreateCmd.Flags().StringVar(&projValue, "value", "", "Contract value")
	projectCreateCmd.MarkFlagRequired("code")
	projectCreateCmd.MarkFlagRequired("value")

	projectListCmd.Flags().StringVar(&projStatus, "status", "", "Filter by status (ongoing, completed, cancelled)")

	projectUpdateCmd.Flags().StringVar(&projStatus, "status", "", "New status")
	projectUpdateCmd.Flags().IntVar(&projProgress, "progress", 0, "Progress percentage 0-100")

	costAddCmd.Flags().StringVar(&costCategory, "category", "", "Cost category (e.g. labour, materials)")
	costAddCmd.Flags().StringVar(&costAmount, "amount", "", "Cost amount")
	costAddCmd.Flags().StringVar(&costDate, "date", "", "Cost date YYYY-MM-DD (default today)")
	costAddCmd.Flags().StringVar(&costStatus, "status", "", "Initial status (default pending)")
	costAddCmd.MarkFlagRequired("category")
	costAddCmd.MarkFlagRequired("amount")

	billCmd.Flags().StringVar(&billDate, "date", "", "Billing date YYYY-MM-DD (default today)")
	billCmd.Flags().StringVar(&billPercentage, "percentage", "", "Percentage of the contract value")
	billCmd.Flags().StringVar(&billAmount, "amount", "", "Fixed amount")
	billCmd.Flags().StringVar(&billInvoice, "invoice", "", "Invoice reference")

	costCmd.AddCommand(costAddCmd)
	costCmd.AddCommand(costStatusCmd)

	projectCmd.AddCommand(projectCreateCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectUpdateCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(costCmd)
	projectCmd.AddCommand(billCmd)
	projectCmd.AddCommand(projectWipCmd)

	rootCmd.AddCommand(projectCmd)
}
