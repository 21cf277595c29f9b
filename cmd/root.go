package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simonvc/projectledger/internal/config"
	"github.com/simonvc/projectledger/internal/logging"
)

var (
	cfgFile string
	cfg     = config.Default()
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "projectledger",
	Short: "Project accounting ledger with depreciation and WIP valuation",
	Long: `A double-entry project accounting ledger backed by SQLite. It posts
financial events as balanced entries, depreciates fixed assets, values
work in progress and tracks project billings.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/projectledger/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Server address (default from client.server)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default from database.path)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console, json)")

	_ = v.BindPFlag("client.server", rootCmd.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
