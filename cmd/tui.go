package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/client"
	"github.com/simonvc/projectledger/internal/logging"
	"github.com/simonvc/projectledger/internal/server"
	"github.com/simonvc/projectledger/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Long: `Launch the terminal UI. Without --server an embedded server is
started on a loopback port against the configured database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		serverAddr := cfg.Client.Server

		if !cmd.Flags().Changed("server") {
			// Log lines would corrupt the alt screen.
			if err := quietLogs(); err != nil {
				return err
			}
			svc, err := openServices()
			if err != nil {
				return err
			}
			defer svc.Close()

			ln, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				return fmt.Errorf("embedded server: %w", err)
			}
			srv := server.New(svc.deps(), ln.Addr().String())
			go func() {
				if err := srv.Serve(ctx, ln); err != nil {
					slog.Error("embedded server error", "error", err)
				}
			}()
			serverAddr = "http://" + ln.Addr().String()
		}

		c := client.New(serverAddr)
		if err := c.Ping(ctx); err != nil {
			return fmt.Errorf("server %s not reachable: %w", serverAddr, err)
		}

		p := tea.NewProgram(tui.NewApp(c), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	},
}

// quietLogs sends everything below error to nowhere while the UI owns
// the terminal.
func quietLogs() error {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	return logging.SetupWriter(devNull, "error", cfg.Logging.Format)
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
