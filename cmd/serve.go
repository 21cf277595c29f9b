package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/simonvc/projectledger/internal/scheduler"
	"github.com/simonvc/projectledger/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(svc.deps(), addr)

		if cfg.Scheduler.Enabled {
			hour, minute, err := cfg.Scheduler.Clock()
			if err != nil {
				return err
			}
			sched := scheduler.New(svc.recorder, hour, minute)
			go func() {
				if err := sched.Run(ctx); err != nil {
					slog.ErrorContext(ctx, "depreciation scheduler", "error", err)
				}
			}()
		}

		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8888", "Listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}
