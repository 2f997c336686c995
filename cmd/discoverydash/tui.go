package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"discoverydash/internal/tui"
)

func newTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Show the dashboard in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			// the screen belongs to the TUI, so logs go to a file or nowhere
			logFile, _ := cmd.Flags().GetString("log-file")
			verbose, _ := cmd.Flags().GetBool("verbose")
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			setupLogger(logOut, verbose)

			dash := newDashboard(cfg)
			dash.Start()
			defer dash.Stop()

			slog.Info("terminal dashboard started", "gateway", cfg.GatewayURL, "mode", cfg.Mode)
			return tui.Run(cmd.Context(), dash, tui.Options{
				Title:         cfg.Title,
				FrameInterval: cfg.ClockInterval(),
			})
		},
	}
	cmd.Flags().String("log-file", "", "write logs to this file while the TUI is running")
	return cmd
}
