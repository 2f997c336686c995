package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"discoverydash/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			dash := newDashboard(cfg)
			dash.Start()
			defer dash.Stop()

			srv := server.New(cfg.ListenAddr, dash, server.Options{
				Title:        cfg.Title,
				PushInterval: cfg.PushInterval(),
			})

			ctx := cmd.Context()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Warn("server shutdown", "error", err)
				}
			}()

			slog.Info("dashboard listening", "addr", cfg.ListenAddr, "gateway", cfg.GatewayURL, "mode", cfg.Mode)
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			slog.Info("dashboard stopped")
			return nil
		},
	}
	cmd.Flags().StringP("addr", "a", "", "address for the web server (default from config, :8080)")
	return cmd
}
