package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"discoverydash/internal/render"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Poll the gateway once and print the rendered dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			width, _ := cmd.Flags().GetInt("width")
			switch format {
			case "text", "html", "json":
			default:
				return fmt.Errorf("unknown format %q (want text, html or json)", format)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			dash := newDashboard(cfg)
			defer dash.Stop()
			if err := dash.Poll(cmd.Context()); err != nil {
				slog.Warn("gateway unavailable, snapshot is partial", "error", err)
			}

			view := dash.Snapshot()
			view.ClockNowMS = time.Now().UnixMilli()

			out := cmd.OutOrStdout()
			switch format {
			case "html":
				page, err := render.Page(cfg.Title, view)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, page)
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			default:
				_, err := fmt.Fprintln(out, render.Terminal(cfg.Title, view, width))
				return err
			}
		},
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, html or json")
	cmd.Flags().IntP("width", "w", 0, "terminal width used to wrap cards (0 = one row)")
	return cmd
}
