package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"discoverydash/internal/config"
	"discoverydash/internal/dashboard"
	"discoverydash/internal/monitor"
)

const envPrefix = "DISCOVERYDASH"

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "discoverydash",
		Short:         "Live dashboard for a service discovery gateway",
		Version:       version,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogger(os.Stderr, verbose)
		},
	}

	flags := root.PersistentFlags()
	flags.SortFlags = false
	flags.StringP("config", "c", "config.yaml", "path to configuration file (YAML)")
	flags.StringP("gateway", "g", "", "base URL of the discovery gateway")
	flags.StringP("mode", "m", "", "fetch mode: aggregate or probe")
	flags.StringSlice("services", nil, "service names to probe in probe mode")
	flags.BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(), newTUICmd(), newSnapshotCmd(), newVersionCmd())
	return root
}

func main() {
	setupLogger(os.Stderr, false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("discoverydash failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    noColor,
	})))
}

// loadConfig reads the YAML file and layers flags and DISCOVERYDASH_* environment variables on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"config":      "config",
		"gateway_url": "gateway",
		"mode":        "mode",
		"services":    "services",
		"listen_addr": "addr",
	}
	for key, flag := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return config.Config{}, err
	}
	if v.IsSet("gateway_url") {
		cfg.GatewayURL = v.GetString("gateway_url")
	}
	if v.IsSet("mode") {
		cfg.Mode = v.GetString("mode")
	}
	if v.IsSet("services") {
		cfg.Services = splitNames(v.GetStringSlice("services"))
	}
	if v.IsSet("listen_addr") {
		cfg.ListenAddr = v.GetString("listen_addr")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// splitNames flattens comma separated entries. Viper only splits environment
// values on whitespace, so DISCOVERYDASH_SERVICES=a,b arrives as one element.
func splitNames(values []string) []string {
	names := make([]string, 0, len(values))
	for _, value := range values {
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func newDashboard(cfg config.Config) *dashboard.Dashboard {
	client := monitor.NewClient(monitor.Options{
		BaseURL:        cfg.GatewayURL,
		RequestTimeout: cfg.RequestTimeout(),
		ProbeTimeout:   cfg.ProbeTimeout(),
	})
	return dashboard.New(client, dashboard.OptionsFromConfig(cfg))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "discoverydash "+version)
			return err
		},
	}
}
