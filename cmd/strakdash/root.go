package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"strakdash/internal/app"
	"strakdash/internal/config"
	"strakdash/internal/infrastructure"
	"strakdash/internal/services"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "strakdash",
		Short:         "Strak Corporation financial dashboard",
		Long:          "strakdash loads the published Strak Corporation datasets and serves an interactive two-page dashboard.",
		Version:       config.AppVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "YAML config file (default: config.yaml or configs/config.yaml if present)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(&g),
		newSummaryCmd(&g),
		newExportCmd(&g),
		newSnapshotCmd(&g),
		newDatasetsCmd(&g),
	)
	return root
}

// loadConfig applies the global flags on top of the normal config layers
func (g *globalFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configFile != "" {
		cfg, err = config.LoadFile(g.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

// offlineLogger logs to the command's stderr so stdout carries only results
func offlineLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logCfg := cfg.Logging
	if logCfg.Format == "" {
		logCfg.Format = "text"
	}
	return infrastructure.NewLogger(logCfg, cmd.ErrOrStderr())
}

// loadService loads every dataset and wraps the store in a service
func (g *globalFlags) loadService(ctx context.Context, cmd *cobra.Command) (*services.DashboardService, *slog.Logger, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := offlineLogger(cmd, cfg)

	cat, store, err := app.LoadStore(ctx, cfg.Data, logger, nil)
	if err != nil {
		return nil, nil, err
	}
	return services.NewDashboardService(store, cat, nil, logger), logger, nil
}

// optionalInt returns nil unless the flag was set explicitly
func optionalInt(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
