package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a multi-turn banking dialogue engine",
	Long: `Parley runs guided banking conversations: it classifies each message,
collects the details a request needs, confirms risky actions and refuses to
collect secrets. Run it as an interactive chat, an HTTP service or an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "parley.yaml", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log_level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every turn and show decision details")
}

// loadConfig reads the configuration named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs always go to stderr.
func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return logging.NewJSON(level), nil
	}
	return logging.New(level), nil
}

// setup loads configuration, builds the logger and assembles the engine.
func setup(ctx context.Context, cmd *cobra.Command, carryOver bool, extra ...func(*cli.BuildOptions)) (*cli.Stack, config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, cfg, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")

	opts := cli.BuildOptions{Config: cfg, Logger: logger, Debug: debug, CarryOver: carryOver}
	for _, fn := range extra {
		fn(&opts)
	}
	stack, err := cli.BuildEngine(ctx, opts)
	if err != nil {
		return nil, cfg, nil, err
	}
	return stack, cfg, logger, nil
}
