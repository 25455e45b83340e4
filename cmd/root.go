package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-clan-metrics/internal/config"
	"github.com/pable/go-clan-metrics/internal/logging"
)

var (
	dbPath       string
	settingsPath string
	logLevel     string

	settings *config.Config
	logger   = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "clanmetrics",
	Short: "Clan match analytics tool",
	Long: `Turn a raw match export into team, pair and lineup statistics.

Inputs are read from JSON files (matches, player registry, team config and
optional role annotations); results can be stored as snapshots keyed by the
dataset fingerprint.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite snapshot database")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "YAML settings file (default $"+config.FileEnv+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(synergyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads settings and applies flag overrides before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	if settingsPath != "" {
		if err := os.Setenv(config.FileEnv, settingsPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.DB = dbPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	dbPath = cfg.DB

	l, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	settings, logger = cfg, l
	logger.Debug("settings loaded", zap.String("db", cfg.DB), zap.String("matches", cfg.Matches))
	return nil
}
