package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile    string
	logLevel   string
	logFormat  string
	batchSize  int
	pageDelay  time.Duration
	skipVerify bool
)

var rootCmd = &cobra.Command{
	Use:   "sheetmigrate",
	Short: "Bubble to Postgres migration engine",
	Long: `A CLI tool for migrating entity records from a Bubble application's
object API into a Postgres database.

Features:
  - Entity ordering derived from declared foreign-key dependencies
  - Idempotent re-runs backed by a durable identity mapping table
  - Rate-limit aware source pagination with exponential backoff
  - Best-effort foreign-key resolution tolerating dangling references
  - Dry-run mode for estimating scope before committing to a run`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "sheetmigrate.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&batchSize, "batch-size", 0,
		"Override page size requested from the source API (max 100)")
	rootCmd.PersistentFlags().DurationVar(&pageDelay, "page-delay", 0,
		"Override delay between source API page requests (e.g. 500ms)")

	rootCmd.PersistentFlags().BoolVar(&skipVerify, "skip-verify", false,
		"Skip per-entity consistency verification")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel   string
	LogFormat  string
	BatchSize  int
	PageDelay  time.Duration
	SkipVerify bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:   logLevel,
		LogFormat:  logFormat,
		BatchSize:  batchSize,
		PageDelay:  pageDelay,
		SkipVerify: skipVerify,
	}
}
