// Package main provides the guideforge command line interface.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "guideforge",
	Short: "CRISPR guide design from genomic coordinates",
	Long: `guideforge fetches flanking sequence around genomic targets from the UCSC Genome Browser,
scans it for PAM sites, filters candidates by sequence quality, scores them with the IDT CRISPR
design service and selects the best spaced guides per target.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRun:  initLogging,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
}

var (
	configPath string
	logLevel   string
	logFormat  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to config.yaml (names the policy file it uses)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (defaults to "+logging.EnvLevel+")")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

func initLogging(cmd *cobra.Command, _ []string) {
	opts := logging.FromEnv()
	if cmd.Flags().Changed("log-level") {
		opts.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		opts.Format = logFormat
	}
	logging.Init(opts)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
