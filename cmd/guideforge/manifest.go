package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/manifest"
	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/schemas"
	"github.com/jonathan/guideforge/internal/types"
)

var manifestCommand = &cobra.Command{
	Use:   "manifest",
	Short: "Write, validate and compare run manifests",
}

var manifestWriteCommand = &cobra.Command{
	Use:   "write",
	Short: "Write a manifest for the current configuration",
	Long: `Records the run ID, timestamp, tool version, configuration and policy hashes and the
given summary statistics. --stats takes the stats object as JSON, for example
'{"targets_processed":3,"pam_candidates_found":40}'.`,
	Args: cobra.NoArgs,
	RunE: runManifestWrite,
}

var manifestCompareCommand = &cobra.Command{
	Use:   "compare <manifest1> <manifest2>",
	Short: "Compare two manifests",
	Long: `Reports differing configuration hashes, versions and statistics. Run IDs, timestamps,
users and hosts are expected to differ and are not reported. Exits non-zero when the
configuration differs.`,
	Args: cobra.ExactArgs(2),
	RunE: runManifestCompare,
}

var manifestValidateCommand = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Validate a manifest against the manifest schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestValidate,
}

var (
	manifestOut   string
	manifestStats string
)

func init() {
	manifestWriteCommand.Flags().StringVarP(&manifestOut, "out", "o", "", "Output path (default: outputs.manifest)")
	manifestWriteCommand.Flags().StringVar(&manifestStats, "stats", "{}", "Run statistics as a JSON object")

	manifestCommand.AddCommand(manifestWriteCommand)
	manifestCommand.AddCommand(manifestCompareCommand)
	manifestCommand.AddCommand(manifestValidateCommand)
	rootCmd.AddCommand(manifestCommand)
}

func runManifestWrite(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var stats types.RunSummary
	if err := json.Unmarshal([]byte(manifestStats), &stats); err != nil {
		return fmt.Errorf("invalid --stats JSON: %w", err)
	}
	if stats.PipelineType == "" {
		stats.PipelineType = "manual"
	}
	stats.QCPassRate = types.PassRate(stats.TotalPassedQC, stats.TotalFailedQC)

	m := manifest.Build(cfg, stats)
	path := outPath(manifestOut, cfg.Outputs.Manifest)
	if err := manifest.Write(path, m); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "📋 Manifest written to: %s (run %s)\n", path, m.RunID)
	return nil
}

func runManifestCompare(cmd *cobra.Command, args []string) error {
	a, err := manifest.Read(args[0])
	if err != nil {
		return err
	}
	b, err := manifest.Read(args[1])
	if err != nil {
		return err
	}
	diffs := manifest.Compare(a, b)
	observability.NewPrinter(cmd.OutOrStdout()).PrintComparison(a, b, diffs)
	if !manifest.Reproducible(diffs) {
		return fmt.Errorf("manifests differ in configuration")
	}
	return nil
}

func runManifestValidate(cmd *cobra.Command, args []string) error {
	if err := schemas.ValidateFile(schemas.Manifest, args[0]); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is a valid manifest\n", args[0])
	return nil
}
