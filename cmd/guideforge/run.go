package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/idt"
	"github.com/jonathan/guideforge/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run <targets>",
	Short: "Run the full guide design pipeline end-to-end",
	Long: `Fetches flanks for every target, scans them for PAM sites, applies QC, scores the
passing candidates with IDT, selects top guides and writes a run manifest.

<targets> is a file with one chr:start-end[:strand] per line, or a single coordinate.
Configuration comes from --config; flags override file values only when set.`,
	Args: cobra.ExactArgs(1),
	RunE: runPipelineCmd,
}

var (
	runFlanks      flankFlags
	runOutDir      string
	runSkipScoring bool
	runCleanup     bool
	runVerbose     bool
)

func init() {
	runFlanks.register(runCommand)
	runCommand.Flags().StringVarP(&runOutDir, "out-dir", "o", "", "Directory for output files (default: current directory)")
	runCommand.Flags().BoolVar(&runSkipScoring, "skip-scoring", false, "Stop after QC without contacting IDT")
	runCommand.Flags().BoolVar(&runCleanup, "cleanup", false, "Remove intermediate sequence and candidate files after the run")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print stage summaries")

	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runFlanks.apply(cmd, cfg); err != nil {
		return err
	}
	if runVerbose {
		_, _ = fmt.Fprintf(out, "Loaded config from: %s (policy %s)\n", cfg.Path, cfg.PolicyPath)
	}

	list, err := resolveTargets(out, args[0])
	if err != nil {
		return err
	}

	res, err := pipeline.RunPipeline(cmd.Context(), cfg, pipeline.RunOptions{
		Targets:     list,
		OutputDir:   runOutDir,
		SkipScoring: runSkipScoring,
		Cleanup:     runCleanup,
		Verbose:     runVerbose,
		Out:         out,
	})
	if err != nil {
		if idt.IsAuthExpired(err) && res != nil {
			_, _ = fmt.Fprintf(out, "Partial results and manifest written to %s\n", res.Outputs.Manifest)
		}
		return err
	}

	for _, f := range res.Summary.TargetFailures {
		_, _ = fmt.Fprintf(out, "⚠️ %s skipped at %s: %s\n", f.Target, f.Stage, f.Error)
	}
	if !runSkipScoring {
		_, _ = fmt.Fprintf(out, "🏆 Top guides: %s\n", res.Outputs.TopGuides)
	}
	return nil
}
