package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/idt"
	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/pipeline"
	"github.com/jonathan/guideforge/internal/retry"
)

var scoreCommand = &cobra.Command{
	Use:   "score [candidates]",
	Short: "Score candidates with the IDT CRISPR design service",
	Long: `Submits candidates in batches to IDT and writes the ranked scores CSV.
<candidates> is a candidates CSV or candidate FASTA. Without arguments a single known
spacer is submitted to check that the session cookie works.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScore,
}

var (
	scoreOut     string
	scoreVerbose bool
)

func init() {
	scoreCommand.Flags().StringVarP(&scoreOut, "out", "o", "", "Output scores CSV (default: outputs.scored_guides)")
	scoreCommand.Flags().BoolVarP(&scoreVerbose, "verbose", "v", false, "Print the best scored candidates")

	rootCmd.AddCommand(scoreCommand)
}

func runScore(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := pipeline.NewIDTClient(cfg, nil, retry.Wait)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		_, _ = fmt.Fprintf(out, "Testing IDT connectivity with %s...\n", idt.PingSpacer)
		res, err := client.Ping(cmd.Context())
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "✅ IDT session OK (on-target %.1f, off-target %.1f)\n",
			res.Scored.OnTargetScore, res.Scored.OffTargetScore)
		return nil
	}

	candidates, err := readCandidates(args[0])
	if err != nil {
		return err
	}
	res, err := pipeline.ScoreCandidates(cmd.Context(), client, candidates)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		_, _ = fmt.Fprintf(out, "⚠️ Batch %d failed (%d candidates): %s\n", f.Batch, len(f.CandidateIDs), f.Error)
	}

	path := outPath(scoreOut, cfg.Outputs.ScoredGuides)
	if err := output.WriteFile(path, func(w io.Writer) error {
		return output.WriteScoredCSV(w, res.Scored, true)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✅ IDT results: %s (%d of %d scored)\n", path, len(res.Scored), len(candidates))
	if scoreVerbose {
		observability.NewPrinter(out).PrintScores(res.Scored)
	}
	return nil
}
