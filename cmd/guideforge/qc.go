package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/qc"
	"github.com/jonathan/guideforge/internal/types"
)

var qcCommand = &cobra.Command{
	Use:   "qc <candidates>",
	Short: "Apply quality control filters to PAM candidates",
	Long: `Checks GC content, poly-T runs, homopolymers, restriction sites and excluded motifs
against policy.yaml. <candidates> is a candidates CSV (from scan) or a candidate FASTA
(from fetch --scan-pam). Every rule is evaluated and all failure reasons are reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runQC,
}

var (
	qcOut          string
	qcFilteredOnly bool
	qcVerbose      bool
)

func init() {
	qcCommand.Flags().StringVarP(&qcOut, "out", "o", "", "Output QC CSV (default: outputs.crispr_candidates_qc)")
	qcCommand.Flags().BoolVar(&qcFilteredOnly, "filtered-only", false, "Write only candidates that passed")
	qcCommand.Flags().BoolVarP(&qcVerbose, "verbose", "v", false, "Print pass/fail breakdown")

	rootCmd.AddCommand(qcCommand)
}

func runQC(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	candidates, err := readCandidates(args[0])
	if err != nil {
		return err
	}

	verdicts := qc.EvaluateAll(candidates, cfg.QCPolicy())
	written := verdicts
	if qcFilteredOnly {
		written = make([]types.QcVerdict, 0, len(verdicts))
		for _, v := range verdicts {
			if v.Passed {
				written = append(written, v)
			}
		}
	}

	path := outPath(qcOut, cfg.Outputs.CrisprCandidatesQC)
	if err := output.WriteFile(path, func(w io.Writer) error {
		return output.WriteQCCSV(w, written)
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	passed := len(qc.Passed(candidates, verdicts))
	_, _ = fmt.Fprintf(out, "🔬 %d of %d candidates passed QC, %d rows written to %s\n", passed, len(verdicts), len(written), path)
	if qcVerbose {
		observability.NewPrinter(out).PrintQC(verdicts)
	}
	return nil
}
