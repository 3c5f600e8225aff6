package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/pam"
	"github.com/jonathan/guideforge/internal/pipeline"
	"github.com/jonathan/guideforge/internal/qc"
	"github.com/jonathan/guideforge/internal/retry"
)

var fetchCommand = &cobra.Command{
	Use:   "fetch <targets>",
	Short: "Fetch upstream and downstream flanks from UCSC",
	Long: `Writes the upstream and downstream flanks of every target as FASTA. With --scan-pam the
flanks are also scanned for PAM sites, and with --qc the candidates are quality checked.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchFlanks  flankFlags
	fetchOutDir  string
	fetchScanPAM bool
	fetchQC      bool
	fetchVerbose bool
)

func init() {
	fetchFlanks.register(fetchCommand)
	fetchCommand.Flags().StringVarP(&fetchOutDir, "out-dir", "o", "", "Directory for output files (default: current directory)")
	fetchCommand.Flags().BoolVar(&fetchScanPAM, "scan-pam", false, "Scan fetched flanks for PAM sites")
	fetchCommand.Flags().BoolVar(&fetchQC, "qc", false, "Apply QC to scanned candidates (requires --scan-pam)")
	fetchCommand.Flags().BoolVarP(&fetchVerbose, "verbose", "v", false, "Print stage summaries")

	rootCmd.AddCommand(fetchCommand)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if fetchQC && !fetchScanPAM {
		return fmt.Errorf("--qc requires --scan-pam")
	}
	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := fetchFlanks.apply(cmd, cfg); err != nil {
		return err
	}
	list, err := resolveTargets(out, args[0])
	if err != nil {
		return err
	}
	paths := pipeline.ResolveOutputs(cfg.Outputs, fetchOutDir)

	client := pipeline.NewUCSCClient(cfg, nil, retry.Wait)
	fetched, err := pipeline.FetchAll(cmd.Context(), client, cfg, list.Coordinates, retry.Wait)
	if err != nil {
		return err
	}
	for _, f := range fetched.Failures {
		_, _ = fmt.Fprintf(out, "⚠️ %s skipped: %s\n", f.Target, f.Error)
	}
	if err := output.WriteFile(paths.UpstreamSequences, func(w io.Writer) error {
		return output.WriteSequencesFASTA(w, fetched.Upstream())
	}); err != nil {
		return err
	}
	if err := output.WriteFile(paths.DownstreamSequences, func(w io.Writer) error {
		return output.WriteSequencesFASTA(w, fetched.Downstream())
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "✅ Sequences for %d/%d targets: %s, %s\n",
		fetched.Processed(), len(list.Coordinates), paths.UpstreamSequences, paths.DownstreamSequences)
	if fetchVerbose {
		printer.PrintSequences(fetched.Records())
	}
	if !fetchScanPAM {
		return nil
	}

	candidates := pam.ScanAll(fetched.Records(), cfg.Pattern(), cfg.ScanOptions())
	if err := output.WriteFile(paths.CrisprCandidates, func(w io.Writer) error {
		return output.WriteCandidatesFASTA(w, candidates)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "🔍 PAM candidates: %s (%d sites)\n", paths.CrisprCandidates, len(candidates))
	if fetchVerbose {
		printer.PrintCandidates(candidates)
	}
	if !fetchQC {
		return nil
	}

	verdicts := qc.EvaluateAll(candidates, cfg.QCPolicy())
	if err := output.WriteFile(paths.CrisprCandidatesQC, func(w io.Writer) error {
		return output.WriteQCCSV(w, verdicts)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "🔬 QC results: %s (%d passed of %d)\n",
		paths.CrisprCandidatesQC, len(qc.Passed(candidates, verdicts)), len(verdicts))
	if fetchVerbose {
		printer.PrintQC(verdicts)
	}
	return nil
}
