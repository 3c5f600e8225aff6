package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/pam"
	"github.com/jonathan/guideforge/internal/types"
)

var scanCommand = &cobra.Command{
	Use:   "scan <sequences.fasta>...",
	Short: "Scan FASTA sequences for PAM sites",
	Long: `Reads flank FASTA files (as written by fetch) and writes every protospacer+PAM site as a
candidates CSV with parent, name, spacer, pam, strand and offset columns.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

var (
	scanOut         string
	scanPattern     string
	scanForwardOnly bool
)

func init() {
	scanCommand.Flags().StringVarP(&scanOut, "out", "o", "CRISPR_candidates.csv", "Output candidates CSV")
	scanCommand.Flags().StringVar(&scanPattern, "pam", "", "PAM pattern in IUPAC letters (overrides pam_scanning.pattern)")
	scanCommand.Flags().BoolVar(&scanForwardOnly, "forward-only", false, "Scan only the strand as given")

	rootCmd.AddCommand(scanCommand)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pattern := cfg.Pattern()
	if cmd.Flags().Changed("pam") {
		if pattern, err = pam.ParsePattern(scanPattern); err != nil {
			return err
		}
	}
	opts := cfg.ScanOptions()
	if cmd.Flags().Changed("forward-only") {
		opts.BothStrands = !scanForwardOnly
	}

	var candidates []types.PamCandidate
	for _, path := range args {
		records, err := output.ReadFile(path, output.ReadSequencesFASTA)
		if err != nil {
			return err
		}
		candidates = append(candidates, pam.ScanAll(records, pattern, opts)...)
	}

	if err := output.WriteFile(scanOut, func(w io.Writer) error {
		return output.WriteCandidatesCSV(w, candidates)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "🔍 %d %s sites written to %s\n", len(candidates), pattern, scanOut)
	return nil
}
