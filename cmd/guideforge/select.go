package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/pipeline"
)

var selectCommand = &cobra.Command{
	Use:   "select <scores.csv>",
	Short: "Select the top spaced guides per sequence",
	Long: `Reads a scores CSV (from score or run), applies the guide_selection thresholds and
accepted PAMs from policy.yaml, and greedily picks the best guides per source sequence
that are at least min_spacing_bp apart.`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

var (
	selectOut       string
	selectNumGuides int
	selectSpacing   int
	selectMinOn     float64
	selectMinOff    float64
	selectPAMs      []string
	selectVerbose   bool
)

func init() {
	selectCommand.Flags().StringVarP(&selectOut, "out", "o", "", "Output top guides CSV (default: outputs.top_guides)")
	selectCommand.Flags().IntVarP(&selectNumGuides, "num-guides", "n", 0, "Guides per sequence (overrides num_guides_per_gene)")
	selectCommand.Flags().IntVar(&selectSpacing, "min-spacing", 0, "Minimum distance between guides in bp (overrides min_spacing_bp)")
	selectCommand.Flags().Float64Var(&selectMinOn, "min-on", 0, "Minimum on-target score (overrides min_on_target_score)")
	selectCommand.Flags().Float64Var(&selectMinOff, "min-off", 0, "Minimum off-target score (overrides min_off_target_score)")
	selectCommand.Flags().StringSliceVar(&selectPAMs, "accepted-pams", nil, "Comma separated PAM patterns to keep (overrides accepted_pams)")
	selectCommand.Flags().BoolVarP(&selectVerbose, "verbose", "v", false, "Print the selected guides")

	rootCmd.AddCommand(selectCommand)
}

func runSelect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	policy := cfg.Policy.GuideSelection
	if cmd.Flags().Changed("num-guides") {
		if selectNumGuides < 1 {
			return fmt.Errorf("--num-guides must be at least 1")
		}
		policy.NumGuidesPerGene = selectNumGuides
	}
	if cmd.Flags().Changed("min-spacing") {
		policy.MinSpacingBP = selectSpacing
	}
	if cmd.Flags().Changed("min-on") {
		policy.MinOnTargetScore = selectMinOn
	}
	if cmd.Flags().Changed("min-off") {
		policy.MinOffTargetScore = selectMinOff
	}
	if cmd.Flags().Changed("accepted-pams") {
		policy.AcceptedPAMs = selectPAMs
		if err := policy.Validate(); err != nil {
			return err
		}
	}

	scored, err := output.ReadFile(args[0], output.ReadScoredCSV)
	if err != nil {
		return err
	}
	selected := pipeline.SelectGuides(scored, policy)

	path := outPath(selectOut, cfg.Outputs.TopGuides)
	if err := output.WriteFile(path, func(w io.Writer) error {
		return output.WriteTopGuidesCSV(w, selected)
	}); err != nil {
		return err
	}
	total := 0
	for _, s := range selected {
		total += len(s.Guides)
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "🏆 Top guides: %s (%d selected across %d sequences)\n", path, total, len(selected))
	if selectVerbose {
		observability.NewPrinter(out).PrintSelection(selected)
	}
	return nil
}
