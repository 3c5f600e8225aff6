package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/config"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/targets"
	"github.com/jonathan/guideforge/internal/types"
)

// loadConfig loads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// flankFlags are the fetch overrides shared by run and fetch.
type flankFlags struct {
	genome     string
	upstream   int
	downstream int
}

func (f *flankFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.genome, "genome", "", "Genome assembly (overrides ucsc.genome_assembly)")
	cmd.Flags().IntVar(&f.upstream, "upstream", 0, "Upstream flank length in bp (overrides ucsc.upstream_distance)")
	cmd.Flags().IntVar(&f.downstream, "downstream", 0, "Downstream flank length in bp (overrides ucsc.downstream_distance)")
}

// apply overrides cfg only for flags that were set explicitly, then revalidates.
func (f *flankFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("genome") {
		cfg.UCSC.GenomeAssembly = f.genome
	}
	if cmd.Flags().Changed("upstream") {
		cfg.UCSC.UpstreamDistance = f.upstream
	}
	if cmd.Flags().Changed("downstream") {
		cfg.UCSC.DownstreamDistance = f.downstream
	}
	return cfg.Validate()
}

// resolveTargets reads the target argument and reports rejected lines.
func resolveTargets(w io.Writer, arg string) (*targets.List, error) {
	list, err := targets.Resolve(arg)
	if err != nil {
		return nil, err
	}
	for _, perr := range list.Errors {
		_, _ = fmt.Fprintf(w, "⚠️ Skipping target: %v\n", perr)
	}
	if len(list.Coordinates) == 0 {
		return nil, fmt.Errorf("no valid targets in %q (expected %s)", arg, targets.ExpectedFormat)
	}
	return list, nil
}

// readCandidates reads a candidates CSV, or a candidate FASTA for any other extension.
func readCandidates(path string) ([]types.PamCandidate, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return output.ReadFile(path, output.ReadCandidatesCSV)
	}
	return output.ReadFile(path, output.ReadCandidatesFASTA)
}

// outPath returns flagValue when set, otherwise the configured name.
func outPath(flagValue, configured string) string {
	if flagValue != "" {
		return flagValue
	}
	return configured
}
