package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/guideforge/internal/config"
)

var validateConfigCommand = &cobra.Command{
	Use:   "validate-config",
	Short: "Check config.yaml and policy.yaml",
	Long: `Loads and validates the configuration and the policy file it names, then prints the
content hashes recorded in manifests. With --require-cookie the IDT session cookie must
also be set.`,
	Args: cobra.NoArgs,
	RunE: runValidateConfig,
}

var validateRequireCookie bool

func init() {
	validateConfigCommand.Flags().BoolVar(&validateRequireCookie, "require-cookie", false, "Fail when the IDT session cookie is missing")
	rootCmd.AddCommand(validateConfigCommand)
}

func runValidateConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if validateRequireCookie {
		if err := cfg.RequireSessionCookie(); err != nil {
			return err
		}
	}
	speciesName, genome, err := config.IDTSpecies(cfg.UCSC.GenomeAssembly)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, "✅ Configuration valid")
	_, _ = fmt.Fprintf(out, "  Config: %s (%s)\n", cfg.Path, cfg.ConfigHash)
	_, _ = fmt.Fprintf(out, "  Policy: %s (%s)\n", cfg.PolicyPath, cfg.PolicyHash)
	_, _ = fmt.Fprintf(out, "  Genome: %s -> IDT species %s, genome %s\n", cfg.UCSC.GenomeAssembly, speciesName, genome)
	_, _ = fmt.Fprintf(out, "  PAM:    %s\n", cfg.PAMScanning.Pattern)
	if cfg.RequireSessionCookie() != nil {
		_, _ = fmt.Fprintln(out, "  ⚠️ IDT session cookie not set; scoring will fail")
	}
	return nil
}
