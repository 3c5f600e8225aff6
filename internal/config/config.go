// Package config provides configuration and policy loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/guideforge/internal/pam"
	"github.com/jonathan/guideforge/internal/qc"
	"github.com/jonathan/guideforge/internal/selection"
	"github.com/jonathan/guideforge/internal/types"
	"gopkg.in/yaml.v3"
)

// PlaceholderCookie is the value shipped in the sample config.
const PlaceholderCookie = "YOUR_IDT_SESSION_COOKIE_HERE"

// EnvSessionCookie overrides idt.session_cookie when set.
const EnvSessionCookie = "IDT_SESSION_COOKIE"

// UCSC configures the sequence fetcher.
type UCSC struct {
	BaseURL            string  `yaml:"base_url,omitempty" validate:"omitempty,url"`
	GenomeAssembly     string  `yaml:"genome_assembly" validate:"required"`
	UpstreamDistance   int     `yaml:"upstream_distance" validate:"gte=0"`
	DownstreamDistance int     `yaml:"downstream_distance" validate:"gte=0"`
	Retries            int     `yaml:"retries" validate:"gte=1"`
	Timeout            float64 `yaml:"timeout" validate:"gt=0"`
	RequestDelay       float64 `yaml:"request_delay" validate:"gte=0"`
}

// IDT configures the scoring client. Durations are in seconds.
type IDT struct {
	BaseURL       string  `yaml:"base_url,omitempty" validate:"omitempty,url"`
	SessionCookie string  `yaml:"session_cookie"`
	BatchSize     int     `yaml:"batch_size" validate:"gte=1"`
	Concurrency   int     `yaml:"concurrency" validate:"gte=1"`
	Timeout       float64 `yaml:"timeout" validate:"gt=0"`
	DelayMin      float64 `yaml:"delay_min" validate:"gte=0"`
	DelayMax      float64 `yaml:"delay_max" validate:"gtefield=DelayMin"`
	PollInterval  float64 `yaml:"poll_interval" validate:"gte=0"`
	PollMax       int     `yaml:"poll_max" validate:"gte=1"`
	RetryAttempts int     `yaml:"retry_attempts" validate:"gte=1"`
}

// PAMScanning selects the PAM pattern.
type PAMScanning struct {
	Pattern     string `yaml:"pattern" validate:"required"`
	ForwardOnly bool   `yaml:"forward_only,omitempty"`
}

// Outputs names the files written by a run. Relative names resolve against the output directory.
type Outputs struct {
	UpstreamSequences   string `yaml:"upstream_sequences"`
	DownstreamSequences string `yaml:"downstream_sequences"`
	CrisprCandidates    string `yaml:"crispr_candidates"`
	CrisprCandidatesQC  string `yaml:"crispr_candidates_qc"`
	ScoredGuides        string `yaml:"scored_guides"`
	TopGuides           string `yaml:"top_guides"`
	Manifest            string `yaml:"manifest"`
}

// Filters holds motif filters outside the core QC thresholds.
type Filters struct {
	ExcludeMotifs []string `yaml:"exclude_motifs"`
}

// Policy is the content of policy.yaml.
type Policy struct {
	QualityControl qc.Policy          `yaml:"quality_control"`
	Filters        Filters            `yaml:"filters"`
	GuideSelection selection.Policy   `yaml:"guide_selection"`
	Scoring        types.ScoreWeights `yaml:"scoring"`
}

// Config is the content of config.yaml plus the policy it references.
type Config struct {
	UCSC        UCSC        `yaml:"ucsc"`
	IDT         IDT         `yaml:"idt"`
	PAMScanning PAMScanning `yaml:"pam_scanning"`
	Outputs     Outputs     `yaml:"outputs"`
	PolicyFile  string      `yaml:"policy_file"`

	Policy Policy `yaml:"-"`

	// Set by Load.
	Path       string `yaml:"-"`
	PolicyPath string `yaml:"-"`
	ConfigHash string `yaml:"-"`
	PolicyHash string `yaml:"-"`
}

// Defaults returns the configuration used for any value the files leave unset.
func Defaults() Config {
	return Config{
		UCSC: UCSC{
			BaseURL:            "https://api.genome.ucsc.edu",
			GenomeAssembly:     "hg38",
			UpstreamDistance:   100,
			DownstreamDistance: 100,
			Retries:            3,
			Timeout:            30,
			RequestDelay:       1,
		},
		IDT: IDT{
			BaseURL:       "https://eu.idtdna.com/sciservices/sherlock/crispr",
			BatchSize:     10,
			Concurrency:   1,
			Timeout:       60,
			DelayMin:      1,
			DelayMax:      3,
			PollInterval:  2,
			PollMax:       30,
			RetryAttempts: 3,
		},
		PAMScanning: PAMScanning{Pattern: "NGG"},
		Outputs: Outputs{
			UpstreamSequences:   "Upstream_sequences.txt",
			DownstreamSequences: "Downstream_sequences.txt",
			CrisprCandidates:    "CRISPR_candidates.txt",
			CrisprCandidatesQC:  "CRISPR_candidates_qc.csv",
			ScoredGuides:        "CRISPR_candidates_idt.csv",
			TopGuides:           "top_guides.csv",
			Manifest:            "manifest.json",
		},
		PolicyFile: "policy.yaml",
		Policy: Policy{
			QualityControl: qc.DefaultPolicy(),
			GuideSelection: selection.DefaultPolicy(),
			Scoring:        types.DefaultScoreWeights,
		},
	}
}

// Load reads config.yaml at path, then the policy file it names (relative to
// the config file's directory), applies the session cookie environment
// override and validates the result. Keys absent from either file keep their
// Defaults value; keys present with a zero value stay zero.
func Load(path string) (*Config, error) {
	cfg, data, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	merged := cfg.MergeWithDefaults(Defaults())
	cfg = &merged
	cfg.ConfigHash = Hash(data)

	policyPath := cfg.PolicyFile
	if !filepath.IsAbs(policyPath) {
		policyPath = filepath.Join(filepath.Dir(cfg.Path), policyPath)
	}
	policy, policyData, err := LoadPolicy(policyPath)
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy.MergeWithDefaults(Defaults().Policy)
	cfg.PolicyPath = policyPath
	cfg.PolicyHash = Hash(policyData)

	if v := strings.TrimSpace(os.Getenv(EnvSessionCookie)); v != "" {
		cfg.IDT.SessionCookie = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads config.yaml and decodes it over Defaults without
// validation. It also returns the raw bytes for hashing.
func LoadConfig(path string) (*Config, []byte, error) {
	if path == "" {
		return nil, nil, &Error{Message: "config path is empty"}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, &Error{Message: "failed to resolve config path", Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, &Error{Message: fmt.Sprintf("failed to read config file %s", abs), Cause: err}
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, &Error{Message: "failed to parse config YAML", Cause: err}
	}
	cfg.Path = abs
	return &cfg, data, nil
}

// LoadPolicy reads policy.yaml and decodes it over the default policy. It also
// returns the raw bytes for hashing.
func LoadPolicy(path string) (*Policy, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &Error{Field: "policy_file", Message: fmt.Sprintf("failed to read policy file %s", path), Cause: err}
	}
	p := Defaults().Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, nil, &Error{Field: "policy_file", Message: "failed to parse policy YAML", Cause: err}
	}
	return &p, data, nil
}

var validate = validator.New()

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldError(err)
	}
	if _, err := pam.ParsePattern(c.PAMScanning.Pattern); err != nil {
		return &Error{Field: "pam_scanning.pattern", Message: "invalid PAM pattern", Cause: err}
	}
	if err := c.Policy.GuideSelection.Validate(); err != nil {
		return &Error{Field: "guide_selection.accepted_pams", Message: "invalid accepted PAM", Cause: err}
	}
	if _, _, err := IDTSpecies(c.UCSC.GenomeAssembly); err != nil {
		return err
	}
	return nil
}

func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed '%s' check (value %v)", fe.Tag(), fe.Value()),
			Cause:   err,
		}
	}
	return &Error{Message: "validation failed", Cause: err}
}

// RequireSessionCookie fails when no usable IDT session cookie is configured.
func (c *Config) RequireSessionCookie() error {
	cookie := strings.TrimSpace(c.IDT.SessionCookie)
	if cookie == "" || cookie == PlaceholderCookie {
		return &Error{
			Field:   "idt.session_cookie",
			Message: "IDT session cookie not configured; log in to idtdna.com and copy the session cookie into config.yaml or " + EnvSessionCookie,
		}
	}
	return nil
}

// QCPolicy returns the quality control policy with excluded motifs folded in.
func (c *Config) QCPolicy() qc.Policy {
	p := c.Policy.QualityControl
	p.ExcludedMotifs = append([]string(nil), c.Policy.Filters.ExcludeMotifs...)
	return p.Normalized()
}

// Pattern returns the parsed PAM pattern. Validate guarantees it parses.
func (c *Config) Pattern() pam.Pattern {
	return pam.MustParsePattern(c.PAMScanning.Pattern)
}

// ScanOptions returns the scanner options implied by the configuration.
func (c *Config) ScanOptions() pam.Options {
	return pam.Options{BothStrands: !c.PAMScanning.ForwardOnly}
}

// Seconds converts a seconds value from the YAML files into a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

var species = map[string]string{
	"hg38":     "human",
	"hg19":     "human",
	"mm10":     "mouse",
	"mm39":     "mouse",
	"rn7":      "rat",
	"danRer11": "zebrafish",
	"ce11":     "c_elegans",
}

// IDTSpecies maps a UCSC assembly to the species and genome names IDT expects.
func IDTSpecies(assembly string) (string, string, error) {
	s, ok := species[assembly]
	if !ok {
		return "", "", &Error{
			Field:   "ucsc.genome_assembly",
			Message: fmt.Sprintf("unsupported genome assembly '%s' (supported: hg38, hg19, mm10, mm39, rn7, danRer11, ce11)", assembly),
		}
	}
	return s, assembly, nil
}
