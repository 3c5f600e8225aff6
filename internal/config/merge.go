package config

import "github.com/jonathan/guideforge/internal/types"

// MergeWithDefaults returns a new Config with empty strings filled from defaults.
// Numbers and bools are left alone: zero is a valid setting for distances,
// delays and thresholds. Load gets numeric defaults by decoding over Defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	u, du := &result.UCSC, defaults.UCSC
	u.BaseURL = orString(u.BaseURL, du.BaseURL)
	u.GenomeAssembly = orString(u.GenomeAssembly, du.GenomeAssembly)

	i, di := &result.IDT, defaults.IDT
	i.BaseURL = orString(i.BaseURL, di.BaseURL)
	i.SessionCookie = orString(i.SessionCookie, di.SessionCookie)

	result.PAMScanning.Pattern = orString(result.PAMScanning.Pattern, defaults.PAMScanning.Pattern)

	o, do := &result.Outputs, defaults.Outputs
	o.UpstreamSequences = orString(o.UpstreamSequences, do.UpstreamSequences)
	o.DownstreamSequences = orString(o.DownstreamSequences, do.DownstreamSequences)
	o.CrisprCandidates = orString(o.CrisprCandidates, do.CrisprCandidates)
	o.CrisprCandidatesQC = orString(o.CrisprCandidatesQC, do.CrisprCandidatesQC)
	o.ScoredGuides = orString(o.ScoredGuides, do.ScoredGuides)
	o.TopGuides = orString(o.TopGuides, do.TopGuides)
	o.Manifest = orString(o.Manifest, do.Manifest)

	result.PolicyFile = orString(result.PolicyFile, defaults.PolicyFile)

	return result
}

// MergeWithDefaults fills the policy values that have no meaningful zero. A nil
// restriction site list (a null key) takes the defaults; an explicit empty list
// disables the rule. Weights that are both zero would score every guide 0.
func (p *Policy) MergeWithDefaults(defaults Policy) Policy {
	result := *p

	q := &result.QualityControl
	if q.RestrictionSites == nil {
		q.RestrictionSites = append([]string(nil), defaults.QualityControl.RestrictionSites...)
	}

	if result.Scoring == (types.ScoreWeights{}) {
		result.Scoring = defaults.Scoring
	}

	return result
}

func orString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
