// Package qc evaluates protospacers against composition and motif rules.
package qc

import "strings"

// Policy holds the quality control thresholds. GC bounds are inclusive.
type Policy struct {
	GCMin            float64  `yaml:"gc_min" json:"gc_min" validate:"gte=0,lte=1"`
	GCMax            float64  `yaml:"gc_max" json:"gc_max" validate:"gte=0,lte=1,gtefield=GCMin"`
	MaxPolyT         int      `yaml:"max_poly_t" json:"max_poly_t" validate:"gte=1"`
	MaxHomopolymer   int      `yaml:"max_homopolymer" json:"max_homopolymer" validate:"gte=1"`
	RestrictionSites []string `yaml:"restriction_sites" json:"restriction_sites" validate:"dive,required,alpha"`
	ExcludedMotifs   []string `yaml:"-" json:"excluded_motifs" validate:"dive,required,alpha"`
}

// DefaultPolicy returns the thresholds used when the policy file leaves them unset.
func DefaultPolicy() Policy {
	return Policy{
		GCMin:            0.35,
		GCMax:            0.80,
		MaxPolyT:         4,
		MaxHomopolymer:   5,
		RestrictionSites: []string{"GAATTC", "AAGCTT", "GGATCC", "GGTACC", "GCGGCCGC"},
	}
}

// Normalized returns a copy with motifs upper-cased and blanks dropped.
func (p Policy) Normalized() Policy {
	p.RestrictionSites = normalizeMotifs(p.RestrictionSites)
	p.ExcludedMotifs = normalizeMotifs(p.ExcludedMotifs)
	return p
}

func normalizeMotifs(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, m := range in {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}
