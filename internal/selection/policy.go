package selection

import (
	"fmt"

	"github.com/jonathan/guideforge/internal/pam"
)

// Policy holds the thresholds applied after scoring.
type Policy struct {
	MinOnTargetScore  float64  `yaml:"min_on_target_score" json:"min_on_target_score"`
	MinOffTargetScore float64  `yaml:"min_off_target_score" json:"min_off_target_score"`
	AcceptedPAMs      []string `yaml:"accepted_pams" json:"accepted_pams"`
	NumGuidesPerGene  int      `yaml:"num_guides_per_gene" json:"num_guides_per_gene" validate:"gte=1"`
	MinSpacingBP      int      `yaml:"min_spacing_bp" json:"min_spacing_bp" validate:"gte=0"`
}

// DefaultPolicy returns the selection defaults: five guides per target, 30 bp apart.
func DefaultPolicy() Policy {
	return Policy{
		NumGuidesPerGene: 5,
		MinSpacingBP:     30,
	}
}

// Validate checks that every accepted PAM is a valid IUPAC pattern.
func (p Policy) Validate() error {
	for _, s := range p.AcceptedPAMs {
		if _, err := pam.ParsePattern(s); err != nil {
			return &Error{Field: "accepted_pams", Message: fmt.Sprintf("invalid PAM %q", s), Cause: err}
		}
	}
	return nil
}

type pamFilter []pam.Pattern

func compileAccepted(accepted []string) pamFilter {
	f := make(pamFilter, 0, len(accepted))
	for _, s := range accepted {
		if p, err := pam.ParsePattern(s); err == nil {
			f = append(f, p)
		}
	}
	return f
}

// accepts reports whether site matches any pattern. An empty filter accepts everything.
func (f pamFilter) accepts(site string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if p.Matches(site) {
			return true
		}
	}
	return false
}
