package types

// ScoreWeights combine on- and off-target scores into OnPlusOff.
type ScoreWeights struct {
	OnTarget  float64 `json:"on_target" yaml:"on_target_weight"`
	OffTarget float64 `json:"off_target" yaml:"off_target_weight"`
}

// DefaultScoreWeights is a plain sum.
var DefaultScoreWeights = ScoreWeights{OnTarget: 1, OffTarget: 1}

// Combine returns the weighted sum of the two scores.
func (w ScoreWeights) Combine(on, off float64) float64 {
	return w.OnTarget*on + w.OffTarget*off
}

// ScoredCandidate is a QC-passing candidate with scores returned by the scoring service.
type ScoredCandidate struct {
	PamCandidate
	OnTargetScore  float64 `json:"on_target_score"`
	OffTargetScore float64 `json:"off_target_score"`
	OnPlusOff      float64 `json:"on_plus_off"`
}

// NewScoredCandidate builds a ScoredCandidate and computes OnPlusOff with w.
func NewScoredCandidate(c PamCandidate, on, off float64, w ScoreWeights) ScoredCandidate {
	return ScoredCandidate{
		PamCandidate:   c,
		OnTargetScore:  on,
		OffTargetScore: off,
		OnPlusOff:      w.Combine(on, off),
	}
}

// ScoreResult is the scoring outcome for exactly one submitted candidate.
// Either Scored is set or Err explains why no score came back.
type ScoreResult struct {
	Candidate PamCandidate     `json:"candidate"`
	Scored    *ScoredCandidate `json:"scored,omitempty"`
	Err       string           `json:"error,omitempty"`
}

// OK reports whether the result carries scores.
func (r ScoreResult) OK() bool {
	return r.Scored != nil && r.Err == ""
}

// SelectionResult is the ordered set of guides chosen for one target.
type SelectionResult struct {
	Target string            `json:"target"`
	Guides []ScoredCandidate `json:"guides"`
}
