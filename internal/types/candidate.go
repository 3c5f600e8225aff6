package types

// SpacerLength is the canonical SpCas9 protospacer length.
const SpacerLength = 20

// PamCandidate is one protospacer+PAM site found by the scanner.
type PamCandidate struct {
	ID               string `json:"id"`
	Protospacer      string `json:"protospacer"`
	PAM              string `json:"pam"`
	PatternMatched   string `json:"pam_pattern_matched"`
	Strand           Strand `json:"strand"`
	Offset           int    `json:"offset_in_source"`
	SourceIdentifier string `json:"source_identifier"`
}

// Sequence returns the protospacer followed by the PAM, the form submitted for scoring.
func (c PamCandidate) Sequence() string {
	return c.Protospacer + c.PAM
}

// QcVerdict is the outcome of running the QC rules over one candidate.
type QcVerdict struct {
	CandidateID              string   `json:"candidate_id"`
	Passed                   bool     `json:"passed"`
	GCContent                float64  `json:"gc_content"`
	MaxHomopolymerRun        int      `json:"max_homopolymer_run"`
	PolyTRun                 int      `json:"poly_t_run"`
	ViolatedRestrictionSites []string `json:"violated_restriction_sites"`
	FailureReasons           []string `json:"failure_reasons"`
}
