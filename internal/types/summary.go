package types

// TargetFailure records a target that was skipped and the stage that failed.
type TargetFailure struct {
	Target string `json:"target"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// BatchFailure records a scoring batch whose candidates came back without scores.
type BatchFailure struct {
	Batch        int      `json:"batch"`
	CandidateIDs []string `json:"candidate_ids"`
	Error        string   `json:"error"`
}

// RunSummary holds the statistics of one pipeline run. It is embedded in the run manifest.
type RunSummary struct {
	PipelineType       string          `json:"pipeline_type"`
	TargetsRequested   int             `json:"targets_requested"`
	TargetsProcessed   int             `json:"targets_processed"`
	PamCandidatesFound int             `json:"pam_candidates_found"`
	TotalPassedQC      int             `json:"total_passed_qc"`
	TotalFailedQC      int             `json:"total_failed_qc"`
	QCPassRate         float64         `json:"qc_pass_rate"`
	IDTSubmitted       int             `json:"idt_candidates_submitted"`
	IDTResults         int             `json:"idt_results_generated"`
	GuidesSelected     int             `json:"guides_selected"`
	IDTSpecies         string          `json:"idt_species,omitempty"`
	IDTGenomeAssembly  string          `json:"idt_genome_assembly,omitempty"`
	UpstreamDistance   int             `json:"upstream_distance"`
	DownstreamDistance int             `json:"downstream_distance"`
	PAMPattern         string          `json:"pam_pattern"`
	RuntimeSeconds     float64         `json:"total_runtime_sec"`
	TargetFailures     []TargetFailure `json:"target_failures"`
	BatchFailures      []BatchFailure  `json:"batch_failures"`
}

// PassRate returns passed/(passed+failed) rounded to three decimals, or 0 when nothing was checked.
func PassRate(passed, failed int) float64 {
	total := passed + failed
	if total == 0 {
		return 0
	}
	return float64(int(float64(passed)/float64(total)*1000+0.5)) / 1000
}
