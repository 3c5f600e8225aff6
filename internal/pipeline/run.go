// Package pipeline provides the high-level orchestration of a guide design run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jonathan/guideforge/internal/config"
	"github.com/jonathan/guideforge/internal/idt"
	"github.com/jonathan/guideforge/internal/logging"
	"github.com/jonathan/guideforge/internal/manifest"
	"github.com/jonathan/guideforge/internal/observability"
	"github.com/jonathan/guideforge/internal/output"
	"github.com/jonathan/guideforge/internal/pam"
	"github.com/jonathan/guideforge/internal/pipeline/steps"
	"github.com/jonathan/guideforge/internal/qc"
	"github.com/jonathan/guideforge/internal/retry"
	"github.com/jonathan/guideforge/internal/targets"
	"github.com/jonathan/guideforge/internal/types"
)

// PipelineType is recorded in the manifest of full runs.
const PipelineType = "full_automation"

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// RunOptions holds configuration for running the pipeline
type RunOptions struct {
	Targets     *targets.List
	OutputDir   string
	SkipScoring bool
	Cleanup     bool
	Verbose     bool
	Out         io.Writer
	HTTPClient  *http.Client
	Sleep       SleepFunc
	OnProgress  ProgressCallback
}

// Result is what a run produced.
type Result struct {
	Summary   types.RunSummary
	Manifest  manifest.Manifest
	Outputs   config.Outputs
	Selection []types.SelectionResult
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{
			Step:     step,
			Category: steps.StepRegistry[step].Category,
			Message:  message,
			Content:  content,
		})
	}
}

// runner carries the state of one run between steps.
type runner struct {
	cfg     *config.Config
	opts    RunOptions
	out     io.Writer
	printer *observability.Printer
	tracker *steps.Tracker
	log     *logging.Logger
	paths   config.Outputs
	summary types.RunSummary
}

func (r *runner) step(name string) {
	_, _ = fmt.Fprintf(r.out, "Step %d/%d: %s...\n", steps.Number(name), len(steps.Order), steps.StepRegistry[name].Title)
}

func (r *runner) fail(name string, err error) error {
	r.tracker.Fail(name)
	return &Error{Step: name, Message: "step failed", Cause: err}
}

// RunPipeline runs fetch, scan, QC, scoring and selection over every parsed
// target and writes each stage's output file plus the run manifest.
//
// Unparseable and unfetchable targets are skipped and reported in the summary.
// An expired IDT session stops the scoring phase: the manifest is still
// written and the error is returned alongside the partial result.
func RunPipeline(ctx context.Context, cfg *config.Config, opts RunOptions) (*Result, error) {
	started := time.Now()
	if opts.Targets == nil || len(opts.Targets.Coordinates) == 0 {
		return nil, &Error{Step: steps.Fetch, Message: "no valid targets"}
	}
	if !opts.SkipScoring {
		if err := cfg.RequireSessionCookie(); err != nil {
			return nil, err
		}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}
	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, &Error{Step: steps.Fetch, Message: "failed to create output directory", Cause: err}
		}
	}

	species, genome, _ := config.IDTSpecies(cfg.UCSC.GenomeAssembly)
	r := &runner{
		cfg:     cfg,
		opts:    opts,
		out:     opts.Out,
		printer: observability.NewPrinter(opts.Out),
		tracker: steps.NewTracker(),
		log:     logging.Named("pipeline"),
		paths:   ResolveOutputs(cfg.Outputs, opts.OutputDir),
		summary: types.RunSummary{
			PipelineType:       PipelineType,
			TargetsRequested:   len(opts.Targets.Coordinates) + len(opts.Targets.Errors),
			IDTSpecies:         species,
			IDTGenomeAssembly:  genome,
			UpstreamDistance:   cfg.UCSC.UpstreamDistance,
			DownstreamDistance: cfg.UCSC.DownstreamDistance,
			PAMPattern:         cfg.Pattern().String(),
			TargetFailures:     ParseFailures(opts.Targets),
		},
	}

	records, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := r.scan(records)
	if err != nil {
		return nil, err
	}
	passed, err := r.qc(candidates)
	if err != nil {
		return nil, err
	}

	scored, scoreErr := r.score(ctx, passed)
	if scoreErr != nil && !idt.IsAuthExpired(scoreErr) {
		return nil, scoreErr
	}
	selected, err := r.selectGuides(scored)
	if err != nil {
		return nil, err
	}

	r.summary.RuntimeSeconds = float64(time.Since(started).Milliseconds()) / 1000
	m, err := r.writeManifest()
	if err != nil {
		return nil, err
	}
	if opts.Cleanup {
		r.cleanup()
	}
	if opts.Verbose {
		r.printer.PrintRunSummary(r.summary)
	}

	res := &Result{Summary: r.summary, Manifest: m, Outputs: r.paths, Selection: selected}
	if scoreErr != nil {
		return res, scoreErr
	}
	_, _ = fmt.Fprintf(r.out, "Done! %d guides selected for %d targets.\n", r.summary.GuidesSelected, r.summary.TargetsProcessed)
	return res, nil
}

func (r *runner) fetch(ctx context.Context) ([]types.SequenceRecord, error) {
	r.step(steps.Fetch)
	client := NewUCSCClient(r.cfg, r.opts.HTTPClient, r.opts.Sleep)
	fetched, err := FetchAll(ctx, client, r.cfg, r.opts.Targets.Coordinates, r.opts.Sleep)
	if err != nil {
		return nil, r.fail(steps.Fetch, err)
	}
	r.summary.TargetsProcessed = fetched.Processed()
	r.summary.TargetFailures = append(r.summary.TargetFailures, fetched.Failures...)

	if err := output.WriteFile(r.paths.UpstreamSequences, func(w io.Writer) error {
		return output.WriteSequencesFASTA(w, fetched.Upstream())
	}); err != nil {
		return nil, r.fail(steps.Fetch, err)
	}
	if err := output.WriteFile(r.paths.DownstreamSequences, func(w io.Writer) error {
		return output.WriteSequencesFASTA(w, fetched.Downstream())
	}); err != nil {
		return nil, r.fail(steps.Fetch, err)
	}

	records := fetched.Records()
	if r.opts.Verbose {
		r.printer.PrintSequences(records)
	}
	r.tracker.Complete(steps.Fetch)
	emitProgress(&r.opts, steps.Fetch,
		fmt.Sprintf("Fetched %d of %d targets", fetched.Processed(), len(r.opts.Targets.Coordinates)), fetched.Failures)
	return records, nil
}

func (r *runner) scan(records []types.SequenceRecord) ([]types.PamCandidate, error) {
	if err := r.tracker.ValidateDependencies(steps.Scan); err != nil {
		return nil, err
	}
	r.step(steps.Scan)
	candidates := pam.ScanAll(records, r.cfg.Pattern(), r.cfg.ScanOptions())
	r.summary.PamCandidatesFound = len(candidates)

	if err := output.WriteFile(r.paths.CrisprCandidates, func(w io.Writer) error {
		return output.WriteCandidatesFASTA(w, candidates)
	}); err != nil {
		return nil, r.fail(steps.Scan, err)
	}
	if r.opts.Verbose {
		r.printer.PrintCandidates(candidates)
	}
	r.tracker.Complete(steps.Scan)
	emitProgress(&r.opts, steps.Scan, fmt.Sprintf("Found %d PAM sites", len(candidates)), nil)
	return candidates, nil
}

func (r *runner) qc(candidates []types.PamCandidate) ([]types.PamCandidate, error) {
	if err := r.tracker.ValidateDependencies(steps.QC); err != nil {
		return nil, err
	}
	r.step(steps.QC)
	verdicts := qc.EvaluateAll(candidates, r.cfg.QCPolicy())
	passed := qc.Passed(candidates, verdicts)
	r.summary.TotalPassedQC = len(passed)
	r.summary.TotalFailedQC = len(candidates) - len(passed)
	r.summary.QCPassRate = types.PassRate(r.summary.TotalPassedQC, r.summary.TotalFailedQC)

	if err := output.WriteFile(r.paths.CrisprCandidatesQC, func(w io.Writer) error {
		return output.WriteQCCSV(w, verdicts)
	}); err != nil {
		return nil, r.fail(steps.QC, err)
	}
	if r.opts.Verbose {
		r.printer.PrintQC(verdicts)
	}
	r.tracker.Complete(steps.QC)
	emitProgress(&r.opts, steps.QC,
		fmt.Sprintf("%d of %d candidates passed QC", len(passed), len(candidates)), nil)
	return passed, nil
}

func (r *runner) score(ctx context.Context, passed []types.PamCandidate) ([]types.ScoredCandidate, error) {
	if err := r.tracker.ValidateDependencies(steps.Score); err != nil {
		return nil, err
	}
	if r.opts.SkipScoring {
		_, _ = fmt.Fprintf(r.out, "Step %d/%d: Scoring skipped\n", steps.Number(steps.Score), len(steps.Order))
		r.tracker.Skip(steps.Score)
		return nil, nil
	}
	r.step(steps.Score)

	client, err := NewIDTClient(r.cfg, r.opts.HTTPClient, r.opts.Sleep)
	if err != nil {
		return nil, r.fail(steps.Score, err)
	}
	r.summary.IDTSubmitted = len(passed)
	res, err := ScoreCandidates(ctx, client, passed)
	if err != nil {
		r.tracker.Fail(steps.Score)
		if idt.IsAuthExpired(err) {
			r.log.Error().Err(err).Msg("scoring stopped")
			_, _ = fmt.Fprintf(r.out, "⚠️ Scoring stopped: %v\n", err)
			return nil, err
		}
		return nil, &Error{Step: steps.Score, Message: "step failed", Cause: err}
	}
	r.summary.IDTResults = len(res.Scored)
	r.summary.BatchFailures = res.Failures
	if n := res.Unscored(); n > 0 {
		r.log.Warn().Int("unscored", n).Int("failed_batches", len(res.Failures)).Msg("some candidates were not scored")
	}

	if err := output.WriteFile(r.paths.ScoredGuides, func(w io.Writer) error {
		return output.WriteScoredCSV(w, res.Scored, true)
	}); err != nil {
		return nil, r.fail(steps.Score, err)
	}
	if r.opts.Verbose {
		r.printer.PrintScores(res.Scored)
	}
	r.tracker.Complete(steps.Score)
	emitProgress(&r.opts, steps.Score,
		fmt.Sprintf("Scored %d of %d candidates", len(res.Scored), len(passed)), res.Failures)
	return res.Scored, nil
}

func (r *runner) selectGuides(scored []types.ScoredCandidate) ([]types.SelectionResult, error) {
	if err := r.tracker.ValidateDependencies(steps.Select); err != nil {
		r.log.Debug().Err(err).Msg("selection skipped")
		r.tracker.Skip(steps.Select)
		return nil, nil
	}
	r.step(steps.Select)
	selected := SelectGuides(scored, r.cfg.Policy.GuideSelection)
	for _, s := range selected {
		r.summary.GuidesSelected += len(s.Guides)
	}

	if err := output.WriteFile(r.paths.TopGuides, func(w io.Writer) error {
		return output.WriteTopGuidesCSV(w, selected)
	}); err != nil {
		return nil, r.fail(steps.Select, err)
	}
	if r.opts.Verbose {
		r.printer.PrintSelection(selected)
	}
	r.tracker.Complete(steps.Select)
	emitProgress(&r.opts, steps.Select,
		fmt.Sprintf("Selected %d guides across %d sequences", r.summary.GuidesSelected, len(selected)), selected)
	return selected, nil
}

func (r *runner) writeManifest() (manifest.Manifest, error) {
	if err := r.tracker.ValidateDependencies(steps.Manifest); err != nil {
		return manifest.Manifest{}, err
	}
	r.step(steps.Manifest)
	m := manifest.Build(r.cfg, r.summary)
	if err := manifest.Write(r.paths.Manifest, m); err != nil {
		return m, r.fail(steps.Manifest, err)
	}
	r.tracker.Complete(steps.Manifest)
	_, _ = fmt.Fprintf(r.out, "📋 Manifest written to: %s (run %s)\n", r.paths.Manifest, m.RunID)
	emitProgress(&r.opts, steps.Manifest, "Wrote run manifest", m)
	return m, nil
}

// cleanup removes the intermediate sequence and candidate files.
func (r *runner) cleanup() {
	_, _ = fmt.Fprintf(r.out, "🧹 Cleaning up intermediate files...\n")
	for _, path := range []string{r.paths.UpstreamSequences, r.paths.DownstreamSequences, r.paths.CrisprCandidates} {
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				r.log.Warn().Err(err).Str("path", path).Msg("failed to remove intermediate file")
			}
			continue
		}
		_, _ = fmt.Fprintf(r.out, "   Removed: %s\n", path)
	}
}
