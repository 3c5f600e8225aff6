package pipeline

import (
	"context"
	"path/filepath"

	"github.com/jonathan/guideforge/internal/config"
	"github.com/jonathan/guideforge/internal/idt"
	"github.com/jonathan/guideforge/internal/logging"
	"github.com/jonathan/guideforge/internal/selection"
	"github.com/jonathan/guideforge/internal/targets"
	"github.com/jonathan/guideforge/internal/types"
	"github.com/jonathan/guideforge/internal/ucsc"
)

// Failure stages recorded in the run summary.
const (
	StageParse = "parse"
	StageFetch = "fetch"
)

// FetchResult holds the flanks of every target that could be fetched.
type FetchResult struct {
	Flanks   []ucsc.Flanks
	Failures []types.TargetFailure
}

// Records returns the flanks target by target, upstream before downstream.
func (r FetchResult) Records() []types.SequenceRecord {
	out := make([]types.SequenceRecord, 0, 2*len(r.Flanks))
	for _, f := range r.Flanks {
		out = append(out, f.Records()...)
	}
	return out
}

// Upstream returns the upstream flank of each fetched target.
func (r FetchResult) Upstream() []types.SequenceRecord {
	out := make([]types.SequenceRecord, len(r.Flanks))
	for i, f := range r.Flanks {
		out[i] = f.Upstream
	}
	return out
}

// Downstream returns the downstream flank of each fetched target.
func (r FetchResult) Downstream() []types.SequenceRecord {
	out := make([]types.SequenceRecord, len(r.Flanks))
	for i, f := range r.Flanks {
		out[i] = f.Downstream
	}
	return out
}

// Processed returns the number of targets fetched successfully.
func (r FetchResult) Processed() int {
	return len(r.Flanks)
}

// ParseFailures converts the rejected lines of a target list into summary entries.
func ParseFailures(list *targets.List) []types.TargetFailure {
	out := make([]types.TargetFailure, 0, len(list.Errors))
	for _, e := range list.Errors {
		out = append(out, types.TargetFailure{Target: e.Token, Stage: StageParse, Error: e.Error()})
	}
	return out
}

// FetchAll fetches both flanks of each coordinate in order, waiting the
// configured request delay between targets. A target that fails after retries
// is recorded and skipped. The error is non-nil only when ctx is done.
func FetchAll(ctx context.Context, client *ucsc.Client, cfg *config.Config, coords []types.Coordinate, sleep SleepFunc) (FetchResult, error) {
	log := logging.Named("pipeline")
	var res FetchResult
	for i, coord := range coords {
		if i > 0 {
			if err := sleep(ctx, config.Seconds(cfg.UCSC.RequestDelay)); err != nil {
				return res, err
			}
		}
		flanks, err := client.Fetch(ctx, coord, cfg.UCSC.UpstreamDistance, cfg.UCSC.DownstreamDistance, cfg.UCSC.GenomeAssembly)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			log.Error().Err(err).Str("target", coord.String()).Msg("skipping target")
			res.Failures = append(res.Failures, types.TargetFailure{Target: coord.String(), Stage: StageFetch, Error: err.Error()})
			continue
		}
		log.Debug().Str("target", coord.String()).
			Int("upstream_bp", len(flanks.Upstream.Sequence)).
			Int("downstream_bp", len(flanks.Downstream.Sequence)).
			Msg("fetched flanks")
		res.Flanks = append(res.Flanks, flanks)
	}
	return res, nil
}

// ScoreResult is the outcome of scoring the QC-passing candidates.
type ScoreResult struct {
	Scored   []types.ScoredCandidate
	Results  []types.ScoreResult
	Failures []types.BatchFailure
}

// Unscored returns the number of submitted candidates that came back without scores.
func (r ScoreResult) Unscored() int {
	return len(r.Results) - len(r.Scored)
}

// ScoreCandidates submits candidates in batches. Only an expired session is returned as an error.
func ScoreCandidates(ctx context.Context, client *idt.Client, candidates []types.PamCandidate) (ScoreResult, error) {
	var out ScoreResult
	if len(candidates) == 0 {
		return out, nil
	}
	results, failures, err := client.ScoreAll(ctx, candidates)
	if err != nil {
		return out, err
	}
	out.Results = results
	for _, r := range results {
		if r.OK() {
			out.Scored = append(out.Scored, *r.Scored)
		}
	}
	for _, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		out.Failures = append(out.Failures, types.BatchFailure{Batch: f.Batch, CandidateIDs: f.CandidateIDs, Error: msg})
	}
	return out, nil
}

// SelectGuides groups scored candidates by the flank they were found in and
// selects guides for each group.
func SelectGuides(scored []types.ScoredCandidate, p selection.Policy) []types.SelectionResult {
	return selection.SelectAll(selection.GroupBySource(scored), p)
}

// ResolveOutputs joins relative output names onto dir. Absolute names are kept.
func ResolveOutputs(o config.Outputs, dir string) config.Outputs {
	join := func(name string) string {
		if name == "" || filepath.IsAbs(name) || dir == "" {
			return name
		}
		return filepath.Join(dir, name)
	}
	return config.Outputs{
		UpstreamSequences:   join(o.UpstreamSequences),
		DownstreamSequences: join(o.DownstreamSequences),
		CrisprCandidates:    join(o.CrisprCandidates),
		CrisprCandidatesQC:  join(o.CrisprCandidatesQC),
		ScoredGuides:        join(o.ScoredGuides),
		TopGuides:           join(o.TopGuides),
		Manifest:            join(o.Manifest),
	}
}
