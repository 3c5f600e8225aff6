package idt

import (
	"context"
	"time"

	"github.com/jonathan/guideforge/internal/types"
	"golang.org/x/sync/errgroup"
)

// PingSpacer is the known-good spacer used by the connectivity test.
const PingSpacer = "AACGCGCCGCGCGCCCTTGT"

// BatchFailure records a batch that could not be scored.
type BatchFailure struct {
	Batch        int // 1-based
	CandidateIDs []string
	Err          error
}

// ScoreAll splits candidates into batches of BatchSize and submits them with at
// most Concurrency in flight. Batches after the first wait a random delay
// between DelayMin and DelayMax first.
//
// An AuthExpired failure cancels the remaining batches and is returned as the
// error. Any other failed batch is reported in the failures and its candidates
// carry an Err marker. Results are in input order.
func (c *Client) ScoreAll(ctx context.Context, candidates []types.PamCandidate) ([]types.ScoreResult, []BatchFailure, error) {
	results := make([]types.ScoreResult, len(candidates))
	size := c.opts.BatchSize
	total := (len(candidates) + size - 1) / size
	failures := make([]*BatchFailure, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for b := 0; b < total; b++ {
		start := b * size
		end := min(start+size, len(candidates))
		batch := candidates[start:end]

		g.Go(func() error {
			if b > 0 {
				if err := c.opts.Sleep(gctx, c.delay()); err != nil {
					return err
				}
			}
			c.log.Info().Int("batch", b+1).Int("of", total).Int("size", len(batch)).Msg("submitting batch")

			scored, err := c.SubmitBatch(gctx, batch)
			if err != nil {
				if IsAuthExpired(err) {
					return err
				}
				c.log.Error().Err(err).Int("batch", b+1).Msg("batch failed")
				failures[b] = &BatchFailure{Batch: b + 1, CandidateIDs: ids(batch), Err: err}
				for i, cand := range batch {
					results[start+i] = types.ScoreResult{Candidate: cand, Err: err.Error()}
				}
				return nil
			}
			copy(results[start:end], scored)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var out []BatchFailure
	for _, f := range failures {
		if f != nil {
			out = append(out, *f)
		}
	}
	return results, out, nil
}

func (c *Client) delay() time.Duration {
	span := c.opts.DelayMax - c.opts.DelayMin
	if span <= 0 {
		return c.opts.DelayMin
	}
	return c.opts.DelayMin + time.Duration(c.opts.Jitter()*float64(span))
}

func ids(cands []types.PamCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.ID
	}
	return out
}

// Ping submits a single known spacer and reports whether the service scored it.
func (c *Client) Ping(ctx context.Context) (types.ScoreResult, error) {
	results, err := c.SubmitBatch(ctx, []types.PamCandidate{{ID: "TinyTest", Protospacer: PingSpacer}})
	if err != nil {
		return types.ScoreResult{}, err
	}
	r := results[0]
	if !r.OK() {
		return r, &ScoringError{Kind: KindFailed, Message: "connectivity test returned no scores: " + r.Err}
	}
	return r, nil
}
