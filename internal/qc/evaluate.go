package qc

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/jonathan/guideforge/internal/types"
	"golang.org/x/sync/errgroup"
)

// Evaluate applies every rule to the candidate's protospacer and aggregates
// all failures. Reasons are ordered GC, poly-T, homopolymer, restriction
// sites, excluded motifs.
func Evaluate(c types.PamCandidate, p Policy) types.QcVerdict {
	spacer := strings.ToUpper(c.Protospacer)
	v := types.QcVerdict{
		CandidateID:       c.ID,
		GCContent:         GCContent(spacer),
		MaxHomopolymerRun: MaxHomopolymerRun(spacer),
		PolyTRun:          LongestRun(spacer, 'T'),
	}

	var reasons []string
	switch {
	case v.GCContent < p.GCMin:
		reasons = append(reasons, fmt.Sprintf("Low GC (%.2f < %.2f)", v.GCContent, p.GCMin))
	case v.GCContent > p.GCMax:
		reasons = append(reasons, fmt.Sprintf("High GC (%.2f > %.2f)", v.GCContent, p.GCMax))
	}
	if v.PolyTRun > p.MaxPolyT {
		reasons = append(reasons, fmt.Sprintf("PolyT run %d (>%d)", v.PolyTRun, p.MaxPolyT))
	}
	if v.MaxHomopolymerRun > p.MaxHomopolymer {
		reasons = append(reasons, fmt.Sprintf("Homopolymer run %d (>%d)", v.MaxHomopolymerRun, p.MaxHomopolymer))
	}

	v.ViolatedRestrictionSites = matchingMotifs(spacer, p.RestrictionSites)
	if len(v.ViolatedRestrictionSites) > 0 {
		reasons = append(reasons, "Restriction site: "+strings.Join(v.ViolatedRestrictionSites, ","))
	}
	if excluded := matchingMotifs(spacer, p.ExcludedMotifs); len(excluded) > 0 {
		reasons = append(reasons, "Excluded motif: "+strings.Join(excluded, ","))
	}

	v.FailureReasons = reasons
	v.Passed = len(reasons) == 0
	return v
}

// EvaluateAll evaluates candidates on a bounded set of goroutines. The verdict
// at index i belongs to candidates[i].
func EvaluateAll(candidates []types.PamCandidate, p Policy) []types.QcVerdict {
	verdicts := make([]types.QcVerdict, len(candidates))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range candidates {
		g.Go(func() error {
			verdicts[i] = Evaluate(candidates[i], p)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// Passed returns the candidates whose verdict passed, in input order.
func Passed(candidates []types.PamCandidate, verdicts []types.QcVerdict) []types.PamCandidate {
	var out []types.PamCandidate
	for i, c := range candidates {
		if i < len(verdicts) && verdicts[i].Passed {
			out = append(out, c)
		}
	}
	return out
}

// GCContent returns the fraction of G and C bases in seq, 0 for an empty sequence.
func GCContent(seq string) float64 {
	if len(seq) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(seq))
}

// LongestRun returns the length of the longest consecutive run of base in seq.
func LongestRun(seq string, base byte) int {
	best, run := 0, 0
	for i := 0; i < len(seq); i++ {
		if seq[i] == base {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

// MaxHomopolymerRun returns the longest run of any single A, C, G or T.
func MaxHomopolymerRun(seq string) int {
	best := 0
	for _, b := range []byte("ACGT") {
		best = max(best, LongestRun(seq, b))
	}
	return best
}

func matchingMotifs(seq string, motifs []string) []string {
	var hits []string
	for _, m := range motifs {
		m = strings.ToUpper(m)
		if m != "" && strings.Contains(seq, m) {
			hits = append(hits, m)
		}
	}
	return hits
}
