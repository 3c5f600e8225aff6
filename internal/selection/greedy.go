package selection

import (
	"sort"

	"github.com/jonathan/guideforge/internal/types"
)

// Select picks guides for one target.
//
// Candidates below either score threshold or with a PAM outside AcceptedPAMs
// are dropped. Survivors are ordered by OnPlusOff descending, then Offset
// ascending, and walked greedily: a candidate is taken only if it sits at least
// MinSpacingBP from every guide already taken. The walk stops at
// NumGuidesPerGene. Greedy spacing can leave a better packing on the table.
func Select(target string, candidates []types.ScoredCandidate, p Policy) types.SelectionResult {
	accepted := compileAccepted(p.AcceptedPAMs)

	eligible := make([]types.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.OnTargetScore < p.MinOnTargetScore || c.OffTargetScore < p.MinOffTargetScore {
			continue
		}
		if !accepted.accepts(c.PAM) {
			continue
		}
		eligible = append(eligible, c)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].OnPlusOff != eligible[j].OnPlusOff {
			return eligible[i].OnPlusOff > eligible[j].OnPlusOff
		}
		return eligible[i].Offset < eligible[j].Offset
	})

	result := types.SelectionResult{Target: target, Guides: []types.ScoredCandidate{}}
	for _, c := range eligible {
		if p.NumGuidesPerGene > 0 && len(result.Guides) >= p.NumGuidesPerGene {
			break
		}
		if !farEnough(c.Offset, result.Guides, p.MinSpacingBP) {
			continue
		}
		result.Guides = append(result.Guides, c)
	}
	return result
}

func farEnough(offset int, taken []types.ScoredCandidate, spacing int) bool {
	for _, t := range taken {
		d := offset - t.Offset
		if d < 0 {
			d = -d
		}
		if d < spacing {
			return false
		}
	}
	return true
}

// Group is the scored candidates of one target in arrival order.
type Group struct {
	Target     string
	Candidates []types.ScoredCandidate
}

// GroupBySource groups candidates by their source sequence identifier,
// keeping first-seen order of groups and arrival order within each group.
// Offsets are only comparable within one source sequence.
func GroupBySource(candidates []types.ScoredCandidate) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, c := range candidates {
		i, ok := index[c.SourceIdentifier]
		if !ok {
			i = len(groups)
			index[c.SourceIdentifier] = i
			groups = append(groups, Group{Target: c.SourceIdentifier})
		}
		groups[i].Candidates = append(groups[i].Candidates, c)
	}
	return groups
}

// SelectAll runs Select over every group, in group order.
func SelectAll(groups []Group, p Policy) []types.SelectionResult {
	results := make([]types.SelectionResult, 0, len(groups))
	for _, g := range groups {
		results = append(results, Select(g.Target, g.Candidates, p))
	}
	return results
}
