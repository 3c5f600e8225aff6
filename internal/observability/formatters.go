// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/guideforge/internal/manifest"
	"github.com/jonathan/guideforge/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func more(sb *strings.Builder, total int, noun string) {
	if total > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more %s", total-maxItemsToShow, noun))
	}
}

// PrintSequences outputs the fetched flanking sequences with their lengths.
func (p *Printer) PrintSequences(records []types.SequenceRecord) {
	if len(records) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Fetched %d sequences:\n\n", len(records)))
	count := min(len(records), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := records[i]
		sb.WriteString(fmt.Sprintf("• %s (%d bp)", r.Identifier, len(r.Sequence)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	more(&sb, len(records), "sequences")

	p.printBox("FLANKING SEQUENCES", sb.String())
}

// PrintCandidates outputs the first PAM candidates found by the scanner.
func (p *Printer) PrintCandidates(candidates []types.PamCandidate) {
	if len(candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d PAM sites:\n\n", len(candidates)))
	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("%s\n", c.ID))
		sb.WriteString(fmt.Sprintf("  %s %s  %s @%d", c.Protospacer, c.PAM, c.Strand, c.Offset))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	more(&sb, len(candidates), "candidates")

	p.printBox("PAM CANDIDATES", sb.String())
}

// PrintQC outputs pass/fail counts and the most frequent failure reasons.
func (p *Printer) PrintQC(verdicts []types.QcVerdict) {
	if len(verdicts) == 0 {
		return
	}

	passed := 0
	reasons := map[string]int{}
	for _, v := range verdicts {
		if v.Passed {
			passed++
			continue
		}
		for _, r := range v.FailureReasons {
			reasons[reasonKind(r)]++
		}
	}
	failed := len(verdicts) - passed

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Passed:    %d\n", passed))
	sb.WriteString(fmt.Sprintf("Failed:    %d\n", failed))
	sb.WriteString(fmt.Sprintf("Pass rate: %.1f%%", 100*types.PassRate(passed, failed)))

	if len(reasons) > 0 {
		kinds := make([]string, 0, len(reasons))
		for k := range reasons {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool {
			if reasons[kinds[i]] != reasons[kinds[j]] {
				return reasons[kinds[i]] > reasons[kinds[j]]
			}
			return kinds[i] < kinds[j]
		})
		sb.WriteString("\n\nFailure reasons:")
		for _, k := range kinds {
			sb.WriteString(fmt.Sprintf("\n  • %s: %d", k, reasons[k]))
		}
	}

	p.printBox("QUALITY CONTROL", sb.String())
}

// reasonKind drops the measured values from a failure reason so that reasons can be tallied.
func reasonKind(reason string) string {
	if i := strings.IndexAny(reason, "(0123456789"); i > 0 {
		return strings.TrimSpace(reason[:i])
	}
	return reason
}

// PrintScores outputs the best scored candidates.
func (p *Printer) PrintScores(scored []types.ScoredCandidate) {
	if len(scored) == 0 {
		return
	}

	ranked := append([]types.ScoredCandidate(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].OnPlusOff > ranked[j].OnPlusOff })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scored %d candidates:\n\n", len(ranked)))
	count := min(len(ranked), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := ranked[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, s.ID))
		sb.WriteString(fmt.Sprintf("    On: %.1f  Off: %.1f  Total: %.1f", s.OnTargetScore, s.OffTargetScore, s.OnPlusOff))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	more(&sb, len(ranked), "candidates")

	p.printBox("TOP SCORED CANDIDATES", sb.String())
}

// PrintSelection outputs the guides chosen for each target.
func (p *Printer) PrintSelection(results []types.SelectionResult) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	for i, res := range results {
		sb.WriteString(fmt.Sprintf("%s: %d guides\n", res.Target, len(res.Guides)))
		for _, g := range res.Guides {
			sb.WriteString(fmt.Sprintf("  • %s%s %.1f\n", g.Protospacer, g.PAM, g.OnPlusOff))
		}
		if i < len(results)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SELECTED GUIDES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the statistics of a finished run.
func (p *Printer) PrintRunSummary(s types.RunSummary) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Targets:        %d/%d processed\n", s.TargetsProcessed, s.TargetsRequested))
	sb.WriteString(fmt.Sprintf("PAM pattern:    %s\n", s.PAMPattern))
	sb.WriteString(fmt.Sprintf("Flanks:         %d up / %d down\n", s.UpstreamDistance, s.DownstreamDistance))
	sb.WriteString(fmt.Sprintf("PAM candidates: %d\n", s.PamCandidatesFound))
	sb.WriteString(fmt.Sprintf("QC:             %d passed, %d failed (%.3f)\n", s.TotalPassedQC, s.TotalFailedQC, s.QCPassRate))
	sb.WriteString(fmt.Sprintf("Scored:         %d/%d\n", s.IDTResults, s.IDTSubmitted))
	sb.WriteString(fmt.Sprintf("Guides:         %d\n", s.GuidesSelected))
	sb.WriteString(fmt.Sprintf("Runtime:        %.2fs", s.RuntimeSeconds))

	if len(s.TargetFailures) > 0 {
		sb.WriteString("\n\nSkipped targets:")
		for _, f := range s.TargetFailures {
			sb.WriteString(fmt.Sprintf("\n⚠ %s [%s]\n  %s", f.Target, f.Stage, f.Error))
		}
	}
	if len(s.BatchFailures) > 0 {
		sb.WriteString("\n\nFailed scoring batches:")
		for _, f := range s.BatchFailures {
			sb.WriteString(fmt.Sprintf("\n⚠ batch %d (%d candidates)\n  %s", f.Batch, len(f.CandidateIDs), f.Error))
		}
	}

	p.printBox("RUN SUMMARY", sb.String())
}

// PrintComparison outputs the differences between two manifests.
func (p *Printer) PrintComparison(a, b *manifest.Manifest, diffs []manifest.Difference) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run 1: %s (%s)\n", a.RunID, a.User))
	sb.WriteString(fmt.Sprintf("Run 2: %s (%s)", b.RunID, b.User))

	if len(diffs) == 0 {
		sb.WriteString("\n\n✅ No differences")
		p.printBox("MANIFEST COMPARISON", sb.String())
		return
	}

	for _, d := range diffs {
		mark := "📈"
		if d.Key {
			mark = "❌"
		}
		sb.WriteString(fmt.Sprintf("\n%s %s", mark, d))
	}
	if manifest.Reproducible(diffs) {
		sb.WriteString("\n\n✅ Configuration matches")
	}

	p.printBox("MANIFEST COMPARISON", sb.String())
}
