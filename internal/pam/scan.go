package pam

import (
	"fmt"
	"iter"
	"strings"

	"github.com/jonathan/guideforge/internal/types"
)

// Options controls which strands are scanned.
type Options struct {
	BothStrands bool
}

// DefaultOptions scans both the sequence and its reverse complement.
func DefaultOptions() Options {
	return Options{BothStrands: true}
}

// Scan yields every window of SpacerLength+len(pattern) bases whose trailing
// bases match pattern and whose spacer is all A/C/G/T. Overlapping hits are all
// reported. Forward hits come first, then reverse-complement hits.
//
// Reverse-complement hits carry the opposite strand of the record, spacer and
// PAM read 5' to 3' on that strand, and an offset into the forward sequence.
// IDs are <record identifier>_g<n> numbered from 1 in emission order.
func Scan(record types.SequenceRecord, pattern Pattern, opts Options) iter.Seq[types.PamCandidate] {
	return func(yield func(types.PamCandidate) bool) {
		window := types.SpacerLength + pattern.Len()
		seq := strings.ToUpper(record.Sequence)
		if pattern.Len() == 0 || len(seq) < window {
			return
		}

		n := 0
		emit := func(spacer, site string, strand types.Strand, offset int) bool {
			n++
			return yield(types.PamCandidate{
				ID:               fmt.Sprintf("%s_g%d", record.Identifier, n),
				Protospacer:      spacer,
				PAM:              site,
				PatternMatched:   pattern.String(),
				Strand:           strand,
				Offset:           offset,
				SourceIdentifier: record.Identifier,
			})
		}

		forward := record.Strand()
		for pos := range windows(seq, pattern) {
			if !emit(seq[pos:pos+types.SpacerLength], seq[pos+types.SpacerLength:pos+window], forward, pos) {
				return
			}
		}

		if !opts.BothStrands {
			return
		}
		reverse := types.StrandMinus
		if forward == types.StrandMinus {
			reverse = types.StrandPlus
		}
		rc := ReverseComplement(seq)
		for pos := range windows(rc, pattern) {
			offset := len(seq) - (pos + window)
			if !emit(rc[pos:pos+types.SpacerLength], rc[pos+types.SpacerLength:pos+window], reverse, offset) {
				return
			}
		}
	}
}

// windows yields the start of every qualifying window in seq.
func windows(seq string, pattern Pattern) iter.Seq[int] {
	return func(yield func(int) bool) {
		window := types.SpacerLength + pattern.Len()
		for pos := 0; pos+window <= len(seq); pos++ {
			if !pattern.Matches(seq[pos+types.SpacerLength : pos+window]) {
				continue
			}
			if !concrete(seq[pos : pos+types.SpacerLength]) {
				continue
			}
			if !yield(pos) {
				return
			}
		}
	}
}

func concrete(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isConcrete(s[i]) {
			return false
		}
	}
	return true
}

// ScanAll collects the candidates of every record, in record order.
func ScanAll(records []types.SequenceRecord, pattern Pattern, opts Options) []types.PamCandidate {
	var out []types.PamCandidate
	for _, rec := range records {
		for c := range Scan(rec, pattern, opts) {
			out = append(out, c)
		}
	}
	return out
}
