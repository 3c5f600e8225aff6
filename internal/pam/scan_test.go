package pam

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/jonathan/guideforge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, seq string) types.SequenceRecord {
	return types.SequenceRecord{
		Identifier: id,
		Sequence:   seq,
		Source:     types.Coordinate{Chromosome: "chr1", Start: 100, End: 120, Strand: types.StrandPlus},
	}
}

func TestParsePattern(t *testing.T) {
	p, err := ParsePattern("ngg")
	require.NoError(t, err)
	assert.Equal(t, "NGG", p.String())
	assert.Equal(t, 3, p.Len())

	_, err = ParsePattern("NGX")
	var perr *PatternError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Position)
	assert.Contains(t, err.Error(), "unrecognized IUPAC letter")

	_, err = ParsePattern("  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestPattern_Matches(t *testing.T) {
	ngg := MustParsePattern("NGG")
	rgg := MustParsePattern("RGG")

	tests := []struct {
		name    string
		pattern Pattern
		seq     string
		want    bool
	}{
		{"concrete match", ngg, "AGG", true},
		{"lowercase", ngg, "tgg", true},
		{"mismatch", ngg, "ACG", false},
		{"sequence N matches pattern N", ngg, "NGG", true},
		{"sequence N never matches G", ngg, "ANG", false},
		{"R excludes C", rgg, "CGG", false},
		{"R includes A", rgg, "AGG", true},
		{"length mismatch", ngg, "AGGG", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(tt.seq))
		})
	}
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "NACGT", ReverseComplement("ACGTN"))
	assert.Equal(t, "CGTT", ReverseComplement("aacg"))
	assert.Equal(t, "", ReverseComplement(""))
}

func TestScan_SingleForwardSite(t *testing.T) {
	seq := strings.Repeat("A", 20) + "CGG"

	got := slices.Collect(Scan(record("t1_upstream", seq), MustParsePattern("NGG"), Options{}))

	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("A", 20), got[0].Protospacer)
	assert.Equal(t, "CGG", got[0].PAM)
	assert.Equal(t, "NGG", got[0].PatternMatched)
	assert.Equal(t, types.StrandPlus, got[0].Strand)
	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, "t1_upstream_g1", got[0].ID)
	assert.Equal(t, "t1_upstream", got[0].SourceIdentifier)
}

func TestScan_BothStrandsOnSameExample(t *testing.T) {
	seq := strings.Repeat("A", 20) + "CGG"

	got := slices.Collect(Scan(record("t1", seq), MustParsePattern("NGG"), DefaultOptions()))

	require.Len(t, got, 1, "reverse complement CCG+T20 has no NGG site")
}

func TestScan_ReverseStrandOffsets(t *testing.T) {
	seq := "CCG" + strings.Repeat("T", 20)

	got := slices.Collect(Scan(record("t2", seq), MustParsePattern("NGG"), DefaultOptions()))

	require.Len(t, got, 1)
	assert.Equal(t, types.StrandMinus, got[0].Strand)
	assert.Equal(t, strings.Repeat("A", 20), got[0].Protospacer)
	assert.Equal(t, "CGG", got[0].PAM)
	assert.Equal(t, 0, got[0].Offset)
}

func TestScan_OverlappingHitsKept(t *testing.T) {
	seq := strings.Repeat("A", 20) + "AGGG"

	got := slices.Collect(Scan(record("t3", seq), MustParsePattern("NGG"), DefaultOptions()))

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Offset)
	assert.Equal(t, "AGG", got[0].PAM)
	assert.Equal(t, 1, got[1].Offset)
	assert.Equal(t, "GGG", got[1].PAM)
	assert.Equal(t, "t3_g2", got[1].ID)
}

func TestScan_NHandling(t *testing.T) {
	ngg := MustParsePattern("NGG")

	withNPam := strings.Repeat("A", 20) + "NGG"
	assert.Len(t, slices.Collect(Scan(record("n1", withNPam), ngg, Options{})), 1)

	withNSpacer := "AAAAAAAAAANAAAAAAAAA" + "CGG"
	assert.Empty(t, slices.Collect(Scan(record("n2", withNSpacer), ngg, DefaultOptions())))

	nInGG := strings.Repeat("A", 20) + "CNG"
	assert.Empty(t, slices.Collect(Scan(record("n3", nInGG), ngg, Options{})))
}

func TestScan_ShortSequenceYieldsNothing(t *testing.T) {
	for _, seq := range []string{"", "ACGT", strings.Repeat("A", 19) + "CGG"} {
		got := slices.Collect(Scan(record("short", seq), MustParsePattern("NGG"), DefaultOptions()))
		assert.Empty(t, got, "sequence of length %d", len(seq))
	}
}

func TestScan_Idempotent(t *testing.T) {
	seq := "GATTACAGGCCTAGGCTAGCTAGGATCGATCGGGCTAGCTACCGATCGATGG"
	rec := record("idem", seq)
	seqIter := Scan(rec, MustParsePattern("NGG"), DefaultOptions())

	first := slices.Collect(seqIter)
	second := slices.Collect(seqIter)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestScan_EarlyBreak(t *testing.T) {
	seq := strings.Repeat("A", 20) + "AGGGGGG"

	count := 0
	for range Scan(record("brk", seq), MustParsePattern("NGG"), DefaultOptions()) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestScanAll_PreservesRecordOrder(t *testing.T) {
	recs := []types.SequenceRecord{
		record("a", strings.Repeat("A", 20)+"TGG"),
		record("b", strings.Repeat("C", 20)+"AGG"),
	}

	got := ScanAll(recs, MustParsePattern("NGG"), Options{})

	require.Len(t, got, 2)
	assert.Equal(t, "a_g1", got[0].ID)
	assert.Equal(t, "b_g1", got[1].ID)
}
