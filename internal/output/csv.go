package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/guideforge/internal/types"
)

// Column headers. The first columns of each file are a stable contract with downstream tooling.
var (
	CandidateHeader = []string{"parent", "name", "spacer", "pam", "strand", "offset"}
	QCHeader        = []string{"candidate_id", "passed", "gc_content", "max_homopolymer_run", "poly_t_run", "violated_restriction_sites", "failure_reasons"}
	ScoredHeader    = []string{"sequence_name", "dna_sequence", "on_target_score", "off_target_score", "on_plus_off"}
	RankedExtra     = []string{"parent_sequence", "rank_within_parent", "pam", "strand", "offset"}
	TopGuidesHeader = []string{"target", "rank", "sequence_name", "dna_sequence", "pam", "strand", "offset", "on_target_score", "off_target_score", "on_plus_off"}
)

const listSeparator = ";"

// WriteCandidatesCSV writes scanner output.
func WriteCandidatesCSV(w io.Writer, candidates []types.PamCandidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CandidateHeader); err != nil {
		return err
	}
	for _, c := range candidates {
		row := []string{c.SourceIdentifier, c.ID, c.Protospacer, c.PAM, string(c.Strand), strconv.Itoa(c.Offset)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCandidatesCSV reads a file written by WriteCandidatesCSV.
func ReadCandidatesCSV(r io.Reader) ([]types.PamCandidate, error) {
	t, err := readTable(r, "parent", "name", "spacer", "pam")
	if err != nil {
		return nil, err
	}
	out := make([]types.PamCandidate, 0, len(t.rows))
	for i := range t.rows {
		offset, err := t.intOr(i, "offset", 0)
		if err != nil {
			return nil, err
		}
		out = append(out, types.PamCandidate{
			ID:               t.get(i, "name"),
			Protospacer:      t.get(i, "spacer"),
			PAM:              t.get(i, "pam"),
			Strand:           types.Strand(t.get(i, "strand")),
			Offset:           offset,
			SourceIdentifier: t.get(i, "parent"),
		})
	}
	return out, nil
}

// WriteQCCSV writes one row per verdict. Lists are joined with ';' and GC is
// written to four decimal places.
func WriteQCCSV(w io.Writer, verdicts []types.QcVerdict) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(QCHeader); err != nil {
		return err
	}
	for _, v := range verdicts {
		row := []string{
			v.CandidateID,
			strconv.FormatBool(v.Passed),
			strconv.FormatFloat(v.GCContent, 'f', 4, 64),
			strconv.Itoa(v.MaxHomopolymerRun),
			strconv.Itoa(v.PolyTRun),
			strings.Join(v.ViolatedRestrictionSites, listSeparator),
			strings.Join(v.FailureReasons, listSeparator),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SortByScore orders scored candidates by OnPlusOff descending. Ties keep input order.
func SortByScore(scored []types.ScoredCandidate) []types.ScoredCandidate {
	out := append([]types.ScoredCandidate(nil), scored...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OnPlusOff > out[j].OnPlusOff
	})
	return out
}

// DenseRanks returns, per candidate ID, its dense rank by OnPlusOff within its
// source sequence. Equal scores share a rank.
func DenseRanks(scored []types.ScoredCandidate) map[string]int {
	ranks := make(map[string]int, len(scored))
	last := make(map[string]float64)
	current := make(map[string]int)
	for _, c := range SortByScore(scored) {
		parent := c.SourceIdentifier
		if n, seen := current[parent]; !seen || last[parent] != c.OnPlusOff {
			current[parent] = n + 1
			last[parent] = c.OnPlusOff
		}
		ranks[c.ID] = current[parent]
	}
	return ranks
}

// WriteScoredCSV writes scored candidates sorted by OnPlusOff descending. The
// ranked variant appends the parent sequence, the dense rank within it, and the
// PAM, strand and offset needed to re-run selection from the file.
func WriteScoredCSV(w io.Writer, scored []types.ScoredCandidate, ranked bool) error {
	cw := csv.NewWriter(w)
	header := ScoredHeader
	if ranked {
		header = append(append([]string(nil), ScoredHeader...), RankedExtra...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	var ranks map[string]int
	if ranked {
		ranks = DenseRanks(scored)
	}
	for _, c := range SortByScore(scored) {
		row := []string{c.ID, c.Sequence(), formatScore(c.OnTargetScore), formatScore(c.OffTargetScore), formatScore(c.OnPlusOff)}
		if ranked {
			row = append(row, c.SourceIdentifier, strconv.Itoa(ranks[c.ID]), c.PAM, string(c.Strand), strconv.Itoa(c.Offset))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadScoredCSV reads either scored variant. Without a pam column the PAM is
// everything after the spacer in dna_sequence. Without parent_sequence the
// parent is derived from the candidate name.
func ReadScoredCSV(r io.Reader) ([]types.ScoredCandidate, error) {
	t, err := readTable(r, "sequence_name", "dna_sequence", "on_target_score", "off_target_score", "on_plus_off")
	if err != nil {
		return nil, err
	}
	out := make([]types.ScoredCandidate, 0, len(t.rows))
	for i := range t.rows {
		name, dna := t.get(i, "sequence_name"), strings.ToUpper(t.get(i, "dna_sequence"))
		c := types.PamCandidate{ID: name, Protospacer: dna, SourceIdentifier: ParentOf(name)}
		if len(dna) > types.SpacerLength {
			c.Protospacer, c.PAM = dna[:types.SpacerLength], dna[types.SpacerLength:]
		}
		if v := t.get(i, "pam"); v != "" {
			c.PAM = v
		}
		if v := t.get(i, "parent_sequence"); v != "" {
			c.SourceIdentifier = v
		}
		c.Strand = types.Strand(t.get(i, "strand"))
		if c.Offset, err = t.intOr(i, "offset", 0); err != nil {
			return nil, err
		}

		var s types.ScoredCandidate
		s.PamCandidate = c
		if s.OnTargetScore, err = t.float(i, "on_target_score"); err != nil {
			return nil, err
		}
		if s.OffTargetScore, err = t.float(i, "off_target_score"); err != nil {
			return nil, err
		}
		if s.OnPlusOff, err = t.float(i, "on_plus_off"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// WriteTopGuidesCSV writes the selected guides of every target, ranked from 1 within each target.
func WriteTopGuidesCSV(w io.Writer, results []types.SelectionResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TopGuidesHeader); err != nil {
		return err
	}
	for _, res := range results {
		for i, g := range res.Guides {
			row := []string{
				res.Target,
				strconv.Itoa(i + 1),
				g.ID,
				g.Sequence(),
				g.PAM,
				string(g.Strand),
				strconv.Itoa(g.Offset),
				formatScore(g.OnTargetScore),
				formatScore(g.OffTargetScore),
				formatScore(g.OnPlusOff),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// table is a header-indexed CSV body.
type table struct {
	index map[string]int
	rows  [][]string
}

func readTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV is empty")
	}
	t := &table{index: make(map[string]int), rows: records[1:]}
	for i, h := range records[0] {
		t.index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			return nil, fmt.Errorf("CSV is missing column %q", col)
		}
	}
	return t, nil
}

func (t *table) get(row int, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(t.rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.rows[row][i])
}

func (t *table) intOr(row int, col string, def int) (int, error) {
	v := t.get(row, col)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("row %d: column %s: %w", row+2, col, err)
	}
	return n, nil
}

func (t *table) float(row int, col string) (float64, error) {
	v, err := strconv.ParseFloat(t.get(row, col), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: column %s: %w", row+2, col, err)
	}
	return v, nil
}
