// Package output reads and writes the FASTA and CSV files exchanged between pipeline stages.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jonathan/guideforge/internal/targets"
	"github.com/jonathan/guideforge/internal/types"
)

// LineWidth is the FASTA sequence line width.
const LineWidth = 60

// WriteSequencesFASTA writes one record per flank. Empty flanks are skipped.
func WriteSequencesFASTA(w io.Writer, records []types.SequenceRecord) error {
	fw := fasta.NewWriter(w, LineWidth)
	for _, r := range records {
		if r.Sequence == "" {
			continue
		}
		s := linear.NewSeq(r.Identifier, alphabet.BytesToLetters([]byte(r.Sequence)), alphabet.DNA)
		if _, err := fw.Write(s); err != nil {
			return fmt.Errorf("failed to write FASTA record %s: %w", r.Identifier, err)
		}
	}
	return nil
}

// WriteCandidatesFASTA writes one record per candidate: its ID and protospacer+PAM.
func WriteCandidatesFASTA(w io.Writer, candidates []types.PamCandidate) error {
	fw := fasta.NewWriter(w, LineWidth)
	for _, c := range candidates {
		s := linear.NewSeq(c.ID, alphabet.BytesToLetters([]byte(c.Sequence())), alphabet.DNA)
		if _, err := fw.Write(s); err != nil {
			return fmt.Errorf("failed to write FASTA record %s: %w", c.ID, err)
		}
	}
	return nil
}

type fastaRecord struct {
	id  string
	seq string
}

func readFASTA(r io.Reader) ([]fastaRecord, error) {
	fr := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))
	var out []fastaRecord
	for {
		s, err := fr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read FASTA: %w", err)
		}
		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected FASTA sequence type %T", s)
		}
		b := make([]byte, len(ls.Seq))
		for i, l := range ls.Seq {
			b[i] = byte(l)
		}
		out = append(out, fastaRecord{id: ls.ID, seq: strings.ToUpper(string(b))})
	}
	return out, nil
}

// ReadSequencesFASTA reads flank records written by WriteSequencesFASTA.
// Identifiers of the form <label>_upstream or <label>_downstream recover their
// source coordinate and orientation; other identifiers are kept as is.
func ReadSequencesFASTA(r io.Reader) ([]types.SequenceRecord, error) {
	recs, err := readFASTA(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.SequenceRecord, 0, len(recs))
	for _, rec := range recs {
		sr := types.SequenceRecord{Identifier: rec.id, Sequence: rec.seq}
		for _, o := range []types.Orientation{types.Upstream, types.Downstream} {
			label, found := strings.CutSuffix(rec.id, "_"+string(o))
			if !found {
				continue
			}
			if coord, err := targets.ParseLabel(label); err == nil {
				sr.Source = coord
				sr.Orientation = o
			}
		}
		out = append(out, sr)
	}
	return out, nil
}

// ReadCandidatesFASTA reads candidates written by WriteCandidatesFASTA. The
// first SpacerLength bases become the protospacer and the rest the PAM. The
// source identifier is the ID up to its last underscore.
func ReadCandidatesFASTA(r io.Reader) ([]types.PamCandidate, error) {
	recs, err := readFASTA(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.PamCandidate, 0, len(recs))
	for _, rec := range recs {
		c := types.PamCandidate{ID: rec.id, SourceIdentifier: ParentOf(rec.id)}
		if len(rec.seq) > types.SpacerLength {
			c.Protospacer, c.PAM = rec.seq[:types.SpacerLength], rec.seq[types.SpacerLength:]
		} else {
			c.Protospacer = rec.seq
		}
		out = append(out, c)
	}
	return out, nil
}

// ParentOf returns the part of a candidate ID before its last underscore.
func ParentOf(id string) string {
	if i := strings.LastIndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return id
}

// WriteFile creates path and hands it to write.
func WriteFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// ReadFile opens path and hands it to read.
func ReadFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return read(f)
}
