package types

// Orientation tells which flank of a target a sequence was taken from.
type Orientation string

// Orientation values
const (
	Upstream   Orientation = "upstream"
	Downstream Orientation = "downstream"
)

// SequenceRecord is a flanking sequence fetched for one target.
type SequenceRecord struct {
	Identifier  string      `json:"identifier"`
	Sequence    string      `json:"sequence"`
	Source      Coordinate  `json:"source_coordinate"`
	Orientation Orientation `json:"orientation"`
}

// Strand returns the strand of the coordinate the record was fetched for.
// Records read back from FASTA files carry no coordinate and report plus.
func (r SequenceRecord) Strand() Strand {
	if r.Source.Strand == StrandMinus {
		return StrandMinus
	}
	return StrandPlus
}
