package pam

import "strings"

// iupac maps each recognized pattern letter to the concrete bases it stands for.
var iupac = map[byte]string{
	'A': "A",
	'C': "C",
	'G': "G",
	'T': "T",
	'R': "AG",
	'Y': "CT",
	'S': "CG",
	'W': "AT",
	'K': "GT",
	'M': "AC",
	'B': "CGT",
	'D': "AGT",
	'H': "ACT",
	'V': "ACG",
	'N': "ACGT",
}

var complement = map[byte]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
	'R': 'Y', 'Y': 'R', 'S': 'S', 'W': 'W',
	'K': 'M', 'M': 'K', 'B': 'V', 'V': 'B',
	'D': 'H', 'H': 'D', 'N': 'N',
}

// Pattern is a parsed PAM pattern such as NGG.
type Pattern struct {
	letters string
}

// ParsePattern upper-cases s and checks that every letter is an IUPAC code.
func ParsePattern(s string) (Pattern, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "" {
		return Pattern{}, &PatternError{Pattern: s}
	}
	for i := 0; i < len(up); i++ {
		if _, ok := iupac[up[i]]; !ok {
			return Pattern{}, &PatternError{Pattern: s, Position: i, Letter: s[i]}
		}
	}
	return Pattern{letters: up}, nil
}

// MustParsePattern is ParsePattern for patterns known at compile time.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.letters }

// Len is the number of bases the pattern spans.
func (p Pattern) Len() int { return len(p.letters) }

// Matches reports whether seq has the pattern's length and every base falls in
// the set of the corresponding pattern letter. An N (or any non-ACGT base) in
// seq only matches the pattern letter N.
func (p Pattern) Matches(seq string) bool {
	if len(seq) != len(p.letters) {
		return false
	}
	for i := 0; i < len(seq); i++ {
		if !baseMatch(upper(seq[i]), p.letters[i]) {
			return false
		}
	}
	return true
}

func baseMatch(base, letter byte) bool {
	if !isConcrete(base) {
		return letter == 'N'
	}
	return strings.IndexByte(iupac[letter], base) >= 0
}

func isConcrete(b byte) bool {
	return b == 'A' || b == 'C' || b == 'G' || b == 'T'
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// ReverseComplement returns the reverse complement of seq, upper-cased.
// Unknown letters complement to N.
func ReverseComplement(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		c, ok := complement[upper(seq[n-1-i])]
		if !ok {
			c = 'N'
		}
		out[i] = c
	}
	return string(out)
}
