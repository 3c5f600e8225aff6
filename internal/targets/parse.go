package targets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/guideforge/internal/types"
)

// ExpectedFormat is shown to users alongside parse errors.
const ExpectedFormat = "chr:start-end:strand (e.g., chr17:7668402-7668421:+)"

var coordinatePattern = regexp.MustCompile(`^(chr\w+):(\d+)-(\d+)(?::(.))?$`)

// Parse decomposes a chr:start-end[:strand] token. A missing strand defaults to plus.
func Parse(token string) (types.Coordinate, error) {
	token = strings.TrimSpace(token)
	m := coordinatePattern.FindStringSubmatch(token)
	if m == nil {
		return types.Coordinate{}, &ParseError{Token: token, Message: "expected " + ExpectedFormat}
	}

	start, err := strconv.Atoi(m[2])
	if err != nil {
		return types.Coordinate{}, &ParseError{Token: token, Message: "start is not an integer", Cause: err}
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return types.Coordinate{}, &ParseError{Token: token, Message: "end is not an integer", Cause: err}
	}
	if start >= end {
		return types.Coordinate{}, &ParseError{Token: token, Message: fmt.Sprintf("start %d must be less than end %d", start, end)}
	}

	strand := types.StrandPlus
	if m[4] != "" {
		strand = types.Strand(m[4])
		if !strand.Valid() {
			return types.Coordinate{}, &ParseError{Token: token, Message: fmt.Sprintf("strand must be + or -, got %q", m[4])}
		}
	}

	return types.Coordinate{
		Chromosome: m[1],
		Start:      start,
		End:        end,
		Strand:     strand,
	}, nil
}

// List is the outcome of reading a target list: the coordinates that parsed,
// in input order, and one error per rejected line.
type List struct {
	Coordinates []types.Coordinate
	Errors      []*ParseError
}

// Read parses one coordinate per line. Blank lines and lines starting with '#'
// are ignored. Malformed lines are collected rather than aborting the read.
func Read(r io.Reader) (*List, error) {
	list := &List{}
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coord, err := Parse(line)
		if err != nil {
			perr := err.(*ParseError)
			perr.Line = lineNum
			list.Errors = append(list.Errors, perr)
			continue
		}
		list.Coordinates = append(list.Coordinates, coord)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}
	return list, nil
}

// ReadFile reads a target list from path.
func ReadFile(path string) (*List, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Resolve treats arg as a targets file if it exists, otherwise as a single coordinate.
func Resolve(arg string) (*List, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		return ReadFile(arg)
	}
	return Read(strings.NewReader(arg))
}

var labelPattern = regexp.MustCompile(`^(chr\w+)_(\d+)-(\d+)_(plus|-)$`)

// ParseLabel inverts Coordinate.Label.
func ParseLabel(label string) (types.Coordinate, error) {
	m := labelPattern.FindStringSubmatch(label)
	if m == nil {
		return types.Coordinate{}, &ParseError{Token: label, Message: "not a coordinate label"}
	}
	strand := "+"
	if m[4] == "-" {
		strand = "-"
	}
	return Parse(fmt.Sprintf("%s:%s-%s:%s", m[1], m[2], m[3], strand))
}
