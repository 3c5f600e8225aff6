package idt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type namedSequence struct {
	Name     string `json:"Name"`
	Sequence string `json:"Sequence"`
}

type searchRequest struct {
	ToolName       string          `json:"ToolName"`
	Types          []int           `json:"Types"`
	DesignsPerGene string          `json:"DesignsPerGene"`
	From           int             `json:"From"`
	To             int             `json:"To"`
	Species        string          `json:"Species"`
	Genome         string          `json:"Genome"`
	NamedSequences []namedSequence `json:"NamedSequences"`
}

func newSearchRequest(species, genome string, seqs []namedSequence) searchRequest {
	return searchRequest{
		ToolName:       "CRISPR_SEQUENCE",
		Types:          []int{12},
		DesignsPerGene: "6",
		From:           1,
		To:             1,
		Species:        species,
		Genome:         genome,
		NamedSequences: seqs,
	}
}

type searchResponse struct {
	LookupKey string   `json:"LookupKey"`
	Details   []detail `json:"Details"`
}

type detail struct {
	Props []prop `json:"Props"`
}

type prop struct {
	FieldName  string          `json:"FieldName"`
	FieldValue json.RawMessage `json:"FieldValue"`
}

type cardMessage struct {
	Deviation   string `json:"deviation"`
	Description string `json:"description"`
}

// rawScore is one parsed detail: the submitted name and the raw score texts.
type rawScore struct {
	Name      string
	OnTarget  string
	OffTarget string
}

func (r rawScore) hasScores() bool {
	return r.OnTarget != "" || r.OffTarget != ""
}

// parseResponse accepts either a single object or a list whose first element is used.
func parseResponse(body []byte) (searchResponse, error) {
	trimmed := bytes.TrimSpace(body)
	var resp searchResponse
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []searchResponse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return resp, fmt.Errorf("failed to decode response list: %w", err)
		}
		if len(list) > 0 {
			resp = list[0]
		}
		return resp, nil
	}
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return resp, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

// scores extracts one rawScore per detail that names its sequence.
// Card messages flagged BAD_FOR_POTENCY or BAD_FOR_OFF_TARGET stand in for the
// score fields until the final result carries them.
func (r searchResponse) scores() []rawScore {
	var out []rawScore
	for _, d := range r.Details {
		var s rawScore
		for _, p := range d.Props {
			switch p.FieldName {
			case "SearchField":
				s.Name = text(p.FieldValue)
			case "CardMessages":
				var msgs []cardMessage
				if err := json.Unmarshal(p.FieldValue, &msgs); err != nil {
					continue
				}
				for _, m := range msgs {
					switch m.Deviation {
					case "BAD_FOR_POTENCY":
						s.OnTarget = m.Description
					case "BAD_FOR_OFF_TARGET":
						s.OffTarget = m.Description
					}
				}
			case "OnTargetPotential":
				s.OnTarget = text(p.FieldValue)
			case "OffTargetRiskSpecificity":
				s.OffTarget = text(p.FieldValue)
			}
		}
		if s.Name != "" {
			out = append(out, s)
		}
	}
	return out
}

// text renders a JSON scalar as a string. Strings are unquoted, null is empty.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(raw)
}

var numberPattern = regexp.MustCompile(`-?\d+\.?\d*`)

// ExtractScore returns the first number in s.
func ExtractScore(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
