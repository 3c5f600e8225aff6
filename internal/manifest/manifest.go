// Package manifest records run metadata, configuration hashes and summary
// statistics so that runs can be traced and compared.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/guideforge/internal/config"
	"github.com/jonathan/guideforge/internal/schemas"
	"github.com/jonathan/guideforge/internal/types"
)

// Version is the tool version recorded in every manifest.
const Version = "1.1.0"

// Backend names the scoring service.
const Backend = "IDT"

// Manifest is the JSON document written at the end of a run.
type Manifest struct {
	RunID          string           `json:"run_id"`
	Timestamp      string           `json:"timestamp"`
	Version        string           `json:"guideforge_version"`
	Backend        string           `json:"backend"`
	GenomeAssembly string           `json:"genome_assembly"`
	ConfigHash     string           `json:"config_hash"`
	PolicyHash     string           `json:"policy_hash"`
	GoVersion      string           `json:"go_version"`
	User           string           `json:"user"`
	Hostname       string           `json:"hostname"`
	Stats          types.RunSummary `json:"stats"`
}

// Build assembles a manifest for a run of cfg.
func Build(cfg *config.Config, stats types.RunSummary) Manifest {
	return build(cfg, stats, time.Now().UTC(), uuid.New())
}

func build(cfg *config.Config, stats types.RunSummary, now time.Time, id uuid.UUID) Manifest {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return Manifest{
		RunID:          id.String(),
		Timestamp:      now.Format(time.RFC3339),
		Version:        Version,
		Backend:        Backend,
		GenomeAssembly: cfg.UCSC.GenomeAssembly,
		ConfigHash:     cfg.ConfigHash,
		PolicyHash:     cfg.PolicyHash,
		GoVersion:      runtime.Version(),
		User:           currentUser(),
		Hostname:       host,
		Stats:          stats,
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, env := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "unknown"
}

// Write validates m against the manifest schema and writes it as indented JSON.
func Write(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &Error{Path: path, Message: "failed to encode manifest", Cause: err}
	}
	if err := schemas.Validate(schemas.Manifest, data); err != nil {
		return &Error{Path: path, Message: "manifest does not match schema", Cause: err}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return &Error{Path: path, Message: "failed to write manifest", Cause: err}
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "failed to read manifest", Cause: err}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &Error{Path: path, Message: "failed to parse manifest", Cause: err}
	}
	return &m, nil
}

// Difference is one field that differs between two manifests.
type Difference struct {
	Field string
	Left  string
	Right string
	// Key marks fields that decide whether two runs are reproductions of each other.
	Key bool
}

func (d Difference) String() string {
	return fmt.Sprintf("%s: %s -> %s", d.Field, d.Left, d.Right)
}

// Compare lists the key fields and summary statistics that differ between a
// and b. Key fields come first, statistics follow in name order. Run ID,
// timestamp, user and host are expected to differ and are not compared.
func Compare(a, b *Manifest) []Difference {
	var diffs []Difference
	keys := []struct {
		field       string
		left, right string
	}{
		{"config_hash", a.ConfigHash, b.ConfigHash},
		{"policy_hash", a.PolicyHash, b.PolicyHash},
		{"guideforge_version", a.Version, b.Version},
		{"go_version", a.GoVersion, b.GoVersion},
		{"backend", a.Backend, b.Backend},
		{"genome_assembly", a.GenomeAssembly, b.GenomeAssembly},
	}
	for _, k := range keys {
		if k.left != k.right {
			diffs = append(diffs, Difference{Field: k.field, Left: k.left, Right: k.right, Key: true})
		}
	}

	left, right := flattenStats(a.Stats), flattenStats(b.Stats)
	names := make([]string, 0, len(left))
	for name := range left {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if left[name] != right[name] {
			diffs = append(diffs, Difference{Field: name, Left: left[name], Right: right[name]})
		}
	}
	return diffs
}

// Reproducible reports whether no key field differs.
func Reproducible(diffs []Difference) bool {
	for _, d := range diffs {
		if d.Key {
			return false
		}
	}
	return true
}

// flattenStats renders each statistic as text. Failure lists are reduced to their counts.
func flattenStats(s types.RunSummary) map[string]string {
	out := map[string]string{
		"target_failures": fmt.Sprint(len(s.TargetFailures)),
		"batch_failures":  fmt.Sprint(len(s.BatchFailures)),
	}
	s.TargetFailures, s.BatchFailures = nil, nil

	data, err := json.Marshal(s)
	if err != nil {
		return out
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return out
	}
	for k, v := range fields {
		if k == "target_failures" || k == "batch_failures" {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
