// Package steps provides step definitions and dependency tracking for the
// guide design pipeline.
package steps

import (
	"fmt"
)

// Step names
const (
	Fetch    = "fetch_sequences"
	Scan     = "scan_pam"
	QC       = "quality_control"
	Score    = "score_candidates"
	Select   = "select_guides"
	Manifest = "write_manifest"
)

// Step categories
const (
	CategoryRetrieval = "retrieval"
	CategoryDesign    = "design"
	CategoryScoring   = "scoring"
	CategoryReport    = "report"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Title        string
	Category     string
	Dependencies []string
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	Fetch: {
		Name:     Fetch,
		Title:    "Fetching flanking sequences from UCSC",
		Category: CategoryRetrieval,
	},
	Scan: {
		Name:         Scan,
		Title:        "Scanning for PAM sites",
		Category:     CategoryDesign,
		Dependencies: []string{Fetch},
	},
	QC: {
		Name:         QC,
		Title:        "Applying quality control filters",
		Category:     CategoryDesign,
		Dependencies: []string{Scan},
	},
	Score: {
		Name:         Score,
		Title:        "Scoring candidates with IDT",
		Category:     CategoryScoring,
		Dependencies: []string{QC},
	},
	Select: {
		Name:         Select,
		Title:        "Selecting top guides",
		Category:     CategoryScoring,
		Dependencies: []string{Score},
	},
	Manifest: {
		Name:         Manifest,
		Title:        "Writing run manifest",
		Category:     CategoryReport,
		Dependencies: []string{Fetch},
	},
}

// Order lists the steps in execution order.
var Order = []string{Fetch, Scan, QC, Score, Select, Manifest}

// Number returns the 1-based position of a step in Order, or 0 for unknown steps.
func Number(name string) int {
	for i, n := range Order {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Status of a step within one run
type Status string

// Status values
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Tracker records step outcomes for one run and enforces dependencies.
type Tracker struct {
	status map[string]Status
}

// NewTracker returns a Tracker with every registered step pending.
func NewTracker() *Tracker {
	t := &Tracker{status: make(map[string]Status, len(StepRegistry))}
	for name := range StepRegistry {
		t.status[name] = StatusPending
	}
	return t
}

// ValidateDependencies checks if all required dependencies for a step are completed
func (t *Tracker) ValidateDependencies(stepName string) error {
	def, ok := StepRegistry[stepName]
	if !ok {
		return fmt.Errorf("unknown step: %s", stepName)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if t.status[dep] != StatusCompleted {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Step: stepName, MissingDependencies: missing}
	}
	return nil
}

// Complete marks a step completed.
func (t *Tracker) Complete(stepName string) { t.status[stepName] = StatusCompleted }

// Skip marks a step skipped.
func (t *Tracker) Skip(stepName string) { t.status[stepName] = StatusSkipped }

// Fail marks a step failed.
func (t *Tracker) Fail(stepName string) { t.status[stepName] = StatusFailed }

// Status returns the recorded status of a step.
func (t *Tracker) Status(stepName string) Status {
	return t.status[stepName]
}

// GetAvailableSteps returns pending steps whose dependencies are met, in execution order.
func (t *Tracker) GetAvailableSteps() []string {
	var available []string
	for _, name := range Order {
		if t.status[name] != StatusPending {
			continue
		}
		if err := t.ValidateDependencies(name); err != nil {
			continue
		}
		available = append(available, name)
	}
	return available
}

// GetBlockedSteps returns pending steps whose dependencies are not met, in execution order.
func (t *Tracker) GetBlockedSteps() []string {
	var blocked []string
	for _, name := range Order {
		if t.status[name] != StatusPending {
			continue
		}
		if err := t.ValidateDependencies(name); err != nil {
			blocked = append(blocked, name)
		}
	}
	return blocked
}
