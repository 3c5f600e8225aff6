package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	require.Len(t, StepRegistry, len(Order))
	for _, stepName := range Order {
		def, ok := StepRegistry[stepName]
		require.True(t, ok, "Step %s should be in registry", stepName)
		assert.Equal(t, stepName, def.Name)
		assert.NotEmpty(t, def.Category)
		assert.NotEmpty(t, def.Title)
	}
}

func TestStepRegistry_DependenciesPrecedeStep(t *testing.T) {
	for _, stepName := range Order {
		for _, dep := range StepRegistry[stepName].Dependencies {
			assert.Less(t, Number(dep), Number(stepName), "%s depends on later step %s", stepName, dep)
		}
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 1, Number(Fetch))
	assert.Equal(t, 6, Number(Manifest))
	assert.Equal(t, 0, Number("nope"))
}

func TestDependencyError(t *testing.T) {
	err := &DependencyError{
		Step:                "test_step",
		MissingDependencies: []string{"dep1", "dep2"},
	}

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing dependencies")
	assert.Equal(t, "test_step", err.Step)
	assert.Equal(t, []string{"dep1", "dep2"}, err.MissingDependencies)
}

func TestTracker_ValidateDependencies(t *testing.T) {
	tr := NewTracker()
	assert.NoError(t, tr.ValidateDependencies(Fetch))

	err := tr.ValidateDependencies(QC)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{Scan}, depErr.MissingDependencies)

	tr.Complete(Fetch)
	tr.Complete(Scan)
	assert.NoError(t, tr.ValidateDependencies(QC))

	assert.ErrorContains(t, tr.ValidateDependencies("bogus"), "unknown step")
}

func TestTracker_SkippedScoreBlocksSelect(t *testing.T) {
	tr := NewTracker()
	tr.Complete(Fetch)
	tr.Complete(Scan)
	tr.Complete(QC)
	tr.Skip(Score)

	assert.Equal(t, StatusSkipped, tr.Status(Score))
	assert.Error(t, tr.ValidateDependencies(Select))
	assert.Equal(t, []string{Manifest}, tr.GetAvailableSteps())
	assert.Equal(t, []string{Select}, tr.GetBlockedSteps())
}

func TestTracker_Fresh(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, StatusPending, tr.Status(Scan))
	assert.Equal(t, []string{Fetch}, tr.GetAvailableSteps())
	assert.Equal(t, []string{Scan, QC, Score, Select, Manifest}, tr.GetBlockedSteps())

	tr.Fail(Fetch)
	assert.Empty(t, tr.GetAvailableSteps())
}
