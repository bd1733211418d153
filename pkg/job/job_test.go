package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulationStatusString(t *testing.T) {
	tests := []struct {
		name     string
		status   SimulationStatus
		expected string
	}{
		{"success", StatusSuccess, "success"},
		{"failed", StatusFailed, "failed"},
		{"unknown", StatusUnknown, "unknown"},
		{"out of range defaults to unknown", SimulationStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestTypesConfigIsValid(t *testing.T) {
	cfg := TypesConfig{Types: []Type{"md", "analysis"}}

	assert.True(t, cfg.IsValid(Type("md")))
	assert.True(t, cfg.IsValid(Type("analysis")))
	assert.False(t, cfg.IsValid(Type("unknown")))
	assert.False(t, cfg.IsValid(Type("")))
}

func TestNewJobCopiesSims(t *testing.T) {
	sims := []string{"sim1", "sim2"}
	j := New(Type("md"), "1234", sims)
	require.NotNil(t, j)
	assert.Equal(t, Type("md"), j.Type)
	assert.Equal(t, "1234", j.ID)
	assert.Equal(t, sims, j.Sims)

	// mutating the caller's slice must not affect the Job's copy.
	sims[0] = "mutated"
	assert.Equal(t, "sim1", j.Sims[0])
}

func TestJobString(t *testing.T) {
	j := New(Type("md"), "42", []string{"sim1"})
	s := j.String()
	assert.Contains(t, s, "md")
	assert.Contains(t, s, "42")
	assert.Contains(t, s, "sim1")
}
