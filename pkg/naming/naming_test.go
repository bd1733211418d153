package naming

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirRootJoinsUnderRoot(t *testing.T) {
	s := New("/root/mummi", "/resources", "app")
	assert.Equal(t, filepath.Join("/root/mummi", "workspace"), s.DirRoot("workspace"))
	assert.Equal(t, filepath.Join("/root/mummi", "checkpoints"), s.DirRoot("checkpoints"))
}

func TestDirSimUsesRegisteredBucketOrFallsBack(t *testing.T) {
	s := New("/root/mummi", "/resources", "app")

	assert.Equal(t, filepath.Join("/root/mummi", "sims-aa", "sim1"), s.DirSim("aa", "sim1"))
	assert.Equal(t, filepath.Join("/root/mummi", "sims-cg", "sim2"), s.DirSim("cg", "sim2"))
	// an unregistered bucket falls back to "sims-<bucket>".
	assert.Equal(t, filepath.Join("/root/mummi", "sims-custom", "sim3"), s.DirSim("custom", "sim3"))
}

func TestStatusFlagsKnownAndFallback(t *testing.T) {
	s := New("/root", "/resources", "app")

	success, failure := s.StatusFlags("cg")
	assert.Equal(t, "cg_success", success)
	assert.Equal(t, "cg_failure", failure)

	success, failure = s.StatusFlags("unregistered")
	assert.Equal(t, "unregistered_success", success)
	assert.Equal(t, "unregistered_failure", failure)
}

func TestRegisterStatusFlagsOverridesFallback(t *testing.T) {
	s := New("/root", "/resources", "app")
	s.RegisterStatusFlags("custom", "custom_ok", "custom_bad")

	success, failure := s.StatusFlags("custom")
	assert.Equal(t, "custom_ok", success)
	assert.Equal(t, "custom_bad", failure)
}
