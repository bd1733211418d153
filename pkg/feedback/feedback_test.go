package feedback

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleString(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleWorker, "worker"},
		{RoleManager, "manager"},
		{RoleUnknown, "unknown"},
		{Role(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.String())
		})
	}
}

func TestNewBaseRejectsEmptyName(t *testing.T) {
	_, err := NewBase(RoleWorker, "")
	assert.Error(t, err)
}

func TestNewBaseRejectsUnknownRole(t *testing.T) {
	_, err := NewBase(RoleUnknown, "cg2aa")
	assert.Error(t, err)
}

func TestNewBasePopulatesTruncatedHostname(t *testing.T) {
	b, err := NewBase(RoleManager, "cg2aa")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, b.Role)
	assert.Equal(t, "cg2aa", b.Name)

	host, _ := os.Hostname()
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	assert.Equal(t, host, b.Hostname)
}

func TestBaseString(t *testing.T) {
	b, err := NewBase(RoleWorker, "cg-sampler")
	require.NoError(t, err)
	s := b.String()
	assert.Contains(t, s, "role=worker")
	assert.Contains(t, s, "name=cg-sampler")
}
