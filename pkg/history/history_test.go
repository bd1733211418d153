package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCreatesParentDirAndHeader(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "nested", "jobtracker.history.csv")
	j := Open(path)

	require.NoError(t, j.Write("aa", EventAppended, []string{"sim1"}, 0, 1, "add_to_queue"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := string(data)
	assert.Contains(t, lines, header)
	assert.Contains(t, lines, "aa")
	assert.Contains(t, lines, string(EventAppended))
	assert.Contains(t, lines, "sim1")
}

func TestWriteEmptyDataIsNoop(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "jobtracker.history.csv")
	j := Open(path)

	require.NoError(t, j.Write("aa", EventAppended, nil, 0, 0, "noop"))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no file should be created for an empty event")
}

func TestWriteAppendsMultipleRows(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "jobtracker.history.csv")
	j := Open(path)

	require.NoError(t, j.Write("aa", EventAppended, []string{"sim1", "sim2"}, 0, 2, "add_to_queue"))
	require.NoError(t, j.Write("aa", EventSuccess, []string{"sim1"}, 0, 1, "update"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// header + 2 rows from the first write + 1 row from the second.
	lineCount := 0
	for _, b := range data {
		if b == '\n' {
			lineCount++
		}
	}
	assert.Equal(t, 4, lineCount)
}
