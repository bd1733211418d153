package tar

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mio "github.com/llnl/mummi-workflow-core/pkg/io"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")

	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.txt", "b.txt"}, [][]byte{[]byte("alpha"), []byte("beta")}))

	out, err := b.LoadFiles(ctx, ns, []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("alpha"), []byte("beta")}, out)
}

func TestLoadFilesFailsWholeBatchOnMissingKey(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")
	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.txt"}, [][]byte{[]byte("alpha")}))

	_, err := b.LoadFiles(ctx, ns, []string{"a.txt", "missing.txt"})
	assert.ErrorIs(t, err, mio.ErrNotFound)
}

func TestNamespaceExistsRequiresBothTarAndIndex(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")

	ok, err := b.NamespaceExists(ctx, ns)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.txt"}, [][]byte{[]byte("alpha")}))
	ok, err = b.NamespaceExists(ctx, ns)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListKeysMatchesGlob(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")
	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.dat", "b.dat", "c.txt"},
		[][]byte{[]byte("1"), []byte("2"), []byte("3")}))

	keys, err := b.ListKeys(ctx, ns, "*.dat")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.dat", "b.dat"}, keys)
}

func TestMoveKeyAndRemoveFilesAreUnsupported(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")

	assert.ErrorIs(t, b.MoveKey(ctx, ns, "a", "b"), mio.ErrUnsupported)
	assert.ErrorIs(t, b.RemoveFiles(ctx, ns, []string{"a"}), mio.ErrUnsupported)
}

func TestRebuildReconstructsIndexFirstOccurrenceWins(t *testing.T) {
	ctx := context.Background()
	b := New()
	ns := filepath.Join(t.TempDir(), "bundle")

	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.txt"}, [][]byte{[]byte("first")}))
	require.NoError(t, b.SaveFiles(ctx, ns, []string{"a.txt"}, [][]byte{[]byte("second-longer-value")}))

	require.NoError(t, Rebuild(ns))

	out, err := b.LoadFiles(ctx, ns, []string{"a.txt"})
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), out[0], "rebuild keeps the first occurrence of a duplicate key, matching the original's dedup behavior")
}
