// Package localfs implements the IO backend that maps a (namespace,
// key) pair directly onto "{namespace}/{key}" on the local filesystem.
package localfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	mio "github.com/llnl/mummi-workflow-core/pkg/io"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// Backend is the local-filesystem IO backend. A namespace is a
// directory; a key is a file within it.
type Backend struct{}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Exists(_ context.Context, ns, key string) (bool, error) {
	st, err := os.Stat(filepath.Join(ns, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "localfs: stat")
	}
	return !st.IsDir(), nil
}

func (b *Backend) NamespaceExists(_ context.Context, ns string) (bool, error) {
	st, err := os.Stat(ns)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "localfs: stat namespace")
	}
	return st.IsDir(), nil
}

func (b *Backend) ListKeys(_ context.Context, ns, glob string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(ns, glob))
	if err != nil {
		return nil, errors.Wrap(err, "localfs: glob")
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		out = append(out, base)
	}
	return out, nil
}

// LoadFiles implements the atomic-view contract: if any requested key
// is missing, the whole batch fails with mio.ErrNotFound.
func (b *Backend) LoadFiles(_ context.Context, ns string, keys []string) ([][]byte, error) {
	paths := make([]string, len(keys))
	for i, k := range keys {
		paths[i] = filepath.Join(ns, k)
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				log.Debugf("localfs: file %s does not exist", p)
				return nil, mio.ErrNotFound
			}
			return nil, errors.Wrap(err, "localfs: stat")
		}
	}
	out := make([][]byte, len(paths))
	for i, p := range paths {
		d, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "localfs: read %s", p)
		}
		out[i] = d
	}
	return out, nil
}

// SaveFiles creates the namespace directory if missing and writes
// every payload, failing the whole batch on the first I/O error.
func (b *Backend) SaveFiles(_ context.Context, ns string, keys []string, data [][]byte) error {
	if err := os.MkdirAll(ns, 0o755); err != nil {
		return errors.Wrapf(err, "localfs: mkdir %s", ns)
	}
	for i, k := range keys {
		p := filepath.Join(ns, k)
		if err := os.WriteFile(p, data[i], 0o644); err != nil {
			return errors.Wrapf(err, "localfs: write %s", p)
		}
	}
	log.Debugf("localfs: wrote %d files to %s", len(keys), ns)
	return nil
}

func (b *Backend) MoveKey(_ context.Context, ns, oldKey, newKey string) error {
	return os.Rename(filepath.Join(ns, oldKey), filepath.Join(ns, newKey))
}

// RemoveFiles is best-effort: a missing file is silently skipped.
func (b *Backend) RemoveFiles(_ context.Context, ns string, keys []string) error {
	for _, k := range keys {
		p := filepath.Join(ns, k)
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "localfs: stat %s", p)
		}
		if err := os.Remove(p); err != nil {
			return errors.Wrapf(err, "localfs: remove %s", p)
		}
	}
	return nil
}

var _ mio.Backend = (*Backend)(nil)
