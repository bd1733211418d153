// Package facade provides the uniform, convenience-layer entry point
// over a selected Backend: single-or-batch load/save, compressed
// array-bundle payloads, checkpoint save/restore, and signal-file
// send/test — grounded on the source's IO_Base public interface.
package facade

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	mio "github.com/llnl/mummi-workflow-core/pkg/io"
	"github.com/llnl/mummi-workflow-core/pkg/io/s3archive"
	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// Facade wraps one Backend and adds format-aware convenience
// operations. The core JobTracker code only ever depends on this
// type, never on a concrete backend, so the storage scheme can be
// swapped by configuration alone.
type Facade struct {
	backend  mio.Backend
	archiver s3archive.Archiver // optional, nil unless configured
}

func New(backend mio.Backend) *Facade {
	return &Facade{backend: backend}
}

func (f *Facade) Backend() mio.Backend { return f.backend }

// SetArchiver attaches an off-cluster checkpoint mirror. Nil disables
// mirroring, the default.
func (f *Facade) SetArchiver(a s3archive.Archiver) {
	f.archiver = a
}

// LoadFile loads a single key, unwrapping the one-element batch
// result the way the source's load_files does for a bare string key.
func (f *Facade) LoadFile(ctx context.Context, ns, key string) ([]byte, error) {
	out, err := f.backend.LoadFiles(ctx, ns, []string{key})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (f *Facade) SaveFile(ctx context.Context, ns, key string, data []byte) error {
	return f.backend.SaveFiles(ctx, ns, []string{key}, [][]byte{data})
}

// SaveArrayBundle compresses a named set of byte arrays into a single
// zip archive (the Go analogue of numpy's .npz compressed-archive
// container) and stores it as one key.
func (f *Facade) SaveArrayBundle(ctx context.Context, ns, key string, arrays map[string][]byte) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range arrays {
		w, err := zw.Create(name)
		if err != nil {
			return errors.Wrap(err, "facade: create zip entry")
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "facade: write zip entry")
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "facade: close zip")
	}
	return f.SaveFile(ctx, ns, withExt(key, ".npzbundle"), buf.Bytes())
}

// LoadArrayBundle is the inverse of SaveArrayBundle.
func (f *Facade) LoadArrayBundle(ctx context.Context, ns, key string) (map[string][]byte, error) {
	data, err := f.LoadFile(ctx, ns, withExt(key, ".npzbundle"))
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "facade: open zip")
	}
	out := make(map[string][]byte, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Wrap(err, "facade: open zip entry")
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrap(err, "facade: read zip entry")
		}
		out[zf.Name] = b
	}
	return out, nil
}

func withExt(key, ext string) string {
	if filepath.Ext(key) == ext {
		return key
	}
	return key + ext
}

// SaveCheckpoint atomically backs up any existing checkpoint file to
// "path.bak[.timestamp]" then writes a YAML key-value tree with a
// mandatory "ts" field stamped in.
func (f *Facade) SaveCheckpoint(path string, data map[string]interface{}, useTimestampSuffix bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "facade: mkdir checkpoint dir")
	}
	if _, err := os.Stat(path); err == nil {
		backup := path + ".bak"
		if useTimestampSuffix {
			backup += "." + time.Now().Format("20060102_150405")
		}
		if err := os.Rename(path, backup); err != nil {
			return errors.Wrap(err, "facade: backup checkpoint")
		}
		log.Infof("facade: saved backup %s", backup)
	}

	out := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	out["ts"] = ts

	b, err := yaml.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "facade: marshal checkpoint")
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrap(err, "facade: write checkpoint")
	}
	log.Infof("facade: saved checkpoint %s at %s", path, ts)

	if f.archiver != nil {
		if err := f.archiver.Archive(context.Background(), filepath.Base(path), b); err != nil {
			log.Errorf("facade: checkpoint mirror failed: %v", err)
		}
	}
	return nil
}

// LoadCheckpoint returns an empty map, diagnosed but not fatal, when
// the file is absent or fails to parse.
func (f *Facade) LoadCheckpoint(path string) map[string]interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Infof("facade: checkpoint %s does not exist", path)
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := yaml.Unmarshal(data, &out); err != nil || out == nil {
		log.Errorf("facade: checkpoint %s failed to load: %v", path, err)
		return map[string]interface{}{}
	}
	log.Infof("facade: restored checkpoint %s from %v", path, out["ts"])
	return out
}

// SendSignal touches a marker file in dir named name, containing a
// single byte "1".
func (f *Facade) SendSignal(dir, name string) error {
	file := filepath.Join(dir, name)
	if err := os.WriteFile(file, []byte("1"), 0o644); err != nil {
		return errors.Wrapf(err, "facade: send signal %s", file)
	}
	log.Infof("facade: saved signal %s", file)
	return nil
}

// TestSignal reports whether the marker file exists; an empty name
// always returns false.
func (f *Facade) TestSignal(dir, name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
