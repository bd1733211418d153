// Package io defines the contract shared by the three content-addressed
// storage backends (local filesystem, indexed TAR, sharded KV) and is
// implemented by pkg/io/localfs, pkg/io/tar and pkg/io/shard. It
// corresponds to the source's IO_Base abstract class.
package io

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by operations a backend deliberately does
// not implement (indexed-TAR remove/move, sharded-KV namespace_exists
// and move_key).
var ErrUnsupported = errors.New("io: operation not supported by this backend")

// ErrNotFound is returned by LoadFiles on the atomic-view backends
// (local FS, indexed TAR) when any requested key is absent. Exists
// reports absence as false instead, and the sharded-KV backend's
// LoadFiles returns nil slots — see Backend.LoadFiles.
var ErrNotFound = errors.New("io: key not found")

// Backend is the uniform contract over a (namespace, key) object
// space. A namespace is a directory, a .tar file's basename, or a key
// prefix, depending on the concrete backend.
type Backend interface {
	// Exists reports whether a successful Save has occurred for (ns,
	// key) with no intervening successful Remove.
	Exists(ctx context.Context, ns, key string) (bool, error)

	// NamespaceExists reports whether the namespace itself has any
	// presence (a directory, a tar file). Returns ErrUnsupported on
	// backends that cannot answer this (sharded-KV).
	NamespaceExists(ctx context.Context, ns string) (bool, error)

	// ListKeys returns the basenames of keys in ns matching glob,
	// deduplicated, order implementation-defined (callers sort if they
	// need determinism).
	ListKeys(ctx context.Context, ns, glob string) ([]string, error)

	// LoadFiles performs an atomic-view batch read: if ANY key is
	// missing on a backend with an atomic-view contract (local FS,
	// indexed TAR), the whole batch fails with ErrNotFound. The
	// sharded-KV backend instead returns a nil slot for any key it
	// could not find on any server — see its doc comment.
	LoadFiles(ctx context.Context, ns string, keys []string) ([][]byte, error)

	// SaveFiles writes every (key, data) pair. The namespace is
	// created if missing. On local FS and indexed TAR this fails the
	// whole batch on the first I/O error; on sharded-KV each key is an
	// independent per-server SET.
	SaveFiles(ctx context.Context, ns string, keys []string, data [][]byte) error

	// MoveKey renames a key within a namespace. Unsupported on
	// indexed TAR (append-only) and sharded-KV.
	MoveKey(ctx context.Context, ns, oldKey, newKey string) error

	// RemoveFiles deletes the given keys, best-effort: a missing key
	// is not an error. Unsupported on indexed TAR.
	RemoveFiles(ctx context.Context, ns string, keys []string) error
}
