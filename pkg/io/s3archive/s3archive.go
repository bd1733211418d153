// Package s3archive mirrors checkpoint bytes to an S3-compatible
// object store, giving the Feedback Interface's checkpoint history a
// durability story beyond the local or shared filesystem the primary
// Backend writes to. It is never the backend of record — callers keep
// writing through facade.Facade as usual and additionally hand this
// package a copy to push off-cluster, best-effort.
package s3archive

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)

// Archiver is the narrow interface facade.Facade mirrors checkpoints
// through; satisfied by *Mirror, and small enough to fake in tests.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte) error
}

// Mirror is an Archiver backed by a single bucket on an S3-compatible
// endpoint (AWS S3, MinIO, Ceph RGW, ...).
type Mirror struct {
	client *minio.Client
	bucket string
	prefix string
}

// Config is the on-disk shape of a Mirror's connection parameters.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// New dials the S3-compatible endpoint described by cfg. It does not
// verify the bucket exists; the first Archive call surfaces that.
func New(cfg Config) (*Mirror, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "s3archive: dial endpoint")
	}
	return &Mirror{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Archive uploads data under prefix/key, overwriting any prior object
// at that key. Failures are the caller's to decide whether to treat as
// fatal; a checkpoint mirror lagging behind the primary store is a
// degraded-durability condition, not a correctness one.
func (m *Mirror) Archive(ctx context.Context, key string, data []byte) error {
	object := key
	if m.prefix != "" {
		object = m.prefix + "/" + key
	}
	_, err := m.client.PutObject(ctx, m.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return errors.Wrapf(err, "s3archive: put %s/%s", m.bucket, object)
	}
	log.Debugf("s3archive: mirrored %s (%d bytes) to %s/%s", key, len(data), m.bucket, object)
	return nil
}
