// Package storage provides the credentialed blob filesystems and the
// path-addressed storage handles (target, input cache, metadata cache)
// that resolved recipes are bound to.
package storage

import "context"

// Filesystem is a credentialed blob filesystem. Paths are rooted at the
// bucket or container name: "bucket/ns/file.zarr". URL derivation is pure;
// no filesystem method other than the I/O operations performs network calls.
type Filesystem interface {
	// Scheme returns the URL scheme of this filesystem ("s3", "abfs").
	Scheme() string

	// URL returns the fully qualified URL for a path on this filesystem.
	URL(path string) string

	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Get reads the object at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put writes data to path, replacing any existing object.
	Put(ctx context.Context, path string, data []byte) error
}

// Prober is an optional capability of filesystems that can cheaply verify a
// bucket or container is reachable with the configured credentials.
type Prober interface {
	Probe(ctx context.Context, bucket string) error
}
