package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Target is a path-addressed storage handle: one filesystem plus the root
// path a recipe's output is written under.
type Target struct {
	FS   Filesystem
	Path string
}

// NewTarget creates a storage handle rooted at p.
func NewTarget(fs Filesystem, p string) *Target {
	return &Target{FS: fs, Path: strings.TrimPrefix(p, "/")}
}

// URL returns the fully qualified URL of the target root.
func (t *Target) URL() string {
	return t.FS.URL(t.Path)
}

// Exists reports whether an object exists under the target root.
func (t *Target) Exists(ctx context.Context, name string) (bool, error) {
	return t.FS.Exists(ctx, path.Join(t.Path, name))
}

// Read reads an object stored under the target root.
func (t *Target) Read(ctx context.Context, name string) ([]byte, error) {
	return t.FS.Get(ctx, path.Join(t.Path, name))
}

// Write writes an object under the target root.
func (t *Target) Write(ctx context.Context, name string, data []byte) error {
	return t.FS.Put(ctx, path.Join(t.Path, name), data)
}

// CacheTarget is an input cache: a target whose entries are addressed by the
// source URL they were fetched from. Caching semantics live here, not in the
// underlying filesystem.
type CacheTarget struct {
	Target
}

// NewCacheTarget creates an input cache rooted at p.
func NewCacheTarget(fs Filesystem, p string) *CacheTarget {
	return &CacheTarget{Target: *NewTarget(fs, p)}
}

// EntryName derives the deterministic cache entry name for a source URL:
// a short content-address of the URL plus its base name, so repeated caching
// of the same input always lands on the same object.
func (c *CacheTarget) EntryName(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:8]) + "-" + path.Base(sourceURL)
}

// HasInput reports whether the input at sourceURL is already cached.
func (c *CacheTarget) HasInput(ctx context.Context, sourceURL string) (bool, error) {
	return c.Exists(ctx, c.EntryName(sourceURL))
}

// StoreInput caches the bytes of the input fetched from sourceURL.
func (c *CacheTarget) StoreInput(ctx context.Context, sourceURL string, data []byte) error {
	return c.Write(ctx, c.EntryName(sourceURL), data)
}

// ReadInput reads a previously cached input.
func (c *CacheTarget) ReadInput(ctx context.Context, sourceURL string) ([]byte, error) {
	return c.Read(ctx, c.EntryName(sourceURL))
}

// MetadataTarget stores bookkeeping documents for a recipe as JSON objects.
type MetadataTarget struct {
	Target
}

// NewMetadataTarget creates a metadata cache rooted at p.
func NewMetadataTarget(fs Filesystem, p string) *MetadataTarget {
	return &MetadataTarget{Target: *NewTarget(fs, p)}
}

// WriteJSON marshals v and stores it under name.
func (m *MetadataTarget) WriteJSON(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", name, err)
	}
	return m.Write(ctx, name, data)
}

// ReadJSON reads the document stored under name into v.
func (m *MetadataTarget) ReadJSON(ctx context.Context, name string, v any) error {
	data, err := m.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode metadata %s: %w", name, err)
	}
	return nil
}
