package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// SchemeS3 is the URL scheme of object-store filesystems.
const SchemeS3 = "s3"

// defaultObjectStoreEndpoint is used when the target descriptor does not
// name an endpoint of its own.
const defaultObjectStoreEndpoint = "s3.amazonaws.com"

// ObjectStoreConfig configures an object-store filesystem.
type ObjectStoreConfig struct {
	// Endpoint is the object store endpoint, host:port, no scheme.
	Endpoint string

	// AccessKey and SecretKey are the static credential pair.
	AccessKey string
	SecretKey string

	// Region is the bucket region hint.
	Region string

	// UseSSL enables TLS towards the endpoint.
	UseSSL bool

	// DisableReadCache turns off the filesystem-level read cache. Input
	// cache targets layer their own caching semantics on top, so resolved
	// recipe filesystems always run with the cache disabled.
	DisableReadCache bool
}

// Validate checks the configuration for the required credential pair.
func (c ObjectStoreConfig) Validate() error {
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}

// ObjectStoreFS is a Filesystem over an S3-compatible object store.
type ObjectStoreFS struct {
	client *minio.Client
	config ObjectStoreConfig

	mu        sync.RWMutex
	readCache map[string][]byte
}

// NewObjectStoreFS creates an object-store filesystem with static
// credentials. Construction does not perform network I/O.
func NewObjectStoreFS(cfg ObjectStoreConfig) (*ObjectStoreFS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultObjectStoreEndpoint
		cfg.UseSSL = true
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}

	fs := &ObjectStoreFS{client: client, config: cfg}
	if !cfg.DisableReadCache {
		fs.readCache = make(map[string][]byte)
	}
	return fs, nil
}

// Scheme implements Filesystem.
func (f *ObjectStoreFS) Scheme() string { return SchemeS3 }

// URL implements Filesystem.
func (f *ObjectStoreFS) URL(path string) string {
	return SchemeS3 + "://" + strings.TrimPrefix(path, "/")
}

// Exists implements Filesystem.
func (f *ObjectStoreFS) Exists(ctx context.Context, path string) (bool, error) {
	bucket, key, err := splitBucketKey(path)
	if err != nil {
		return false, err
	}
	_, err = f.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", f.URL(path), err)
	}
	return true, nil
}

// Get implements Filesystem.
func (f *ObjectStoreFS) Get(ctx context.Context, path string) ([]byte, error) {
	if f.readCache != nil {
		f.mu.RLock()
		cached, ok := f.readCache[path]
		f.mu.RUnlock()
		if ok {
			return cached, nil
		}
	}

	bucket, key, err := splitBucketKey(path)
	if err != nil {
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", f.URL(path), err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.URL(path), err)
	}

	if f.readCache != nil {
		f.mu.Lock()
		f.readCache[path] = data
		f.mu.Unlock()
	}
	return data, nil
}

// Put implements Filesystem.
func (f *ObjectStoreFS) Put(ctx context.Context, path string, data []byte) error {
	bucket, key, err := splitBucketKey(path)
	if err != nil {
		return err
	}
	_, err = f.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("put %s: %w", f.URL(path), err)
	}
	if f.readCache != nil {
		f.mu.Lock()
		delete(f.readCache, path)
		f.mu.Unlock()
	}
	return nil
}

// Probe implements Prober by checking the bucket exists and the credentials
// can see it.
func (f *ObjectStoreFS) Probe(ctx context.Context, bucket string) error {
	exists, err := f.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket missing: %s", bucket)
	}
	return nil
}

func splitBucketKey(path string) (string, string, error) {
	path = strings.TrimPrefix(path, "/")
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("path %q must be bucket/key", path)
	}
	return bucket, key, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
