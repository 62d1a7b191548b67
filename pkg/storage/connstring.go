package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SchemeABFS is the URL scheme of connection-string blob filesystems.
const SchemeABFS = "abfs"

const defaultEndpointSuffix = "core.windows.net"

// ConnStringFS is a Filesystem over an Azure-style blob store, authenticated
// with a single account connection string.
type ConnStringFS struct {
	accountName    string
	accountKey     []byte
	endpointSuffix string
	protocol       string
	http           *http.Client
}

// NewConnStringFS parses a "Key=Value;Key=Value" connection string and
// returns a filesystem over the referenced blob account. Construction does
// not perform network I/O.
func NewConnStringFS(connectionString string) (*ConnStringFS, error) {
	parts := map[string]string{}
	for _, kv := range strings.Split(connectionString, ";") {
		if kv = strings.TrimSpace(kv); kv == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("malformed connection string segment %q", key)
		}
		parts[key] = value
	}

	name := parts["AccountName"]
	if name == "" {
		return nil, errors.New("connection string is missing AccountName")
	}
	rawKey := parts["AccountKey"]
	if rawKey == "" {
		return nil, errors.New("connection string is missing AccountKey")
	}
	key, err := base64.StdEncoding.DecodeString(rawKey)
	if err != nil {
		return nil, fmt.Errorf("account key is not base64: %w", err)
	}

	suffix := parts["EndpointSuffix"]
	if suffix == "" {
		suffix = defaultEndpointSuffix
	}
	protocol := parts["DefaultEndpointsProtocol"]
	if protocol == "" {
		protocol = "https"
	}

	return &ConnStringFS{
		accountName:    name,
		accountKey:     key,
		endpointSuffix: suffix,
		protocol:       protocol,
		http:           &http.Client{Timeout: 60 * time.Second, Transport: newTransport()},
	}, nil
}

// AccountName returns the blob account this filesystem is bound to.
func (f *ConnStringFS) AccountName() string { return f.accountName }

// Scheme implements Filesystem.
func (f *ConnStringFS) Scheme() string { return SchemeABFS }

// URL implements Filesystem.
func (f *ConnStringFS) URL(path string) string {
	return SchemeABFS + "://" + strings.TrimPrefix(path, "/")
}

// Exists implements Filesystem.
func (f *ConnStringFS) Exists(ctx context.Context, path string) (bool, error) {
	resp, err := f.do(ctx, http.MethodHead, path, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("head %s: unexpected status %s", f.URL(path), resp.Status)
	}
}

// Get implements Filesystem.
func (f *ConnStringFS) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := f.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", f.URL(path), resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Put implements Filesystem.
func (f *ConnStringFS) Put(ctx context.Context, path string, data []byte) error {
	resp, err := f.do(ctx, http.MethodPut, path, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("put %s: unexpected status %s", f.URL(path), resp.Status)
	}
	return nil
}

// do issues a shared-key signed blob request. path is container/key.
func (f *ConnStringFS) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	path = strings.TrimPrefix(path, "/")
	url := fmt.Sprintf("%s://%s.blob.%s/%s", f.protocol, f.accountName, f.endpointSuffix, path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-ms-date", now)
	req.Header.Set("x-ms-version", "2021-08-06")
	contentLength := ""
	if len(body) > 0 {
		contentLength = fmt.Sprintf("%d", len(body))
	}
	if method == http.MethodPut {
		req.Header.Set("x-ms-blob-type", "BlockBlob")
	}

	req.Header.Set("Authorization", f.sharedKeyAuth(method, path, now, contentLength, req))
	return f.http.Do(req)
}

// sharedKeyAuth builds a SharedKey authorization header per the blob
// service's canonicalization rules, restricted to the headers this
// filesystem sends.
func (f *ConnStringFS) sharedKeyAuth(method, path, date, contentLength string, req *http.Request) string {
	canonicalHeaders := fmt.Sprintf("x-ms-date:%s\nx-ms-version:%s\n", date, req.Header.Get("x-ms-version"))
	if blobType := req.Header.Get("x-ms-blob-type"); blobType != "" {
		canonicalHeaders = fmt.Sprintf("x-ms-blob-type:%s\n%s", blobType, canonicalHeaders)
	}
	canonicalResource := fmt.Sprintf("/%s/%s", f.accountName, path)

	// VERB, Content-Encoding, Content-Language, Content-Length, Content-MD5,
	// Content-Type, Date, If-*, Range, then canonicalized headers + resource.
	stringToSign := strings.Join([]string{
		method,
		"", "", contentLength, "", "", "", "", "", "", "", "",
		canonicalHeaders + canonicalResource,
	}, "\n")

	mac := hmac.New(sha256.New, f.accountKey)
	mac.Write([]byte(stringToSign))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("SharedKey %s:%s", f.accountName, signature)
}
