// Package gcs publishes report artifacts to and reads source exports from Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Veraticus/deal-flow/internal/common"
	"github.com/Veraticus/deal-flow/internal/service"
)

// Scheme prefixes every object URI handled by this package.
const Scheme = "gs://"

const defaultUploadTimeout = 2 * time.Minute

// Store uploads artifacts under a bucket prefix and downloads gs:// objects.
// It assumes Application Default Credentials are configured.
type Store struct {
	client        *storage.Client
	bucket        string
	prefix        string
	uploadTimeout time.Duration
}

// Compile-time interface checks.
var (
	_ service.Publisher     = (*Store)(nil)
	_ service.ObjectFetcher = (*Store)(nil)
)

// NewStore creates a store publishing into bucket under prefix. An empty bucket
// yields a fetch-only store.
func NewStore(ctx context.Context, bucket, prefix string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{
		client:        client,
		bucket:        bucket,
		prefix:        strings.Trim(prefix, "/"),
		uploadTimeout: defaultUploadTimeout,
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Publish uploads the file at localPath and returns its gs:// URI.
func (s *Store) Publish(ctx context.Context, localPath string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("%w: no bucket configured", common.ErrPublishFailure)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open file %q: %w", common.ErrPublishFailure, localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	object := ObjectName(s.prefix, localPath)
	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	w.ContentType = ContentType(localPath)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: copy file to GCS writer: %w", common.ErrPublishFailure, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: finalize upload: %w", common.ErrPublishFailure, err)
	}

	return URI(s.bucket, object), nil
}

// Fetch downloads the object at a gs:// URI.
func (s *Store) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	rc, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading bytes of %s: %w", uri, err)
	}
	return data, nil
}

// IsURI reports whether location names a GCS object.
func IsURI(location string) bool {
	return strings.HasPrefix(location, Scheme)
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object path.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, Scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI joins a bucket and object path into a gs:// URI.
func URI(bucket, object string) string {
	return Scheme + bucket + "/" + object
}

// ObjectName places the base name of localPath under prefix.
func ObjectName(prefix, localPath string) string {
	base := filepath.Base(localPath)
	if prefix == "" {
		return base
	}
	return path.Join(prefix, base)
}

// FileName extracts the object's base name from a gs:// URI.
func FileName(uri string) string {
	_, object, err := ParseURI(uri)
	if err != nil {
		return path.Base(strings.TrimPrefix(uri, Scheme))
	}
	return path.Base(object)
}

// ContentType returns the MIME type stored with an uploaded artifact.
func ContentType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}
