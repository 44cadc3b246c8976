package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"go.ngs.io/opstudy/internal/adapter/store"
)

// GCSSource reads objects from a Google Cloud Storage bucket below a fixed prefix.
type GCSSource struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSSource connects to bucket using application default credentials unless
// opts say otherwise.
func NewGCSSource(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSSource, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSSource{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: normalizePrefix(prefix),
	}, nil
}

// Open returns a reader for the object at prefix+name.
func (s *GCSSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(s.prefix + name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gs object %s: %w", s.prefix+name, err)
	}
	return r, nil
}

// List returns object names below prefix, relative to the source prefix.
func (s *GCSSource) List(ctx context.Context, prefix string) ([]string, error) {
	query := &storage.Query{Prefix: s.prefix + prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}

	it := s.bucket.Objects(ctx, query)
	names := make([]string, 0)
	for {
		obj, err := it.Next()
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", query.Prefix, err)
		}
		if strings.HasSuffix(obj.Name, "/") {
			continue
		}
		names = append(names, strings.TrimPrefix(obj.Name, s.prefix))
	}

	sort.Strings(names)
	return names, nil
}

// Close releases the storage client.
func (s *GCSSource) Close() error {
	return s.client.Close()
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
