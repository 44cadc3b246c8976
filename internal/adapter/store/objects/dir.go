// Package objects provides store.ObjectSource implementations backed by a local
// directory or a Google Cloud Storage bucket.
package objects

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.ngs.io/opstudy/internal/adapter/store"
)

// DirSource reads objects from a local directory.
// The directory can also be a GCS FUSE mount.
type DirSource struct {
	root string
}

// NewDirSource creates a directory-backed source.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Open opens the file at name below the root.
func (s *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G304: path is confined to the configured root.
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

// List walks the root and returns the regular files whose name starts with prefix.
func (s *DirSource) List(_ context.Context, prefix string) ([]string, error) {
	names := make([]string, 0)
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	sort.Strings(names)
	return names, nil
}

// Close is a no-op.
func (s *DirSource) Close() error {
	return nil
}

func (s *DirSource) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.root, clean), nil
}

// New returns a GCS source when bucket is set, otherwise a directory source at dataDir.
func New(ctx context.Context, dataDir, bucket, prefix string) (store.ObjectSource, error) {
	if bucket != "" {
		src, err := NewGCSSource(ctx, bucket, prefix)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	root := dataDir
	if prefix != "" {
		root = filepath.Join(dataDir, filepath.FromSlash(prefix))
	}
	return NewDirSource(root), nil
}
