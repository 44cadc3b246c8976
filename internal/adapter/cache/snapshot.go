// Package cache persists a loaded session (reference tables and arrivals) as a
// zstd-compressed msgpack snapshot so restarts skip the CSV parse.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"go.ngs.io/opstudy/internal/domain"
)

// snapshotVersion is bumped whenever the encoded layout changes.
const snapshotVersion = 1

// ErrStale is returned by Load for a missing, outdated or expired snapshot.
var ErrStale = errors.New("snapshot is stale")

// Snapshot is the persisted session state.
type Snapshot struct {
	Version   int                    `msgpack:"version"`
	CreatedAt time.Time              `msgpack:"created_at"`
	Reference *domain.ReferenceData  `msgpack:"reference"`
	Arrivals  []domain.ArrivalRecord `msgpack:"arrivals"`
}

// Save writes snap to path atomically.
func Save(path string, snap *Snapshot) error {
	snap.Version = snapshotVersion
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		_ = zw.Close()
		_ = f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Load reads the snapshot at path. A maxAge of zero disables the age check.
func Load(path string, maxAge time.Duration) (*Snapshot, error) {
	//nolint:gosec // G304: path comes from configuration.
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrStale
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var snap Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if snap.Version != snapshotVersion || snap.Reference == nil {
		return nil, ErrStale
	}
	if maxAge > 0 && time.Since(snap.CreatedAt) > maxAge {
		return nil, ErrStale
	}

	return &snap, nil
}
