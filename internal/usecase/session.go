package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"go.ngs.io/opstudy/internal/adapter/cache"
	"go.ngs.io/opstudy/internal/adapter/store"
	"go.ngs.io/opstudy/internal/domain"
)

// Session holds the reference tables and arrivals log shared by every study.
// Both are loaded once and never mutated afterwards.
type Session struct {
	references store.ReferenceLoader
	traffic    store.TrafficLoader

	snapshotPath   string
	snapshotMaxAge time.Duration

	once      sync.Once
	reference *domain.ReferenceData
	arrivals  []domain.ArrivalRecord
	err       error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSnapshot reads and refreshes a session snapshot at path. Snapshots older
// than maxAge are reloaded from the loaders; zero keeps them indefinitely.
func WithSnapshot(path string, maxAge time.Duration) SessionOption {
	return func(s *Session) {
		s.snapshotPath = path
		s.snapshotMaxAge = maxAge
	}
}

// NewSession creates a session backed by the given loaders.
func NewSession(references store.ReferenceLoader, traffic store.TrafficLoader, opts ...SessionOption) *Session {
	s := &Session{references: references, traffic: traffic}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionFromData creates an already loaded session.
func NewSessionFromData(ref *domain.ReferenceData, arrivals []domain.ArrivalRecord) *Session {
	s := &Session{reference: ref, arrivals: arrivals}
	s.once.Do(func() {})
	return s
}

// Load loads the session data on first use. Later calls return the first result.
func (s *Session) Load(ctx context.Context) error {
	s.once.Do(func() {
		s.err = s.load(ctx)
	})
	return s.err
}

func (s *Session) load(ctx context.Context) error {
	if s.snapshotPath != "" {
		snap, err := cache.Load(s.snapshotPath, s.snapshotMaxAge)
		switch {
		case err == nil:
			s.reference = snap.Reference
			s.arrivals = snap.Arrivals
			log.Printf("session: loaded snapshot %s (%d arrivals, created %s)",
				s.snapshotPath, len(snap.Arrivals), snap.CreatedAt.Format(time.RFC3339))
			return nil
		case errors.Is(err, cache.ErrStale):
			log.Printf("session: snapshot %s missing or stale, loading tables", s.snapshotPath)
		default:
			log.Printf("session: ignoring unreadable snapshot %s: %v", s.snapshotPath, err)
		}
	}

	ref, err := s.references.LoadReference(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reference tables: %w", err)
	}

	arrivals, err := s.traffic.LoadArrivals(ctx)
	if err != nil {
		return fmt.Errorf("failed to load arrivals: %w", err)
	}

	s.reference = ref
	s.arrivals = arrivals
	log.Printf("session: loaded %d lighting entries, %d aircraft types, %d arrivals",
		len(ref.Lighting), len(ref.Aircraft.Categories), len(arrivals))

	if s.snapshotPath != "" {
		snap := &cache.Snapshot{Reference: ref, Arrivals: arrivals}
		if err := cache.Save(s.snapshotPath, snap); err != nil {
			log.Printf("session: failed to write snapshot %s: %v", s.snapshotPath, err)
		}
	}

	return nil
}

// Reference returns the reference tables, loading them if needed.
func (s *Session) Reference(ctx context.Context) (*domain.ReferenceData, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s.reference, nil
}

// Arrivals returns the arrivals log, loading it if needed.
func (s *Session) Arrivals(ctx context.Context) ([]domain.ArrivalRecord, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s.arrivals, nil
}
