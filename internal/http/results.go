package http

import (
	"sync"
	"time"
)

type storedBundle struct {
	name    string
	data    []byte
	expires time.Time
}

// ResultStore keeps packaged study bundles in memory until they expire.
type ResultStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	bundles map[string]storedBundle
}

// NewResultStore creates a store whose entries live for ttl.
func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{
		ttl:     ttl,
		now:     time.Now,
		bundles: make(map[string]storedBundle),
	}
}

// Put stores a bundle under the study id.
func (s *ResultStore) Put(id, name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.bundles[id] = storedBundle{name: name, data: data, expires: s.now().Add(s.ttl)}
}

// Get returns the bundle name and archive bytes for id.
func (s *ResultStore) Get(id string) (string, []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bundles[id]
	if !ok || !s.now().Before(b.expires) {
		delete(s.bundles, id)
		return "", nil, false
	}
	return b.name, b.data, true
}

// Len returns the number of live bundles.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	return len(s.bundles)
}

func (s *ResultStore) purgeLocked() {
	now := s.now()
	for id, b := range s.bundles {
		if !now.Before(b.expires) {
			delete(s.bundles, id)
		}
	}
}
