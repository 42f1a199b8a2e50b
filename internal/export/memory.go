package export

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	job     Job
	file    []byte
	expires time.Time
}

// MemoryStore is an in-process Store for single-binary deployments and tests.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*memEntry
}

// NewMemoryStore creates a store whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]*memEntry)}
}

func (s *MemoryStore) SaveJob(_ context.Context, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	e, ok := s.entries[job.ID]
	if !ok {
		e = &memEntry{}
		s.entries[job.ID] = e
	}
	e.job = job
	e.expires = s.now().Add(s.ttl)
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	return e.job, nil
}

func (s *MemoryStore) SaveFile(_ context.Context, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return ErrNotFound
	}
	e.file = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) File(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok || e.file == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.file...), nil
}

// live returns the entry for id if it has not expired. Caller holds mu.
func (s *MemoryStore) live(id string) (*memEntry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expires) {
		delete(s.entries, id)
		return nil, false
	}
	return e, true
}

// sweep drops expired entries. Caller holds mu.
func (s *MemoryStore) sweep() {
	now := s.now()
	for id, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, id)
		}
	}
}
