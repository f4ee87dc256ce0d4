package session

import (
	"errors"
	"sync"
	"time"

	"pdfqa/internal/vectorindex"
)

// ErrNotFound is returned by WithBoth when either session lacks a document.
// Single-session lookups report absence through a bool instead, since an
// unloaded session is an expected state there, not a failure.
var ErrNotFound = errors.New("session has no document loaded")

// Entry binds one session's retrieval index to its upload timestamp. The
// two are replaced together, so a snapshot never pairs a new index with a
// stale timestamp.
type Entry struct {
	Index      *vectorindex.Index
	UploadedAt time.Time
}

// Store maps opaque session keys to their owned retrieval index. A single
// store-wide mutex guards every operation: indexes are not safe against
// concurrent replacement, so work that reads an index must run under the
// guard (With / WithBoth). Sessions never expire; they are only replaced
// or explicitly cleared.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Entry
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]Entry)}
}

// Get returns a snapshot of the session entry. The snapshot's index must
// not be searched outside With/WithBoth; Get exists for metadata reads
// such as the status endpoint.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	return e, ok
}

// Set atomically replaces any existing entry for key. The old index
// reference is dropped, never merged.
func (s *Store) Set(key string, index *vectorindex.Index, uploadedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = Entry{Index: index, UploadedAt: uploadedAt}
}

// Clear removes the entry for key, releasing its index. Reports whether an
// entry existed; clearing a never-used key is a no-op.
func (s *Store) Clear(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[key]
	delete(s.sessions, key)
	return ok
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// With runs fn under the store guard with the entry for key, so the index
// cannot be replaced or released mid-use. Returns found=false without
// calling fn when the session has no document.
func (s *Store) With(key string, fn func(Entry) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	if !ok {
		return false, nil
	}
	return true, fn(e)
}

// WithBoth runs fn under the store guard with the entries for two sessions.
// Returns ErrNotFound when either is absent: a comparison is meaningless
// with one side missing.
func (s *Store) WithBoth(key1, key2 string, fn func(a, b Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok1 := s.sessions[key1]
	b, ok2 := s.sessions[key2]
	if !ok1 || !ok2 {
		return ErrNotFound
	}
	return fn(a, b)
}
