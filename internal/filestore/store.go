// Package filestore holds the generated files of the active project.
//
// The header only needs two operations from the store: Snapshot, an atomic
// point-in-time copy, and Reset, which discards everything. MemoryStore is
// the in-process implementation; LoadDir seeds one from disk.
package filestore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidPath is returned for paths that are not absolute.
var ErrInvalidPath = errors.New("file path must start with /")

// Store is the contract the header consumes.
type Store interface {
	Snapshot() Snapshot
	Reset()
}

// Entry is one file in a snapshot.
type Entry struct {
	Path    string
	Content string
}

// Snapshot is an ordered, immutable copy of the store's files.
type Snapshot struct {
	entries []Entry
}

// NewSnapshot builds a snapshot from entries in the given order.
func NewSnapshot(entries ...Entry) Snapshot {
	return Snapshot{entries: append([]Entry(nil), entries...)}
}

// Len returns the number of files.
func (s Snapshot) Len() int { return len(s.entries) }

// Entries returns a copy of the files in order.
func (s Snapshot) Entries() []Entry {
	return append([]Entry(nil), s.entries...)
}

// Paths returns the file paths in order.
func (s Snapshot) Paths() []string {
	paths := make([]string, len(s.entries))
	for i, e := range s.entries {
		paths[i] = e.Path
	}
	return paths
}

// MemoryStore is a concurrency-safe, insertion-ordered Store.
type MemoryStore struct {
	mu     sync.RWMutex
	order  []string
	files  map[string]string
	resets int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]string)}
}

// Write creates or replaces a file. Replacing keeps the original position.
func (s *MemoryStore) Write(path, content string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		s.order = append(s.order, path)
	}
	s.files[path] = content
	return nil
}

// Read returns the content at path.
func (s *MemoryStore) Read(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.files[path]
	return c, ok
}

// Delete removes a file. Missing paths are ignored.
func (s *MemoryStore) Delete(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[path]; !ok {
		return
	}
	delete(s.files, path)
	for i, p := range s.order {
		if p == path {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a point-in-time copy. Later writes do not affect it.
func (s *MemoryStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, len(s.order))
	for i, p := range s.order {
		entries[i] = Entry{Path: p, Content: s.files[p]}
	}
	return Snapshot{entries: entries}
}

// Reset removes every file. Calling it on an empty store is a no-op.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.files = make(map[string]string)
	s.resets++
}

// Len returns the number of files.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Resets returns how many times Reset has been called.
func (s *MemoryStore) Resets() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resets
}
