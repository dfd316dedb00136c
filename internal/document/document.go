// Package document holds per-document state for the lifetime of the
// process: the raw text of every uploaded CV and the chunks derived from
// it during analysis. The store is the single source of truth shared by
// the pipeline and the question-answering tools.
package document

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the requested document id is unknown.
var ErrNotFound = errors.New("document not found")

// Record is the stored state of one uploaded document. RawText is immutable
// after creation; Chunks are overwritten on every analysis run.
type Record struct {
	ID       string
	Filename string
	RawText  string
	Chunks   []string
}

// Store is an in-memory, process-wide document store. Safe for concurrent
// use; writes are atomic per document id.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Put stores raw text under a fresh unique id and returns that id.
func (s *Store) Put(rawText, filename string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = &Record{
		ID:       id,
		Filename: filename,
		RawText:  rawText,
	}
	return id
}

// Text returns the raw text stored for the given id.
func (s *Store) Text(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return "", ErrNotFound
	}
	return rec.RawText, nil
}

// Chunks returns the chunk sequence stored for the given id. A document
// that has never been analyzed has no chunks yet; that is not an error.
func (s *Store) Chunks(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	chunks := make([]string, len(rec.Chunks))
	copy(chunks, rec.Chunks)
	return chunks, nil
}

// SetChunks replaces the chunk sequence for the given id.
func (s *Store) SetChunks(id string, chunks []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}

	rec.Chunks = make([]string, len(chunks))
	copy(rec.Chunks, chunks)
	return nil
}

// Get returns a copy of the full record for the given id.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := *rec
	out.Chunks = make([]string, len(rec.Chunks))
	copy(out.Chunks, rec.Chunks)
	return &out, nil
}

// Len reports the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
