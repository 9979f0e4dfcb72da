package store

import (
	"context"
	"maps"
	"sync"

	serrors "github.com/abgdnv/stocktrack/internal/errors"
	"github.com/google/uuid"
)

// MemStore implements Store using in-memory collections. Records keep
// insertion order, which stands in for the remote store's unspecified but
// stable "store order". Intended for tests and local development.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[string][]Record),
	}
}

// Add inserts a record with a fresh ID and returns its ref. Not part of the
// Store surface: the inventory core never creates records, fixtures do.
func (s *MemStore) Add(collection string, fields Fields) Ref {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref := Ref{Collection: collection, ID: uuid.New()}
	s.collections[collection] = append(s.collections[collection], Record{
		Ref:    ref,
		Fields: maps.Clone(fields),
	})
	return ref
}

// ReadAll returns every record of a collection in insertion order.
func (s *MemStore) ReadAll(ctx context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.collections[collection]))
	for _, rec := range s.collections[collection] {
		records = append(records, cloneRecord(rec))
	}
	return records, nil
}

// ReadWhere returns the records of a collection whose field equals value.
func (s *MemStore) ReadWhere(ctx context.Context, collection, field, value string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0)
	for _, rec := range s.collections[collection] {
		if v, ok := rec.Fields[field].(string); ok && v == value {
			records = append(records, cloneRecord(rec))
		}
	}
	return records, nil
}

// WriteField sets one field of a record.
// Returns ErrRecordNotFound if the record no longer exists.
func (s *MemStore) WriteField(ctx context.Context, ref Ref, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.collections[ref.Collection] {
		if rec.Ref.ID == ref.ID {
			s.collections[ref.Collection][i].Fields[field] = value
			return nil
		}
	}
	return serrors.ErrRecordNotFound
}

// Delete removes a record.
// Returns ErrRecordNotFound if the record no longer exists.
func (s *MemStore) Delete(ctx context.Context, ref Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.collections[ref.Collection]
	for i, rec := range records {
		if rec.Ref.ID == ref.ID {
			s.collections[ref.Collection] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return serrors.ErrRecordNotFound
}

// cloneRecord copies a record so callers cannot mutate stored state through
// the returned snapshot.
func cloneRecord(rec Record) Record {
	return Record{
		Ref:    rec.Ref,
		Fields: maps.Clone(rec.Fields),
	}
}
