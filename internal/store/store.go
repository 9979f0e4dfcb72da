// Package store provides the boundary to the remote document store: keyed
// collections of records with single-shot reads, equality filters,
// field-level writes and deletes.
package store

import (
	"context"

	"github.com/google/uuid"
)

// Ref addresses a single record inside a collection.
type Ref struct {
	Collection string
	ID         uuid.UUID
}

// Fields holds the decoded named fields of a record. Values are whatever the
// store returned; callers decide what shapes they accept.
type Fields map[string]any

// Record is a keyed document returned by a read.
type Record struct {
	Ref    Ref
	Fields Fields
}

// Store is the surface the inventory core consumes. All reads are single-shot:
// they resolve once with the matching data and do not observe later changes.
// No ordering is guaranteed across records.
type Store interface {
	// ReadAll returns every record of a collection.
	// Returns an empty slice if the collection is empty.
	ReadAll(ctx context.Context, collection string) ([]Record, error)

	// ReadWhere returns the records whose field exactly equals value.
	// Returns an empty slice if nothing matches.
	ReadWhere(ctx context.Context, collection, field, value string) ([]Record, error)

	// WriteField sets a single field of a record, leaving the rest untouched.
	// Returns ErrRecordNotFound if the record no longer exists.
	WriteField(ctx context.Context, ref Ref, field, value string) error

	// Delete removes a record.
	// Returns ErrRecordNotFound if the record no longer exists.
	Delete(ctx context.Context, ref Ref) error
}
