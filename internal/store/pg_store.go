package store

import (
	"context"
	"encoding/json"
	"fmt"

	serrors "github.com/abgdnv/stocktrack/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore implements Store on a single documents table: one row per record,
// fields held in a jsonb column. Equality filters go through the ->> operator
// so they stay exact-match, string-typed, like the remote store they stand for.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new Store backed by a PostgreSQL connection pool.
func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{db: db}
}

// ReadAll returns every record of a collection in store order.
func (p *PgStore) ReadAll(ctx context.Context, collection string) ([]Record, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %q: %w", collection, err)
	}
	defer rows.Close()
	return collectRecords(rows, collection)
}

// ReadWhere returns the records of a collection whose field equals value.
func (p *PgStore) ReadWhere(ctx context.Context, collection, field, value string) ([]Record, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, fields FROM documents WHERE collection = $1 AND fields->>$2 = $3`,
		collection, field, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q by %s: %w", collection, field, err)
	}
	defer rows.Close()
	return collectRecords(rows, collection)
}

// WriteField sets one field of a record, leaving all other fields untouched.
// Returns ErrRecordNotFound if the record no longer exists.
func (p *PgStore) WriteField(ctx context.Context, ref Ref, field, value string) error {
	tag, err := p.db.Exec(ctx,
		`UPDATE documents SET fields = jsonb_set(fields, ARRAY[$1], to_jsonb($2::text), true)
		 WHERE collection = $3 AND id = $4`,
		field, value, ref.Collection, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to write field %s of %s/%s: %w", field, ref.Collection, ref.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return serrors.ErrRecordNotFound
	}
	return nil
}

// Delete removes a record.
// Returns ErrRecordNotFound if the record no longer exists.
func (p *PgStore) Delete(ctx context.Context, ref Ref) error {
	tag, err := p.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		ref.Collection, ref.ID)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", ref.Collection, ref.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return serrors.ErrRecordNotFound
	}
	return nil
}

// collectRecords scans (id, fields) rows into Records, decoding the jsonb
// fields column.
func collectRecords(rows pgx.Rows, collection string) ([]Record, error) {
	records := make([]Record, 0)
	for rows.Next() {
		var (
			id  uuid.UUID
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		fields := make(Fields)
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode fields of %s/%s: %w", collection, id, err)
		}
		records = append(records, Record{
			Ref:    Ref{Collection: collection, ID: id},
			Fields: fields,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
