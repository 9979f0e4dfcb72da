// Package service implements the inventory workflows: category loading,
// per-category synchronization, item edits, and single and bulk deletes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	serrors "github.com/abgdnv/stocktrack/internal/errors"
	"github.com/abgdnv/stocktrack/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	collectionItems      = "items"
	collectionCategories = "categories"

	fieldBarcode  = "barcode"
	fieldName     = "name"
	fieldQuantity = "quantity"
	fieldExpiry   = "expiryDate"
	fieldCategory = "category"
)

// deleteConcurrency bounds the delete fan-out per request.
const deleteConcurrency = 8

// InventoryService defines the operations of the inventory screen's backend.
type InventoryService interface {
	// Categories returns the category names in store order, skipping records
	// without a name field. A failed read is returned, not swallowed.
	Categories(ctx context.Context) ([]string, error)

	// ItemsByCategory takes a fresh snapshot of the items whose category
	// equals the given name. Zero matches yield an empty snapshot, no error.
	ItemsByCategory(ctx context.Context, category string) (*Snapshot, error)

	// BeginEdit returns a draft prefilled from the item with the given
	// barcode. Returns ErrItemNotFound if no record matches.
	BeginEdit(ctx context.Context, barcode string) (*EditDraft, error)

	// UpdateItem validates the update and writes name, quantity and expiry
	// date onto every record matching the barcode, field by field. Returns
	// ErrValidation without touching the store if name or quantity is blank,
	// ErrItemNotFound if nothing matches. The save is confirmed: it returns
	// only after every write has been acknowledged.
	UpdateItem(ctx context.Context, barcode string, upd ItemUpdate) (*UpdateResult, error)

	// DeleteItem deletes every record matching the barcode and aggregates
	// the acknowledgments. Returns ErrItemNotFound if nothing matches.
	DeleteItem(ctx context.Context, barcode string) (*DeleteReport, error)

	// BeginBulkDelete opens a confirmation-gated bulk delete for a category.
	// Returns ErrNoCategories if the category collection is empty and
	// ErrNothingToDelete if the category has no items.
	BeginBulkDelete(ctx context.Context, category string) (*BulkDeleteTicket, error)

	// ConfirmBulkDelete executes a pending bulk delete if the typed
	// confirmation matches the token exactly, case-sensitively. Any mismatch,
	// unknown token or expired token returns ErrConfirmMismatch; the token is
	// consumed either way, so a retry needs a new BeginBulkDelete.
	ConfirmBulkDelete(ctx context.Context, token, confirmation string) (*DeleteReport, error)
}

// Service implements InventoryService on top of a document Store.
type Service struct {
	store   store.Store
	logger  *slog.Logger
	pending *confirmRegistry
	now     func() time.Time
}

// NewService creates the inventory service. confirmTTL bounds how long a
// bulk-delete confirmation token stays valid.
func NewService(st store.Store, logger *slog.Logger, confirmTTL time.Duration) *Service {
	now := time.Now
	return &Service{
		store:   st,
		logger:  logger.With("component", "inventory"),
		pending: newConfirmRegistry(confirmTTL, now),
		now:     now,
	}
}

// Categories returns the category names in store order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	records, err := s.store.ReadAll(ctx, collectionCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	names := make([]string, 0, len(records))
	for _, rec := range records {
		name, ok := rec.Fields[fieldName].(string)
		if !ok {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ItemsByCategory takes a fresh snapshot of one category's items.
func (s *Service) ItemsByCategory(ctx context.Context, category string) (*Snapshot, error) {
	records, err := s.store.ReadWhere(ctx, collectionItems, fieldCategory, category)
	if err != nil {
		return nil, fmt.Errorf("failed to read items for category %q: %w", category, err)
	}
	items := make([]Item, 0, len(records))
	for _, rec := range records {
		item, ok := itemFromRecord(rec)
		if !ok {
			s.logger.Warn("skipping undecodable item record", "id", rec.Ref.ID)
			continue
		}
		items = append(items, item)
	}
	return &Snapshot{Category: category, Items: items, TakenAt: s.now()}, nil
}

// BeginEdit returns a draft prefilled from the first decodable record
// matching the barcode.
func (s *Service) BeginEdit(ctx context.Context, barcode string) (*EditDraft, error) {
	records, err := s.store.ReadWhere(ctx, collectionItems, fieldBarcode, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to read item %q: %w", barcode, err)
	}
	for _, rec := range records {
		item, ok := itemFromRecord(rec)
		if !ok {
			continue
		}
		draft := &EditDraft{
			Barcode:  item.Barcode,
			Name:     item.Name,
			Quantity: item.Quantity,
		}
		expiry, perr := time.Parse(ExpiryDateLayout, item.ExpiryDate)
		if perr != nil {
			y, m, d := s.now().Date()
			draft.Expiry = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			draft.ExpiryParseFailed = true
		} else {
			draft.Expiry = expiry
		}
		return draft, nil
	}
	return nil, serrors.ErrItemNotFound
}

// UpdateItem commits an edit onto every record matching the barcode.
func (s *Service) UpdateItem(ctx context.Context, barcode string, upd ItemUpdate) (*UpdateResult, error) {
	name := strings.TrimSpace(upd.Name)
	quantity := strings.TrimSpace(upd.Quantity)
	if name == "" || quantity == "" {
		return nil, fmt.Errorf("%w: name and quantity must not be empty", serrors.ErrValidation)
	}

	records, err := s.store.ReadWhere(ctx, collectionItems, fieldBarcode, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to read item %q: %w", barcode, err)
	}
	if len(records) == 0 {
		return nil, serrors.ErrItemNotFound
	}

	// Field-partial update: only the three editable fields are written;
	// category and dateAdded stay untouched.
	for _, rec := range records {
		for _, write := range []struct {
			field, value string
		}{
			{fieldName, name},
			{fieldQuantity, quantity},
			{fieldExpiry, upd.ExpiryDate},
		} {
			if err := s.store.WriteField(ctx, rec.Ref, write.field, write.value); err != nil {
				return nil, fmt.Errorf("failed to write %s of item %q: %w", write.field, barcode, err)
			}
		}
	}
	if len(records) > 1 {
		s.logger.Warn("barcode matched multiple records on update", "barcode", barcode, "matches", len(records))
	}
	return &UpdateResult{Barcode: barcode, Updated: len(records)}, nil
}

// DeleteItem deletes every record matching the barcode.
func (s *Service) DeleteItem(ctx context.Context, barcode string) (*DeleteReport, error) {
	records, err := s.store.ReadWhere(ctx, collectionItems, fieldBarcode, barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to read item %q: %w", barcode, err)
	}
	if len(records) == 0 {
		return nil, serrors.ErrItemNotFound
	}
	report := s.deleteRecords(ctx, records)
	report.Barcode = barcode
	return report, nil
}

// BeginBulkDelete opens a confirmation-gated bulk delete for a category.
func (s *Service) BeginBulkDelete(ctx context.Context, category string) (*BulkDeleteTicket, error) {
	names, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, serrors.ErrNoCategories
	}
	snapshot, err := s.ItemsByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		return nil, serrors.ErrNothingToDelete
	}

	token := newConfirmToken()
	expiresAt := s.pending.put(token, category)
	s.logger.Info("bulk delete pending confirmation", "category", category, "items", len(snapshot.Items))
	return &BulkDeleteTicket{Token: token, Category: category, ExpiresAt: expiresAt}, nil
}

// ConfirmBulkDelete executes a pending bulk delete.
func (s *Service) ConfirmBulkDelete(ctx context.Context, token, confirmation string) (*DeleteReport, error) {
	pending, ok := s.pending.take(token)
	if !ok || confirmation != token {
		return nil, serrors.ErrConfirmMismatch
	}

	records, err := s.store.ReadWhere(ctx, collectionItems, fieldCategory, pending.category)
	if err != nil {
		return nil, fmt.Errorf("failed to read items for category %q: %w", pending.category, err)
	}
	report := s.deleteRecords(ctx, records)
	report.Category = pending.category
	s.logger.Info("bulk delete executed",
		"category", pending.category,
		"attempted", report.Attempted,
		"deleted", report.Deleted,
		"failed", report.Failed,
	)
	return report, nil
}

// deleteRecords fans out one delete per record and aggregates every
// acknowledgment, so the report reflects what actually happened instead of
// assuming the reads' success covered the deletes.
func (s *Service) deleteRecords(ctx context.Context, records []store.Record) *DeleteReport {
	var failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(deleteConcurrency)
	for _, rec := range records {
		g.Go(func() error {
			if err := s.store.Delete(ctx, rec.Ref); err != nil {
				failed.Add(1)
				s.logger.Warn("failed to delete record", "id", rec.Ref.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return &DeleteReport{
		Attempted: len(records),
		Deleted:   len(records) - int(failed.Load()),
		Failed:    int(failed.Load()),
	}
}
