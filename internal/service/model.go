package service

import (
	"time"

	"github.com/abgdnv/stocktrack/internal/store"
)

// ExpiryDateLayout is the fixed format items carry their expiry date in,
// e.g. "05 March 2025". Stored as a string; parsed only when an edit begins.
const ExpiryDateLayout = "02 January 2006"

// Item is one stock entry. All fields are string-typed, mirroring the remote
// store's documents; quantity carries no numeric validation. Barcode is the
// sole lookup key for updates and deletes and is never changed here.
type Item struct {
	Barcode    string `json:"barcode"`
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
	DateAdded  string `json:"dateAdded"`
	Category   string `json:"category"`
}

// Snapshot is the immutable result of synchronizing one category: the items
// that matched at read time, in store order. It goes stale the moment any
// write happens elsewhere; callers re-sync to observe changes.
type Snapshot struct {
	Category string    `json:"category"`
	Items    []Item    `json:"items"`
	TakenAt  time.Time `json:"takenAt"`
}

// EditDraft is the prefilled state an edit starts from. Expiry holds the
// parsed expiry date; if the stored string did not parse, Expiry defaults to
// today and ExpiryParseFailed is set so the inconsistency is visible instead
// of silently hidden.
type EditDraft struct {
	Barcode           string    `json:"barcode"`
	Name              string    `json:"name"`
	Quantity          string    `json:"quantity"`
	Expiry            time.Time `json:"expiry"`
	ExpiryParseFailed bool      `json:"expiryParseFailed"`
}

// ItemUpdate carries the editable fields of an item. Name and quantity must
// be non-empty after trimming; category and dateAdded are not editable.
type ItemUpdate struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	ExpiryDate string `json:"expiryDate"`
}

// UpdateResult reports a committed edit. Updated counts the records touched:
// barcodes are assumed unique, so anything above 1 means that assumption was
// violated and the write fanned out.
type UpdateResult struct {
	Barcode string `json:"barcode"`
	Updated int    `json:"updated"`
}

// DeleteReport aggregates the acknowledgments of a delete fan-out.
type DeleteReport struct {
	Barcode   string `json:"barcode,omitempty"`
	Category  string `json:"category,omitempty"`
	Attempted int    `json:"attempted"`
	Deleted   int    `json:"deleted"`
	Failed    int    `json:"failed"`
}

// BulkDeleteTicket is the pending half of a bulk delete: the caller must echo
// Token exactly, before ExpiresAt, to execute the deletion.
type BulkDeleteTicket struct {
	Token     string    `json:"token"`
	Category  string    `json:"category"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// itemFromRecord decodes a store record into an Item. Missing fields decode
// to empty strings; a present field of any non-string shape fails the whole
// record, matching the remote store's permissive document model.
func itemFromRecord(rec store.Record) (Item, bool) {
	var it Item
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"barcode", &it.Barcode},
		{"name", &it.Name},
		{"quantity", &it.Quantity},
		{"expiryDate", &it.ExpiryDate},
		{"dateAdded", &it.DateAdded},
		{"category", &it.Category},
	} {
		v, ok := rec.Fields[f.key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return Item{}, false
		}
		*f.dst = s
	}
	return it, true
}
