// Package errors provides custom error types for inventory operations.
package errors

import "errors"

var (
	// ErrRecordNotFound is returned by store implementations when a write or
	// delete targets a record that no longer exists.
	ErrRecordNotFound = errors.New("record not found")

	// ErrItemNotFound is returned when no item record matches the barcode.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoCategories is returned when a bulk delete is requested while the
	// category collection is empty.
	ErrNoCategories = errors.New("no categories available")

	// ErrNothingToDelete is returned when a bulk delete is requested for a
	// category with no items.
	ErrNothingToDelete = errors.New("no items to delete for the selected category")

	// ErrConfirmMismatch is returned when the typed confirmation does not
	// match the pending token, or the token is unknown or expired.
	ErrConfirmMismatch = errors.New("confirmation text does not match")

	// ErrValidation is returned when a required field is empty after trimming.
	ErrValidation = errors.New("validation failed")
)
