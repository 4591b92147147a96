// Package dberr defines the sentinel error kinds shared across the storage
// and execution packages. Call sites wrap one of these with context using
// fmt.Errorf("...: %w", err) so callers can still classify the failure with
// errors.Is while getting a useful message.
package dberr

import "errors"

var (
	// InvalidInput covers malformed rows, out-of-range RIDs, type mismatches,
	// and division by zero.
	InvalidInput = errors.New("invalid input")

	// OutOfBounds covers a slot id or column index past the end of its range.
	OutOfBounds = errors.New("out of bounds")

	// Overflow covers checked-arithmetic failures.
	Overflow = errors.New("arithmetic overflow")

	// InvalidData covers corrupted on-disk bytes or a cross-instance mismatch.
	InvalidData = errors.New("invalid data")

	// IO covers underlying file operation failures.
	IO = errors.New("i/o error")

	// Creation covers a buffer pool unable to supply a page.
	Creation = errors.New("unable to create page")

	// AlreadyExists covers catalog-level name collisions.
	AlreadyExists = errors.New("already exists")

	// NotFound covers catalog-level lookups that find nothing.
	NotFound = errors.New("not found")
)
