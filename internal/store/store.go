// Package store defines the persistence contract for lark's clipboard
// history. Records are content-addressed by (fingerprint, data type) and
// ordered by their capture time.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record lookup misses.
var ErrNotFound = errors.New("record not found")

// DefaultHysteresis is the slack above the retention limit that must be
// reached before a batch eviction runs.
const DefaultHysteresis = 10

// RecordStore manages clipboard record persistence.
// Implementations must be safe for concurrent readers while a single
// writer (the sampler) inserts and evicts.
type RecordStore interface {
	// InsertIfNotExist stores rec unless a record with the same fingerprint
	// and data type already exists, in which case only that record's
	// CreatedAt is refreshed. It reports whether a new row was created.
	// On return rec carries the stored ID and CreatedAt.
	InsertIfNotExist(ctx context.Context, rec *Record) (bool, error)

	// FindRecent returns records newest first. Content is omitted, only the
	// preview is populated. A limit of 0 returns all records.
	FindRecent(ctx context.Context, limit, offset int) ([]*Record, error)

	// FindByID returns a single record including its full content.
	// Returns an error wrapping ErrNotFound if the record does not exist.
	FindByID(ctx context.Context, id uint) (*Record, error)

	// Search returns records matching the query, newest first.
	// An empty keyword behaves like FindRecent.
	Search(ctx context.Context, query *SearchQuery) ([]*Record, error)

	// DeleteOverLimit evicts the oldest records so that limit remain, but
	// only once the count has reached limit plus the store's hysteresis.
	// It reports whether any record was evicted. A limit <= 0 disables
	// eviction.
	DeleteOverLimit(ctx context.Context, limit int) (bool, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying handle.
	Close() error
}

// ShouldEvict reports how many records an eviction pass removes for the
// given count, limit and hysteresis. Zero means no eviction.
func ShouldEvict(count, limit, hysteresis int) int {
	if limit <= 0 || count < limit+hysteresis {
		return 0
	}
	return count - limit
}
