// Package retention keeps the record store within its configured size.
package retention

import (
	"context"
	"fmt"
)

// DefaultLimit is the retention limit used when configuration has none.
const DefaultLimit = 100

// Evictor is the store operation the enforcer drives.
type Evictor interface {
	DeleteOverLimit(ctx context.Context, limit int) (bool, error)
}

// Enforcer trims the store to Limit records. The store decides when the
// count is far enough past the limit to be worth a batch delete.
type Enforcer struct {
	evictor Evictor
	limit   int
}

// New creates an Enforcer. A limit <= 0 disables eviction.
func New(evictor Evictor, limit int) *Enforcer {
	return &Enforcer{evictor: evictor, limit: limit}
}

// Limit returns the configured limit.
func (e *Enforcer) Limit() int {
	return e.limit
}

// Enforce runs one eviction pass and reports whether records were removed.
func (e *Enforcer) Enforce(ctx context.Context) (bool, error) {
	if e.limit <= 0 {
		return false, nil
	}
	evicted, err := e.evictor.DeleteOverLimit(ctx, e.limit)
	if err != nil {
		return false, fmt.Errorf("failed to enforce retention: %w", err)
	}
	return evicted, nil
}
