package store

import "context"

// Backend is the minimal key-value capability the stores need. Any store
// offering these three operations satisfies it.
type Backend interface {
	// PutItem upserts rec, keyed by its partition and sort key attributes.
	// A non-empty cond must hold for the existing item (or for an absent one),
	// otherwise ErrConditionFailed is returned.
	PutItem(ctx context.Context, table string, rec Record, cond Filter) error

	// GetItem returns the item stored under key, or ErrNotFound.
	GetItem(ctx context.Context, table string, key PK) (Record, error)

	// Scan reads the whole table and returns the items matching filter, in
	// no particular order.
	Scan(ctx context.Context, table string, filter Filter) ([]Record, error)
}
