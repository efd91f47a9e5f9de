package customer

import (
	"context"
)

// Repository is the narrow query surface the directory requires from the
// backing store. Implementations translate store-level failures into the
// apperrors taxonomy exactly once: "no rows" becomes ErrNotFound and a
// unique-constraint violation becomes ErrConflict.
type Repository interface {
	// FindAll returns every customer ordered by creation time, newest
	// first. An empty store yields an empty slice, not an error.
	FindAll(ctx context.Context) ([]*Customer, error)

	// FindByID returns the single customer with the given id, or
	// ErrNotFound.
	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindByEmail returns the customer holding the given email, or
	// ErrNotFound. A non-zero excludeID removes that row from
	// consideration, which the update path uses to avoid conflicting
	// with the customer being updated.
	FindByEmail(ctx context.Context, email string, excludeID int64) (*Customer, error)

	// Insert persists a new customer and returns the stored row with
	// its store-assigned id and timestamps.
	Insert(ctx context.Context, cust *Customer) (*Customer, error)

	// Update applies the present fields of the patch to the row with
	// the given id and returns the updated row. updated_at is always
	// refreshed, even for an empty patch.
	Update(ctx context.Context, customerID int64, patch Patch) (*Customer, error)

	// Delete removes the row with the given id, or returns ErrNotFound
	// when no row matched.
	Delete(ctx context.Context, customerID int64) error
}

// StoreStatus reports whether the backing store connector is usable.
// Every directory operation checks it before issuing a query.
type StoreStatus interface {
	Ready() bool
}
