package customer

import (
	"time"
)

const (
	// MaxNameLength bounds the trimmed customer name.
	MaxNameLength = 100
	// MaxPhoneLength bounds the trimmed customer phone number.
	MaxPhoneLength = 20
)

// Customer is the sole entity managed by the directory. ID and both
// timestamps are assigned by the backing store; Phone is nil when the
// customer has no phone on record, never the empty string.
type Customer struct {
	ID        int64
	Name      string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput carries the caller-supplied fields for a new customer.
// An empty Phone means the customer is created without one.
type CreateInput struct {
	Name  string
	Email string
	Phone string
}

// Patch is a sparse update. A nil field is left untouched; a non-nil
// field is written. A pointer to the empty string on Phone clears the
// stored phone to absent, which keeps "clear" and "leave alone"
// distinguishable.
type Patch struct {
	Name  *string
	Email *string
	Phone *string
}

// IsEmpty reports whether the patch carries no field at all. An empty
// patch is still applied so the store refreshes updated_at.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}
