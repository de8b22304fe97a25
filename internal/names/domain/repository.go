package domain

import (
	"context"
	"time"
)

// NameRepository is the persistence contract for name records. Two
// implementations exist: a file-backed SQLite store and an in-memory store.
// No service logic depends on which backend is configured.
//
// Every method expects names already normalized by the caller.
type NameRepository interface {
	// Insert durably persists a record. It returns ErrNameTaken when the
	// handle is already claimed. Insert MUST be atomic with respect to the
	// uniqueness constraint: under concurrent inserts of the same name
	// exactly one writer succeeds. A separate existence check followed by
	// an insert is a race and must not be the sole protection.
	Insert(ctx context.Context, record *NameRecord) error

	// FindByName returns the record for a handle, or NameNotFoundError.
	FindByName(ctx context.Context, name string) (*NameRecord, error)

	// FindByAddress returns every record owned by an address, ascending by
	// RegisteredAt. The first element is the primary name. Returns an
	// empty slice when the address owns nothing.
	FindByAddress(ctx context.Context, address string) ([]*NameRecord, error)

	// UpdateAddress sets a new address and UpdatedAt=now on an existing
	// record. Returns NameNotFoundError (and mutates nothing) when the
	// handle is absent.
	UpdateAddress(ctx context.Context, name, address string, now time.Time) error

	// SearchByPrefix returns records whose stored name starts with prefix,
	// ascending by RegisteredAt, capped at limit.
	SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*NameRecord, error)

	// Recent returns the newest registrations, descending by RegisteredAt,
	// capped at limit.
	Recent(ctx context.Context, limit int) ([]*NameRecord, error)

	// ListPage returns one directory page ordered by name ascending, plus
	// the total record count.
	ListPage(ctx context.Context, offset, limit int) ([]*NameRecord, int, error)

	// CountDistinctAddresses returns the number of unique owners.
	CountDistinctAddresses(ctx context.Context) (int, error)

	// CountAll returns the number of registered names.
	CountAll(ctx context.Context) (int, error)

	// Close releases backend resources.
	Close() error
}
