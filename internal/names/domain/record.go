// Package domain provides the pure domain layer for the name registry with
// no infrastructure dependencies.
//
// It defines the NameRecord entity, the validation and normalization rules
// every entry point must apply, the NameRepository interface for persistence
// abstraction, and domain-specific error types. The domain layer has no
// knowledge of databases, HTTP, or caching.
package domain

import "time"

// DisplaySuffix is the cosmetic suffix appended to handles in API responses.
// Stored names never include it.
const DisplaySuffix = ".xrs"

// Metadata field keys accepted by SanitizeMetadata. Anything else is dropped.
const (
	MetaDescription = "description"
	MetaAvatar      = "avatar"
	MetaWebsite     = "website"
	MetaEmail       = "email"
)

// MaxMetadataValueLen caps each metadata value.
const MaxMetadataValueLen = 256

// NameRecord is the sole persisted entity: a claimed handle pointing at an
// address, plus optional metadata and timestamps.
type NameRecord struct {
	// Name is the normalized handle: lowercase, unique, 3-32 chars,
	// suffix-stripped. Immutable after registration.
	Name string

	// Address is the opaque owner identifier, 32-64 alphanumeric chars.
	// Not unique: one address may own many names. Mutable via update.
	Address string

	// OwnerSignature is an opaque proof string. It is checked for presence
	// on update but never cryptographically verified.
	OwnerSignature string

	// RegisteredAt is set once at insert and never changes.
	RegisteredAt time.Time

	// UpdatedAt equals RegisteredAt at insert and changes only when the
	// address changes.
	UpdatedAt time.Time

	// ExpiresAt is reserved. It is never populated or checked.
	ExpiresAt *time.Time

	// Metadata holds the sanitized allow-listed fields, or nil when none
	// survived sanitization. Never an empty map.
	Metadata map[string]string
}

// DisplayName returns the handle with the display suffix appended.
func (r *NameRecord) DisplayName() string {
	return r.Name + DisplaySuffix
}
