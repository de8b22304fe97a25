package testutil

import (
	"time"

	"github.com/xrs-network/xrsd/internal/names/domain"
)

// TestAddress is a valid 34-char address used when none is given.
const TestAddress = "a000000000000000000000000000000000"

func defaultRecord(name string, registered time.Time) *domain.NameRecord {
	return &domain.NameRecord{
		Name:         name,
		Address:      TestAddress,
		RegisteredAt: registered,
		UpdatedAt:    registered,
	}
}

// RecordOption configures a record during builder setup.
type RecordOption func(*domain.NameRecord)

// Address sets the owning address.
func Address(addr string) RecordOption {
	return func(r *domain.NameRecord) { r.Address = addr }
}

// Signature sets the owner signature.
func Signature(sig string) RecordOption {
	return func(r *domain.NameRecord) { r.OwnerSignature = sig }
}

// Metadata sets profile metadata.
func Metadata(meta map[string]string) RecordOption {
	return func(r *domain.NameRecord) { r.Metadata = meta }
}

// RegisteredAt pins both timestamps to t.
func RegisteredAt(t time.Time) RecordOption {
	return func(r *domain.NameRecord) {
		r.RegisteredAt = t
		r.UpdatedAt = t
	}
}
