package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xrs-network/xrsd/internal/names/domain"
)

// NameModel represents the database row for the names table. Fields map
// directly to SQL columns with Unix timestamps for time values.
type NameModel struct {
	ID             int64
	Name           string
	Address        string
	OwnerSignature *string // nullable
	Metadata       *string // nullable, JSON encoded
	RegisteredAt   int64   // Unix timestamp
	UpdatedAt      int64   // Unix timestamp
	ExpiresAt      *int64  // Unix timestamp, nullable; reserved, never set
}

// toNameModel converts a domain NameRecord to a database NameModel.
func toNameModel(r *domain.NameRecord) *NameModel {
	m := &NameModel{
		Name:         r.Name,
		Address:      r.Address,
		RegisteredAt: r.RegisteredAt.Unix(),
		UpdatedAt:    r.UpdatedAt.Unix(),
	}
	if r.OwnerSignature != "" {
		sig := r.OwnerSignature
		m.OwnerSignature = &sig
	}
	if len(r.Metadata) > 0 {
		if encoded, err := json.Marshal(r.Metadata); err == nil {
			meta := string(encoded)
			m.Metadata = &meta
		}
	}
	if r.ExpiresAt != nil {
		expires := r.ExpiresAt.Unix()
		m.ExpiresAt = &expires
	}
	return m
}

// toDomain converts a database NameModel to a domain NameRecord.
func (m *NameModel) toDomain() *domain.NameRecord {
	record := &domain.NameRecord{
		Name:         m.Name,
		Address:      m.Address,
		RegisteredAt: time.Unix(m.RegisteredAt, 0),
		UpdatedAt:    time.Unix(m.UpdatedAt, 0),
	}
	if m.OwnerSignature != nil {
		record.OwnerSignature = *m.OwnerSignature
	}
	if m.Metadata != nil {
		var meta map[string]string
		if json.Unmarshal([]byte(*m.Metadata), &meta) == nil && len(meta) > 0 {
			record.Metadata = meta
		}
	}
	if m.ExpiresAt != nil {
		expires := time.Unix(*m.ExpiresAt, 0)
		record.ExpiresAt = &expires
	}
	return record
}
