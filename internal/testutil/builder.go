// Package testutil provides record builders and database helpers for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xrs-network/xrsd/internal/names/domain"
)

// BaseTime is the registration time records default to. Fixed so ordering
// assertions do not depend on wall clocks.
var BaseTime = time.Unix(1700000000, 0)

// Builder accumulates name records and inserts them in order, advancing the
// registration time one second per record so Recent and reverse-lookup
// ordering is deterministic.
type Builder struct {
	t       *testing.T
	repo    domain.NameRepository
	records []*domain.NameRecord
}

// NewBuilder creates a builder targeting the given repository.
func NewBuilder(t *testing.T, repo domain.NameRepository) *Builder {
	t.Helper()
	return &Builder{t: t, repo: repo}
}

// WithName adds a record with optional configuration.
func (b *Builder) WithName(name string, opts ...RecordOption) *Builder {
	record := defaultRecord(name, BaseTime.Add(time.Duration(len(b.records))*time.Second))
	for _, opt := range opts {
		opt(record)
	}
	b.records = append(b.records, record)
	return b
}

// Build inserts all accumulated records.
func (b *Builder) Build() {
	b.t.Helper()
	ctx := context.Background()
	for _, record := range b.records {
		require.NoError(b.t, b.repo.Insert(ctx, record), "insert %q", record.Name)
	}
}
