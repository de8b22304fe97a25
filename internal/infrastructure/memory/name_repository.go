// Package memory provides an in-memory NameRepository. It backs the
// "memory" database backend and the unit-test suites; uniqueness is
// enforced atomically under a single mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xrs-network/xrsd/internal/names/domain"
)

// NameRepository implements domain.NameRepository over a mutex-guarded map.
type NameRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.NameRecord
	order   map[string]int // insertion sequence, tiebreak for equal timestamps
	nextSeq int
}

// NewNameRepository allocates an empty in-memory repository.
func NewNameRepository() *NameRepository {
	return &NameRepository{
		records: make(map[string]*domain.NameRecord),
		order:   make(map[string]int),
	}
}

// Ensure NameRepository implements domain.NameRepository.
var _ domain.NameRepository = (*NameRepository)(nil)

// Insert stores a record. The existence check and the write happen under
// one lock acquisition, so concurrent inserts of the same name admit
// exactly one writer.
func (r *NameRepository) Insert(ctx context.Context, record *domain.NameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.Name]; exists {
		return domain.ErrNameTaken
	}

	r.records[record.Name] = cloneRecord(record)
	r.order[record.Name] = r.nextSeq
	r.nextSeq++
	return nil
}

// FindByName returns the record for a handle.
func (r *NameRepository) FindByName(ctx context.Context, name string) (*domain.NameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[name]
	if !ok {
		return nil, &domain.NameNotFoundError{Name: name}
	}
	return cloneRecord(record), nil
}

// FindByAddress returns all records owned by an address, ascending by
// RegisteredAt.
func (r *NameRepository) FindByAddress(ctx context.Context, address string) ([]*domain.NameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.NameRecord
	for _, record := range r.records {
		if record.Address == address {
			out = append(out, cloneRecord(record))
		}
	}
	r.sortByRegisteredAsc(out)
	return out, nil
}

// UpdateAddress sets a new address on an existing record.
func (r *NameRepository) UpdateAddress(ctx context.Context, name, address string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[name]
	if !ok {
		return &domain.NameNotFoundError{Name: name}
	}
	record.Address = address
	record.UpdatedAt = now
	return nil
}

// SearchByPrefix returns records whose name starts with prefix, ascending
// by RegisteredAt.
func (r *NameRepository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*domain.NameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.NameRecord
	for name, record := range r.records {
		if strings.HasPrefix(name, prefix) {
			out = append(out, cloneRecord(record))
		}
	}
	r.sortByRegisteredAsc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent returns the newest registrations, descending by RegisteredAt.
func (r *NameRepository) Recent(ctx context.Context, limit int) ([]*domain.NameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.NameRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, cloneRecord(record))
	}
	r.sortByRegisteredAsc(out)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListPage returns one page ordered by name ascending plus the total count.
func (r *NameRepository) ListPage(ctx context.Context, offset, limit int) ([]*domain.NameRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Strings(names)

	total := len(names)
	if offset >= total {
		return []*domain.NameRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]*domain.NameRecord, 0, end-offset)
	for _, name := range names[offset:end] {
		out = append(out, cloneRecord(r.records[name]))
	}
	return out, total, nil
}

// CountDistinctAddresses returns the number of unique owners.
func (r *NameRepository) CountDistinctAddresses(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.records))
	for _, record := range r.records {
		seen[record.Address] = struct{}{}
	}
	return len(seen), nil
}

// CountAll returns the number of registered names.
func (r *NameRepository) CountAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

// Close is a no-op for the in-memory backend.
func (r *NameRepository) Close() error {
	return nil
}

// sortByRegisteredAsc orders records by RegisteredAt ascending with the
// insertion sequence as a stable tiebreak. Callers hold at least a read
// lock.
func (r *NameRepository) sortByRegisteredAsc(records []*domain.NameRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].RegisteredAt.Equal(records[j].RegisteredAt) {
			return r.order[records[i].Name] < r.order[records[j].Name]
		}
		return records[i].RegisteredAt.Before(records[j].RegisteredAt)
	})
}

func cloneRecord(record *domain.NameRecord) *domain.NameRecord {
	out := *record
	if record.Metadata != nil {
		out.Metadata = make(map[string]string, len(record.Metadata))
		for k, v := range record.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
