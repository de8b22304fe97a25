package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ncruces/go-sqlite3"

	"github.com/xrs-network/xrsd/internal/names/domain"
)

// nameColumns is the canonical column list for name queries. Keep in sync
// with scanName.
const nameColumns = `id, name, address, owner_signature, metadata, registered_at, updated_at, expires_at`

// NameRepository is the SQLite implementation of domain.NameRepository.
type NameRepository struct {
	db *sql.DB
}

func newNameRepository(db *sql.DB) *NameRepository {
	return &NameRepository{db: db}
}

func (r *NameRepository) Insert(ctx context.Context, record *domain.NameRecord) error {
	m := toNameModel(record)

	query := `INSERT INTO names
		(name, address, owner_signature, metadata, registered_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		m.Name, m.Address, m.OwnerSignature, m.Metadata,
		m.RegisteredAt, m.UpdatedAt, m.ExpiresAt)
	if err != nil {
		var serr *sqlite3.Error
		if errors.As(err, &serr) && serr.ExtendedCode() == sqlite3.CONSTRAINT_UNIQUE {
			return domain.ErrNameTaken
		}
		return fmt.Errorf("failed to insert name %q: %w", record.Name, err)
	}
	return nil
}

func (r *NameRepository) FindByName(ctx context.Context, name string) (*domain.NameRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM names WHERE name = ?`, nameColumns)

	row := r.db.QueryRowContext(ctx, query, name)
	m, err := scanName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NameNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find name %q: %w", name, err)
	}
	return m.toDomain(), nil
}

func (r *NameRepository) FindByAddress(ctx context.Context, address string) ([]*domain.NameRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM names WHERE address = ? ORDER BY registered_at ASC, id ASC`,
		nameColumns)

	rows, err := r.db.QueryContext(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("failed to query names for address: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNames(rows)
}

func (r *NameRepository) UpdateAddress(ctx context.Context, name, address string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE names SET address = ?, updated_at = ? WHERE name = ?`,
		address, now.Unix(), name)
	if err != nil {
		return fmt.Errorf("failed to update address for %q: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return &domain.NameNotFoundError{Name: name}
	}
	return nil
}

func (r *NameRepository) SearchByPrefix(ctx context.Context, prefix string, limit int) ([]*domain.NameRecord, error) {
	// The prefix is sanitized upstream to [a-z0-9-], so LIKE metacharacters
	// cannot reach the pattern.
	query := fmt.Sprintf(
		`SELECT %s FROM names WHERE name LIKE ? ORDER BY registered_at ASC, id ASC LIMIT ?`,
		nameColumns)

	rows, err := r.db.QueryContext(ctx, query, prefix+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNames(rows)
}

func (r *NameRepository) Recent(ctx context.Context, limit int) ([]*domain.NameRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM names ORDER BY registered_at DESC, id DESC LIMIT ?`,
		nameColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNames(rows)
}

func (r *NameRepository) ListPage(ctx context.Context, offset, limit int) ([]*domain.NameRecord, int, error) {
	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM names ORDER BY name ASC LIMIT ? OFFSET ?`,
		nameColumns)

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := collectNames(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *NameRepository) CountDistinctAddresses(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT address) FROM names`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return count, nil
}

func (r *NameRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM names`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count names: %w", err)
	}
	return count, nil
}

// Close is a no-op; the connection is owned by DB.
func (r *NameRepository) Close() error {
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanName.
type scanner interface {
	Scan(dest ...any) error
}

func scanName(row scanner) (*NameModel, error) {
	var m NameModel
	err := row.Scan(
		&m.ID, &m.Name, &m.Address, &m.OwnerSignature, &m.Metadata,
		&m.RegisteredAt, &m.UpdatedAt, &m.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectNames(rows *sql.Rows) ([]*domain.NameRecord, error) {
	records := []*domain.NameRecord{}
	for rows.Next() {
		m, err := scanName(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan name row: %w", err)
		}
		records = append(records, m.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate name rows: %w", err)
	}
	return records, nil
}
