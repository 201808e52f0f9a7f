package resource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ftf-gateway/internal/db"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, kind, vendor_id, data, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var (
		r      Record
		id     uuid.UUID
		vendor uuid.NullUUID
		data   []byte
	)
	if err := row.Scan(&id, &r.Kind, &vendor, &data, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.ID = id.String()
	if vendor.Valid {
		r.VendorID = vendor.UUID.String()
	}
	r.Data = json.RawMessage(data)
	return &r, nil
}

func nullVendor(vendorID string) (uuid.NullUUID, error) {
	if vendorID == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(vendorID)
	if err != nil {
		return uuid.NullUUID{}, fmt.Errorf("resource: invalid vendor id %q: %w", vendorID, err)
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func (s *PostgresStore) Owner(ctx context.Context, kind Kind, id string) (string, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return "", ErrNotFound
	}

	var owner uuid.NullUUID
	err = s.db.QueryRowContext(ctx, `
		SELECT vendor_id
		FROM resources
		WHERE id = $1 AND kind = $2
	`, rid, string(kind)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resource: owner: %w", err)
	}
	if !owner.Valid {
		return "", nil
	}
	return owner.UUID.String(), nil
}

func (s *PostgresStore) Get(ctx context.Context, kind Kind, id string) (*Record, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	r, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM resources
		WHERE id = $1 AND kind = $2
	`, rid, string(kind)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resource: get: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM resources
		WHERE kind = $1
		ORDER BY created_at, id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("resource: list: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) ListByVendor(ctx context.Context, kind Kind, vendorID string) ([]Record, error) {
	vid, err := uuid.Parse(vendorID)
	if err != nil {
		return []Record{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM resources
		WHERE kind = $1 AND vendor_id = $2
		ORDER BY created_at, id
	`, string(kind), vid)
	if err != nil {
		return nil, fmt.Errorf("resource: list by vendor: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) Create(ctx context.Context, r Record) error {
	rid, err := uuid.Parse(r.ID)
	if err != nil {
		return fmt.Errorf("resource: invalid id %q: %w", r.ID, err)
	}
	owner, err := nullVendor(r.VendorID)
	if err != nil {
		return err
	}
	data := r.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (id, kind, vendor_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, rid, string(r.Kind), owner, string(data), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("resource: create: %w", err)
	}
	return nil
}

// Update claims an unowned record for vendorID in the same statement that
// writes the data, so two vendors racing for one record cannot both own it.
func (s *PostgresStore) Update(ctx context.Context, kind Kind, id, vendorID string, data json.RawMessage) (*Record, error) {
	rid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	owner, err := nullVendor(vendorID)
	if err != nil {
		return nil, err
	}

	r, err := scanRecord(s.db.QueryRowContext(ctx, `
		UPDATE resources
		SET data = $3,
		    vendor_id = COALESCE(vendor_id, $4),
		    updated_at = NOW()
		WHERE id = $1 AND kind = $2
		RETURNING `+recordColumns,
		rid, string(kind), string(data), owner,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resource: update: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, kind Kind, id string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM resources
		WHERE id = $1 AND kind = $2
	`, rid, string(kind))
	if err != nil {
		return fmt.Errorf("resource: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("resource: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func collect(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	out := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("resource: scan: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resource: rows: %w", err)
	}
	return out, nil
}
