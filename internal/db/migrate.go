package db

import (
	"context"
	"database/sql"
)

// The unique index on LOWER(external_identity) is what keeps vendor
// creation race-free: concurrent first logins for one identity collide
// here and all but one insert fail with unique_violation.
const schema = `
CREATE TABLE IF NOT EXISTS vendors (
    id uuid PRIMARY KEY,
    external_identity text NOT NULL,
    display_name text NOT NULL DEFAULT '',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS vendors_external_identity_lower_unique
ON vendors (LOWER(external_identity));

CREATE TABLE IF NOT EXISTS resources (
    id uuid PRIMARY KEY,
    kind text NOT NULL,
    vendor_id uuid REFERENCES vendors(id) ON DELETE SET NULL,
    data jsonb NOT NULL DEFAULT '{}'::jsonb,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT resources_kind_check CHECK (kind IN ('events', 'menus', 'items'))
);

CREATE INDEX IF NOT EXISTS resources_kind_vendor_idx
ON resources (kind, vendor_id);
`

func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
