package store

import (
	"context"
	"database/sql"
)

const itemsSchema = `
CREATE TABLE IF NOT EXISTS items (
    name           TEXT NOT NULL,
    href           TEXT NOT NULL,
    source         TEXT NOT NULL,
    region         TEXT NOT NULL,
    epoch          TEXT NOT NULL,
    format         TEXT NOT NULL,
    document       BLOB,
    exact_geometry INTEGER NOT NULL DEFAULT 0,
    UNIQUE (source, region, epoch)
);
CREATE INDEX IF NOT EXISTS items_source_epoch ON items (source, epoch);
`

// EnsureSchema creates the items table and its indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, itemsSchema)
	return err
}
