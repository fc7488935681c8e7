package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// warranty_transfers is the transfer ledger: rows are appended in insertion
// order (rowid) and the triggers refuse to change or remove a transfer once
// it reached a final status.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS warranties (
    id                  TEXT PRIMARY KEY,
    asset_id            TEXT NOT NULL,
    type                TEXT NOT NULL CHECK (type IN ('manufacturer', 'retailer', 'extended', 'protection', 'service', 'insurance')),
    provider            TEXT NOT NULL,
    start_date          DATETIME NOT NULL,
    end_date            DATETIME NOT NULL,
    coverage_details    TEXT,
    registration_number TEXT,
    phone_number        TEXT,
    email               TEXT,
    website             TEXT,
    document_ids        TEXT NOT NULL DEFAULT '[]',
    notes               TEXT,
    is_extended         INTEGER NOT NULL DEFAULT 0,
    cost                TEXT,
    created_at          DATETIME NOT NULL,
    updated_at          DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_warranties_asset ON warranties(asset_id);

CREATE TABLE IF NOT EXISTS transferability (
    warranty_id         TEXT PRIMARY KEY REFERENCES warranties(id),
    is_transferable     INTEGER NOT NULL,
    conditions          TEXT NOT NULL,
    remaining_transfers INTEGER
);

CREATE TABLE IF NOT EXISTS warranty_transfers (
    id                     TEXT PRIMARY KEY,
    warranty_id            TEXT NOT NULL REFERENCES warranties(id),
    item_id                TEXT NOT NULL,
    transfer_date          DATETIME NOT NULL,
    transfer_type          TEXT NOT NULL CHECK (transfer_type IN ('sale', 'gift', 'inheritance', 'trade', 'other')),
    from_owner             TEXT NOT NULL,
    to_owner               TEXT NOT NULL,
    status                 TEXT NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'rejected', 'cancelled')),
    original_start_date    DATETIME NOT NULL,
    original_end_date      DATETIME NOT NULL,
    adjusted_end_date      DATETIME,
    transfer_fee           TEXT,
    inspection_document_id TEXT,
    document_ids           TEXT NOT NULL DEFAULT '[]',
    notes                  TEXT,
    created_at             DATETIME NOT NULL,
    updated_at             DATETIME NOT NULL,
    created_by             INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_warranty_transfers_warranty ON warranty_transfers(warranty_id);

CREATE TRIGGER IF NOT EXISTS warranty_transfers_final_update
BEFORE UPDATE ON warranty_transfers
WHEN OLD.status IN ('completed', 'rejected', 'cancelled')
BEGIN
    SELECT RAISE(ABORT, 'transfer is final');
END;

CREATE TRIGGER IF NOT EXISTS warranty_transfers_no_delete
BEFORE DELETE ON warranty_transfers
BEGIN
    SELECT RAISE(ABORT, 'transfer history is append-only');
END;
`

// EnsureSchema creates all tables, indexes and triggers if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
