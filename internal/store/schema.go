/**
 * @description
 * This file holds the idempotent schema bootstrap for the banking service.
 * The service ensures its own tables on startup instead of relying on an
 * external migration step; every statement is safe to re-run.
 */

package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    phone_number TEXT NOT NULL UNIQUE,
    location TEXT NOT NULL DEFAULT '',
    gender TEXT NOT NULL DEFAULT '',
    birth_date TIMESTAMPTZ NOT NULL,
    id_type TEXT NOT NULL DEFAULT '',
    id_number TEXT NOT NULL DEFAULT '',
    id_photo_path TEXT NOT NULL DEFAULT '',
    account_number TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    requested_card BOOLEAN NOT NULL DEFAULT FALSE,
    card_type TEXT,
    balance BIGINT NOT NULL DEFAULT 1000,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cards (
    id UUID PRIMARY KEY,
    phone_number TEXT NOT NULL,
    card_number TEXT NOT NULL,
    card_holder TEXT NOT NULL,
    expiry_month TEXT NOT NULL,
    expiry_year TEXT NOT NULL,
    cvv TEXT NOT NULL,
    card_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    request_status TEXT NOT NULL DEFAULT 'pending',
    request_reason TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMPTZ,
    approved_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS cards_card_number_unique
    ON cards (card_number) WHERE card_number <> 'PENDING';

CREATE INDEX IF NOT EXISTS cards_phone_number_idx ON cards (phone_number);

CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY,
    from_account TEXT NOT NULL,
    to_account TEXT NOT NULL,
    from_phone TEXT NOT NULL,
    to_phone TEXT NOT NULL,
    amount BIGINT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'completed',
    description TEXT NOT NULL DEFAULT '',
    balance BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS transactions_from_phone_idx ON transactions (from_phone, created_at);
CREATE INDEX IF NOT EXISTS transactions_to_phone_idx ON transactions (to_phone, created_at);
CREATE INDEX IF NOT EXISTS transactions_created_at_idx ON transactions (created_at);

CREATE TABLE IF NOT EXISTS admins (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'admin',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the service's tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, schemaDDL)
	return err
}
