// Package postgres holds the database schema bootstrap for the ledger.
package postgres

import (
	"context"
	"database/sql"
)

// Schema defines the SQL statements to create ledger tables.
const Schema = `
-- Chart of accounts
-- Accounts with children are summary headers and reject direct postings.
CREATE TABLE IF NOT EXISTS chart_of_accounts (
    id BIGSERIAL PRIMARY KEY,
    account_code TEXT NOT NULL UNIQUE,
    account_name TEXT NOT NULL,
    account_type TEXT NOT NULL,
    parent_id BIGINT REFERENCES chart_of_accounts(id),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_chart_of_accounts_parent
    ON chart_of_accounts(parent_id);

-- Fiscal periods
CREATE TABLE IF NOT EXISTS fiscal_periods (
    id BIGSERIAL PRIMARY KEY,
    start_date DATE NOT NULL,
    end_date DATE NOT NULL,
    is_closed BOOLEAN NOT NULL DEFAULT FALSE,
    is_locked BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_fiscal_periods_range
    ON fiscal_periods(start_date, end_date);

-- Voucher number sequences, one row per prefix
CREATE TABLE IF NOT EXISTS document_sequences (
    prefix TEXT PRIMARY KEY,
    current_number BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- Append-only ledger entries; corrections happen via contra entries
CREATE TABLE IF NOT EXISTS ledger_entries (
    id BIGSERIAL PRIMARY KEY,
    account_id BIGINT NOT NULL REFERENCES chart_of_accounts(id),
    fiscal_period_id BIGINT NOT NULL REFERENCES fiscal_periods(id),
    voucher_number TEXT NOT NULL,
    voucher_date DATE NOT NULL,
    entry_type TEXT NOT NULL CHECK (entry_type IN ('DEBIT', 'CREDIT')),
    amount NUMERIC(18, 4) NOT NULL CHECK (amount > 0),
    description TEXT NOT NULL DEFAULT '',
    reference_type TEXT,
    reference_id BIGINT,
    created_by TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_closed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_voucher
    ON ledger_entries(voucher_number);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_account_date
    ON ledger_entries(account_id, voucher_date);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_reference
    ON ledger_entries(reference_type, reference_id);

-- Audit log
CREATE TABLE IF NOT EXISTS audit_logs (
    id TEXT PRIMARY KEY,
    actor TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT '',
    action TEXT NOT NULL,
    resource_type TEXT NOT NULL DEFAULT '',
    resource_id TEXT NOT NULL DEFAULT '',
    metadata JSONB,
    payload_digest TEXT NOT NULL DEFAULT '',
    ip TEXT NOT NULL DEFAULT '',
    user_agent TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_resource
    ON audit_logs(resource_type, resource_id);
`

// EnsureSchema creates all tables and indexes if they don't exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
