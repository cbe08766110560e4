package postgres

import (
	"context"
	"database/sql"
	"errors"

	"erp-ledger/internal/sequence"
)

// SequenceStore allocates voucher numbers from the document_sequences table.
// The upsert-and-increment runs as a single statement, so two concurrent
// callers for one prefix serialize on the row lock and never see the same
// counter value; different prefixes do not block each other.
type SequenceStore struct {
	db *sql.DB
}

// NewSequenceStore constructs a store.
func NewSequenceStore(db *sql.DB) *SequenceStore {
	return &SequenceStore{db: db}
}

// Next allocates the next number for the prefix in its own transaction.
func (s *SequenceStore) Next(ctx context.Context, prefix string) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("sequence store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	number, err := NextInTx(ctx, tx, prefix)
	if err != nil {
		_ = tx.Rollback()
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return number, nil
}

// NextInTx allocates the next number for the prefix inside the caller's
// transaction. The posting path uses this so voucher allocation and entry
// insertion commit or roll back together.
func NextInTx(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	if tx == nil {
		return "", errors.New("sequence store: nil tx")
	}
	if prefix == "" {
		return "", errors.New("sequence store: empty prefix")
	}
	var counter int64
	err := tx.QueryRowContext(ctx, `
INSERT INTO document_sequences (prefix, current_number)
VALUES ($1, 1)
ON CONFLICT (prefix)
DO UPDATE SET current_number = document_sequences.current_number + 1, updated_at = NOW()
RETURNING current_number`, prefix).Scan(&counter)
	if err != nil {
		return "", err
	}
	return sequence.Format(prefix, counter), nil
}
