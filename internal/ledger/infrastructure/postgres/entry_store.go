package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	"erp-ledger/internal/ledger/application"
	ledger "erp-ledger/internal/ledger/domain"
	seqpostgres "erp-ledger/internal/sequence/infrastructure/postgres"

	"github.com/shopspring/decimal"
)

// EntryStore persists ledger entries. The table is append-only: the store
// exposes no update or delete, enforcing the correction-by-contra-entry
// model structurally.
type EntryStore struct {
	db *sql.DB
}

// NewEntryStore constructs a store.
func NewEntryStore(db *sql.DB) *EntryStore {
	return &EntryStore{db: db}
}

// Append writes all entries under one voucher number inside a single
// transaction. When no number is given, one is allocated from
// document_sequences in the same transaction, so a failed insert rolls the
// allocation back with it (the number is burned, never reused).
func (s *EntryStore) Append(ctx context.Context, voucherNumber, prefix string, entries []ledger.Entry) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("entry store: nil db")
	}
	if len(entries) == 0 {
		return "", errors.New("entry store: empty batch")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &ledger.PersistenceError{Err: err}
	}

	if voucherNumber == "" {
		voucherNumber, err = seqpostgres.NextInTx(ctx, tx, prefix)
		if err != nil {
			_ = tx.Rollback()
			return "", &ledger.PersistenceError{Err: err}
		}
	}

	for _, entry := range entries {
		var referenceType, referenceID any
		if entry.Reference != nil {
			referenceType = string(entry.Reference.Type)
			if entry.Reference.ID != nil {
				referenceID = *entry.Reference.ID
			}
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO ledger_entries (
	account_id, fiscal_period_id, voucher_number, voucher_date, entry_type,
	amount, description, reference_type, reference_id, created_by, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			entry.AccountID, entry.FiscalPeriodID, voucherNumber, entry.VoucherDate, string(entry.Side),
			entry.Amount.String(), entry.Description, referenceType, referenceID, entry.CreatedBy, entry.CreatedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return "", &ledger.PersistenceError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", &ledger.PersistenceError{Err: err}
	}
	return voucherNumber, nil
}

// EntriesByVoucher returns all entries under the voucher number in insertion
// order.
func (s *EntryStore) EntriesByVoucher(ctx context.Context, voucherNumber string) ([]ledger.Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("entry store: nil db")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT e.id, e.account_id, a.account_code, e.fiscal_period_id, e.voucher_number,
	e.voucher_date, e.entry_type, e.amount, e.description,
	e.reference_type, e.reference_id, e.created_by, e.created_at, e.is_closed
FROM ledger_entries e
JOIN chart_of_accounts a ON a.id = e.account_id
WHERE e.voucher_number = $1
ORDER BY e.id`, voucherNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SideTotals sums debit and credit amounts for the account up to asOf.
func (s *EntryStore) SideTotals(ctx context.Context, accountID int64, asOf *time.Time) (ledger.SideTotals, error) {
	totals := ledger.SideTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	if s == nil || s.db == nil {
		return totals, errors.New("entry store: nil db")
	}
	var asOfDay any
	if asOf != nil {
		asOfDay = fiscalperiod.Truncate(*asOf)
	}
	var debits, credits string
	err := s.db.QueryRowContext(ctx, `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE entry_type = 'DEBIT'), 0)::text,
	COALESCE(SUM(amount) FILTER (WHERE entry_type = 'CREDIT'), 0)::text
FROM ledger_entries
WHERE account_id = $1 AND ($2::date IS NULL OR voucher_date <= $2::date)`, accountID, asOfDay).Scan(&debits, &credits)
	if err != nil {
		return totals, err
	}
	if totals.Debits, err = decimal.NewFromString(debits); err != nil {
		return totals, err
	}
	if totals.Credits, err = decimal.NewFromString(credits); err != nil {
		return totals, err
	}
	return totals, nil
}

// ListVouchers pages distinct voucher numbers newest first, then loads all
// entries for the page in one query.
func (s *EntryStore) ListVouchers(ctx context.Context, filter application.VoucherFilter) ([]ledger.Voucher, int, error) {
	if s == nil || s.db == nil {
		return nil, 0, errors.New("entry store: nil db")
	}
	pattern := "%" + filter.VoucherNumber + "%"

	var total int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT voucher_number) FROM ledger_entries WHERE voucher_number LIKE $1`, pattern).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	numberRows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT voucher_number
FROM ledger_entries
WHERE voucher_number LIKE $1
ORDER BY voucher_number DESC
OFFSET $2 LIMIT $3`, pattern, (filter.Page-1)*filter.PerPage, filter.PerPage)
	if err != nil {
		return nil, 0, err
	}
	defer numberRows.Close()

	var numbers []string
	for numberRows.Next() {
		var number string
		if err := numberRows.Scan(&number); err != nil {
			return nil, 0, err
		}
		numbers = append(numbers, number)
	}
	if err := numberRows.Err(); err != nil {
		return nil, 0, err
	}
	if len(numbers) == 0 {
		return []ledger.Voucher{}, total, nil
	}

	vouchers := make([]ledger.Voucher, 0, len(numbers))
	for _, number := range numbers {
		entries, err := s.EntriesByVoucher(ctx, number)
		if err != nil {
			return nil, 0, err
		}
		if len(entries) == 0 {
			continue
		}
		first := entries[0]
		vouchers = append(vouchers, ledger.Voucher{
			VoucherNumber: number,
			VoucherDate:   first.VoucherDate,
			Description:   first.Description,
			CreatedBy:     first.CreatedBy,
			CreatedAt:     first.CreatedAt,
			Entries:       entries,
		})
	}
	return vouchers, total, nil
}

func scanEntries(rows *sql.Rows) ([]ledger.Entry, error) {
	var result []ledger.Entry
	for rows.Next() {
		var entry ledger.Entry
		var amount string
		var side string
		var referenceType sql.NullString
		var referenceID sql.NullInt64
		err := rows.Scan(
			&entry.ID, &entry.AccountID, &entry.AccountCode, &entry.FiscalPeriodID, &entry.VoucherNumber,
			&entry.VoucherDate, &side, &amount, &entry.Description,
			&referenceType, &referenceID, &entry.CreatedBy, &entry.CreatedAt, &entry.IsClosed,
		)
		if err != nil {
			return nil, err
		}
		entry.Side = ledger.EntrySide(side)
		if entry.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if referenceType.Valid {
			reference := &ledger.Reference{Type: ledger.ReferenceType(referenceType.String)}
			if referenceID.Valid {
				value := referenceID.Int64
				reference.ID = &value
			}
			entry.Reference = reference
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
