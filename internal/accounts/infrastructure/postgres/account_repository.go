package postgres

import (
	"context"
	"database/sql"
	"errors"

	accounts "erp-ledger/internal/accounts/domain"
)

// AccountRepository reads the chart of accounts.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository constructs a repository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// ByCode resolves an active account by its code.
func (r *AccountRepository) ByCode(ctx context.Context, code string) (*accounts.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, account_code, account_name, account_type, parent_id, is_active, created_at
FROM chart_of_accounts
WHERE account_code = $1 AND is_active = TRUE
LIMIT 1`, code)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &accounts.NotFoundError{Code: code}
	}
	return account, err
}

// HasChildren reports whether the account is a summary (header) account.
func (r *AccountRepository) HasChildren(ctx context.Context, accountID int64) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("account repo: nil db")
	}
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM chart_of_accounts WHERE parent_id = $1)`, accountID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListActive returns all active accounts ordered by code.
func (r *AccountRepository) ListActive(ctx context.Context) ([]accounts.Account, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("account repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, account_code, account_name, account_type, parent_id, is_active, created_at
FROM chart_of_accounts
WHERE is_active = TRUE
ORDER BY account_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []accounts.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*accounts.Account, error) {
	var account accounts.Account
	var parentID sql.NullInt64
	var accountType string
	err := row.Scan(&account.ID, &account.Code, &account.Name, &accountType, &parentID, &account.IsActive, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		value := parentID.Int64
		account.ParentID = &value
	}
	normalized, ok := accounts.NormalizeType(accountType)
	if !ok {
		return nil, errors.New("account repo: unknown account type " + accountType)
	}
	account.Type = normalized
	return &account, nil
}
