package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	accounts "erp-ledger/internal/accounts/domain"
)

// AccountRepository is an in-memory chart of accounts for demo/testing.
type AccountRepository struct {
	mu     sync.RWMutex
	nextID int64
	byCode map[string]*accounts.Account
}

// NewAccountRepository constructs a repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{byCode: make(map[string]*accounts.Account)}
}

// Seed inserts an account and returns its assigned id.
func (r *AccountRepository) Seed(code, name string, accountType accounts.AccountType, parentID *int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.byCode[code] = &accounts.Account{
		ID:       r.nextID,
		Code:     code,
		Name:     name,
		Type:     accountType,
		ParentID: parentID,
		IsActive: true,
	}
	return r.nextID
}

// Deactivate flips an account's active flag.
func (r *AccountRepository) Deactivate(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account := r.byCode[code]; account != nil {
		account.IsActive = false
	}
}

// ByCode resolves an active account by its code.
func (r *AccountRepository) ByCode(ctx context.Context, code string) (*accounts.Account, error) {
	_ = ctx
	if r == nil {
		return nil, errors.New("memory account repo: nil repository")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	account := r.byCode[code]
	if account == nil || !account.IsActive {
		return nil, &accounts.NotFoundError{Code: code}
	}
	copied := *account
	return &copied, nil
}

// HasChildren reports whether the account is a summary (header) account.
func (r *AccountRepository) HasChildren(ctx context.Context, accountID int64) (bool, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.byCode {
		if account.ParentID != nil && *account.ParentID == accountID {
			return true, nil
		}
	}
	return false, nil
}

// ListActive returns all active accounts ordered by code.
func (r *AccountRepository) ListActive(ctx context.Context) ([]accounts.Account, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]accounts.Account, 0, len(r.byCode))
	for _, account := range r.byCode {
		if account.IsActive {
			result = append(result, *account)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}
