package accounts

import (
	"fmt"
	"time"
)

// AccountType classifies an account in the chart of accounts.
type AccountType string

const (
	TypeAsset     AccountType = "Asset"
	TypeLiability AccountType = "Liability"
	TypeEquity    AccountType = "Equity"
	TypeRevenue   AccountType = "Revenue"
	TypeExpense   AccountType = "Expense"
)

// NormalizeType validates and normalizes an account type string.
func NormalizeType(value string) (AccountType, bool) {
	switch AccountType(value) {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return AccountType(value), true
	default:
		return "", false
	}
}

// BalanceSide is the side on which an account type normally carries its balance.
type BalanceSide string

const (
	DebitNormal  BalanceSide = "DEBIT"
	CreditNormal BalanceSide = "CREDIT"
)

// NormalSide returns the conventional balance side for the account type.
// Asset and Expense accounts are debit-normal; Liability, Equity and Revenue
// accounts are credit-normal.
func (t AccountType) NormalSide() BalanceSide {
	switch t {
	case TypeAsset, TypeExpense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account is a node in the chart of accounts. The posting core treats
// accounts as read-only; administration happens elsewhere. The account code
// is immutable once any ledger entry references the account.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	ParentID  *int64
	IsActive  bool
	CreatedAt time.Time
}

// NormalSide returns the account's conventional balance side.
func (a *Account) NormalSide() BalanceSide {
	return a.Type.NormalSide()
}

// NotFoundError is returned when an account code does not resolve to an
// active account. The message text is surfaced verbatim to callers.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Account not found: %s", e.Code)
}
