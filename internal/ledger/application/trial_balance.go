package application

import (
	"context"
	"time"

	accounts "erp-ledger/internal/accounts/domain"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account's balance placed in its conventional column.
type TrialBalanceRow struct {
	AccountCode   string               `json:"account_code"`
	AccountName   string               `json:"account_name"`
	AccountType   accounts.AccountType `json:"account_type"`
	DebitBalance  decimal.Decimal      `json:"debit_balance"`
	CreditBalance decimal.Decimal      `json:"credit_balance"`
}

// TrialBalance lists balances of all accounts with activity.
type TrialBalance struct {
	Rows         []TrialBalanceRow `json:"accounts"`
	TotalDebits  decimal.Decimal   `json:"total_debits"`
	TotalCredits decimal.Decimal   `json:"total_credits"`
	IsBalanced   bool              `json:"is_balanced"`
}

// TrialBalance computes per-account balances as of the given date (all time
// when nil). Unlike AccountBalance, each balance is sign-normalized by the
// account's normal side and placed in the debit or credit column, so a
// healthy trial balance shows positive figures on both sides.
func (s *PostingService) TrialBalance(ctx context.Context, asOf *time.Time) (*TrialBalance, error) {
	all, err := s.accounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &TrialBalance{
		Rows:         []TrialBalanceRow{},
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, account := range all {
		totals, err := s.store.SideTotals(ctx, account.ID, asOf)
		if err != nil {
			return nil, err
		}
		// Only accounts with activity appear.
		if totals.Debits.IsZero() && totals.Credits.IsZero() {
			continue
		}

		row := TrialBalanceRow{
			AccountCode:   account.Code,
			AccountName:   account.Name,
			AccountType:   account.Type,
			DebitBalance:  decimal.Zero,
			CreditBalance: decimal.Zero,
		}
		if account.NormalSide() == accounts.DebitNormal {
			balance := totals.Debits.Sub(totals.Credits)
			if balance.IsNegative() {
				row.CreditBalance = balance.Abs()
			} else {
				row.DebitBalance = balance
			}
		} else {
			balance := totals.Credits.Sub(totals.Debits)
			if balance.IsNegative() {
				row.DebitBalance = balance.Abs()
			} else {
				row.CreditBalance = balance
			}
		}

		result.Rows = append(result.Rows, row)
		result.TotalDebits = result.TotalDebits.Add(row.DebitBalance)
		result.TotalCredits = result.TotalCredits.Add(row.CreditBalance)
	}

	result.IsBalanced = result.TotalDebits.Equal(result.TotalCredits)
	return result, nil
}
