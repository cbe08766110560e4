package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySide is the side of a double-entry posting. Entries always store an
// explicit side and a positive amount, never a signed amount.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// NormalizeSide validates and normalizes a side string, accepting any case.
func NormalizeSide(value string) (EntrySide, bool) {
	switch EntrySide(upper(value)) {
	case Debit:
		return Debit, true
	case Credit:
		return Credit, true
	default:
		return "", false
	}
}

// Opposite returns the mirrored side, used when building reversal entries.
func (s EntrySide) Opposite() EntrySide {
	if s == Debit {
		return Credit
	}
	return Debit
}

func upper(s string) string {
	buf := []byte(s)
	for i, c := range buf {
		if c >= 'a' && c <= 'z' {
			buf[i] = c - 'a' + 'A'
		}
	}
	return string(buf)
}

// DraftEntry is one line of a posting request, addressed by account code.
type DraftEntry struct {
	AccountCode string
	Side        EntrySide
	Amount      decimal.Decimal
	Description string
}

// Entry is a persisted ledger row. Entries are append-only: they are never
// mutated or deleted, and corrections happen through new contra entries.
type Entry struct {
	ID             int64
	AccountID      int64
	AccountCode    string
	FiscalPeriodID int64
	VoucherNumber  string
	VoucherDate    time.Time
	Side           EntrySide
	Amount         decimal.Decimal
	Description    string
	Reference      *Reference
	CreatedBy      string
	CreatedAt      time.Time
	IsClosed       bool
}

// SideTotals carries the per-side sums for one account.
type SideTotals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

// Delta returns debit total minus credit total. The posting core never hides
// the sign; reporting layers negate for credit-normal accounts when they want
// a human-positive figure.
func (t SideTotals) Delta() decimal.Decimal {
	return t.Debits.Sub(t.Credits)
}

// Voucher is the emergent grouping of all entries sharing one voucher number,
// representing one atomic business transaction.
type Voucher struct {
	VoucherNumber string
	VoucherDate   time.Time
	Description   string
	CreatedBy     string
	CreatedAt     time.Time
	Entries       []Entry
}
