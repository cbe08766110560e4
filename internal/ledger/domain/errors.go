package ledger

import "fmt"

// Error messages carried by these types are asserted on literally by callers
// and tests; they surface to the HTTP layer unchanged.

// ValidationError reports caller-correctable input problems: too few entries,
// an invalid side, a non-positive amount, or unbalanced totals.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// VoucherNotFoundError is returned when a reversal names an unknown voucher.
type VoucherNotFoundError struct {
	VoucherNumber string
}

func (e *VoucherNotFoundError) Error() string {
	return fmt.Sprintf("Voucher not found: %s", e.VoucherNumber)
}

// PersistenceError wraps a database-level failure during the atomic commit.
// It is not caller-correctable; the whole batch has been rolled back.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
