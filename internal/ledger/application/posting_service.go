package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	accounts "erp-ledger/internal/accounts/domain"
	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	ledger "erp-ledger/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

// AccountDirectory resolves account codes for the posting core.
type AccountDirectory interface {
	ByCode(ctx context.Context, code string) (*accounts.Account, error)
	HasChildren(ctx context.Context, accountID int64) (bool, error)
	ListActive(ctx context.Context) ([]accounts.Account, error)
}

// PeriodGuard validates voucher dates against fiscal periods.
type PeriodGuard interface {
	Resolve(ctx context.Context, date time.Time) (*fiscalperiod.Period, error)
}

// Sequencer allocates voucher numbers outside the posting path, for callers
// that pre-display a number on a draft form.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (string, error)
}

// VoucherFilter narrows and pages the voucher listing.
type VoucherFilter struct {
	VoucherNumber string
	Page          int
	PerPage       int
}

// EntryStore is the append-only ledger entry store. Append allocates a
// voucher number when none is given and inserts all rows in one database
// transaction; there is deliberately no update or delete operation.
type EntryStore interface {
	Append(ctx context.Context, voucherNumber, prefix string, entries []ledger.Entry) (string, error)
	EntriesByVoucher(ctx context.Context, voucherNumber string) ([]ledger.Entry, error)
	SideTotals(ctx context.Context, accountID int64, asOf *time.Time) (ledger.SideTotals, error)
	ListVouchers(ctx context.Context, filter VoucherFilter) ([]ledger.Voucher, int, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// PostRequest describes one posting batch.
type PostRequest struct {
	Entries       []ledger.DraftEntry
	Reference     *ledger.Reference
	VoucherNumber string    // explicit number bypasses the sequencer
	VoucherDate   time.Time // zero value defaults to today
	Prefix        string    // sequencer prefix; empty uses the policy default
	CreatedBy     string
}

// PostingService is the ledger posting engine. It validates batches, resolves
// collaborators and commits balanced vouchers atomically. Accounts and
// periods are re-resolved on every call so concurrent administrative changes
// take effect immediately.
type PostingService struct {
	store     EntryStore
	accounts  AccountDirectory
	periods   PeriodGuard
	sequencer Sequencer
	publisher EventPublisher
	policy    Policy
	clock     Clock
	logger    *log.Logger
}

// NewPostingService constructs the service.
func NewPostingService(
	store EntryStore,
	directory AccountDirectory,
	periods PeriodGuard,
	sequencer Sequencer,
	publisher EventPublisher,
	policy Policy,
	clock Clock,
	logger *log.Logger,
) (*PostingService, error) {
	if store == nil {
		return nil, errors.New("posting service: nil entry store")
	}
	if directory == nil {
		return nil, errors.New("posting service: nil account directory")
	}
	if periods == nil {
		return nil, errors.New("posting service: nil period guard")
	}
	if sequencer == nil {
		return nil, errors.New("posting service: nil sequencer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PostingService{
		store:     store,
		accounts:  directory,
		periods:   periods,
		sequencer: sequencer,
		publisher: publisher,
		policy:    policy.withDefaults(),
		clock:     clock,
		logger:    logger,
	}, nil
}

// PostTransaction validates a batch of entries and commits them atomically as
// one voucher. Every failure aborts before any write; on success it returns
// the voucher number shared by all entries.
func (s *PostingService) PostTransaction(ctx context.Context, req PostRequest) (string, error) {
	if len(req.Entries) < 2 {
		return "", &ledger.ValidationError{Message: "At least two entries are required."}
	}

	voucherDate := fiscalperiod.Truncate(req.VoucherDate)
	if req.VoucherDate.IsZero() {
		voucherDate = fiscalperiod.Truncate(s.clock.Now())
	}

	now := s.clock.Now()
	rows := make([]ledger.Entry, 0, len(req.Entries))
	for _, draft := range req.Entries {
		side, ok := ledger.NormalizeSide(string(draft.Side))
		if !ok {
			return "", &ledger.ValidationError{Message: "Entry type must be DEBIT or CREDIT"}
		}
		if !draft.Amount.IsPositive() {
			return "", &ledger.ValidationError{Message: "Amount must be positive"}
		}
		account, err := s.accounts.ByCode(ctx, draft.AccountCode)
		if err != nil {
			return "", err
		}
		if s.policy.PreventPostingToParentAccounts {
			hasChildren, err := s.accounts.HasChildren(ctx, account.ID)
			if err != nil {
				return "", &ledger.PersistenceError{Err: err}
			}
			if hasChildren {
				return "", &ledger.ValidationError{
					Message: fmt.Sprintf("Cannot post to a summary account (header): %s (%s)", account.Name, account.Code),
				}
			}
		}
		rows = append(rows, ledger.Entry{
			AccountID:   account.ID,
			AccountCode: account.Code,
			VoucherDate: voucherDate,
			Side:        side,
			Amount:      draft.Amount,
			Description: draft.Description,
			Reference:   req.Reference,
			CreatedBy:   req.CreatedBy,
			CreatedAt:   now,
		})
	}

	totals := sumSides(rows)
	if !totals.Debits.Equal(totals.Credits) {
		return "", &ledger.ValidationError{
			Message: fmt.Sprintf("Debits (%s) must equal Credits (%s)", totals.Debits.String(), totals.Credits.String()),
		}
	}

	period, err := s.periods.Resolve(ctx, voucherDate)
	if err != nil {
		return "", err
	}
	for i := range rows {
		rows[i].FiscalPeriodID = period.ID
	}

	prefix := req.Prefix
	if prefix == "" {
		prefix = s.policy.DefaultPrefix
	}
	voucherNumber, err := s.store.Append(ctx, req.VoucherNumber, prefix, rows)
	if err != nil {
		return "", err
	}

	s.publishPosted(ctx, voucherNumber, voucherDate, req, totals, len(rows))
	return voucherNumber, nil
}

// ReverseTransaction posts mirrored contra entries for every entry under the
// voucher. The reversal is itself a new transaction dated today, so it must
// satisfy period rules at reversal time; the original entries are untouched.
func (s *PostingService) ReverseTransaction(ctx context.Context, voucherNumber, reason, actor string) (string, error) {
	original, err := s.store.EntriesByVoucher(ctx, voucherNumber)
	if err != nil {
		return "", err
	}
	if len(original) == 0 {
		return "", &ledger.VoucherNotFoundError{VoucherNumber: voucherNumber}
	}

	drafts := make([]ledger.DraftEntry, 0, len(original))
	for _, entry := range original {
		description := reason
		if description == "" {
			description = "Reversal of " + entry.Description
		}
		drafts = append(drafts, ledger.DraftEntry{
			AccountCode: entry.AccountCode,
			Side:        entry.Side.Opposite(),
			Amount:      entry.Amount,
			Description: description,
		})
	}

	reversalNumber, err := s.PostTransaction(ctx, PostRequest{
		Entries:   drafts,
		Reference: &ledger.Reference{Type: ledger.ReferenceGeneralLedger},
		Prefix:    s.policy.ReversalPrefix,
		CreatedBy: actor,
	})
	if err != nil {
		return "", err
	}

	s.publishReversed(ctx, voucherNumber, reversalNumber, reason)
	return reversalNumber, nil
}

// AccountBalance returns debit total minus credit total for the account,
// over all entries dated on or before asOf (or all time when asOf is nil).
// Credit-normal accounts naturally show negative deltas; callers wanting a
// human-positive figure negate it using the account's normal side.
func (s *PostingService) AccountBalance(ctx context.Context, accountCode string, asOf *time.Time) (decimal.Decimal, error) {
	account, err := s.accounts.ByCode(ctx, accountCode)
	if err != nil {
		return decimal.Zero, err
	}
	totals, err := s.store.SideTotals(ctx, account.ID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Delta(), nil
}

// NextVoucherNumber allocates and returns the next number for the prefix.
// The number is consumed even if the caller never posts with it.
func (s *PostingService) NextVoucherNumber(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		prefix = s.policy.DefaultPrefix
	}
	return s.sequencer.Next(ctx, prefix)
}

// VoucherByNumber loads all entries of one voucher.
func (s *PostingService) VoucherByNumber(ctx context.Context, voucherNumber string) (*ledger.Voucher, error) {
	entries, err := s.store.EntriesByVoucher(ctx, voucherNumber)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, &ledger.VoucherNotFoundError{VoucherNumber: voucherNumber}
	}
	first := entries[0]
	return &ledger.Voucher{
		VoucherNumber: voucherNumber,
		VoucherDate:   first.VoucherDate,
		Description:   first.Description,
		CreatedBy:     first.CreatedBy,
		CreatedAt:     first.CreatedAt,
		Entries:       entries,
	}, nil
}

// ListVouchers returns a page of vouchers grouped by voucher number together
// with the total distinct voucher count.
func (s *PostingService) ListVouchers(ctx context.Context, filter VoucherFilter) ([]ledger.Voucher, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	return s.store.ListVouchers(ctx, filter)
}

func sumSides(entries []ledger.Entry) ledger.SideTotals {
	totals := ledger.SideTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	for _, entry := range entries {
		if entry.Side == ledger.Debit {
			totals.Debits = totals.Debits.Add(entry.Amount)
		} else {
			totals.Credits = totals.Credits.Add(entry.Amount)
		}
	}
	return totals
}
