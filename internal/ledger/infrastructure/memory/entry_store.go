package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	"erp-ledger/internal/ledger/application"
	ledger "erp-ledger/internal/ledger/domain"
	seqmemory "erp-ledger/internal/sequence/infrastructure/memory"

	"github.com/shopspring/decimal"
)

// EntryStore is an in-memory append-only ledger for demo/testing. It shares
// a sequence store with the rest of the wiring, mirroring how the postgres
// store and sequencer share the document_sequences table.
type EntryStore struct {
	mu        sync.RWMutex
	nextID    int64
	entries   []ledger.Entry
	sequences *seqmemory.SequenceStore
}

// NewEntryStore constructs a store.
func NewEntryStore(sequences *seqmemory.SequenceStore) *EntryStore {
	if sequences == nil {
		sequences = seqmemory.NewSequenceStore()
	}
	return &EntryStore{sequences: sequences}
}

// Append stores all entries under one voucher number, allocating a number
// from the shared sequence store when none is given.
func (s *EntryStore) Append(ctx context.Context, voucherNumber, prefix string, entries []ledger.Entry) (string, error) {
	if s == nil {
		return "", errors.New("memory entry store: nil store")
	}
	if len(entries) == 0 {
		return "", errors.New("memory entry store: empty batch")
	}
	if voucherNumber == "" {
		allocated, err := s.sequences.Next(ctx, prefix)
		if err != nil {
			return "", &ledger.PersistenceError{Err: err}
		}
		voucherNumber = allocated
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range entries {
		s.nextID++
		entry.ID = s.nextID
		entry.VoucherNumber = voucherNumber
		s.entries = append(s.entries, entry)
	}
	return voucherNumber, nil
}

// EntriesByVoucher returns all entries under the voucher number.
func (s *EntryStore) EntriesByVoucher(ctx context.Context, voucherNumber string) ([]ledger.Entry, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []ledger.Entry
	for _, entry := range s.entries {
		if entry.VoucherNumber == voucherNumber {
			result = append(result, entry)
		}
	}
	return result, nil
}

// SideTotals sums debit and credit amounts for the account up to asOf.
func (s *EntryStore) SideTotals(ctx context.Context, accountID int64, asOf *time.Time) (ledger.SideTotals, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := ledger.SideTotals{Debits: decimal.Zero, Credits: decimal.Zero}
	for _, entry := range s.entries {
		if entry.AccountID != accountID {
			continue
		}
		if asOf != nil && entry.VoucherDate.After(fiscalperiod.Truncate(*asOf)) {
			continue
		}
		if entry.Side == ledger.Debit {
			totals.Debits = totals.Debits.Add(entry.Amount)
		} else {
			totals.Credits = totals.Credits.Add(entry.Amount)
		}
	}
	return totals, nil
}

// ListVouchers returns a page of vouchers grouped by number, newest first.
func (s *EntryStore) ListVouchers(ctx context.Context, filter application.VoucherFilter) ([]ledger.Voucher, int, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string][]ledger.Entry)
	for _, entry := range s.entries {
		if filter.VoucherNumber != "" && !strings.Contains(entry.VoucherNumber, filter.VoucherNumber) {
			continue
		}
		grouped[entry.VoucherNumber] = append(grouped[entry.VoucherNumber], entry)
	}

	numbers := make([]string, 0, len(grouped))
	for number := range grouped {
		numbers = append(numbers, number)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(numbers)))

	total := len(numbers)
	start := (filter.Page - 1) * filter.PerPage
	if start >= total {
		return []ledger.Voucher{}, total, nil
	}
	end := start + filter.PerPage
	if end > total {
		end = total
	}

	vouchers := make([]ledger.Voucher, 0, end-start)
	for _, number := range numbers[start:end] {
		entries := grouped[number]
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
