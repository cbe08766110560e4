package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	accounts "erp-ledger/internal/accounts/domain"
	fpapplication "erp-ledger/internal/fiscalperiod/application"
	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	ledger "erp-ledger/internal/ledger/domain"
	"erp-ledger/internal/sequence"

	"github.com/shopspring/decimal"
)

// The stores and repositories used here live in the memory infrastructure
// packages, but pulling them in would create an import cycle with this
// package's interfaces, so the tests carry small local fakes instead.

type fakeDirectory struct {
	mu     sync.RWMutex
	nextID int64
	byCode map[string]*accounts.Account
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{byCode: make(map[string]*accounts.Account)}
}

func (d *fakeDirectory) seed(code, name string, accountType accounts.AccountType, parentID *int64) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.byCode[code] = &accounts.Account{ID: d.nextID, Code: code, Name: name, Type: accountType, ParentID: parentID, IsActive: true}
	return d.nextID
}

func (d *fakeDirectory) ByCode(_ context.Context, code string) (*accounts.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	account := d.byCode[code]
	if account == nil || !account.IsActive {
		return nil, &accounts.NotFoundError{Code: code}
	}
	copied := *account
	return &copied, nil
}

func (d *fakeDirectory) HasChildren(_ context.Context, accountID int64) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, account := range d.byCode {
		if account.ParentID != nil && *account.ParentID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) ListActive(_ context.Context) ([]accounts.Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var result []accounts.Account
	for _, account := range d.byCode {
		result = append(result, *account)
	}
	return result, nil
}

type fakePeriods struct {
	mu      sync.RWMutex
	periods []*fiscalperiod.Period
}

func (p *fakePeriods) seed(start, end string, locked, closed bool) *fiscalperiod.Period {
	p.mu.Lock()
	defer p.mu.Unlock()
	period := &fiscalperiod.Period{
		ID:        int64(len(p.periods) + 1),
		StartDate: day(start),
		EndDate:   day(end),
		IsLocked:  locked,
		IsClosed:  closed,
	}
	p.periods = append(p.periods, period)
	return period
}

func (p *fakePeriods) FindForDate(_ context.Context, date time.Time) (*fiscalperiod.Period, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, period := range p.periods {
		if period.Contains(date) {
			copied := *period
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeSequencer struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newFakeSequencer() *fakeSequencer {
	return &fakeSequencer{counters: make(map[string]int64)}
}

func (s *fakeSequencer) Next(_ context.Context, prefix string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[prefix]++
	return sequence.Format(prefix, s.counters[prefix]), nil
}

type fakeStore struct {
	mu        sync.RWMutex
	nextID    int64
	entries   []ledger.Entry
	sequencer *fakeSequencer
	appendErr error
}

func (s *fakeStore) Append(ctx context.Context, voucherNumber, prefix string, entries []ledger.Entry) (string, error) {
	if s.appendErr != nil {
		return "", s.appendErr
	}
	if voucherNumber == "" {
		allocated, err := s.sequencer.Next(ctx, prefix)
		if err != nil {
			return "", err
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

func (s *fakeStore) EntriesByVoucher(_ context.Context, voucherNumber string) ([]ledger.Entry, error) {
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

func (s *fakeStore) SideTotals(_ context.Context, accountID int64, asOf *time.Time) (ledger.SideTotals, error) {
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

func (s *fakeStore) ListVouchers(_ context.Context, _ VoucherFilter) ([]ledger.Voucher, int, error) {
	return nil, 0, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func day(value string) time.Time {
	t, err := time.Parse(fiscalperiod.DateLayout, value)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	service   *PostingService
	directory *fakeDirectory
	periods   *fakePeriods
	store     *fakeStore
	sequencer *fakeSequencer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	directory := newFakeDirectory()
	directory.seed("1110", "Cash", accounts.TypeAsset, nil)
	directory.seed("4101", "Sales Revenue", accounts.TypeRevenue, nil)
	directory.seed("5210", "Rent Expense", accounts.TypeExpense, nil)

	periods := &fakePeriods{}
	periods.seed("2025-01-01", "2025-12-31", false, false)

	sequencer := newFakeSequencer()
	store := &fakeStore{sequencer: sequencer}

	service, err := NewPostingService(
		store, directory, mustGuard(t, periods), sequencer, nil,
		DefaultPolicy(), fixedClock{now: day("2025-06-15")}, nil,
	)
	if err != nil {
		t.Fatalf("new posting service: %v", err)
	}
	return &fixture{service: service, directory: directory, periods: periods, store: store, sequencer: sequencer}
}

// mustGuard runs the fake period repo through the real guard so tests
// exercise the production lock/close precedence.
func mustGuard(t *testing.T, periods *fakePeriods) PeriodGuard {
	t.Helper()
	guard, err := fpapplication.NewGuard(periods)
	if err != nil {
		t.Fatalf("new guard: %v", err)
	}
	return guard
}

func amount(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func balancedEntries(debitCode, creditCode, value string) []ledger.DraftEntry {
	return []ledger.DraftEntry{
		{AccountCode: debitCode, Side: ledger.Debit, Amount: amount(value), Description: "test"},
		{AccountCode: creditCode, Side: ledger.Credit, Amount: amount(value), Description: "test"},
	}
}

func TestPostTransactionFirstVoucherNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	voucher, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("1110", "4101", "1000")})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if voucher != "JV-000001" {
		t.Fatalf("expected JV-000001, got %s", voucher)
	}

	balance, err := f.service.AccountBalance(ctx, "1110", nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(amount("1000")) {
		t.Fatalf("expected Cash balance 1000, got %s", balance)
	}
}

func TestPostTransactionUnbalanced(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: []ledger.DraftEntry{
		{AccountCode: "1110", Side: ledger.Debit, Amount: amount("1000")},
		{AccountCode: "1110", Side: ledger.Credit, Amount: amount("500")},
	}})
	var validation *ledger.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Message != "Debits (1000) must equal Credits (500)" {
		t.Fatalf("unexpected message: %s", validation.Message)
	}
}

func TestPostTransactionTooFewEntries(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: []ledger.DraftEntry{
		{AccountCode: "1110", Side: ledger.Debit, Amount: amount("1000")},
	}})
	var validation *ledger.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Message != "At least two entries are required." {
		t.Fatalf("unexpected message: %s", validation.Message)
	}
}

func TestPostTransactionInvalidSide(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: []ledger.DraftEntry{
		{AccountCode: "1110", Side: "TRANSFER", Amount: amount("1000")},
		{AccountCode: "4101", Side: ledger.Credit, Amount: amount("1000")},
	}})
	var validation *ledger.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Message != "Entry type must be DEBIT or CREDIT" {
		t.Fatalf("unexpected message: %s", validation.Message)
	}
}

func TestPostTransactionNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: []ledger.DraftEntry{
		{AccountCode: "1110", Side: ledger.Debit, Amount: amount("0")},
		{AccountCode: "4101", Side: ledger.Credit, Amount: amount("0")},
	}})
	var validation *ledger.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Message != "Amount must be positive" {
		t.Fatalf("unexpected message: %s", validation.Message)
	}
}

func TestPostTransactionUnknownAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: balancedEntries("9999", "4101", "100")})
	var notFound *accounts.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected account NotFoundError, got %v", err)
	}
	if err.Error() != "Account not found: 9999" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	// Nothing was written.
	if len(f.store.entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(f.store.entries))
	}
}

func TestPostTransactionSummaryAccountRejected(t *testing.T) {
	f := newFixture(t)
	parentID := f.directory.seed("1100", "Current Assets", accounts.TypeAsset, nil)
	f.directory.seed("1120", "Receivables", accounts.TypeAsset, &parentID)

	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: balancedEntries("1100", "4101", "100")})
	var validation *ledger.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validation.Message != "Cannot post to a summary account (header): Current Assets (1100)" {
		t.Fatalf("unexpected message: %s", validation.Message)
	}
}

func TestPostTransactionLockedPeriod(t *testing.T) {
	f := newFixture(t)
	f.periods.periods[0].IsLocked = true

	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: balancedEntries("1110", "4101", "100")})
	if !errors.Is(err, fiscalperiod.ErrPeriodLocked) {
		t.Fatalf("expected locked period error, got %v", err)
	}
	if err.Error() != "Cannot post transactions to a locked fiscal period" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestPostTransactionDateOutsidePeriods(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.PostTransaction(context.Background(), PostRequest{
		Entries:     balancedEntries("1110", "4101", "100"),
		VoucherDate: day("2024-12-31"),
	})
	var notFound *fiscalperiod.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected period NotFoundError, got %v", err)
	}
	if err.Error() != "Voucher date (2024-12-31) is outside fiscal period" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestPostTransactionExplicitVoucherNumber(t *testing.T) {
	f := newFixture(t)
	voucher, err := f.service.PostTransaction(context.Background(), PostRequest{
		Entries:       balancedEntries("1110", "4101", "250"),
		VoucherNumber: "LEGACY-0042",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if voucher != "LEGACY-0042" {
		t.Fatalf("expected explicit number, got %s", voucher)
	}
	// The sequencer was bypassed entirely.
	if f.sequencer.counters["JV"] != 0 {
		t.Fatalf("sequencer should not have been called")
	}
}

func TestPostTransactionCallerPrefix(t *testing.T) {
	f := newFixture(t)
	voucher, err := f.service.PostTransaction(context.Background(), PostRequest{
		Entries: balancedEntries("1110", "4101", "250"),
		Prefix:  "PUR",
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if voucher != "PUR-000001" {
		t.Fatalf("expected PUR-000001, got %s", voucher)
	}
}

func TestReverseTransactionRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	voucher, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("1110", "4101", "1000")})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	reversal, err := f.service.ReverseTransaction(ctx, voucher, "", "tester")
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if reversal == voucher {
		t.Fatal("reversal must get a fresh voucher number")
	}

	entries, err := f.service.VoucherByNumber(ctx, reversal)
	if err != nil {
		t.Fatalf("load reversal: %v", err)
	}
	if len(entries.Entries) != 2 {
		t.Fatalf("expected 2 reversal entries, got %d", len(entries.Entries))
	}
	for _, entry := range entries.Entries {
		switch entry.AccountCode {
		case "1110":
			if entry.Side != ledger.Credit {
				t.Fatalf("Cash reversal should be CREDIT, got %s", entry.Side)
			}
		case "4101":
			if entry.Side != ledger.Debit {
				t.Fatalf("Revenue reversal should be DEBIT, got %s", entry.Side)
			}
		}
		if entry.Description != "Reversal of test" {
			t.Fatalf("unexpected reversal description: %s", entry.Description)
		}
	}

	// Every touched account returns to its pre-posting balance.
	for _, code := range []string{"1110", "4101"} {
		balance, err := f.service.AccountBalance(ctx, code, nil)
		if err != nil {
			t.Fatalf("balance %s: %v", code, err)
		}
		if !balance.IsZero() {
			t.Fatalf("expected zero balance for %s after reversal, got %s", code, balance)
		}
	}
}

func TestReverseTransactionUnknownVoucher(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.ReverseTransaction(context.Background(), "JV-999999", "", "tester")
	var notFound *ledger.VoucherNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected VoucherNotFoundError, got %v", err)
	}
	if err.Error() != "Voucher not found: JV-999999" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestReverseTransactionChecksPeriodAtReversalTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	voucher, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("1110", "4101", "300")})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	// Lock the period after posting; the reversal is dated today and must
	// now be rejected.
	f.periods.periods[0].IsLocked = true
	_, err = f.service.ReverseTransaction(ctx, voucher, "undo", "tester")
	if !errors.Is(err, fiscalperiod.ErrPeriodLocked) {
		t.Fatalf("expected locked period error at reversal time, got %v", err)
	}
}

func TestAccountBalanceAsOfDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.PostTransaction(ctx, PostRequest{
		Entries:     balancedEntries("1110", "4101", "100"),
		VoucherDate: day("2025-03-01"),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	_, err = f.service.PostTransaction(ctx, PostRequest{
		Entries:     balancedEntries("1110", "4101", "50"),
		VoucherDate: day("2025-09-01"),
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	cutoff := day("2025-06-30")
	balance, err := f.service.AccountBalance(ctx, "1110", &cutoff)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(amount("100")) {
		t.Fatalf("expected as-of balance 100, got %s", balance)
	}

	// Idempotent read: same arguments, same answer.
	again, err := f.service.AccountBalance(ctx, "1110", &cutoff)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !again.Equal(balance) {
		t.Fatalf("expected identical balance, got %s then %s", balance, again)
	}
}

func TestAccountBalanceCreditNormalShowsNegativeDelta(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("1110", "4101", "1000")}); err != nil {
		t.Fatalf("post: %v", err)
	}

	balance, err := f.service.AccountBalance(ctx, "4101", nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// The engine never normalizes sign: revenue shows debit-minus-credit.
	if !balance.Equal(amount("-1000")) {
		t.Fatalf("expected -1000 for credit-normal account, got %s", balance)
	}
}

func TestNextVoucherNumberConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const callers = 20

	var wg sync.WaitGroup
	results := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := f.service.NextVoucherNumber(ctx, "INV")
			if err != nil {
				t.Errorf("next voucher number: %v", err)
				return
			}
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for number := range results {
		if seen[number] {
			t.Fatalf("duplicate number %s", number)
		}
		seen[number] = true
	}
	if len(seen) != callers {
		t.Fatalf("expected %d distinct numbers, got %d", callers, len(seen))
	}
}

func TestPostTransactionPersistenceFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.store.appendErr = &ledger.PersistenceError{Err: errors.New("connection reset")}

	_, err := f.service.PostTransaction(context.Background(), PostRequest{Entries: balancedEntries("1110", "4101", "10")})
	var persistence *ledger.PersistenceError
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestTrialBalanceBalances(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("1110", "4101", "1000")}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := f.service.PostTransaction(ctx, PostRequest{Entries: balancedEntries("5210", "1110", "400")}); err != nil {
		t.Fatalf("post: %v", err)
	}

	tb, err := f.service.TrialBalance(ctx, nil)
	if err != nil {
		t.Fatalf("trial balance: %v", err)
	}
	if !tb.IsBalanced {
		t.Fatalf("trial balance should balance: debits %s credits %s", tb.TotalDebits, tb.TotalCredits)
	}
	if !tb.TotalDebits.Equal(amount("1000")) {
		t.Fatalf("expected total debits 1000, got %s", tb.TotalDebits)
	}

	byCode := make(map[string]TrialBalanceRow)
	for _, row := range tb.Rows {
		byCode[row.AccountCode] = row
	}
	if !byCode["1110"].DebitBalance.Equal(amount("600")) {
		t.Fatalf("expected Cash debit balance 600, got %s", byCode["1110"].DebitBalance)
	}
	if !byCode["4101"].CreditBalance.Equal(amount("1000")) {
		t.Fatalf("expected Revenue credit balance 1000, got %s", byCode["4101"].CreditBalance)
	}
	if !byCode["5210"].DebitBalance.Equal(amount("400")) {
		t.Fatalf("expected Rent debit balance 400, got %s", byCode["5210"].DebitBalance)
	}
}

func TestBalanceInvariantAcrossPostedVouchers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batches := [][]ledger.DraftEntry{
		balancedEntries("1110", "4101", "19.99"),
		{
			{AccountCode: "5210", Side: ledger.Debit, Amount: amount("150.50")},
			{AccountCode: "1110", Side: ledger.Credit, Amount: amount("100.25")},
			{AccountCode: "1110", Side: ledger.Credit, Amount: amount("50.25")},
		},
	}
	for _, entries := range batches {
		voucher, err := f.service.PostTransaction(ctx, PostRequest{Entries: entries})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		stored, err := f.service.VoucherByNumber(ctx, voucher)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		totals := sumSides(stored.Entries)
		if !totals.Debits.Equal(totals.Credits) {
			t.Fatalf("voucher %s unbalanced: %s vs %s", voucher, totals.Debits, totals.Credits)
		}
	}
}
