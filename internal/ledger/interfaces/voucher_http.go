package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	accounts "erp-ledger/internal/accounts/domain"
	"erp-ledger/internal/audit"
	"erp-ledger/internal/auth"
	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	"erp-ledger/internal/ledger/application"
	ledger "erp-ledger/internal/ledger/domain"
	"erp-ledger/internal/observability/metrics"
)

// VoucherHandler handles the journal voucher, balance and reporting APIs.
type VoucherHandler struct {
	service     *application.PostingService
	auditLogger audit.Logger
}

// NewVoucherHandler constructs a handler.
func NewVoucherHandler(service *application.PostingService, auditLogger audit.Logger) (*VoucherHandler, error) {
	if service == nil {
		return nil, errors.New("voucher handler: nil service")
	}
	return &VoucherHandler{service: service, auditLogger: auditLogger}, nil
}

type entryRequest struct {
	AccountCode string          `json:"account_code"`
	EntryType   string          `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type postVoucherRequest struct {
	Entries       []entryRequest `json:"entries"`
	ReferenceType string         `json:"reference_type"`
	ReferenceID   *int64         `json:"reference_id"`
	VoucherNumber string         `json:"voucher_number"`
	VoucherDate   string         `json:"voucher_date"`
	Prefix        string         `json:"prefix"`
}

type entryResponse struct {
	ID            int64           `json:"id"`
	AccountCode   string          `json:"account_code"`
	EntryType     ledger.EntrySide `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"reference_type,omitempty"`
	ReferenceID   *int64          `json:"reference_id,omitempty"`
	CreatedBy     string          `json:"created_by"`
}

type voucherResponse struct {
	VoucherNumber string          `json:"voucher_number"`
	VoucherDate   string          `json:"voucher_date"`
	Entries       []entryResponse `json:"entries"`
}

// ServeHTTP handles routes under /api/v1.
func (h *VoucherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/api/v1/journal-vouchers" {
		switch r.Method {
		case http.MethodPost:
			h.handlePost(w, r)
			return
		case http.MethodGet:
			h.handleList(w, r)
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/journal-vouchers/") {
		h.handleByNumber(w, r, strings.TrimPrefix(path, "/api/v1/journal-vouchers/"))
		return
	}
	if path == "/api/v1/voucher-numbers/next" && r.Method == http.MethodGet {
		h.handleNextNumber(w, r)
		return
	}
	if strings.HasPrefix(path, "/api/v1/accounts/") {
		rest := strings.TrimPrefix(path, "/api/v1/accounts/")
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[1] == "balance" && r.Method == http.MethodGet {
			h.handleBalance(w, r, parts[0])
			return
		}
	}
	if strings.HasPrefix(path, "/api/v1/reports/trial-balance") && r.Method == http.MethodGet {
		switch strings.TrimPrefix(path, "/api/v1/reports/trial-balance") {
		case "":
			h.handleTrialBalance(w, r)
			return
		case "/export.xlsx":
			h.handleTrialBalanceXLSX(w, r)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *VoucherHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObservePosting(result, time.Since(start))
	}()

	var req postVoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		result = metrics.ResultError
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	post := application.PostRequest{
		VoucherNumber: req.VoucherNumber,
		Prefix:        req.Prefix,
		CreatedBy:     actorFromContext(r),
	}
	if req.VoucherDate != "" {
		date, err := time.Parse(fiscalperiod.DateLayout, req.VoucherDate)
		if err != nil {
			result = metrics.ResultError
			http.Error(w, "invalid voucher_date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		post.VoucherDate = date
	}
	if req.ReferenceType != "" {
		refType, ok := ledger.NormalizeReferenceType(req.ReferenceType)
		if !ok {
			result = metrics.ResultError
			http.Error(w, "invalid reference_type", http.StatusBadRequest)
			return
		}
		post.Reference = &ledger.Reference{Type: refType, ID: req.ReferenceID}
	}
	for _, entry := range req.Entries {
		post.Entries = append(post.Entries, ledger.DraftEntry{
			AccountCode: entry.AccountCode,
			Side:        ledger.EntrySide(entry.EntryType),
			Amount:      entry.Amount,
			Description: entry.Description,
		})
	}

	voucherNumber, err := h.service.PostTransaction(r.Context(), post)
	if err != nil {
		result = metrics.ResultError
		respondLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"voucher_number": voucherNumber,
		"entry_count":    len(post.Entries),
	})
	h.logAudit(r, voucherNumber, "voucher.post", map[string]any{
		"entry_count":    len(post.Entries),
		"reference_type": req.ReferenceType,
	})
}

func (h *VoucherHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := application.VoucherFilter{
		VoucherNumber: query.Get("voucher_number"),
	}
	filter.Page, _ = strconv.Atoi(query.Get("page"))
	filter.PerPage, _ = strconv.Atoi(query.Get("per_page"))

	vouchers, total, err := h.service.ListVouchers(r.Context(), filter)
	if err != nil {
		respondLedgerError(w, err)
		return
	}

	items := make([]voucherResponse, 0, len(vouchers))
	for i := range vouchers {
		items = append(items, toVoucherResponse(&vouchers[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"vouchers": items,
		"total":    total,
	})
}

func (h *VoucherHandler) handleByNumber(w http.ResponseWriter, r *http.Request, rest string) {
	if rest == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(rest, "/")
	number := parts[0]
	if len(parts) == 1 && r.Method == http.MethodGet {
		h.handleGet(w, r, number)
		return
	}
	if len(parts) == 2 {
		switch parts[1] {
		case "reverse":
			if r.Method == http.MethodPost {
				h.handleReverse(w, r, number)
				return
			}
		case "export.pdf":
			if r.Method == http.MethodGet {
				h.handleExportPDF(w, r, number)
				return
			}
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (h *VoucherHandler) handleGet(w http.ResponseWriter, r *http.Request, number string) {
	voucher, err := h.service.VoucherByNumber(r.Context(), number)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toVoucherResponse(voucher))
}

func (h *VoucherHandler) handleReverse(w http.ResponseWriter, r *http.Request, number string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReversal(result, time.Since(start))
	}()

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	reversalNumber, err := h.service.ReverseTransaction(r.Context(), number, req.Reason, actorFromContext(r))
	if err != nil {
		result = metrics.ResultError
		respondLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"voucher_number":  number,
		"reversal_number": reversalNumber,
	})
	h.logAudit(r, number, "voucher.reverse", map[string]any{
		"reversal_number": reversalNumber,
		"reason":          req.Reason,
	})
}

func (h *VoucherHandler) handleNextNumber(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	number, err := h.service.NextVoucherNumber(r.Context(), prefix)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	metrics.IncVoucherNumberAllocated(prefix)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"voucher_number": number,
	})
}

func (h *VoucherHandler) handleBalance(w http.ResponseWriter, r *http.Request, code string) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	metrics.IncBalanceQuery()

	balance, err := h.service.AccountBalance(r.Context(), code, asOf)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	resp := map[string]any{
		"account_code": code,
		"balance":      balance,
	}
	if asOf != nil {
		resp["as_of"] = asOf.Format(fiscalperiod.DateLayout)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *VoucherHandler) handleTrialBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	report, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		respondLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}

func (h *VoucherHandler) handleExportPDF(w http.ResponseWriter, r *http.Request, number string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	voucher, err := h.service.VoucherByNumber(r.Context(), number)
	if err != nil {
		result = metrics.ResultError
		respondLedgerError(w, err)
		return
	}
	data, err := BuildVoucherPDF(voucher)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, number, "voucher.export", map[string]any{"format": "pdf"})
}

func (h *VoucherHandler) handleTrialBalanceXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	asOf, ok := parseAsOf(w, r)
	if !ok {
		result = metrics.ResultError
		return
	}
	report, err := h.service.TrialBalance(r.Context(), asOf)
	if err != nil {
		result = metrics.ResultError
		respondLedgerError(w, err)
		return
	}
	data, err := BuildTrialBalanceXLSX(report, asOf)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "trial-balance", "report.export", map[string]any{"format": "xlsx"})
}

func (h *VoucherHandler) logAudit(r *http.Request, voucherNumber, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	role, _ := auth.RoleFromContext(r.Context())
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        actorFromContext(r),
		Role:         string(role),
		Action:       action,
		ResourceType: "journal_voucher",
		ResourceID:   voucherNumber,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func toVoucherResponse(voucher *ledger.Voucher) voucherResponse {
	resp := voucherResponse{
		VoucherNumber: voucher.VoucherNumber,
		VoucherDate:   voucher.VoucherDate.Format(fiscalperiod.DateLayout),
		Entries:       make([]entryResponse, 0, len(voucher.Entries)),
	}
	for _, entry := range voucher.Entries {
		item := entryResponse{
			ID:          entry.ID,
			AccountCode: entry.AccountCode,
			EntryType:   entry.Side,
			Amount:      entry.Amount,
			Description: entry.Description,
			CreatedBy:   entry.CreatedBy,
		}
		if entry.Reference != nil {
			item.ReferenceType = string(entry.Reference.Type)
			item.ReferenceID = entry.Reference.ID
		}
		resp.Entries = append(resp.Entries, item)
	}
	return resp
}

func actorFromContext(r *http.Request) string {
	if username, ok := auth.UsernameFromContext(r.Context()); ok {
		return username
	}
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return userID
	}
	return "system"
}

func parseAsOf(w http.ResponseWriter, r *http.Request) (*time.Time, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return nil, true
	}
	date, err := time.Parse(fiscalperiod.DateLayout, raw)
	if err != nil {
		http.Error(w, "invalid as_of, expected YYYY-MM-DD", http.StatusBadRequest)
		return nil, false
	}
	return &date, true
}

// respondLedgerError maps domain errors to HTTP statuses. Validation and
// period violations are 422 so clients can distinguish rule failures from
// malformed requests.
func respondLedgerError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	status := http.StatusInternalServerError
	var validation *ledger.ValidationError
	var accountNotFound *accounts.NotFoundError
	var periodNotFound *fiscalperiod.NotFoundError
	var voucherNotFound *ledger.VoucherNotFoundError

	switch {
	case errors.As(err, &validation),
		errors.As(err, &accountNotFound),
		errors.As(err, &periodNotFound),
		errors.Is(err, fiscalperiod.ErrPeriodLocked),
		errors.Is(err, fiscalperiod.ErrPeriodClosed):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &voucherNotFound):
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
