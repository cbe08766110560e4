package ledger

// ReferenceType discriminates which business document a voucher originated
// from. The set is closed so each business module's boundary with the ledger
// stays explicit and type-checked.
type ReferenceType string

const (
	ReferenceInvoice       ReferenceType = "invoice"
	ReferencePurchase      ReferenceType = "purchase"
	ReferencePayroll       ReferenceType = "payroll"
	ReferenceExpense       ReferenceType = "expense"
	ReferenceAsset         ReferenceType = "asset"
	ReferenceDepreciation  ReferenceType = "depreciation"
	ReferenceJournal       ReferenceType = "journal"
	ReferenceGeneralLedger ReferenceType = "general_ledger"
)

// NormalizeReferenceType validates a reference type string.
func NormalizeReferenceType(value string) (ReferenceType, bool) {
	switch ReferenceType(value) {
	case ReferenceInvoice, ReferencePurchase, ReferencePayroll, ReferenceExpense,
		ReferenceAsset, ReferenceDepreciation, ReferenceJournal, ReferenceGeneralLedger:
		return ReferenceType(value), true
	default:
		return "", false
	}
}

// Reference points back at the originating business document.
type Reference struct {
	Type ReferenceType
	ID   *int64
}
