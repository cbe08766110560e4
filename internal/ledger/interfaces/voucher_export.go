package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	fiscalperiod "erp-ledger/internal/fiscalperiod/domain"
	"erp-ledger/internal/ledger/application"
	ledger "erp-ledger/internal/ledger/domain"

	"github.com/shopspring/decimal"
)

// BuildVoucherPDF renders a minimal PDF for a journal voucher.
func BuildVoucherPDF(voucher *ledger.Voucher) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Journal Voucher")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Voucher: %s", voucher.VoucherNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", voucher.VoucherDate.Format(fiscalperiod.DateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Posted by: %s", voucher.CreatedBy))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Posted at: %s", voucher.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	// Entries table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Account", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Description", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Debit", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Credit", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)

	debits := decimal.Zero
	credits := decimal.Zero
	for _, entry := range voucher.Entries {
		debit, credit := "", ""
		if entry.Side == ledger.Debit {
			debit = entry.Amount.StringFixed(2)
			debits = debits.Add(entry.Amount)
		} else {
			credit = entry.Amount.StringFixed(2)
			credits = credits.Add(entry.Amount)
		}
		pdf.CellFormat(25, 6, entry.AccountCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 6, entry.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, debit, "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, credit, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, debits.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, credits.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildTrialBalanceXLSX renders a minimal XLSX for a trial balance.
func BuildTrialBalanceXLSX(report *application.TrialBalance, asOf *time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "trial balance"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Trial Balance")
	if asOf != nil {
		_ = f.SetCellValue(sheet, "B1", "As of "+asOf.Format(fiscalperiod.DateLayout))
	}

	_ = f.SetCellValue(sheet, "A3", "Code")
	_ = f.SetCellValue(sheet, "B3", "Account")
	_ = f.SetCellValue(sheet, "C3", "Type")
	_ = f.SetCellValue(sheet, "D3", "Debit")
	_ = f.SetCellValue(sheet, "E3", "Credit")
	for i, row := range report.Rows {
		line := i + 4
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", line), row.AccountCode)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", line), row.AccountName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", line), string(row.AccountType))
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", line), row.DebitBalance.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", line), row.CreditBalance.InexactFloat64())
	}

	totalsLine := len(report.Rows) + 5
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsLine), "Totals")
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", totalsLine), report.TotalDebits.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", totalsLine), report.TotalCredits.InexactFloat64())
	_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsLine+1), "Balanced")
	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsLine+1), report.IsBalanced)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
