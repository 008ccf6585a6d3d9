package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/prestaflow/prestaflow-api/internal/models"
)

type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// ScheduleCSV renders a loan's amortization schedule as CSV
func (s *ExportService) ScheduleCSV(ctx context.Context, loan *models.Loan) ([]byte, string, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{"Plan de Pagos", loan.Number})
	_ = writer.Write([]string{"Cliente", loan.Borrower.FullName})
	_ = writer.Write([]string{""})
	_ = writer.Write([]string{"Cuota", "Vencimiento", "Capital", "Interés", "Mora", "Total", "Pagado", "Saldo", "Estado"})

	for _, inst := range loan.Installments {
		total := inst.Principal + inst.Interest + inst.LateFee
		_ = writer.Write([]string{
			fmt.Sprintf("%d", inst.Sequence),
			inst.DueDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", inst.Principal),
			fmt.Sprintf("%.2f", inst.Interest),
			fmt.Sprintf("%.2f", inst.LateFee),
			fmt.Sprintf("%.2f", total),
			fmt.Sprintf("%.2f", inst.AmountPaid()),
			fmt.Sprintf("%.2f", inst.Outstanding()),
			inst.Status,
		})
	}

	writer.Flush()

	filename := fmt.Sprintf("plan_%s.csv", loan.Number)
	return buf.Bytes(), filename, nil
}

// ScheduleXLSX renders a loan's amortization schedule as an Excel workbook
func (s *ExportService) ScheduleXLSX(ctx context.Context, loan *models.Loan) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Plan de Pagos"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Préstamo %s", loan.Number))
	_ = f.SetCellStyle(sheet, "A1", "A1", headerStyle)
	_ = f.SetCellValue(sheet, "A2", "Cliente")
	_ = f.SetCellValue(sheet, "B2", loan.Borrower.FullName)
	_ = f.SetCellValue(sheet, "A3", "Monto")
	_ = f.SetCellValue(sheet, "B3", loan.Principal)
	_ = f.SetCellValue(sheet, "A4", "Interés Total")
	_ = f.SetCellValue(sheet, "B4", loan.TotalInterest)

	headers := []string{"Cuota", "Vencimiento", "Capital", "Interés", "Mora", "Total", "Pagado", "Saldo", "Estado"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 6)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, inst := range loan.Installments {
		values := []interface{}{
			inst.Sequence,
			inst.DueDate.Format("2006-01-02"),
			inst.Principal,
			inst.Interest,
			inst.LateFee,
			inst.Principal + inst.Interest + inst.LateFee,
			inst.AmountPaid(),
			inst.Outstanding(),
			inst.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+7)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("plan_%s.xlsx", loan.Number)
	return buf.Bytes(), filename, nil
}

// ReceiptPDF renders a payment receipt
func (s *ExportService) ReceiptPDF(ctx context.Context, payment *models.Payment) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Recibo de Pago")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Recibo No:")
	pdf.Cell(60, 8, payment.ReceiptNumber)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Fecha:")
	pdf.Cell(60, 8, payment.PaidAt.Format("2006-01-02"))
	pdf.Ln(6)

	pdf.Cell(60, 8, "Prestamo:")
	pdf.Cell(60, 8, payment.Loan.Number)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Cliente:")
	pdf.Cell(60, 8, payment.Loan.Borrower.FullName)
	pdf.Ln(6)

	pdf.Cell(60, 8, "Cuota:")
	pdf.Cell(60, 8, fmt.Sprintf("%d", payment.Installment.Sequence))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Desglose")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(60, 8, "Mora:")
	pdf.Cell(40, 8, fmt.Sprintf("%.2f %s", payment.LateFeeAmount, payment.Loan.Currency))
	pdf.Ln(6)

	pdf.Cell(60, 8, "Interes:")
	pdf.Cell(40, 8, fmt.Sprintf("%.2f %s", payment.InterestAmount, payment.Loan.Currency))
	pdf.Ln(6)

	pdf.Cell(60, 8, "Capital:")
	pdf.Cell(40, 8, fmt.Sprintf("%.2f %s", payment.PrincipalAmount, payment.Loan.Currency))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(60, 8, "Total:")
	pdf.Cell(40, 8, fmt.Sprintf("%.2f %s", payment.Amount, payment.Loan.Currency))
	pdf.Ln(10)

	if payment.IsVoided() {
		pdf.SetFont("Arial", "B", 14)
		pdf.SetTextColor(200, 0, 0)
		pdf.Cell(40, 10, "ANULADO")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(8)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("recibo_%s.pdf", payment.ReceiptNumber)
	return buf.Bytes(), filename, nil
}

// DailySummaryPDF renders the daily collection summary
func (s *ExportService) DailySummaryPDF(ctx context.Context, summary *models.DailyCollectionSummary, currency string) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Resumen de Cobranza")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	rows := []struct {
		label string
		value string
	}{
		{"Fecha:", summary.Date.Format("2006-01-02")},
		{"Pagos confirmados:", fmt.Sprintf("%d", summary.PaymentCount)},
		{"Total cobrado:", fmt.Sprintf("%.2f %s", summary.TotalCollected, currency)},
		{"Mora cobrada:", fmt.Sprintf("%.2f %s", summary.TotalLateFee, currency)},
		{"Interes cobrado:", fmt.Sprintf("%.2f %s", summary.TotalInterest, currency)},
		{"Capital cobrado:", fmt.Sprintf("%.2f %s", summary.TotalPrincipal, currency)},
		{"Pagos anulados:", fmt.Sprintf("%d (%.2f %s)", summary.VoidedCount, summary.VoidedAmount, currency)},
	}
	for _, row := range rows {
		pdf.Cell(60, 8, row.label)
		pdf.Cell(60, 8, row.value)
		pdf.Ln(6)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("cobranza_%s.pdf", summary.Date.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
