package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/prestolend/lending-api/internal/models"
	"github.com/prestolend/lending-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders repayment schedules for reporting
type ExportService struct {
	installmentRepo repository.InstallmentRepository
}

// NewExportService creates a new export service
func NewExportService(installmentRepo repository.InstallmentRepository) *ExportService {
	return &ExportService{installmentRepo: installmentRepo}
}

var scheduleHeader = []string{
	"#", "Due Date", "Principal", "Interest", "Total Due",
	"Late Fee", "Penalty Interest", "Paid", "Remaining", "Status",
}

// ScheduleCSV renders a loan's schedule as CSV
func (s *ExportService) ScheduleCSV(ctx context.Context, loan *models.Loan) ([]byte, string, error) {
	installments, err := s.installmentRepo.FindByLoan(ctx, loan.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load schedule: %w", err)
	}

	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)

	_ = writer.Write([]string{fmt.Sprintf("Repayment Schedule - Loan %d", loan.ID), time.Now().Format("2006-01-02")})
	_ = writer.Write([]string{"Principal", loan.Principal.StringFixed(2), "Rate", loan.AnnualInterestRate.StringFixed(2) + "%", "Method", loan.InterestMethod})
	_ = writer.Write([]string{""})
	_ = writer.Write(scheduleHeader)

	for i := range installments {
		_ = writer.Write(scheduleRow(&installments[i]))
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("loan_%d_schedule_%s.csv", loan.ID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// ScheduleXLSX renders a loan's schedule as an Excel workbook
func (s *ExportService) ScheduleXLSX(ctx context.Context, loan *models.Loan) ([]byte, string, error) {
	installments, err := s.installmentRepo.FindByLoan(ctx, loan.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load schedule: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Schedule"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Repayment Schedule - Loan %d", loan.ID))
	_ = f.SetCellValue(sheet, "A2", "Principal")
	_ = f.SetCellValue(sheet, "B2", loan.Principal.StringFixed(2))
	_ = f.SetCellValue(sheet, "C2", "Rate")
	_ = f.SetCellValue(sheet, "D2", loan.AnnualInterestRate.StringFixed(2)+"%")
	_ = f.SetCellValue(sheet, "E2", "Method")
	_ = f.SetCellValue(sheet, "F2", loan.InterestMethod)

	for col, title := range scheduleHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 4)
		_ = f.SetCellValue(sheet, cell, title)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i := range installments {
		row := scheduleRow(&installments[i])
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, 5+i)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("loan_%d_schedule_%s.xlsx", loan.ID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// SchedulePDF renders a printable schedule statement
func (s *ExportService) SchedulePDF(ctx context.Context, loan *models.Loan) ([]byte, string, error) {
	installments, err := s.installmentRepo.FindByLoan(ctx, loan.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load schedule: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Repayment Schedule - Loan %d", loan.ID))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Principal: %s   Rate: %s%%   Method: %s   Status: %s",
		loan.Principal.StringFixed(2), loan.AnnualInterestRate.StringFixed(2), loan.InterestMethod, loan.Status))
	pdf.Ln(12)

	widths := []float64{10, 28, 30, 30, 30, 26, 32, 28, 30, 28}
	pdf.SetFont("Arial", "B", 9)
	for i, title := range scheduleHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range installments {
		row := scheduleRow(&installments[i])
		for col, value := range row {
			align := "R"
			if col == 0 || col == 1 || col == len(row)-1 {
				align = "C"
			}
			pdf.CellFormat(widths[col], 6, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write pdf: %w", err)
	}

	filename := fmt.Sprintf("loan_%d_schedule_%s.pdf", loan.ID, time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// scheduleRow formats one installment for tabular export
func scheduleRow(installment *models.Installment) []string {
	return []string{
		fmt.Sprintf("%d", installment.Number),
		installment.DueDate.Format("2006-01-02"),
		installment.PrincipalAmount.StringFixed(2),
		installment.InterestAmount.StringFixed(2),
		installment.TotalAmountDue.StringFixed(2),
		installment.LateFeeAmount.StringFixed(2),
		installment.PenaltyInterestAmount.StringFixed(2),
		installment.AmountPaid.StringFixed(2),
		installment.RemainingBalance.StringFixed(2),
		installment.Status,
	}
}
