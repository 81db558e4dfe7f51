package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportFixture(t *testing.T) (*ExportService, *models.Loan) {
	t.Helper()

	installmentRepo := newMockInstallmentRepository()
	loan := &models.Loan{
		ID:                 1,
		Principal:          decimal.NewFromInt(2000),
		AnnualInterestRate: decimal.NewFromInt(12),
		InterestMethod:     models.InterestMethodReducingBalance,
		Status:             models.LoanStatusInRepayment,
	}

	installmentRepo.add(models.Installment{
		LoanID:           loan.ID,
		Number:           1,
		DueDate:          time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PrincipalAmount:  decimal.NewFromInt(990),
		InterestAmount:   decimal.NewFromInt(20),
		TotalAmountDue:   decimal.NewFromInt(1010),
		AmountPaid:       decimal.NewFromInt(1010),
		RemainingBalance: decimal.Zero,
		Status:           models.InstallmentStatusPaid,
	})
	installmentRepo.add(models.Installment{
		LoanID:           loan.ID,
		Number:           2,
		DueDate:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PrincipalAmount:  decimal.NewFromInt(1010),
		InterestAmount:   decimal.NewFromFloat(10.10),
		TotalAmountDue:   decimal.NewFromFloat(1020.10),
		RemainingBalance: decimal.NewFromFloat(1020.10),
		Status:           models.InstallmentStatusPending,
	})

	return NewExportService(installmentRepo), loan
}

func TestScheduleCSV(t *testing.T) {
	svc, loan := exportFixture(t)

	data, filename, err := svc.ScheduleCSV(context.Background(), loan)
	require.NoError(t, err)

	assert.Contains(t, filename, "loan_1_schedule_")
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	content := string(data)
	assert.Contains(t, content, "Repayment Schedule - Loan 1")
	assert.Contains(t, content, "Due Date")
	assert.Contains(t, content, "1,2026-02-01,990.00,20.00,1010.00")
	assert.Contains(t, content, "2,2026-03-01,1010.00,10.10,1020.10")
	assert.Contains(t, content, models.InstallmentStatusPaid)
}

func TestScheduleXLSX(t *testing.T) {
	svc, loan := exportFixture(t)

	data, filename, err := svc.ScheduleXLSX(context.Background(), loan)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer workbook.Close()

	title, err := workbook.GetCellValue("Schedule", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Repayment Schedule - Loan 1", title)

	principal, err := workbook.GetCellValue("Schedule", "C5")
	require.NoError(t, err)
	assert.Equal(t, "990.00", principal)

	status, err := workbook.GetCellValue("Schedule", "J6")
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusPending, status)
}

func TestSchedulePDF(t *testing.T) {
	svc, loan := exportFixture(t)

	data, filename, err := svc.SchedulePDF(context.Background(), loan)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
