package services

import (
	"context"
	"testing"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overdueInstallment(dueDate time.Time) *models.Installment {
	return &models.Installment{
		ID:                  1,
		LoanID:              1,
		Number:              1,
		TotalInstallments:   12,
		DueDate:             dueDate,
		PrincipalAmount:     decimal.NewFromInt(800),
		InterestAmount:      decimal.NewFromInt(200),
		TotalAmountDue:      decimal.NewFromInt(1000),
		RemainingBalance:    decimal.NewFromInt(1000),
		AmountPaid:          decimal.Zero,
		Status:              models.InstallmentStatusPending,
		GracePeriodDays:     5,
		LateFeeType:         models.LateFeeTypeDaily,
		LateFeeRate:         decimal.NewFromInt(10),
		PenaltyInterestRate: decimal.Zero,
	}
}

func newPenaltyFixture() (*PenaltyService, *mockLoanRepository, *mockInstallmentRepository, *mockAuditRepository) {
	loanRepo := newMockLoanRepository()
	installmentRepo := newMockInstallmentRepository()
	auditRepo := &mockAuditRepository{}
	loanSvc := NewLoanService(loanRepo, installmentRepo, auditRepo, NewScheduleService(), NewPaymentService())
	return NewPenaltyService(loanRepo, installmentRepo, loanSvc, 4), loanRepo, installmentRepo, auditRepo
}

func TestAssess_DailyLateFeeAfterGrace(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -10))

	svc.Assess(installment, today)

	// 10 days overdue minus 5 grace days at 10 per day.
	assert.Equal(t, 10, installment.DaysOverdue)
	assert.Equal(t, "50.00", installment.LateFeeAmount.StringFixed(2))
	assert.Equal(t, models.InstallmentStatusOverdue, installment.Status)
	assert.Equal(t, "1050.00", installment.RemainingBalance.StringFixed(2))
}

func TestAssess_FixedAndPercentageLateFees(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()
	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	fixed := overdueInstallment(today.AddDate(0, 0, -10))
	fixed.LateFeeType = models.LateFeeTypeFixed
	fixed.LateFeeRate = decimal.NewFromInt(25)
	svc.Assess(fixed, today)
	assert.Equal(t, "25.00", fixed.LateFeeAmount.StringFixed(2))

	pct := overdueInstallment(today.AddDate(0, 0, -10))
	pct.LateFeeType = models.LateFeeTypePercentage
	pct.LateFeeRate = decimal.NewFromInt(5)
	svc.Assess(pct, today)
	assert.Equal(t, "50.00", pct.LateFeeAmount.StringFixed(2))

	none := overdueInstallment(today.AddDate(0, 0, -10))
	none.LateFeeType = models.LateFeeTypeNone
	svc.Assess(none, today)
	assert.True(t, none.LateFeeAmount.IsZero())
}

func TestAssess_PenaltyInterestDailyAccrual(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -10))
	installment.LateFeeType = models.LateFeeTypeNone
	installment.PenaltyInterestRate = decimal.NewFromFloat(36.5)

	svc.Assess(installment, today)

	// 1000 * (36.5/100/365) * 5 effective days = 5.00.
	assert.Equal(t, "5.00", installment.PenaltyInterestAmount.StringFixed(2))
}

func TestAssess_PenaltyInterestOnUnpaidPortionOnly(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -10))
	installment.LateFeeType = models.LateFeeTypeNone
	installment.PenaltyInterestRate = decimal.NewFromFloat(36.5)
	installment.AmountPaid = decimal.NewFromInt(600)
	installment.Status = models.InstallmentStatusPartiallyPaid

	svc.Assess(installment, today)

	// 400 unpaid * 0.001 * 5 days = 2.00.
	assert.Equal(t, "2.00", installment.PenaltyInterestAmount.StringFixed(2))
	assert.Equal(t, models.InstallmentStatusOverdue, installment.Status)
}

func TestAssess_WithinGracePeriod(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -3))

	svc.Assess(installment, today)

	assert.Equal(t, 3, installment.DaysOverdue)
	assert.True(t, installment.LateFeeAmount.IsZero())
	assert.True(t, installment.PenaltyInterestAmount.IsZero())
	assert.Equal(t, models.InstallmentStatusDue, installment.Status)
}

func TestAssess_Idempotent(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -10))
	installment.PenaltyInterestRate = decimal.NewFromFloat(36.5)

	svc.Assess(installment, today)
	firstFee := installment.LateFeeAmount
	firstPenalty := installment.PenaltyInterestAmount
	firstBalance := installment.RemainingBalance

	svc.Assess(installment, today)
	assert.True(t, installment.LateFeeAmount.Equal(firstFee))
	assert.True(t, installment.PenaltyInterestAmount.Equal(firstPenalty))
	assert.True(t, installment.RemainingBalance.Equal(firstBalance))

	svc.Assess(installment, today)
	assert.True(t, installment.LateFeeAmount.Equal(firstFee))
}

func TestAssess_KeepsCollectionMarker(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	installment := overdueInstallment(today.AddDate(0, 0, -10))
	installment.Status = models.InstallmentStatusInCollection

	svc.Assess(installment, today)

	// Charges keep accruing but the status set by the collections actor
	// is not reclaimed.
	assert.Equal(t, models.InstallmentStatusInCollection, installment.Status)
	assert.Equal(t, "50.00", installment.LateFeeAmount.StringFixed(2))
}

func TestAssess_SkipsSettledAndTerminal(t *testing.T) {
	svc, _, _, _ := newPenaltyFixture()
	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	paid := overdueInstallment(today.AddDate(0, 0, -10))
	paid.Status = models.InstallmentStatusPaid
	svc.Assess(paid, today)
	assert.True(t, paid.LateFeeAmount.IsZero())
	assert.Equal(t, models.InstallmentStatusPaid, paid.Status)

	written := overdueInstallment(today.AddDate(0, 0, -10))
	written.Status = models.InstallmentStatusWrittenOff
	svc.Assess(written, today)
	assert.True(t, written.LateFeeAmount.IsZero())
	assert.Equal(t, models.InstallmentStatusWrittenOff, written.Status)
}

func TestRunSweep_PromotesLoanToOverdue(t *testing.T) {
	svc, loanRepo, installmentRepo, auditRepo := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	loan := loanRepo.add(models.Loan{
		Principal:          decimal.NewFromInt(12000),
		AnnualInterestRate: decimal.NewFromInt(12),
		TermPeriods:        12,
		Frequency:          models.FrequencyMonthly,
		InterestMethod:     models.InterestMethodReducingBalance,
		Status:             models.LoanStatusInRepayment,
	})

	installment := overdueInstallment(today.AddDate(0, 0, -10))
	installment.LoanID = loan.ID
	installmentRepo.add(*installment)

	err := svc.RunSweep(context.Background(), today)
	require.NoError(t, err)

	stored, err := loanRepo.FindByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, stored.Status)

	swept, err := installmentRepo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "50.00", swept.LateFeeAmount.StringFixed(2))
	assert.Equal(t, models.InstallmentStatusOverdue, swept.Status)

	history, err := auditRepo.FindByLoan(context.Background(), loan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.LoanStatusInRepayment, history[0].FromStatus)
	assert.Equal(t, models.LoanStatusOverdue, history[0].ToStatus)
	assert.Equal(t, "penalty-sweep", history[0].Actor)
}

func TestRunSweep_LeavesCurrentLoansAlone(t *testing.T) {
	svc, loanRepo, installmentRepo, _ := newPenaltyFixture()

	today := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	loan := loanRepo.add(models.Loan{
		Principal:   decimal.NewFromInt(12000),
		TermPeriods: 12,
		Status:      models.LoanStatusInRepayment,
	})

	// Due within grace, so no promotion.
	installment := overdueInstallment(today.AddDate(0, 0, -2))
	installment.LoanID = loan.ID
	installmentRepo.add(*installment)

	err := svc.RunSweep(context.Background(), today)
	require.NoError(t, err)

	stored, err := loanRepo.FindByID(context.Background(), loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusInRepayment, stored.Status)
}
