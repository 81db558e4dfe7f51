package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/prestolend/lending-api/internal/repository"
	"github.com/prestolend/lending-api/pkg/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var daysInYear = decimal.NewFromInt(365)

// PenaltyService computes late fees and penalty interest on overdue
// installments and runs the periodic sweep across loans.
type PenaltyService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	loanSvc         *LoanService
	maxConcurrency  int
}

// NewPenaltyService creates a new penalty service
func NewPenaltyService(loanRepo repository.LoanRepository, installmentRepo repository.InstallmentRepository, loanSvc *LoanService, maxConcurrency int) *PenaltyService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &PenaltyService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		loanSvc:         loanSvc,
		maxConcurrency:  maxConcurrency,
	}
}

// Assess recomputes overdue days, late fee and penalty interest on the
// installment for the given date. Charges are always derived from the due
// date, today and the unpaid scheduled amount, never stacked on a previous
// run's output, so repeated assessment with the same date is a no-op.
func (s *PenaltyService) Assess(installment *models.Installment, today time.Time) *models.Installment {
	if installment.IsSettled() || installment.IsTerminal() {
		return installment
	}

	daysOverdue := models.DaysBetween(installment.DueDate, today)
	installment.DaysOverdue = daysOverdue

	effectiveDays := daysOverdue - installment.GracePeriodDays
	if effectiveDays <= 0 {
		installment.LateFeeAmount = decimal.Zero
		installment.PenaltyInterestAmount = decimal.Zero
	} else {
		installment.LateFeeAmount = lateFee(installment, effectiveDays)
		installment.PenaltyInterestAmount = penaltyInterest(installment, effectiveDays)
	}

	installment.RemainingBalance = remaining(installment.TotalDue(), installment.AmountPaid)
	installment.Status = overdueStatus(installment, daysOverdue, effectiveDays)
	return installment
}

// lateFee computes the fee for the effective overdue days per the
// installment's fee policy.
func lateFee(installment *models.Installment, effectiveDays int) decimal.Decimal {
	switch installment.LateFeeType {
	case models.LateFeeTypeFixed:
		return installment.LateFeeRate.Round(2)
	case models.LateFeeTypePercentage:
		return installment.TotalAmountDue.Mul(installment.LateFeeRate).Div(hundred).Round(2)
	case models.LateFeeTypeDaily:
		return installment.LateFeeRate.Mul(decimal.NewFromInt(int64(effectiveDays))).Round(2)
	default:
		return decimal.Zero
	}
}

// penaltyInterest accrues daily on the unpaid scheduled amount. The base
// excludes previously assessed charges so recomputation never compounds.
func penaltyInterest(installment *models.Installment, effectiveDays int) decimal.Decimal {
	base := installment.TotalAmountDue.Sub(installment.AmountPaid)
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	dailyRate := installment.PenaltyInterestRate.Div(hundred).Div(daysInYear)
	return base.Mul(dailyRate).Mul(decimal.NewFromInt(int64(effectiveDays))).Round(2)
}

// overdueStatus resolves the installment status after assessment. Past the
// grace period the overdue status wins; within it a partially paid
// installment keeps its partial status. An installment handed to
// collections keeps that marker; the sweep still accrues its charges but
// does not reclaim the status from the collections actor.
func overdueStatus(installment *models.Installment, daysOverdue, effectiveDays int) string {
	if installment.Status == models.InstallmentStatusInCollection {
		return installment.Status
	}
	if effectiveDays > 0 {
		return models.InstallmentStatusOverdue
	}
	if installment.AmountPaid.GreaterThan(decimal.Zero) {
		return models.InstallmentStatusPartiallyPaid
	}
	if daysOverdue > 0 {
		return models.InstallmentStatusDue
	}
	return models.InstallmentStatusPending
}

// RunSweep assesses penalties on every unsettled installment of every
// servicing loan. Loans are independent records, so the sweep fans out
// across them; each goroutine touches only its own loan.
func (s *PenaltyService) RunSweep(ctx context.Context, today time.Time) error {
	loans, err := s.loanRepo.FindByStatuses(ctx, []string{
		models.LoanStatusActive,
		models.LoanStatusInRepayment,
		models.LoanStatusOverdue,
		models.LoanStatusGracePeriod,
	})
	if err != nil {
		return fmt.Errorf("failed to load servicing loans: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i := range loans {
		loan := loans[i]
		g.Go(func() error {
			if err := s.sweepLoan(gctx, &loan, today); err != nil {
				logger.Error("penalty sweep failed for loan", "loan_id", loan.ID, "error", err)
			}
			// Loans are independent; one failure never aborts the sweep.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("penalty sweep finished", "loans", len(loans), "date", today.Format("2006-01-02"))
	return nil
}

// sweepLoan assesses and persists every open installment of one loan and
// promotes the loan to overdue when any installment is past grace.
func (s *PenaltyService) sweepLoan(ctx context.Context, loan *models.Loan, today time.Time) error {
	installments, err := s.installmentRepo.FindUnsettledByLoan(ctx, loan.ID)
	if err != nil {
		return fmt.Errorf("failed to load installments: %w", err)
	}

	overdueCount := 0
	for i := range installments {
		installment := &installments[i]
		s.Assess(installment, today)
		if installment.Status == models.InstallmentStatusOverdue {
			overdueCount++
		}
		if err := s.installmentRepo.UpdateWithVersion(ctx, installment); err != nil {
			// A stale version means a payment landed mid-sweep; the next
			// sweep recomputes from the fresh record.
			logger.Warn("skipping installment update", "installment_id", installment.ID, "error", err)
		}
	}

	if overdueCount > 0 && (loan.Status == models.LoanStatusActive || loan.Status == models.LoanStatusInRepayment) {
		reason := fmt.Sprintf("%d installment(s) past grace period", overdueCount)
		if _, err := s.loanSvc.TransitionStatus(ctx, loan, models.LoanStatusOverdue, reason, "penalty-sweep"); err != nil {
			return fmt.Errorf("failed to mark loan overdue: %w", err)
		}
	}
	return nil
}
