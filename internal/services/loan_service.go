package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/prestolend/lending-api/internal/repository"
	"github.com/prestolend/lending-api/internal/statemachine"
	"github.com/prestolend/lending-api/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DisbursementTerms are the schedule parameters fixed when a loan is
// disbursed, alongside the terms already on the loan record.
type DisbursementTerms struct {
	FirstDueDate        time.Time
	GracePeriodDays     int
	LateFeeType         string
	LateFeeRate         decimal.Decimal
	PenaltyInterestRate decimal.Decimal
}

// LoanService orchestrates loan lifecycle operations: status transitions
// with their audit trail, disbursement-time schedule generation and
// payment registration with loan-level rollups.
type LoanService struct {
	loanRepo        repository.LoanRepository
	installmentRepo repository.InstallmentRepository
	auditRepo       repository.AuditRepository
	scheduleSvc     *ScheduleService
	paymentSvc      *PaymentService
	now             func() time.Time
}

// NewLoanService creates a new loan service
func NewLoanService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	auditRepo repository.AuditRepository,
	scheduleSvc *ScheduleService,
	paymentSvc *PaymentService,
) *LoanService {
	return &LoanService{
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		auditRepo:       auditRepo,
		scheduleSvc:     scheduleSvc,
		paymentSvc:      paymentSvc,
		now:             time.Now,
	}
}

// CreateLoan validates and persists a new draft loan
func (s *LoanService) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.Principal.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidTerms)
	}
	if loan.TermPeriods < 1 {
		return fmt.Errorf("%w: term must be at least one period", ErrInvalidTerms)
	}
	if loan.AnnualInterestRate.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidTerms)
	}

	loan.Status = models.LoanStatusDraft
	loan.AmountPaid = decimal.Zero
	loan.RecalculateBalance()
	return s.loanRepo.Create(ctx, loan)
}

// GetLoan retrieves a loan by ID
func (s *LoanService) GetLoan(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: loan %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load loan: %w", err)
	}
	return loan, nil
}

// TransitionStatus moves the loan to the target status when the edge is
// legal, saves the loan under its optimistic version and records the audit
// entry. The audit row is written only after the save commits, so the
// trail never contains a transition the loan never made. On a failed save
// the in-memory loan keeps its previous status.
func (s *LoanService) TransitionStatus(ctx context.Context, loan *models.Loan, target, reason, actor string) (*models.Loan, error) {
	if loan.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrTerminalLoan, loan.Status)
	}

	from := loan.Status
	machine := statemachine.NewLoanFSM(loan)
	if err := machine.Transition(ctx, target); err != nil {
		return nil, err
	}

	if err := s.loanRepo.UpdateWithVersion(ctx, loan); err != nil {
		loan.Status = from
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	audit := &models.StatusAudit{
		LoanID:     loan.ID,
		FromStatus: from,
		ToStatus:   target,
		Reason:     reason,
		Actor:      actor,
		CreatedAt:  s.now(),
	}
	if err := s.auditRepo.Create(ctx, audit); err != nil {
		// The transition is committed; a missing audit row is a gap in
		// the trail, not a reason to report the transition as failed.
		logger.Error("failed to record status audit", "loan_id", loan.ID, "from", from, "to", target, "error", err)
	}

	logger.Info("loan status changed", "loan_id", loan.ID, "from", from, "to", target, "actor", actor)
	return loan, nil
}

// Disburse generates and persists the repayment schedule exactly once and
// moves the loan to disbursed. The schedule's shape is immutable after
// this point.
func (s *LoanService) Disburse(ctx context.Context, loan *models.Loan, terms DisbursementTerms, actor string) ([]models.Installment, error) {
	if loan.Status != models.LoanStatusReadyForDisbursement {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, loan.Status, models.LoanStatusDisbursed)
	}

	count, err := s.installmentRepo.CountByLoan(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing schedule: %w", err)
	}

	var installments []models.Installment
	if count > 0 {
		// A previous attempt persisted the schedule but lost the status
		// save, typically to a version conflict. The retry resumes with
		// the existing schedule; it is never regenerated.
		installments, err = s.installmentRepo.FindByLoan(ctx, loan.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load schedule: %w", err)
		}
		logger.Info("resuming disbursement with existing schedule", "loan_id", loan.ID, "installments", len(installments))
	} else {
		installments, err = s.scheduleSvc.GenerateSchedule(ScheduleTerms{
			LoanID:              loan.ID,
			Principal:           loan.Principal,
			AnnualRate:          loan.AnnualInterestRate,
			TermPeriods:         loan.TermPeriods,
			Frequency:           loan.Frequency,
			Method:              loan.InterestMethod,
			FirstDueDate:        terms.FirstDueDate,
			GracePeriodDays:     terms.GracePeriodDays,
			LateFeeType:         terms.LateFeeType,
			LateFeeRate:         terms.LateFeeRate,
			PenaltyInterestRate: terms.PenaltyInterestRate,
		})
		if err != nil {
			return nil, err
		}

		if err := s.installmentRepo.CreateBatch(ctx, installments); err != nil {
			return nil, fmt.Errorf("failed to persist schedule: %w", err)
		}
	}

	now := s.now()
	loan.DisbursedAt = &now
	loan.RecalculateBalance()
	if _, err := s.TransitionStatus(ctx, loan, models.LoanStatusDisbursed, "funds disbursed, schedule generated", actor); err != nil {
		return nil, err
	}

	return installments, nil
}

// RegisterPayment applies a payment to an installment, persists it, rolls
// the principal portion up to the loan and advances the loan status when
// the payment starts or finishes repayment.
func (s *LoanService) RegisterPayment(ctx context.Context, loan *models.Loan, installment *models.Installment, amount decimal.Decimal, method, reference string) (*models.Installment, models.PaymentAllocation, error) {
	var none models.PaymentAllocation

	if loan.IsTerminal() {
		return nil, none, fmt.Errorf("%w: %s", ErrTerminalLoan, loan.Status)
	}

	if _, err := s.paymentSvc.ApplyPayment(installment, amount, method, reference); err != nil {
		return nil, none, err
	}

	if err := s.installmentRepo.UpdateWithVersion(ctx, installment); err != nil {
		return nil, none, fmt.Errorf("failed to save installment: %w", err)
	}

	if loan.Status == models.LoanStatusActive {
		if _, err := s.TransitionStatus(ctx, loan, models.LoanStatusInRepayment, "first repayment received", "payment-ledger"); err != nil {
			return nil, none, err
		}
	}

	if err := s.refreshTotals(ctx, loan); err != nil {
		return nil, none, err
	}

	allocation := s.paymentSvc.Allocate(installment)
	return installment, allocation, nil
}

// refreshTotals recomputes the loan's repayment position from its
// installments and settles the loan when all of them are paid.
func (s *LoanService) refreshTotals(ctx context.Context, loan *models.Loan) error {
	installments, err := s.installmentRepo.FindByLoan(ctx, loan.ID)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	principalPaid := decimal.Zero
	allSettled := len(installments) > 0
	var lastDue time.Time
	for i := range installments {
		allocation := s.paymentSvc.Allocate(&installments[i])
		principalPaid = principalPaid.Add(allocation.PrincipalPaid)
		if !installments[i].IsSettled() && !installments[i].IsTerminal() {
			allSettled = false
		}
		if installments[i].DueDate.After(lastDue) {
			lastDue = installments[i].DueDate
		}
	}

	loan.AmountPaid = principalPaid.Round(2)
	loan.RecalculateBalance()
	if err := s.loanRepo.UpdateWithVersion(ctx, loan); err != nil {
		return fmt.Errorf("failed to save loan totals: %w", err)
	}

	if allSettled && loan.Status == models.LoanStatusInRepayment {
		target := models.LoanStatusCompleted
		if s.now().Before(lastDue) {
			target = models.LoanStatusPaidEarly
		}
		if _, err := s.TransitionStatus(ctx, loan, target, "all installments settled", "payment-ledger"); err != nil {
			return err
		}
	}
	return nil
}

// History returns the loan's status transition audit trail
func (s *LoanService) History(ctx context.Context, loanID uint) ([]models.StatusAudit, error) {
	return s.auditRepo.FindByLoan(ctx, loanID)
}
