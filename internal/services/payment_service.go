package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prestolend/lending-api/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentService applies payments to schedule installments
type PaymentService struct {
	now func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService() *PaymentService {
	return &PaymentService{now: time.Now}
}

// ApplyPayment applies a payment amount to an installment, updating paid
// totals, remaining balance and status. The installment is mutated only on
// success. Overpayments are rejected; splitting across installments is the
// caller's concern.
func (s *PaymentService) ApplyPayment(installment *models.Installment, amount decimal.Decimal, method, reference string) (*models.Installment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.StringFixed(2))
	}

	switch installment.Status {
	case models.InstallmentStatusPaid:
		return nil, fmt.Errorf("%w: installment %d", ErrAlreadyPaid, installment.Number)
	case models.InstallmentStatusCancelled:
		return nil, fmt.Errorf("%w: installment %d", ErrCancelled, installment.Number)
	case models.InstallmentStatusWrittenOff:
		return nil, fmt.Errorf("%w: installment %d", ErrWrittenOff, installment.Number)
	}

	totalDue := installment.TotalDue()
	if installment.AmountPaid.Add(amount).GreaterThan(totalDue) {
		return nil, fmt.Errorf("%w: %s paid + %s exceeds %s due",
			ErrOverpayment, installment.AmountPaid.StringFixed(2), amount.StringFixed(2), totalDue.StringFixed(2))
	}

	if reference == "" {
		reference = uuid.NewString()
	}

	now := s.now()
	installment.AmountPaid = installment.AmountPaid.Add(amount)
	installment.RemainingBalance = remaining(totalDue, installment.AmountPaid)
	installment.PaymentMethod = &method
	installment.PaymentReference = &reference
	installment.Status = s.statusFor(installment, totalDue, now)
	if installment.Status == models.InstallmentStatusPaid {
		installment.PaidAt = &now
	}

	return installment, nil
}

// statusFor recomputes the installment status after a payment
func (s *PaymentService) statusFor(installment *models.Installment, totalDue decimal.Decimal, now time.Time) string {
	switch {
	case installment.AmountPaid.GreaterThanOrEqual(totalDue):
		return models.InstallmentStatusPaid
	case installment.AmountPaid.GreaterThan(decimal.Zero):
		return models.InstallmentStatusPartiallyPaid
	}

	daysOverdue := models.DaysBetween(installment.DueDate, now)
	switch {
	case daysOverdue > installment.GracePeriodDays:
		return models.InstallmentStatusOverdue
	case daysOverdue > 0:
		return models.InstallmentStatusDue
	default:
		return models.InstallmentStatusPending
	}
}

// Allocate returns the ratio-based breakdown of everything paid on the
// installment so far. Principal and interest shares are proportional to
// their weight in the scheduled amount, not consumed FIFO by component;
// the charges share is the rounding remainder, capped at total charges.
func (s *PaymentService) Allocate(installment *models.Installment) models.PaymentAllocation {
	if installment.TotalAmountDue.LessThanOrEqual(decimal.Zero) || installment.AmountPaid.LessThanOrEqual(decimal.Zero) {
		return models.PaymentAllocation{
			PrincipalPaid: decimal.Zero,
			InterestPaid:  decimal.Zero,
			ChargesPaid:   decimal.Zero,
		}
	}

	principalPaid := installment.AmountPaid.
		Mul(installment.PrincipalAmount).
		Div(installment.TotalAmountDue).
		Round(2)
	interestPaid := installment.AmountPaid.
		Mul(installment.InterestAmount).
		Div(installment.TotalAmountDue).
		Round(2)

	chargesPaid := installment.AmountPaid.Sub(principalPaid).Sub(interestPaid)
	if totalCharges := installment.TotalCharges(); chargesPaid.GreaterThan(totalCharges) {
		chargesPaid = totalCharges
	}
	if chargesPaid.IsNegative() {
		chargesPaid = decimal.Zero
	}

	return models.PaymentAllocation{
		PrincipalPaid: principalPaid,
		InterestPaid:  interestPaid,
		ChargesPaid:   chargesPaid.Round(2),
	}
}

// remaining clamps the unpaid balance at zero
func remaining(totalDue, amountPaid decimal.Decimal) decimal.Decimal {
	balance := totalDue.Sub(amountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance.Round(2)
}
