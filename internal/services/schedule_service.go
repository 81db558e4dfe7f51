package services

import (
	"fmt"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
)

// ScheduleTerms are the inputs fixed at disbursement from which the full
// repayment schedule is derived.
type ScheduleTerms struct {
	LoanID              uint
	Principal           decimal.Decimal
	AnnualRate          decimal.Decimal
	TermPeriods         int
	Frequency           string
	Method              string
	FirstDueDate        time.Time
	GracePeriodDays     int
	LateFeeType         string
	LateFeeRate         decimal.Decimal
	PenaltyInterestRate decimal.Decimal
}

// ScheduleService generates amortization schedules
type ScheduleService struct{}

// NewScheduleService creates a new schedule service
func NewScheduleService() *ScheduleService {
	return &ScheduleService{}
}

// GenerateSchedule produces the ordered installment sequence for the given
// terms. Amounts are computed at full precision, rounded to 2 decimals per
// installment, and the final installment's principal absorbs the rounding
// residual so the schedule sums exactly to the principal.
func (s *ScheduleService) GenerateSchedule(terms ScheduleTerms) ([]models.Installment, error) {
	if err := s.validateTerms(terms); err != nil {
		return nil, err
	}

	ppy, err := periodsPerYear(terms.Frequency)
	if err != nil {
		return nil, err
	}

	periodicRate := terms.AnnualRate.Div(hundred).Div(decimal.NewFromInt(ppy))

	var principals, interests []decimal.Decimal
	switch terms.Method {
	case models.InterestMethodReducingBalance:
		principals, interests = reducingBalanceSplit(terms.Principal, periodicRate, terms.TermPeriods)
	case models.InterestMethodFlat, models.InterestMethodSimple:
		principals, interests = flatSplit(terms.Principal, periodicRate, terms.TermPeriods)
	default:
		return nil, fmt.Errorf("%w: unknown interest method %q", ErrInvalidTerms, terms.Method)
	}

	installments := make([]models.Installment, 0, terms.TermPeriods)
	rounded := decimal.Zero
	for i := 0; i < terms.TermPeriods; i++ {
		principal := principals[i].Round(2)
		if i == terms.TermPeriods-1 {
			// Force the schedule to sum exactly to the principal.
			principal = terms.Principal.Sub(rounded)
		}
		rounded = rounded.Add(principal)

		interest := interests[i].Round(2)
		total := principal.Add(interest)

		installments = append(installments, models.Installment{
			LoanID:                terms.LoanID,
			Number:                i + 1,
			TotalInstallments:     terms.TermPeriods,
			DueDate:               dueDateFor(terms.FirstDueDate, terms.Frequency, i),
			PrincipalAmount:       principal,
			InterestAmount:        interest,
			TotalAmountDue:        total,
			LateFeeAmount:         decimal.Zero,
			PenaltyInterestAmount: decimal.Zero,
			OtherCharges:          decimal.Zero,
			AmountPaid:            decimal.Zero,
			RemainingBalance:      total,
			Status:                models.InstallmentStatusPending,
			GracePeriodDays:       terms.GracePeriodDays,
			LateFeeType:           terms.LateFeeType,
			LateFeeRate:           terms.LateFeeRate,
			PenaltyInterestRate:   terms.PenaltyInterestRate,
		})
	}

	return installments, nil
}

// validateTerms rejects inputs the amortization formulas cannot handle
func (s *ScheduleService) validateTerms(terms ScheduleTerms) error {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: principal must be positive", ErrInvalidTerms)
	}
	if terms.TermPeriods < 1 {
		return fmt.Errorf("%w: term must be at least one period", ErrInvalidTerms)
	}
	if terms.AnnualRate.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidTerms)
	}
	if terms.FirstDueDate.IsZero() {
		return fmt.Errorf("%w: first due date is required", ErrInvalidTerms)
	}
	return nil
}

// reducingBalanceSplit computes the level-payment annuity split: interest
// on the running balance each period, the remainder of the fixed payment
// retiring principal.
func reducingBalanceSplit(principal, rate decimal.Decimal, n int) (principals, interests []decimal.Decimal) {
	principals = make([]decimal.Decimal, n)
	interests = make([]decimal.Decimal, n)

	if rate.IsZero() {
		even := principal.Div(decimal.NewFromInt(int64(n)))
		for i := 0; i < n; i++ {
			principals[i] = even
			interests[i] = decimal.Zero
		}
		return principals, interests
	}

	// A = P * rho * (1+rho)^n / ((1+rho)^n - 1)
	growth := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(n)))
	payment := principal.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))

	balance := principal
	for i := 0; i < n; i++ {
		interest := balance.Mul(rate)
		share := payment.Sub(interest)
		if i == n-1 {
			// Retire whatever balance is left, not the formula share.
			share = balance
		}
		principals[i] = share
		interests[i] = interest
		balance = balance.Sub(share)
	}
	return principals, interests
}

// flatSplit computes constant interest on the original principal with an
// even principal split.
func flatSplit(principal, rate decimal.Decimal, n int) (principals, interests []decimal.Decimal) {
	principals = make([]decimal.Decimal, n)
	interests = make([]decimal.Decimal, n)

	even := principal.Div(decimal.NewFromInt(int64(n)))
	interest := principal.Mul(rate)
	for i := 0; i < n; i++ {
		principals[i] = even
		interests[i] = interest
	}
	return principals, interests
}

// periodsPerYear maps a repayment frequency to its compounding periods
func periodsPerYear(frequency string) (int64, error) {
	switch frequency {
	case models.FrequencyWeekly:
		return 52, nil
	case models.FrequencyBiweekly:
		return 26, nil
	case models.FrequencyMonthly:
		return 12, nil
	case models.FrequencyQuarterly:
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: unknown repayment frequency %q", ErrInvalidTerms, frequency)
	}
}

// dueDateFor advances the first due date by i period units
func dueDateFor(first time.Time, frequency string, i int) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return first.AddDate(0, 0, 7*i)
	case models.FrequencyBiweekly:
		return first.AddDate(0, 0, 14*i)
	case models.FrequencyQuarterly:
		return first.AddDate(0, 3*i, 0)
	default:
		return first.AddDate(0, i, 0)
	}
}
