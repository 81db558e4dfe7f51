package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment represents one period of a loan's repayment schedule
type Installment struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	LoanID                uint            `gorm:"not null;index" json:"loan_id"`
	Number                int             `gorm:"not null" json:"number"`
	TotalInstallments     int             `gorm:"not null" json:"total_installments"`
	DueDate               time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	PrincipalAmount       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal_amount"`
	InterestAmount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"interest_amount"`
	TotalAmountDue        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"total_amount_due"`
	LateFeeAmount         decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"late_fee_amount"`
	PenaltyInterestAmount decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"penalty_interest_amount"`
	OtherCharges          decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"other_charges"`
	AmountPaid            decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	RemainingBalance      decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"remaining_balance"`
	Status                string          `gorm:"default:pending;not null;index" json:"status"`
	DaysOverdue           int             `gorm:"default:0" json:"days_overdue"`
	GracePeriodDays       int             `gorm:"default:0" json:"grace_period_days"`
	LateFeeType           string          `gorm:"default:none" json:"late_fee_type"`
	LateFeeRate           decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"late_fee_rate"`
	PenaltyInterestRate   decimal.Decimal `gorm:"type:decimal(8,4);default:0" json:"penalty_interest_rate"`
	PaidAt                *time.Time      `gorm:"type:date" json:"paid_at"`
	PaymentMethod         *string         `json:"payment_method"`
	PaymentReference      *string         `gorm:"index" json:"payment_reference"`
	LockVersion           uint            `gorm:"default:0;not null" json:"lock_version"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Installment
func (Installment) TableName() string {
	return "installments"
}

// Installment status constants
const (
	InstallmentStatusPending       = "pending"
	InstallmentStatusDue           = "due"
	InstallmentStatusPartiallyPaid = "partially_paid"
	InstallmentStatusPaid          = "paid"
	InstallmentStatusOverdue       = "overdue"
	InstallmentStatusCancelled     = "cancelled"
	InstallmentStatusWrittenOff    = "written_off"
	InstallmentStatusInCollection  = "in_collection"
)

// Late fee type constants
const (
	LateFeeTypeNone       = "none"
	LateFeeTypeFixed      = "fixed"
	LateFeeTypePercentage = "percentage"
	LateFeeTypeDaily      = "daily"
)

// TotalDue returns the full amount owed on the installment including
// accrued late fees, penalty interest and other charges.
func (i *Installment) TotalDue() decimal.Decimal {
	return i.TotalAmountDue.
		Add(i.LateFeeAmount).
		Add(i.PenaltyInterestAmount).
		Add(i.OtherCharges)
}

// TotalCharges returns the sum of non-scheduled charges on the installment
func (i *Installment) TotalCharges() decimal.Decimal {
	return i.LateFeeAmount.Add(i.PenaltyInterestAmount).Add(i.OtherCharges)
}

// IsSettled returns true once the installment is fully paid
func (i *Installment) IsSettled() bool {
	return i.Status == InstallmentStatusPaid
}

// IsTerminal returns true if the installment can no longer receive payments
func (i *Installment) IsTerminal() bool {
	return i.Status == InstallmentStatusCancelled || i.Status == InstallmentStatusWrittenOff
}

// IsOverdue returns true if the installment is unsettled past its due date
func (i *Installment) IsOverdue(today time.Time) bool {
	if i.IsSettled() || i.IsTerminal() {
		return false
	}
	return DaysBetween(i.DueDate, today) > 0
}

// DaysBetween returns the whole days elapsed from one date to another,
// never negative. Both arguments are truncated to their calendar date.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	days := int(t.Sub(f).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// PaymentAllocation is the ratio-based breakdown of amounts paid on an
// installment, used for reporting. It is derived, never stored.
type PaymentAllocation struct {
	PrincipalPaid decimal.Decimal `json:"principal_paid"`
	InterestPaid  decimal.Decimal `json:"interest_paid"`
	ChargesPaid   decimal.Decimal `json:"charges_paid"`
}

// Total returns the sum of the allocation components
func (a PaymentAllocation) Total() decimal.Decimal {
	return a.PrincipalPaid.Add(a.InterestPaid).Add(a.ChargesPaid)
}

// InstallmentResponse is the JSON response format for installments
type InstallmentResponse struct {
	ID                    uint            `json:"id"`
	LoanID                uint            `json:"loan_id"`
	Number                int             `json:"number"`
	TotalInstallments     int             `json:"total_installments"`
	DueDate               time.Time       `json:"due_date"`
	PrincipalAmount       decimal.Decimal `json:"principal_amount"`
	InterestAmount        decimal.Decimal `json:"interest_amount"`
	TotalAmountDue        decimal.Decimal `json:"total_amount_due"`
	LateFeeAmount         decimal.Decimal `json:"late_fee_amount"`
	PenaltyInterestAmount decimal.Decimal `json:"penalty_interest_amount"`
	OtherCharges          decimal.Decimal `json:"other_charges"`
	AmountPaid            decimal.Decimal `json:"amount_paid"`
	RemainingBalance      decimal.Decimal `json:"remaining_balance"`
	Status                string          `json:"status"`
	DaysOverdue           int             `json:"days_overdue"`
	PaidAt                *time.Time      `json:"paid_at"`
	PaymentReference      *string         `json:"payment_reference"`
}

// ToResponse converts Installment to InstallmentResponse
func (i *Installment) ToResponse() InstallmentResponse {
	return InstallmentResponse{
		ID:                    i.ID,
		LoanID:                i.LoanID,
		Number:                i.Number,
		TotalInstallments:     i.TotalInstallments,
		DueDate:               i.DueDate,
		PrincipalAmount:       i.PrincipalAmount,
		InterestAmount:        i.InterestAmount,
		TotalAmountDue:        i.TotalAmountDue,
		LateFeeAmount:         i.LateFeeAmount,
		PenaltyInterestAmount: i.PenaltyInterestAmount,
		OtherCharges:          i.OtherCharges,
		AmountPaid:            i.AmountPaid,
		RemainingBalance:      i.RemainingBalance,
		Status:                i.Status,
		DaysOverdue:           i.DaysOverdue,
		PaidAt:                i.PaidAt,
		PaymentReference:      i.PaymentReference,
	}
}
