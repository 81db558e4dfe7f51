package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan represents a funded loan and its repayment position
type Loan struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	BorrowerID         uint            `gorm:"not null;index" json:"borrower_id"`
	Principal          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"principal"`
	AnnualInterestRate decimal.Decimal `gorm:"type:decimal(8,4);not null" json:"annual_interest_rate"`
	TermPeriods        int             `gorm:"not null" json:"term_periods"`
	Frequency          string          `gorm:"default:monthly;not null" json:"frequency"`
	InterestMethod     string          `gorm:"default:reducing_balance;not null" json:"interest_method"`
	Currency           string          `gorm:"default:USD;size:3" json:"currency"`
	Status             string          `gorm:"default:draft;not null;index" json:"status"`
	AmountPaid         decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"outstanding_balance"`
	DisbursedAt        *time.Time      `gorm:"index" json:"disbursed_at"`
	LockVersion        uint            `gorm:"default:0;not null" json:"lock_version"`
	CreatedAt          time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Loan
func (Loan) TableName() string {
	return "loans"
}

// Loan status constants
const (
	LoanStatusDraft                = "draft"
	LoanStatusPending              = "pending"
	LoanStatusUnderReview          = "under_review"
	LoanStatusApproved             = "approved"
	LoanStatusFunding              = "funding"
	LoanStatusPartiallyFunded      = "partially_funded"
	LoanStatusFullyFunded          = "fully_funded"
	LoanStatusReadyForDisbursement = "ready_for_disbursement"
	LoanStatusDisbursed            = "disbursed"
	LoanStatusActive               = "active"
	LoanStatusInRepayment          = "in_repayment"
	LoanStatusOverdue              = "overdue"
	LoanStatusGracePeriod          = "grace_period"
	LoanStatusDefaulted            = "defaulted"
	LoanStatusCollections          = "collections"
	LoanStatusDisputed             = "disputed"
	LoanStatusLegalAction          = "legal_action"
	LoanStatusCounterOffered       = "counter_offered"
	LoanStatusCompleted            = "completed"
	LoanStatusPaidEarly            = "paid_early"
	LoanStatusWrittenOff           = "written_off"
	LoanStatusCancelled            = "cancelled"
	LoanStatusExpired              = "expired"
	LoanStatusWithdrawn            = "withdrawn"
	LoanStatusRejected             = "rejected"
)

// Repayment frequency constants
const (
	FrequencyWeekly    = "weekly"
	FrequencyBiweekly  = "biweekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
)

// Interest method constants
const (
	InterestMethodReducingBalance = "reducing_balance"
	InterestMethodFlat            = "flat"
	InterestMethodSimple          = "simple"
)

// terminalLoanStatuses have no outgoing transitions; a loan in one of them
// may no longer be mutated.
var terminalLoanStatuses = map[string]bool{
	LoanStatusCompleted:  true,
	LoanStatusPaidEarly:  true,
	LoanStatusWrittenOff: true,
	LoanStatusCancelled:  true,
	LoanStatusExpired:    true,
	LoanStatusWithdrawn:  true,
	LoanStatusRejected:   true,
}

// IsTerminal returns true if the loan status permits no further transitions
func (l *Loan) IsTerminal() bool {
	return terminalLoanStatuses[l.Status]
}

// IsServicing returns true when the loan is in a repayment-phase status
// touched by the penalty sweep.
func (l *Loan) IsServicing() bool {
	switch l.Status {
	case LoanStatusActive, LoanStatusInRepayment, LoanStatusOverdue, LoanStatusGracePeriod:
		return true
	}
	return false
}

// RecalculateBalance restores the outstanding balance invariant:
// outstanding = max(0, principal - amountPaid).
func (l *Loan) RecalculateBalance() {
	balance := l.Principal.Sub(l.AmountPaid)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	l.OutstandingBalance = balance.Round(2)
}

// LoanResponse is the JSON response format for loans
type LoanResponse struct {
	ID                 uint            `json:"id"`
	BorrowerID         uint            `json:"borrower_id"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	TermPeriods        int             `json:"term_periods"`
	Frequency          string          `json:"frequency"`
	InterestMethod     string          `json:"interest_method"`
	Currency           string          `json:"currency"`
	Status             string          `json:"status"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	DisbursedAt        *time.Time      `json:"disbursed_at"`
	Terminal           bool            `json:"terminal"`
}

// ToResponse converts Loan to LoanResponse
func (l *Loan) ToResponse() LoanResponse {
	return LoanResponse{
		ID:                 l.ID,
		BorrowerID:         l.BorrowerID,
		Principal:          l.Principal,
		AnnualInterestRate: l.AnnualInterestRate,
		TermPeriods:        l.TermPeriods,
		Frequency:          l.Frequency,
		InterestMethod:     l.InterestMethod,
		Currency:           l.Currency,
		Status:             l.Status,
		AmountPaid:         l.AmountPaid,
		OutstandingBalance: l.OutstandingBalance,
		DisbursedAt:        l.DisbursedAt,
		Terminal:           l.IsTerminal(),
	}
}
