package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collateral represents an asset pledged against a loan
type Collateral struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	LoanID             uint             `gorm:"not null;index" json:"loan_id"`
	AssetType          string           `json:"asset_type"`
	AppraisedValue     decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"appraised_value"`
	ResidualValue      *decimal.Decimal `gorm:"type:decimal(15,2)" json:"residual_value"`
	Currency           string           `gorm:"default:USD;size:3" json:"currency"`
	DepreciationRate   decimal.Decimal  `gorm:"type:decimal(8,4);default:0" json:"depreciation_rate"`
	AgeYears           int              `gorm:"default:0" json:"age_years"`
	Condition          string           `gorm:"default:good" json:"condition"`
	LoanToValueRatio   decimal.Decimal  `gorm:"type:decimal(8,4);default:0" json:"loan_to_value_ratio"`
	MaxLoanAmount      decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"max_loan_amount"`
	InsuranceStatus    string           `gorm:"default:uninsured" json:"insurance_status"`
	CoverageAmount     decimal.Decimal  `gorm:"type:decimal(15,2);default:0" json:"coverage_amount"`
	InsuranceExpiresAt *time.Time       `gorm:"type:date" json:"insurance_expires_at"`
	NextInspectionDue  *time.Time       `gorm:"type:date" json:"next_inspection_due"`
	Status             string           `gorm:"default:pending;not null;index" json:"status"`
	LockVersion        uint             `gorm:"default:0;not null" json:"lock_version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Collateral
func (Collateral) TableName() string {
	return "collaterals"
}

// Collateral status constants
const (
	CollateralStatusPending     = "pending"
	CollateralStatusActive      = "active"
	CollateralStatusReleased    = "released"
	CollateralStatusSeized      = "seized"
	CollateralStatusSold        = "sold"
	CollateralStatusDamaged     = "damaged"
	CollateralStatusLost        = "lost"
	CollateralStatusUnderReview = "under_review"
)

// Collateral condition constants
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionPoor      = "poor"
)

// Insurance status constants
const (
	InsuranceStatusInsured   = "insured"
	InsuranceStatusUninsured = "uninsured"
)

// IsInsured returns true when an insurance policy is on record
func (c *Collateral) IsInsured() bool {
	return c.InsuranceStatus == InsuranceStatusInsured
}

// InsuranceExpired returns true if the recorded policy lapsed before today
func (c *Collateral) InsuranceExpired(today time.Time) bool {
	return c.InsuranceExpiresAt != nil && c.InsuranceExpiresAt.Before(today)
}

// InspectionOverdueDays returns how many days the scheduled inspection is
// past due, zero when none is scheduled or it is not yet due.
func (c *Collateral) InspectionOverdueDays(today time.Time) int {
	if c.NextInspectionDue == nil {
		return 0
	}
	return DaysBetween(*c.NextInspectionDue, today)
}

// ValuationSummary is the derived valuation and risk snapshot for a
// collateral record.
type ValuationSummary struct {
	CollateralID      uint            `json:"collateral_id"`
	CurrentValue      decimal.Decimal `json:"current_value"`
	CoverageRatio     decimal.Decimal `json:"coverage_ratio"`
	InsuranceAdequacy decimal.Decimal `json:"insurance_adequacy"`
	AdequateInsurance bool            `json:"adequate_insurance"`
	RiskScore         int             `json:"risk_score"`
}
