package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/prestolend/lending-api/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	maxRiskScore          = 100
	adequateInsurancePct  = 90
	inspectionPenaltyCap  = 20
	inspectionPenaltyRate = 2
)

// CollateralService derives valuation, coverage and risk figures from
// collateral records.
type CollateralService struct {
	collateralRepo repository.CollateralRepository
	now            func() time.Time
}

// NewCollateralService creates a new collateral service
func NewCollateralService(collateralRepo repository.CollateralRepository) *CollateralService {
	return &CollateralService{
		collateralRepo: collateralRepo,
		now:            time.Now,
	}
}

// Evaluate computes the valuation snapshot for a collateral record
func (s *CollateralService) Evaluate(collateral *models.Collateral) models.ValuationSummary {
	today := s.now()

	currentValue := s.CurrentValue(collateral)
	adequacy := insuranceAdequacy(collateral, currentValue)

	return models.ValuationSummary{
		CollateralID:      collateral.ID,
		CurrentValue:      currentValue,
		CoverageRatio:     coverageRatio(collateral),
		InsuranceAdequacy: adequacy,
		AdequateInsurance: adequacy.GreaterThanOrEqual(decimal.NewFromInt(adequateInsurancePct)),
		RiskScore:         s.RiskScore(collateral, today),
	}
}

// EvaluateByID loads the collateral record and evaluates it
func (s *CollateralService) EvaluateByID(ctx context.Context, id uint) (*models.ValuationSummary, error) {
	collateral, err := s.collateralRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: collateral %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load collateral: %w", err)
	}

	summary := s.Evaluate(collateral)
	return &summary, nil
}

// EvaluateLoanCollateral evaluates every collateral record pledged against
// a loan.
func (s *CollateralService) EvaluateLoanCollateral(ctx context.Context, loanID uint) ([]models.ValuationSummary, error) {
	collaterals, err := s.collateralRepo.FindByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loan collateral: %w", err)
	}

	summaries := make([]models.ValuationSummary, 0, len(collaterals))
	for i := range collaterals {
		summaries = append(summaries, s.Evaluate(&collaterals[i]))
	}
	return summaries, nil
}

// CurrentValue returns the residual value when one is recorded, otherwise
// the appraised value straight-line depreciated by age, floored at zero.
func (s *CollateralService) CurrentValue(collateral *models.Collateral) decimal.Decimal {
	if collateral.ResidualValue != nil {
		return collateral.ResidualValue.Round(2)
	}

	depreciation := collateral.AppraisedValue.
		Mul(collateral.DepreciationRate).
		Mul(decimal.NewFromInt(int64(collateral.AgeYears))).
		Div(hundred)
	value := collateral.AppraisedValue.Sub(depreciation)
	if value.IsNegative() {
		return decimal.Zero
	}
	return value.Round(2)
}

// RiskScore aggregates collateral signals into a 0-100 score; 100 means no
// risk deductions applied.
func (s *CollateralService) RiskScore(collateral *models.Collateral, today time.Time) int {
	score := maxRiskScore

	switch {
	case collateral.AgeYears > 10:
		score -= 20
	case collateral.AgeYears > 5:
		score -= 10
	}

	if !collateral.IsInsured() {
		score -= 30
	} else {
		if collateral.InsuranceExpired(today) {
			score -= 25
		}
		currentValue := s.CurrentValue(collateral)
		adequacy := insuranceAdequacy(collateral, currentValue)
		if adequacy.LessThan(decimal.NewFromInt(adequateInsurancePct)) {
			score -= 15
		}
	}

	switch collateral.Condition {
	case models.ConditionPoor:
		score -= 20
	case models.ConditionFair:
		score -= 10
	case models.ConditionGood:
		score -= 5
	}

	switch {
	case collateral.DepreciationRate.GreaterThan(decimal.NewFromInt(20)):
		score -= 15
	case collateral.DepreciationRate.GreaterThan(decimal.NewFromInt(10)):
		score -= 8
	}

	if days := collateral.InspectionOverdueDays(today); days > 0 {
		penalty := inspectionPenaltyRate * days
		if penalty > inspectionPenaltyCap {
			penalty = inspectionPenaltyCap
		}
		score -= penalty
	}

	if score < 0 {
		return 0
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

// coverageRatio is appraised value over the maximum loan amount the asset
// secures; zero when no maximum is set.
func coverageRatio(collateral *models.Collateral) decimal.Decimal {
	if collateral.MaxLoanAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return collateral.AppraisedValue.Div(collateral.MaxLoanAmount).Round(4)
}

// insuranceAdequacy is coverage as a percentage of current value
func insuranceAdequacy(collateral *models.Collateral, currentValue decimal.Decimal) decimal.Decimal {
	if currentValue.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return collateral.CoverageAmount.Div(currentValue).Mul(hundred).Round(2)
}
