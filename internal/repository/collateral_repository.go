package repository

import (
	"context"

	"github.com/prestolend/lending-api/internal/models"

	"gorm.io/gorm"
)

// CollateralRepository defines the interface for collateral data access
type CollateralRepository interface {
	Create(ctx context.Context, collateral *models.Collateral) error
	FindByID(ctx context.Context, id uint) (*models.Collateral, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Collateral, error)
	Update(ctx context.Context, collateral *models.Collateral) error
}

// collateralRepository handles database operations for collateral records
type collateralRepository struct {
	db *gorm.DB
}

// NewCollateralRepository creates a new collateral repository
func NewCollateralRepository(db *gorm.DB) CollateralRepository {
	return &collateralRepository{db: db}
}

// Create persists a new collateral record
func (r *collateralRepository) Create(ctx context.Context, collateral *models.Collateral) error {
	return r.db.WithContext(ctx).Create(collateral).Error
}

// FindByID retrieves a collateral record by its ID
func (r *collateralRepository) FindByID(ctx context.Context, id uint) (*models.Collateral, error) {
	var collateral models.Collateral
	if err := r.db.WithContext(ctx).First(&collateral, id).Error; err != nil {
		return nil, err
	}
	return &collateral, nil
}

// FindByLoan retrieves all collateral pledged against a loan
func (r *collateralRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Collateral, error) {
	var collaterals []models.Collateral
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("id ASC").
		Find(&collaterals).Error
	return collaterals, err
}

// Update saves a collateral record
func (r *collateralRepository) Update(ctx context.Context, collateral *models.Collateral) error {
	return r.db.WithContext(ctx).Save(collateral).Error
}
