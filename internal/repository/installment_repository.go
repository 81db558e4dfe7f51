package repository

import (
	"context"
	"fmt"

	"github.com/prestolend/lending-api/internal/models"

	"gorm.io/gorm"
)

// InstallmentRepository defines the interface for installment data access
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []models.Installment) error
	FindByID(ctx context.Context, id uint) (*models.Installment, error)
	FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	FindUnsettledByLoan(ctx context.Context, loanID uint) ([]models.Installment, error)
	CountByLoan(ctx context.Context, loanID uint) (int64, error)
	UpdateWithVersion(ctx context.Context, installment *models.Installment) error
}

// installmentRepository handles database operations for installments
type installmentRepository struct {
	db *gorm.DB
}

// NewInstallmentRepository creates a new installment repository
func NewInstallmentRepository(db *gorm.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

// CreateBatch persists a full schedule in one insert
func (r *installmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&installments).Error
}

// FindByID retrieves an installment by its ID
func (r *installmentRepository) FindByID(ctx context.Context, id uint) (*models.Installment, error) {
	var installment models.Installment
	if err := r.db.WithContext(ctx).First(&installment, id).Error; err != nil {
		return nil, err
	}
	return &installment, nil
}

// FindByLoan retrieves the full schedule for a loan in period order
func (r *installmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

// FindUnsettledByLoan retrieves installments still open to payment or
// penalty assessment.
func (r *installmentRepository) FindUnsettledByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var installments []models.Installment
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND status NOT IN ?", loanID, []string{
			models.InstallmentStatusPaid,
			models.InstallmentStatusCancelled,
			models.InstallmentStatusWrittenOff,
		}).
		Order("number ASC").
		Find(&installments).Error
	return installments, err
}

// CountByLoan returns the number of schedule entries for a loan
func (r *installmentRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("loan_id = ?", loanID).
		Count(&count).Error
	return count, err
}

// UpdateWithVersion saves the installment only if its lock_version still
// matches the value the caller read.
func (r *installmentRepository) UpdateWithVersion(ctx context.Context, installment *models.Installment) error {
	expected := installment.LockVersion
	installment.LockVersion = expected + 1

	res := r.db.WithContext(ctx).
		Model(&models.Installment{}).
		Where("id = ? AND lock_version = ?", installment.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(installment)
	if res.Error != nil {
		installment.LockVersion = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		installment.LockVersion = expected
		return fmt.Errorf("%w: installment %d at version %d", ErrStaleVersion, installment.ID, expected)
	}
	return nil
}
