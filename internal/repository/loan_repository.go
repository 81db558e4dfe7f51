package repository

import (
	"context"
	"fmt"

	"github.com/prestolend/lending-api/internal/models"

	"gorm.io/gorm"
)

// LoanRepository defines the interface for loan data access
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	FindByID(ctx context.Context, id uint) (*models.Loan, error)
	FindByStatuses(ctx context.Context, statuses []string) ([]models.Loan, error)
	UpdateWithVersion(ctx context.Context, loan *models.Loan) error
}

// loanRepository handles database operations for loans
type loanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

// Create persists a new loan
func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// FindByID retrieves a loan by its ID
func (r *loanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// FindByStatuses retrieves all loans in any of the given statuses
func (r *loanRepository) FindByStatuses(ctx context.Context, statuses []string) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("id ASC").
		Find(&loans).Error
	return loans, err
}

// UpdateWithVersion saves the loan only if its lock_version still matches
// the value the caller read. The version bump is explicit here, never a
// lifecycle hook side effect.
func (r *loanRepository) UpdateWithVersion(ctx context.Context, loan *models.Loan) error {
	expected := loan.LockVersion
	loan.LockVersion = expected + 1

	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND lock_version = ?", loan.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(loan)
	if res.Error != nil {
		loan.LockVersion = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		loan.LockVersion = expected
		return fmt.Errorf("%w: loan %d at version %d", ErrStaleVersion, loan.ID, expected)
	}
	return nil
}
