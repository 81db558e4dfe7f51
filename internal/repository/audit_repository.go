package repository

import (
	"context"

	"github.com/prestolend/lending-api/internal/models"

	"gorm.io/gorm"
)

// AuditRepository defines the interface for status audit data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.StatusAudit) error
	FindByLoan(ctx context.Context, loanID uint) ([]models.StatusAudit, error)
}

// auditRepository handles database operations for status audit entries
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Create persists a status transition record
func (r *auditRepository) Create(ctx context.Context, entry *models.StatusAudit) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByLoan retrieves the transition history for a loan, oldest first
func (r *auditRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.StatusAudit, error) {
	var entries []models.StatusAudit
	err := r.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
