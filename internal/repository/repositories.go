package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrStaleVersion is returned by the versioned update methods when the
// row's lock_version no longer matches the one the caller read. The caller
// re-reads and reapplies; nothing is retried here.
var ErrStaleVersion = errors.New("stale record version")

// Repositories holds all repository instances
type Repositories struct {
	Loan        LoanRepository
	Installment InstallmentRepository
	Collateral  CollateralRepository
	Audit       AuditRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Loan:        NewLoanRepository(db),
		Installment: NewInstallmentRepository(db),
		Collateral:  NewCollateralRepository(db),
		Audit:       NewAuditRepository(db),
	}
}
