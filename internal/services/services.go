package services

import (
	"github.com/prestolend/lending-api/internal/config"
	"github.com/prestolend/lending-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Schedule   *ScheduleService
	Payment    *PaymentService
	Loan       *LoanService
	Penalty    *PenaltyService
	Collateral *CollateralService
	Export     *ExportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	scheduleSvc := NewScheduleService()
	paymentSvc := NewPaymentService()
	loanSvc := NewLoanService(repos.Loan, repos.Installment, repos.Audit, scheduleSvc, paymentSvc)

	return &Services{
		Schedule:   scheduleSvc,
		Payment:    paymentSvc,
		Loan:       loanSvc,
		Penalty:    NewPenaltyService(repos.Loan, repos.Installment, loanSvc, cfg.SweepConcurrency),
		Collateral: NewCollateralService(repos.Collateral),
		Export:     NewExportService(repos.Installment),
	}
}
