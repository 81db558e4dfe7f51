package services

import (
	"context"
	"sort"

	"github.com/prestolend/lending-api/internal/models"
	"github.com/prestolend/lending-api/internal/repository"
	"gorm.io/gorm"
)

// In-memory mock repositories in the style of the repository interfaces.
// Embedding keeps them forward-compatible with interface growth.

type mockLoanRepository struct {
	repository.LoanRepository
	loans       map[uint]*models.Loan
	nextID      uint
	updateErr   error
	updateCalls int
}

func newMockLoanRepository() *mockLoanRepository {
	return &mockLoanRepository{loans: map[uint]*models.Loan{}, nextID: 1}
}

func (m *mockLoanRepository) add(loan models.Loan) *models.Loan {
	if loan.ID == 0 {
		loan.ID = m.nextID
		m.nextID++
	}
	stored := loan
	m.loans[loan.ID] = &stored
	return &loan
}

func (m *mockLoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	loan.ID = m.nextID
	m.nextID++
	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *loan
	return &out, nil
}

func (m *mockLoanRepository) FindByStatuses(ctx context.Context, statuses []string) ([]models.Loan, error) {
	wanted := map[string]bool{}
	for _, s := range statuses {
		wanted[s] = true
	}
	var loans []models.Loan
	for _, loan := range m.loans {
		if wanted[loan.Status] {
			loans = append(loans, *loan)
		}
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].ID < loans[j].ID })
	return loans, nil
}

func (m *mockLoanRepository) UpdateWithVersion(ctx context.Context, loan *models.Loan) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls++
	loan.LockVersion++
	stored := *loan
	m.loans[loan.ID] = &stored
	return nil
}

type mockInstallmentRepository struct {
	repository.InstallmentRepository
	installments map[uint]*models.Installment
	nextID       uint
	updateErr    error
	updateCalls  int
}

func newMockInstallmentRepository() *mockInstallmentRepository {
	return &mockInstallmentRepository{installments: map[uint]*models.Installment{}, nextID: 1}
}

func (m *mockInstallmentRepository) add(installment models.Installment) *models.Installment {
	if installment.ID == 0 {
		installment.ID = m.nextID
		m.nextID++
	}
	stored := installment
	m.installments[installment.ID] = &stored
	return &installment
}

func (m *mockInstallmentRepository) CreateBatch(ctx context.Context, installments []models.Installment) error {
	for i := range installments {
		installments[i].ID = m.nextID
		m.nextID++
		stored := installments[i]
		m.installments[stored.ID] = &stored
	}
	return nil
}

func (m *mockInstallmentRepository) FindByID(ctx context.Context, id uint) (*models.Installment, error) {
	installment, ok := m.installments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *installment
	return &out, nil
}

func (m *mockInstallmentRepository) byLoan(loanID uint) []models.Installment {
	var out []models.Installment
	for _, installment := range m.installments {
		if installment.LoanID == loanID {
			out = append(out, *installment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *mockInstallmentRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	return m.byLoan(loanID), nil
}

func (m *mockInstallmentRepository) FindUnsettledByLoan(ctx context.Context, loanID uint) ([]models.Installment, error) {
	var out []models.Installment
	for _, installment := range m.byLoan(loanID) {
		if !installment.IsSettled() && !installment.IsTerminal() {
			out = append(out, installment)
		}
	}
	return out, nil
}

func (m *mockInstallmentRepository) CountByLoan(ctx context.Context, loanID uint) (int64, error) {
	return int64(len(m.byLoan(loanID))), nil
}

func (m *mockInstallmentRepository) UpdateWithVersion(ctx context.Context, installment *models.Installment) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCalls++
	installment.LockVersion++
	stored := *installment
	m.installments[installment.ID] = &stored
	return nil
}

type mockAuditRepository struct {
	repository.AuditRepository
	entries   []models.StatusAudit
	createErr error
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.StatusAudit) error {
	if m.createErr != nil {
		return m.createErr
	}
	entry.ID = uint(len(m.entries) + 1)
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockAuditRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.StatusAudit, error) {
	var out []models.StatusAudit
	for _, entry := range m.entries {
		if entry.LoanID == loanID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type mockCollateralRepository struct {
	repository.CollateralRepository
	collaterals map[uint]*models.Collateral
}

func newMockCollateralRepository() *mockCollateralRepository {
	return &mockCollateralRepository{collaterals: map[uint]*models.Collateral{}}
}

func (m *mockCollateralRepository) FindByID(ctx context.Context, id uint) (*models.Collateral, error) {
	collateral, ok := m.collaterals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *collateral
	return &out, nil
}

func (m *mockCollateralRepository) FindByLoan(ctx context.Context, loanID uint) ([]models.Collateral, error) {
	var out []models.Collateral
	for _, collateral := range m.collaterals {
		if collateral.LoanID == loanID {
			out = append(out, *collateral)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
