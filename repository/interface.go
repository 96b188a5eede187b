// Package repository defines the persistence boundary of the governance
// engine. Every lookup takes the organization id explicitly; implementations
// must filter by it rather than trust caller-supplied object identity.
package repository

import (
	"github.com/ingatatech/loan-management-system-backend/models"
)

// LoanRepository persists loans.
type LoanRepository interface {
	FindByID(organizationID, loanID uint) (*models.Loan, error)
	// FindByStatuses returns the organization's loans in any of the given
	// statuses. organizationID 0 spans all tenants (used by the daily batch).
	FindByStatuses(organizationID uint, statuses []models.LoanStatus) ([]models.Loan, error)
	Create(loan *models.Loan) error
	Save(loan *models.Loan) error
}

// WorkflowRepository persists loan approval workflows.
type WorkflowRepository interface {
	FindByLoanID(organizationID, loanID uint) (*models.LoanWorkflow, error)
	// Create inserts a new workflow. A second insert for the same loan fails
	// with models.ErrWorkflowAlreadyExists (unique constraint on loan_id).
	Create(workflow *models.LoanWorkflow) error
	// Update applies an optimistic version check and fails with
	// models.ErrConcurrentModification when the row changed underneath.
	Update(workflow *models.LoanWorkflow) error
}

// ReviewRepository persists individual review decisions.
type ReviewRepository interface {
	Create(review *models.LoanReview) error
	FindByLoanID(organizationID, loanID uint) ([]models.LoanReview, error)
}

// ScheduleRepository persists repayment schedules.
type ScheduleRepository interface {
	FindByLoanID(organizationID, loanID uint) ([]models.RepaymentSchedule, error)
	ExistsForLoan(organizationID, loanID uint) (bool, error)
	// CreateBatch inserts all installments of a loan. The unique constraint on
	// (loan_id, installment_number) turns a concurrent duplicate generation
	// into models.ErrScheduleAlreadyExists.
	CreateBatch(installments []models.RepaymentSchedule) error
	Save(installment *models.RepaymentSchedule) error
}

// CollateralRepository reads pledged collateral.
type CollateralRepository interface {
	FindByLoanID(organizationID, loanID uint) ([]models.Collateral, error)
}

// UserRepository reads users for assignee checks and notifications.
type UserRepository interface {
	FindByID(organizationID, userID uint) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Create(user *models.User) error
}

// DecisionSet bundles the repositories a single workflow decision writes
// through: the workflow row, its audit review, and the loan transition.
type DecisionSet struct {
	Loans     LoanRepository
	Workflows WorkflowRepository
	Reviews   ReviewRepository
}

// UnitOfWork runs fn atomically. Every write made through the set commits
// together or not at all, so a partial failure leaves nothing half-applied
// and the caller can simply retry.
type UnitOfWork interface {
	Execute(fn func(tx DecisionSet) error) error
}
