package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/shopspring/decimal"
)

// CreateLoanDTO carries a new loan application
type CreateLoanDTO struct {
	OrganizationID      uint                      `json:"-" validate:"required"`
	BorrowerID          uint                      `json:"borrower_id" validate:"required"`
	BorrowerEmail       string                    `json:"borrower_email" validate:"omitempty,email"`
	Amount              decimal.Decimal           `json:"amount"`
	AnnualInterestRate  decimal.Decimal           `json:"annual_interest_rate"`
	InterestMethod      models.InterestMethod     `json:"interest_method" validate:"required,oneof=flat reducing_balance"`
	TermInMonths        int                       `json:"term_in_months" validate:"required,gt=0"`
	RepaymentFrequency  models.RepaymentFrequency `json:"repayment_frequency" validate:"required,oneof=monthly quarterly semi_annual annual"`
	RepaymentModality   models.RepaymentModality  `json:"repayment_modality" validate:"required,oneof=single multiple_with_interest multiple_only_interest customized"`
	GracePeriodMonths   int                       `json:"grace_period_months" validate:"gte=0"`
	SinglePaymentMonths int                       `json:"single_payment_months" validate:"gte=0"`
	InitialAssigneeID   uint                      `json:"initial_assignee_id" validate:"required"`
}

// LoanService handles loan application intake and tenant-scoped queries
type LoanService struct {
	loans     repository.LoanRepository
	workflows *WorkflowService
	validator *validator.Validate
}

// NewLoanService creates a new LoanService instance
func NewLoanService(loans repository.LoanRepository, workflows *WorkflowService) *LoanService {
	return &LoanService{
		loans:     loans,
		workflows: workflows,
		validator: validator.New(),
	}
}

// Create registers a pending loan application and initializes its approval
// workflow at the loan officer step.
func (s *LoanService) Create(dto CreateLoanDTO) (*models.Loan, error) {
	if err := s.validateRequest(dto); err != nil {
		return nil, err
	}
	if dto.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrInvalidLoanTerms)
	}
	if dto.AnnualInterestRate.IsNegative() {
		return nil, fmt.Errorf("interest rate cannot be negative: %w", models.ErrInvalidLoanTerms)
	}
	if dto.GracePeriodMonths >= dto.TermInMonths {
		return nil, fmt.Errorf("grace period must be shorter than the term: %w", models.ErrInvalidLoanTerms)
	}

	loan := &models.Loan{
		Reference:           uuid.NewString(),
		OrganizationID:      dto.OrganizationID,
		BorrowerID:          dto.BorrowerID,
		BorrowerEmail:       dto.BorrowerEmail,
		DisbursedAmount:     dto.Amount,
		AnnualInterestRate:  dto.AnnualInterestRate,
		InterestMethod:      dto.InterestMethod,
		TermInMonths:        dto.TermInMonths,
		RepaymentFrequency:  dto.RepaymentFrequency,
		RepaymentModality:   dto.RepaymentModality,
		GracePeriodMonths:   dto.GracePeriodMonths,
		SinglePaymentMonths: dto.SinglePaymentMonths,
		Status:              models.LoanStatusPending,
	}

	if err := s.loans.Create(loan); err != nil {
		return nil, err
	}

	if _, err := s.workflows.Initialize(dto.OrganizationID, loan.ID, dto.InitialAssigneeID); err != nil {
		return nil, err
	}

	return loan, nil
}

// GetByID returns a loan scoped to its organization.
func (s *LoanService) GetByID(organizationID, loanID uint) (*models.Loan, error) {
	return s.loans.FindByID(organizationID, loanID)
}

// ListByStatuses returns the organization's loans in the given statuses.
func (s *LoanService) ListByStatuses(organizationID uint, statuses []models.LoanStatus) ([]models.Loan, error) {
	if len(statuses) == 0 {
		statuses = []models.LoanStatus{
			models.LoanStatusPending, models.LoanStatusApproved, models.LoanStatusRejected,
			models.LoanStatusDisbursed, models.LoanStatusPerforming, models.LoanStatusWatch,
			models.LoanStatusSubstandard, models.LoanStatusDoubtful, models.LoanStatusLoss,
			models.LoanStatusClosed, models.LoanStatusWrittenOff,
		}
	}
	return s.loans.FindByStatuses(organizationID, statuses)
}

// Disburse marks an approved, scheduled loan as disbursed and opens the
// exposure at the full principal.
func (s *LoanService) Disburse(organizationID, loanID uint, at time.Time) (*models.Loan, error) {
	loan, err := s.loans.FindByID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.TotalAmountToBeRepaid.IsZero() {
		return nil, fmt.Errorf("loan %d has no repayment schedule: %w", loanID, models.ErrInvalidTransition)
	}
	if err := loan.Disburse(at); err != nil {
		return nil, err
	}
	if err := s.loans.Save(loan); err != nil {
		return nil, err
	}
	return loan, nil
}

// validateRequest validates a DTO and flattens the validation errors
func (s *LoanService) validateRequest(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "field "+e.Field()+" is required")
			case "gt", "gte":
				errorMessages = append(errorMessages, "field "+e.Field()+" is out of range")
			case "oneof":
				errorMessages = append(errorMessages, "field "+e.Field()+" must be one of: "+e.Param())
			default:
				errorMessages = append(errorMessages, "field "+e.Field()+" is invalid")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}
