package services

import (
	"fmt"
	"time"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/shopspring/decimal"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// CustomInstallment is one caller-supplied row of a customized schedule.
type CustomInstallment struct {
	InstallmentNumber int             `json:"installment_number" validate:"required,gt=0"`
	DueDate           time.Time       `json:"due_date" validate:"required"`
	Amount            decimal.Decimal `json:"amount" validate:"required"`
}

// ApprovalTerms carries the final terms fixed at approval time.
type ApprovalTerms struct {
	// DisbursementDate anchors all due dates.
	DisbursementDate time.Time `json:"disbursement_date"`
	// CustomInstallments is required for the customized modality and ignored
	// for all others.
	CustomInstallments []CustomInstallment `json:"custom_installments,omitempty"`
}

// ScheduleService generates and persists repayment schedules
type ScheduleService struct {
	loans     repository.LoanRepository
	schedules repository.ScheduleRepository
}

// NewScheduleService creates a new ScheduleService instance
func NewScheduleService(loans repository.LoanRepository, schedules repository.ScheduleRepository) *ScheduleService {
	return &ScheduleService{loans: loans, schedules: schedules}
}

// Generate builds and stores the repayment schedule for an approved loan.
// It may run exactly once per loan; the unique constraint on
// (loan_id, installment_number) closes the window against concurrent approvals.
func (s *ScheduleService) Generate(organizationID, loanID uint, terms ApprovalTerms) ([]models.RepaymentSchedule, error) {
	loan, err := s.loans.FindByID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusApproved {
		return nil, fmt.Errorf("loan %d is %s, not approved: %w", loanID, loan.Status, models.ErrInvalidTransition)
	}

	exists, err := s.schedules.ExistsForLoan(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.ErrScheduleAlreadyExists
	}

	installments, err := GenerateSchedule(loan, terms)
	if err != nil {
		return nil, err
	}

	if err := s.schedules.CreateBatch(installments); err != nil {
		return nil, err
	}

	// Total to repay is the sum of the rounded installment totals, so the
	// schedule and the loan can never drift apart.
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.DueTotal)
	}
	maturity := installments[len(installments)-1].DueDate
	loan.TotalAmountToBeRepaid = total
	loan.MaturityDate = &maturity
	if err := s.loans.Save(loan); err != nil {
		return nil, err
	}

	return installments, nil
}

// Schedule returns the stored installments of a loan in order.
func (s *ScheduleService) Schedule(organizationID, loanID uint) ([]models.RepaymentSchedule, error) {
	if _, err := s.loans.FindByID(organizationID, loanID); err != nil {
		return nil, err
	}
	installments, err := s.schedules.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, models.ErrScheduleNotFound
	}
	return installments, nil
}

// GenerateSchedule computes the repayment schedule for a loan without touching
// persistence. Monetary results are rounded to 2 decimals (half up) only at
// the point each installment is emitted; intermediates stay unrounded.
func GenerateSchedule(loan *models.Loan, terms ApprovalTerms) ([]models.RepaymentSchedule, error) {
	if err := validateTerms(loan); err != nil {
		return nil, err
	}
	if terms.DisbursementDate.IsZero() {
		return nil, fmt.Errorf("disbursement date is required: %w", models.ErrInvalidLoanTerms)
	}

	switch loan.RepaymentModality {
	case models.ModalitySingle:
		return singleSchedule(loan, terms.DisbursementDate), nil
	case models.ModalityMultipleWithInterest:
		return amortizedSchedule(loan, terms.DisbursementDate)
	case models.ModalityMultipleOnlyInterest:
		return interestOnlySchedule(loan, terms.DisbursementDate)
	case models.ModalityCustomized:
		return customizedSchedule(loan, terms.CustomInstallments)
	default:
		return nil, fmt.Errorf("unknown repayment modality %q: %w", loan.RepaymentModality, models.ErrInvalidLoanTerms)
	}
}

func validateTerms(loan *models.Loan) error {
	if loan.DisbursedAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("principal must be positive: %w", models.ErrInvalidLoanTerms)
	}
	if loan.TermInMonths <= 0 {
		return fmt.Errorf("term must be at least one month: %w", models.ErrInvalidLoanTerms)
	}
	if loan.AnnualInterestRate.IsNegative() {
		return fmt.Errorf("interest rate cannot be negative: %w", models.ErrInvalidLoanTerms)
	}
	if loan.GracePeriodMonths < 0 || loan.GracePeriodMonths >= loan.TermInMonths {
		return fmt.Errorf("grace period must be shorter than the term: %w", models.ErrInvalidLoanTerms)
	}
	if loan.RepaymentModality != models.ModalitySingle && loan.RepaymentModality != models.ModalityCustomized {
		monthsPerPeriod := loan.RepaymentFrequency.MonthsPerPeriod()
		if monthsPerPeriod == 0 {
			return fmt.Errorf("unknown repayment frequency %q: %w", loan.RepaymentFrequency, models.ErrInvalidLoanTerms)
		}
		if loan.TermInMonths%monthsPerPeriod != 0 {
			return fmt.Errorf("term of %d months is not divisible by the %s period: %w",
				loan.TermInMonths, loan.RepaymentFrequency, models.ErrInvalidLoanTerms)
		}
	}
	return nil
}

// fullTermInterest is principal x annualRate/100 x term/12, unrounded.
func fullTermInterest(loan *models.Loan) decimal.Decimal {
	return loan.DisbursedAmount.
		Mul(loan.AnnualInterestRate).Div(hundred).
		Mul(decimal.NewFromInt(int64(loan.TermInMonths))).Div(monthsInYear)
}

// periodRate derives the per-period interest rate (as a fraction) from the
// annual percentage rate and the repayment frequency.
func periodRate(loan *models.Loan, monthsPerPeriod int) decimal.Decimal {
	return loan.AnnualInterestRate.Div(hundred).
		Mul(decimal.NewFromInt(int64(monthsPerPeriod))).Div(monthsInYear)
}

// singleSchedule produces one installment of principal plus full-term interest.
func singleSchedule(loan *models.Loan, disbursement time.Time) []models.RepaymentSchedule {
	months := loan.SinglePaymentMonths
	if months <= 0 {
		months = loan.TermInMonths
	}
	amount := loan.DisbursedAmount.Add(fullTermInterest(loan))
	return []models.RepaymentSchedule{{
		OrganizationID:    loan.OrganizationID,
		LoanID:            loan.ID,
		InstallmentNumber: 1,
		DueDate:           disbursement.AddDate(0, months, 0),
		PrincipalDue:      loan.DisbursedAmount.Round(2),
		InterestDue:       fullTermInterest(loan).Round(2),
		DueTotal:          amount.Round(2),
		PaymentStatus:     models.PaymentStatusPending,
	}}
}

// amortizedSchedule produces equal installments. Flat interest spreads the
// full-term interest evenly; reducing balance recomputes interest on the
// declining balance each period using the standard annuity formula.
func amortizedSchedule(loan *models.Loan, disbursement time.Time) ([]models.RepaymentSchedule, error) {
	monthsPerPeriod := loan.RepaymentFrequency.MonthsPerPeriod()
	n := loan.TermInMonths / monthsPerPeriod
	periods := int64(n)
	firstDueMonths := loan.GracePeriodMonths + monthsPerPeriod

	installments := make([]models.RepaymentSchedule, 0, n)

	if loan.InterestMethod == models.InterestMethodFlat || loan.AnnualInterestRate.IsZero() {
		principalPer := loan.DisbursedAmount.Div(decimal.NewFromInt(periods))
		interestPer := fullTermInterest(loan).Div(decimal.NewFromInt(periods))
		for i := 0; i < n; i++ {
			installments = append(installments, buildInstallment(loan, i+1,
				disbursement.AddDate(0, firstDueMonths+i*monthsPerPeriod, 0),
				principalPer, interestPer))
		}
		return installments, nil
	}

	// Reducing balance: annuity payment = P*r*(1+r)^n / ((1+r)^n - 1).
	r := periodRate(loan, monthsPerPeriod)
	onePlusRPowN := decimal.NewFromInt(1).Add(r).Pow(decimal.NewFromInt(periods))
	annuity := loan.DisbursedAmount.Mul(r).Mul(onePlusRPowN).
		Div(onePlusRPowN.Sub(decimal.NewFromInt(1)))

	balance := loan.DisbursedAmount
	for i := 0; i < n; i++ {
		interest := balance.Mul(r)
		principal := annuity.Sub(interest)
		if i == n-1 {
			// The final installment clears whatever balance remains so
			// rounding drift cannot leave residual principal.
			principal = balance
		}
		balance = balance.Sub(principal)
		installments = append(installments, buildInstallment(loan, i+1,
			disbursement.AddDate(0, firstDueMonths+i*monthsPerPeriod, 0),
			principal, interest))
	}
	return installments, nil
}

// interestOnlySchedule produces n-1 interest-only installments followed by a
// balloon installment of the full principal plus the final interest.
func interestOnlySchedule(loan *models.Loan, disbursement time.Time) ([]models.RepaymentSchedule, error) {
	monthsPerPeriod := loan.RepaymentFrequency.MonthsPerPeriod()
	n := loan.TermInMonths / monthsPerPeriod
	firstDueMonths := loan.GracePeriodMonths + monthsPerPeriod

	// The balance never declines before the balloon, so the per-period
	// interest is the same under both interest methods.
	interestPer := loan.DisbursedAmount.Mul(periodRate(loan, monthsPerPeriod))

	installments := make([]models.RepaymentSchedule, 0, n)
	for i := 0; i < n; i++ {
		principal := decimal.Zero
		if i == n-1 {
			principal = loan.DisbursedAmount
		}
		installments = append(installments, buildInstallment(loan, i+1,
			disbursement.AddDate(0, firstDueMonths+i*monthsPerPeriod, 0),
			principal, interestPer))
	}
	return installments, nil
}

// customizedSchedule validates a caller-supplied schedule and materializes it.
// The engine validates but does not compute.
func customizedSchedule(loan *models.Loan, custom []CustomInstallment) ([]models.RepaymentSchedule, error) {
	if len(custom) == 0 {
		return nil, fmt.Errorf("customized modality requires installments: %w", models.ErrInvalidLoanTerms)
	}

	total := decimal.Zero
	var previousDue time.Time
	for i, inst := range custom {
		if inst.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("installment %d: %w", inst.InstallmentNumber, models.ErrNonPositiveAmount)
		}
		if i > 0 && !inst.DueDate.After(previousDue) {
			return nil, fmt.Errorf("installment %d: %w", inst.InstallmentNumber, models.ErrNonChronologicalSchedule)
		}
		previousDue = inst.DueDate
		total = total.Add(inst.Amount)
	}

	required := loan.DisbursedAmount.Add(fullTermInterest(loan)).Round(2)
	if total.LessThan(required) {
		return nil, &models.InsufficientScheduleTotalError{
			Required:  required,
			Provided:  total,
			Shortfall: required.Sub(total),
		}
	}

	// Allocate principal to the earliest installments first; whatever exceeds
	// the principal is carried as interest.
	remainingPrincipal := loan.DisbursedAmount
	installments := make([]models.RepaymentSchedule, 0, len(custom))
	for i, inst := range custom {
		principal := decimal.Min(remainingPrincipal, inst.Amount)
		remainingPrincipal = remainingPrincipal.Sub(principal)
		installments = append(installments, models.RepaymentSchedule{
			OrganizationID:    loan.OrganizationID,
			LoanID:            loan.ID,
			InstallmentNumber: i + 1,
			DueDate:           inst.DueDate,
			PrincipalDue:      principal.Round(2),
			InterestDue:       inst.Amount.Sub(principal).Round(2),
			DueTotal:          inst.Amount.Round(2),
			PaymentStatus:     models.PaymentStatusPending,
		})
	}
	return installments, nil
}

// buildInstallment rounds the principal and interest parts at emission and
// totals the rounded parts, keeping installment arithmetic internally exact.
func buildInstallment(loan *models.Loan, number int, due time.Time, principal, interest decimal.Decimal) models.RepaymentSchedule {
	principalR := principal.Round(2)
	interestR := interest.Round(2)
	return models.RepaymentSchedule{
		OrganizationID:    loan.OrganizationID,
		LoanID:            loan.ID,
		InstallmentNumber: number,
		DueDate:           due,
		PrincipalDue:      principalR,
		InterestDue:       interestR,
		DueTotal:          principalR.Add(interestR),
		PaymentStatus:     models.PaymentStatusPending,
	}
}
