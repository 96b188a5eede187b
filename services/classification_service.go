package services

import (
	"time"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/shopspring/decimal"
)

// ClassificationService computes loan risk classifications and applies the
// results to stored loan and schedule state.
type ClassificationService struct {
	loans       repository.LoanRepository
	schedules   repository.ScheduleRepository
	collaterals repository.CollateralRepository
}

// NewClassificationService creates a new ClassificationService instance
func NewClassificationService(
	loans repository.LoanRepository,
	schedules repository.ScheduleRepository,
	collaterals repository.CollateralRepository,
) *ClassificationService {
	return &ClassificationService{loans: loans, schedules: schedules, collaterals: collaterals}
}

// CategoryForDaysOverdue maps days overdue to a risk bucket and its
// provisioning rate. The buckets are contiguous: 0, 1-30, 31-90, 91-180, >180.
func CategoryForDaysOverdue(daysOverdue int) (models.ClassificationCategory, decimal.Decimal) {
	switch {
	case daysOverdue <= 0:
		return models.CategoryPerforming, decimal.NewFromFloat(0.01)
	case daysOverdue <= 30:
		return models.CategoryWatch, decimal.NewFromFloat(0.05)
	case daysOverdue <= 90:
		return models.CategorySubstandard, decimal.NewFromFloat(0.25)
	case daysOverdue <= 180:
		return models.CategoryDoubtful, decimal.NewFromFloat(0.50)
	default:
		return models.CategoryLoss, decimal.NewFromInt(1)
	}
}

// DaysOverdue returns the whole days between the due date of the most overdue
// unpaid installment and asOf. Paid installments are excluded regardless of
// date; installments not yet due contribute zero.
func DaysOverdue(schedule []models.RepaymentSchedule, asOf time.Time) int {
	maxDays := 0
	for _, inst := range schedule {
		if inst.IsPaid || inst.PaymentStatus == models.PaymentStatusPaid {
			continue
		}
		days := wholeDaysBetween(inst.DueDate, asOf)
		if days > maxDays {
			maxDays = days
		}
	}
	return maxDays
}

func wholeDaysBetween(due, asOf time.Time) int {
	days := int(asOf.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Classify derives the risk category, net exposure and required provision for
// one loan. It is a pure function of its inputs: calling it twice with the
// same arguments yields the same result, and nothing is persisted.
func Classify(loan *models.Loan, schedule []models.RepaymentSchedule, collaterals []models.Collateral, asOf time.Time) models.ClassificationResult {
	daysOverdue := DaysOverdue(schedule, asOf)
	category, rate := CategoryForDaysOverdue(daysOverdue)

	covered := decimal.Zero
	for i := range collaterals {
		covered = covered.Add(collaterals[i].EffectiveValue())
	}

	netExposure := loan.OutstandingPrincipal.Sub(covered)
	if netExposure.IsNegative() {
		netExposure = decimal.Zero
	}

	return models.ClassificationResult{
		LoanID:            loan.ID,
		Category:          category,
		DaysOverdue:       daysOverdue,
		ProvisioningRate:  rate,
		NetExposure:       netExposure,
		RequiredProvision: netExposure.Mul(rate).Round(2),
		AsOfDate:          asOf,
	}
}

// ClassifyLoan loads a loan's current state and classifies it without
// persisting anything.
func (s *ClassificationService) ClassifyLoan(organizationID, loanID uint, asOf time.Time) (*models.ClassificationResult, error) {
	loan, err := s.loans.FindByID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	collaterals, err := s.collaterals.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	result := Classify(loan, schedule, collaterals, asOf)
	return &result, nil
}

// Reclassify classifies a loan and writes back the derived state: the loan's
// arrears counter and status, plus days-overdue / overdue flags on every
// unpaid installment that has fallen due.
func (s *ClassificationService) Reclassify(organizationID, loanID uint, asOf time.Time) (*models.ClassificationResult, error) {
	loan, err := s.loans.FindByID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	collaterals, err := s.collaterals.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}

	result := Classify(loan, schedule, collaterals, asOf)

	for i := range schedule {
		inst := &schedule[i]
		if inst.IsPaid || inst.PaymentStatus == models.PaymentStatusPaid {
			continue
		}
		days := wholeDaysBetween(inst.DueDate, asOf)
		if days == inst.DaysOverdue && days == 0 {
			continue
		}
		inst.DaysOverdue = days
		if days > 0 && inst.PaymentStatus != models.PaymentStatusPartial {
			inst.PaymentStatus = models.PaymentStatusOverdue
		}
		if err := s.schedules.Save(inst); err != nil {
			return nil, err
		}
	}

	loan.ApplyClassification(result.Category, result.DaysOverdue)
	if err := s.loans.Save(loan); err != nil {
		return nil, err
	}

	return &result, nil
}
