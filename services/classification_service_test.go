package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingatatech/loan-management-system-backend/models"
)

var asOf = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func TestCategoryForDaysOverdue(t *testing.T) {
	tests := []struct {
		days     int
		category models.ClassificationCategory
		rate     string
	}{
		{0, models.CategoryPerforming, "0.01"},
		{1, models.CategoryWatch, "0.05"},
		{30, models.CategoryWatch, "0.05"},
		{31, models.CategorySubstandard, "0.25"},
		{90, models.CategorySubstandard, "0.25"},
		{91, models.CategoryDoubtful, "0.5"},
		{180, models.CategoryDoubtful, "0.5"},
		{181, models.CategoryLoss, "1"},
		{400, models.CategoryLoss, "1"},
	}

	for _, tt := range tests {
		category, rate := CategoryForDaysOverdue(tt.days)
		assert.Equal(t, tt.category, category, "days=%d", tt.days)
		assert.True(t, rate.Equal(dec(tt.rate)), "days=%d rate=%s", tt.days, rate)
	}
}

func TestDaysOverdue(t *testing.T) {
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -95)},                                            // 95 days late
		{DueDate: asOf.AddDate(0, 0, -200), IsPaid: true},                             // paid, ignored
		{DueDate: asOf.AddDate(0, 0, -150), PaymentStatus: models.PaymentStatusPaid},  // paid, ignored
		{DueDate: asOf.AddDate(0, 0, 30), PaymentStatus: models.PaymentStatusPending}, // not yet due
	}

	assert.Equal(t, 95, DaysOverdue(schedule, asOf))
}

func TestDaysOverdueAllPaidOrFuture(t *testing.T) {
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -10), IsPaid: true},
		{DueDate: asOf.AddDate(0, 1, 0)},
	}
	assert.Equal(t, 0, DaysOverdue(schedule, asOf))
	assert.Equal(t, 0, DaysOverdue(nil, asOf))
}

func TestClassifyUncollateralized(t *testing.T) {
	loan := &models.Loan{
		ID:                   7,
		OutstandingPrincipal: dec("500000"),
		Status:               models.LoanStatusPerforming,
	}
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -95)},
	}

	result := Classify(loan, schedule, nil, asOf)

	assert.Equal(t, models.CategoryDoubtful, result.Category)
	assert.Equal(t, 95, result.DaysOverdue)
	assert.True(t, result.ProvisioningRate.Equal(dec("0.5")))
	assert.True(t, result.NetExposure.Equal(dec("500000")))
	assert.True(t, result.RequiredProvision.Equal(dec("250000")))
}

func TestClassifyCollateralHaircuts(t *testing.T) {
	loan := &models.Loan{
		ID:                   8,
		OutstandingPrincipal: dec("500000"),
		Status:               models.LoanStatusWatch,
	}
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -10)},
	}
	collaterals := []models.Collateral{
		{Type: models.CollateralMovable, NominalValue: dec("100000")},   // counts 60,000
		{Type: models.CollateralImmovable, NominalValue: dec("100000")}, // counts 80,000
		{Type: models.CollateralFinancial, NominalValue: dec("50000")},  // counts 50,000
		{Type: models.CollateralGuarantee, NominalValue: dec("100000")}, // counts 20,000
	}

	result := Classify(loan, schedule, collaterals, asOf)

	assert.Equal(t, models.CategoryWatch, result.Category)
	// 500,000 - 210,000 covered = 290,000 at 5%.
	assert.True(t, result.NetExposure.Equal(dec("290000")), "net exposure: %s", result.NetExposure)
	assert.True(t, result.RequiredProvision.Equal(dec("14500")))
}

func TestClassifyOverCollateralized(t *testing.T) {
	loan := &models.Loan{
		ID:                   9,
		OutstandingPrincipal: dec("100000"),
		Status:               models.LoanStatusSubstandard,
	}
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -40)},
	}
	collaterals := []models.Collateral{
		{Type: models.CollateralFinancial, NominalValue: dec("200000")},
	}

	result := Classify(loan, schedule, collaterals, asOf)

	// Exposure floors at zero; so does the provision.
	assert.True(t, result.NetExposure.IsZero())
	assert.True(t, result.RequiredProvision.IsZero())
}

func TestClassifyIsPure(t *testing.T) {
	loan := &models.Loan{
		ID:                   10,
		OutstandingPrincipal: dec("250000"),
		Status:               models.LoanStatusPerforming,
	}
	schedule := []models.RepaymentSchedule{
		{DueDate: asOf.AddDate(0, 0, -5)},
	}

	first := Classify(loan, schedule, nil, asOf)
	second := Classify(loan, schedule, nil, asOf)

	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.DaysOverdue, second.DaysOverdue)
	assert.True(t, first.RequiredProvision.Equal(second.RequiredProvision))
	// Inputs are untouched.
	assert.Equal(t, models.LoanStatusPerforming, loan.Status)
	assert.Equal(t, 0, schedule[0].DaysOverdue)
}

func TestReclassifyWritesBack(t *testing.T) {
	loans := newFakeLoanRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	svc := NewClassificationService(loans, schedules, collaterals)

	loan := &models.Loan{
		OrganizationID:       1,
		Reference:            "reclassify-test",
		DisbursedAmount:      dec("300000"),
		OutstandingPrincipal: dec("300000"),
		Status:               models.LoanStatusDisbursed,
	}
	require.NoError(t, loans.Create(loan))

	require.NoError(t, schedules.CreateBatch([]models.RepaymentSchedule{
		{OrganizationID: 1, LoanID: loan.ID, InstallmentNumber: 1, DueDate: asOf.AddDate(0, 0, -45), PaymentStatus: models.PaymentStatusPending},
		{OrganizationID: 1, LoanID: loan.ID, InstallmentNumber: 2, DueDate: asOf.AddDate(0, 0, -15), PaymentStatus: models.PaymentStatusPaid, IsPaid: true},
		{OrganizationID: 1, LoanID: loan.ID, InstallmentNumber: 3, DueDate: asOf.AddDate(0, 2, 0), PaymentStatus: models.PaymentStatusPending},
	}))

	result, err := svc.Reclassify(1, loan.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySubstandard, result.Category)
	assert.Equal(t, 45, result.DaysOverdue)

	stored, err := loans.FindByID(1, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusSubstandard, stored.Status)
	assert.Equal(t, 45, stored.DaysInArrears)

	installments, err := schedules.FindByLoanID(1, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, installments[0].DaysOverdue)
	assert.Equal(t, models.PaymentStatusOverdue, installments[0].PaymentStatus)
	// Paid and future installments are left alone.
	assert.Equal(t, models.PaymentStatusPaid, installments[1].PaymentStatus)
	assert.Equal(t, models.PaymentStatusPending, installments[2].PaymentStatus)
}

func TestReclassifySkipsTerminalLoans(t *testing.T) {
	loans := newFakeLoanRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	svc := NewClassificationService(loans, schedules, collaterals)

	loan := &models.Loan{
		OrganizationID:       1,
		Reference:            "closed-loan",
		OutstandingPrincipal: decimal.Zero,
		Status:               models.LoanStatusClosed,
	}
	require.NoError(t, loans.Create(loan))

	_, err := svc.Reclassify(1, loan.ID, asOf)
	require.NoError(t, err)

	stored, err := loans.FindByID(1, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusClosed, stored.Status)
}
