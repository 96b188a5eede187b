package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingatatech/loan-management-system-backend/models"
)

type governanceFixture struct {
	svc       *GovernanceService
	loans     *fakeLoanRepo
	schedules *fakeScheduleRepo
	loan      *models.Loan
}

func newGovernanceFixture(t *testing.T) *governanceFixture {
	t.Helper()
	loans := newFakeLoanRepo()
	workflows := newFakeWorkflowRepo()
	reviews := newFakeReviewRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	users := newFakeUserRepo()

	uow := newFakeUnitOfWork(loans, workflows, reviews)
	workflowSvc := NewWorkflowService(workflows, reviews, loans, users, uow, nil)
	scheduleSvc := NewScheduleService(loans, schedules)
	classificationSvc := NewClassificationService(loans, schedules, collaterals)
	svc := NewGovernanceService(loans, workflowSvc, scheduleSvc, classificationSvc, 2)

	loan := &models.Loan{
		OrganizationID:     1,
		Reference:          "governance-test",
		DisbursedAmount:    dec("600000"),
		AnnualInterestRate: dec("12"),
		InterestMethod:     models.InterestMethodFlat,
		TermInMonths:       6,
		RepaymentFrequency: models.FrequencyMonthly,
		RepaymentModality:  models.ModalityMultipleWithInterest,
		Status:             models.LoanStatusPending,
	}
	require.NoError(t, loans.Create(loan))

	_, err := workflowSvc.Initialize(1, loan.ID, officerID)
	require.NoError(t, err)

	return &governanceFixture{svc: svc, loans: loans, schedules: schedules, loan: loan}
}

func (f *governanceFixture) forwardChain(t *testing.T) {
	t.Helper()
	chain := []struct{ from, to uint }{
		{officerID, directorID},
		{directorID, managerID},
		{managerID, mdID},
	}
	for _, hop := range chain {
		next := hop.to
		_, err := f.svc.SubmitDecision(GovernanceDecisionDTO{
			AdvanceDecisionDTO: AdvanceDecisionDTO{
				OrganizationID: 1,
				LoanID:         f.loan.ID,
				ReviewerID:     hop.from,
				Decision:       models.DecisionForward,
				NextAssigneeID: &next,
			},
		})
		require.NoError(t, err)
	}
}

func TestSubmitDecisionApprovalGeneratesSchedule(t *testing.T) {
	f := newGovernanceFixture(t)
	f.forwardChain(t)

	disb := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	wf, err := f.svc.SubmitDecision(GovernanceDecisionDTO{
		AdvanceDecisionDTO: AdvanceDecisionDTO{
			OrganizationID: 1,
			LoanID:         f.loan.ID,
			ReviewerID:     mdID,
			Decision:       models.DecisionApprove,
		},
		Terms: &ApprovalTerms{DisbursementDate: disb},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, wf.Status)

	installments, err := f.schedules.FindByLoanID(1, f.loan.ID)
	require.NoError(t, err)
	require.Len(t, installments, 6)
	assert.Equal(t, disb.AddDate(0, 1, 0), installments[0].DueDate)

	loan, err := f.loans.FindByID(1, f.loan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)
	assert.False(t, loan.TotalAmountToBeRepaid.IsZero())
}

func TestSubmitDecisionForwardGeneratesNothing(t *testing.T) {
	f := newGovernanceFixture(t)

	next := directorID
	_, err := f.svc.SubmitDecision(GovernanceDecisionDTO{
		AdvanceDecisionDTO: AdvanceDecisionDTO{
			OrganizationID: 1,
			LoanID:         f.loan.ID,
			ReviewerID:     officerID,
			Decision:       models.DecisionForward,
			NextAssigneeID: &next,
		},
	})
	require.NoError(t, err)

	exists, err := f.schedules.ExistsForLoan(1, f.loan.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSubmitDecisionRejectGeneratesNothing(t *testing.T) {
	f := newGovernanceFixture(t)

	_, err := f.svc.SubmitDecision(GovernanceDecisionDTO{
		AdvanceDecisionDTO: AdvanceDecisionDTO{
			OrganizationID: 1,
			LoanID:         f.loan.ID,
			ReviewerID:     officerID,
			Decision:       models.DecisionReject,
			Message:        "not eligible",
		},
	})
	require.NoError(t, err)

	exists, err := f.schedules.ExistsForLoan(1, f.loan.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func addActiveLoan(t *testing.T, loans *fakeLoanRepo, schedules *fakeScheduleRepo, orgID uint, daysLate int) *models.Loan {
	t.Helper()
	loan := &models.Loan{
		OrganizationID:       orgID,
		Reference:            "recompute-loan",
		DisbursedAmount:      dec("100000"),
		OutstandingPrincipal: dec("100000"),
		Status:               models.LoanStatusDisbursed,
	}
	require.NoError(t, loans.Create(loan))
	require.NoError(t, schedules.CreateBatch([]models.RepaymentSchedule{{
		OrganizationID:    orgID,
		LoanID:            loan.ID,
		InstallmentNumber: 1,
		DueDate:           asOf.AddDate(0, 0, -daysLate),
		PaymentStatus:     models.PaymentStatusPending,
	}}))
	return loan
}

func TestRunDailyRecompute(t *testing.T) {
	loans := newFakeLoanRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	classificationSvc := NewClassificationService(loans, schedules, collaterals)
	svc := NewGovernanceService(loans, nil, nil, classificationSvc, 3)

	performing := addActiveLoan(t, loans, schedules, 1, 0)
	watch := addActiveLoan(t, loans, schedules, 1, 15)
	doubtful := addActiveLoan(t, loans, schedules, 2, 120)

	// Terminal loans are outside the batch entirely.
	closed := &models.Loan{OrganizationID: 1, Reference: "closed", Status: models.LoanStatusClosed}
	require.NoError(t, loans.Create(closed))

	report, err := svc.RunDailyRecompute(0, asOf)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Empty(t, report.Failed)

	for _, tc := range []struct {
		loan   *models.Loan
		status models.LoanStatus
	}{
		{performing, models.LoanStatusPerforming},
		{watch, models.LoanStatusWatch},
		{doubtful, models.LoanStatusDoubtful},
	} {
		stored, err := loans.FindByID(tc.loan.OrganizationID, tc.loan.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.status, stored.Status, "loan %d", tc.loan.ID)
	}

	stored, err := loans.FindByID(1, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusClosed, stored.Status)
}

func TestRunDailyRecomputeScopedToOrganization(t *testing.T) {
	loans := newFakeLoanRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	classificationSvc := NewClassificationService(loans, schedules, collaterals)
	svc := NewGovernanceService(loans, nil, nil, classificationSvc, 2)

	addActiveLoan(t, loans, schedules, 1, 10)
	other := addActiveLoan(t, loans, schedules, 2, 10)

	report, err := svc.RunDailyRecompute(1, asOf)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	// The other tenant's loan was not touched.
	stored, err := loans.FindByID(2, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusDisbursed, stored.Status)
}

func TestRunDailyRecomputeIsolatesFailures(t *testing.T) {
	loans := newFakeLoanRepo()
	schedules := newFakeScheduleRepo()
	collaterals := newFakeCollateralRepo()
	classificationSvc := NewClassificationService(loans, schedules, collaterals)
	svc := NewGovernanceService(loans, nil, nil, classificationSvc, 2)

	healthy := addActiveLoan(t, loans, schedules, 1, 40)
	broken := addActiveLoan(t, loans, schedules, 1, 40)
	schedules.findErrFor = broken.ID

	report, err := svc.RunDailyRecompute(0, asOf)
	require.NoError(t, err)

	// The batch finishes: one loan processed, one reported as failed.
	assert.Equal(t, 1, report.Processed)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, broken.ID, report.Failed[0].LoanID)
	assert.NotEmpty(t, report.Failed[0].Error)

	stored, err := loans.FindByID(1, healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusSubstandard, stored.Status)
}
