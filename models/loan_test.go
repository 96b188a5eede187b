package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanTransitions(t *testing.T) {
	now := time.Now()

	loan := &Loan{Status: LoanStatusPending}
	require.NoError(t, loan.Approve(now))
	assert.Equal(t, LoanStatusApproved, loan.Status)

	// Approve is not repeatable and Reject no longer applies.
	assert.ErrorIs(t, loan.Approve(now), ErrInvalidTransition)
	assert.ErrorIs(t, loan.Reject("late"), ErrInvalidTransition)

	require.NoError(t, loan.Disburse(now))
	assert.Equal(t, LoanStatusDisbursed, loan.Status)
	assert.ErrorIs(t, loan.Disburse(now), ErrInvalidTransition)
}

func TestLoanRejectKeepsReason(t *testing.T) {
	loan := &Loan{Status: LoanStatusPending}
	require.NoError(t, loan.Reject("missing documents"))
	assert.Equal(t, LoanStatusRejected, loan.Status)
	assert.Equal(t, "missing documents", loan.RejectionReason)
}

func TestApplyClassificationSkipsUndisbursed(t *testing.T) {
	loan := &Loan{Status: LoanStatusPending}
	loan.ApplyClassification(CategoryLoss, 200)
	assert.Equal(t, LoanStatusPending, loan.Status)
	assert.Equal(t, 0, loan.DaysInArrears)

	loan.Status = LoanStatusDisbursed
	loan.ApplyClassification(CategoryWatch, 12)
	assert.Equal(t, LoanStatusWatch, loan.Status)
	assert.Equal(t, 12, loan.DaysInArrears)
}

func TestWorkflowHistorySerialization(t *testing.T) {
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	history := WorkflowHistory{
		{Timestamp: now, Action: ActionCreated, ToUserID: 11, FromStep: StepLoanOfficer, ToStep: StepLoanOfficer},
		{Timestamp: now.Add(time.Hour), Action: ActionForwarded, FromUserID: 11, ToUserID: 12,
			FromStep: StepLoanOfficer, ToStep: StepBoardDirector, Decision: DecisionForward, Message: "ok"},
	}

	raw, err := json.Marshal(history)
	require.NoError(t, err)

	var decoded WorkflowHistory
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, history, decoded)
}

func TestWorkflowStepOrder(t *testing.T) {
	step := StepLoanOfficer
	var hops int
	for {
		next, ok := step.Next()
		if !ok {
			break
		}
		step = next
		hops++
	}
	assert.Equal(t, 3, hops)
	assert.Equal(t, StepManagingDirector, step)
	assert.True(t, step.IsFinal())
	assert.False(t, StepSeniorManager.IsFinal())
}
