package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound     = errors.New("loan not found")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrScheduleNotFound = errors.New("repayment schedule not found")

	// ErrInvalidTransition is returned for any illegal state-machine move:
	// forwarding past the final step, approving before it, disbursing an
	// unapproved loan, or deciding on a finished workflow.
	ErrInvalidTransition = errors.New("invalid state transition")

	ErrNotAuthorizedForStep   = errors.New("user is not authorized for the current workflow step")
	ErrNotCurrentAssignee     = errors.New("user is not the current assignee")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrScheduleAlreadyExists  = errors.New("repayment schedule already exists for loan")
	ErrWorkflowAlreadyExists  = errors.New("workflow already exists for loan")

	ErrNonChronologicalSchedule = errors.New("custom schedule due dates must be strictly increasing")
	ErrNonPositiveAmount        = errors.New("installment amounts must be strictly positive")
	ErrInvalidLoanTerms         = errors.New("invalid loan terms")
)

// InsufficientScheduleTotalError reports a custom schedule whose total does not
// cover principal plus the minimum required interest.
type InsufficientScheduleTotalError struct {
	Required  decimal.Decimal
	Provided  decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientScheduleTotalError) Error() string {
	return fmt.Sprintf("schedule total %s is below the required %s (shortfall %s)",
		e.Provided.StringFixed(2), e.Required.StringFixed(2), e.Shortfall.StringFixed(2))
}

// ErrInsufficientScheduleTotal lets callers match the error class with errors.Is
// without knowing the amounts.
var ErrInsufficientScheduleTotal = errors.New("schedule total below principal plus minimum interest")

func (e *InsufficientScheduleTotalError) Is(target error) bool {
	return target == ErrInsufficientScheduleTotal
}
