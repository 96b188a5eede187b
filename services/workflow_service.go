package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

// AdvanceDecisionDTO carries one reviewer decision on a loan workflow
type AdvanceDecisionDTO struct {
	OrganizationID uint                  `json:"-" validate:"required"`
	LoanID         uint                  `json:"-" validate:"required"`
	ReviewerID     uint                  `json:"-" validate:"required"`
	Decision       models.ReviewDecision `json:"decision" validate:"required,oneof=approve reject forward request_info"`
	NextAssigneeID *uint                 `json:"next_assignee_id,omitempty"`
	Message        string                `json:"message" validate:"max=1000"`
}

// ReassignDTO carries a request to hand the current step to another reviewer
type ReassignDTO struct {
	OrganizationID uint   `json:"-" validate:"required"`
	LoanID         uint   `json:"-" validate:"required"`
	FromUserID     uint   `json:"from_user_id" validate:"required"`
	ToUserID       uint   `json:"to_user_id" validate:"required"`
	Reason         string `json:"reason" validate:"max=500"`
	ActorID        uint   `json:"-" validate:"required"`
}

// WorkflowService drives the multi-step loan approval state machine
type WorkflowService struct {
	workflows repository.WorkflowRepository
	reviews   repository.ReviewRepository
	loans     repository.LoanRepository
	users     repository.UserRepository
	uow       repository.UnitOfWork
	email     *EmailService
	validator *validator.Validate
}

// NewWorkflowService creates a new WorkflowService instance
func NewWorkflowService(
	workflows repository.WorkflowRepository,
	reviews repository.ReviewRepository,
	loans repository.LoanRepository,
	users repository.UserRepository,
	uow repository.UnitOfWork,
	email *EmailService,
) *WorkflowService {
	return &WorkflowService{
		workflows: workflows,
		reviews:   reviews,
		loans:     loans,
		users:     users,
		uow:       uow,
		email:     email,
		validator: validator.New(),
	}
}

// Initialize creates the approval workflow for a loan, starting in progress at
// the loan officer step. It is idempotent: when a workflow already exists for
// the loan it is returned unchanged, absorbing duplicate-trigger retries.
func (s *WorkflowService) Initialize(organizationID, loanID, initialAssigneeID uint) (*models.LoanWorkflow, error) {
	existing, err := s.workflows.FindByLoanID(organizationID, loanID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, models.ErrWorkflowNotFound) {
		return nil, err
	}

	now := time.Now()
	workflow := &models.LoanWorkflow{
		OrganizationID:    organizationID,
		LoanID:            loanID,
		CurrentStep:       models.StepLoanOfficer,
		CurrentAssigneeID: initialAssigneeID,
		Status:            models.WorkflowStatusInProgress,
		StartedAt:         now,
	}
	workflow.Append(models.WorkflowEvent{
		Timestamp: now,
		Action:    models.ActionCreated,
		ToUserID:  initialAssigneeID,
		FromStep:  models.StepLoanOfficer,
		ToStep:    models.StepLoanOfficer,
	})

	if err := s.workflows.Create(workflow); err != nil {
		// Lost a creation race: fall back to the row that won (unique
		// constraint on loan_id is the source of truth).
		if errors.Is(err, models.ErrWorkflowAlreadyExists) {
			return s.workflows.FindByLoanID(organizationID, loanID)
		}
		return nil, err
	}
	return workflow, nil
}

// Advance applies one reviewer decision to the workflow. Concurrent calls on
// the same loan are linearized by the workflow's version check; the loser
// fails with ErrConcurrentModification.
func (s *WorkflowService) Advance(dto AdvanceDecisionDTO) (*models.LoanWorkflow, error) {
	if err := s.validateRequest(dto); err != nil {
		return nil, err
	}

	workflow, err := s.workflows.FindByLoanID(dto.OrganizationID, dto.LoanID)
	if err != nil {
		return nil, err
	}
	if workflow.IsTerminal() {
		return nil, fmt.Errorf("workflow is already %s: %w", workflow.Status, models.ErrInvalidTransition)
	}
	if workflow.CurrentAssigneeID != dto.ReviewerID {
		return nil, models.ErrNotAuthorizedForStep
	}

	loan, err := s.loans.FindByID(dto.OrganizationID, dto.LoanID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	fromStep := workflow.CurrentStep
	var loanChanged bool

	switch dto.Decision {
	case models.DecisionForward:
		if dto.NextAssigneeID == nil {
			return nil, fmt.Errorf("forward requires a next assignee: %w", models.ErrInvalidTransition)
		}
		nextStep, ok := fromStep.Next()
		if !ok {
			return nil, fmt.Errorf("cannot forward past %s: %w", fromStep, models.ErrInvalidTransition)
		}
		workflow.CurrentStep = nextStep
		workflow.CurrentAssigneeID = *dto.NextAssigneeID
		workflow.Append(models.WorkflowEvent{
			Timestamp:  now,
			Action:     models.ActionForwarded,
			FromUserID: dto.ReviewerID,
			ToUserID:   *dto.NextAssigneeID,
			FromStep:   fromStep,
			ToStep:     nextStep,
			Message:    dto.Message,
			Decision:   models.DecisionForward,
		})

	case models.DecisionApprove:
		if !fromStep.IsFinal() {
			return nil, fmt.Errorf("must forward, not approve, before the %s step: %w",
				models.StepManagingDirector, models.ErrInvalidTransition)
		}
		workflow.Status = models.WorkflowStatusCompleted
		workflow.CompletedAt = &now
		workflow.Append(models.WorkflowEvent{
			Timestamp:  now,
			Action:     models.ActionApproved,
			FromUserID: dto.ReviewerID,
			ToUserID:   dto.ReviewerID,
			FromStep:   fromStep,
			ToStep:     fromStep,
			Message:    dto.Message,
			Decision:   models.DecisionApprove,
		})
		if err := loan.Approve(now); err != nil {
			return nil, err
		}
		loanChanged = true

	case models.DecisionReject:
		workflow.Status = models.WorkflowStatusRejected
		workflow.CompletedAt = &now
		workflow.Append(models.WorkflowEvent{
			Timestamp:  now,
			Action:     models.ActionRejected,
			FromUserID: dto.ReviewerID,
			ToUserID:   dto.ReviewerID,
			FromStep:   fromStep,
			ToStep:     fromStep,
			Message:    dto.Message,
			Decision:   models.DecisionReject,
		})
		if err := loan.Reject(dto.Message); err != nil {
			return nil, err
		}
		loanChanged = true

	case models.DecisionRequestInfo:
		// Recorded without moving the step or the status.
		workflow.Append(models.WorkflowEvent{
			Timestamp:  now,
			Action:     models.ActionInfoRequested,
			FromUserID: dto.ReviewerID,
			ToUserID:   workflow.CurrentAssigneeID,
			FromStep:   fromStep,
			ToStep:     fromStep,
			Message:    dto.Message,
			Decision:   models.DecisionRequestInfo,
		})

	default:
		return nil, fmt.Errorf("unknown decision %q: %w", dto.Decision, models.ErrInvalidTransition)
	}

	review := &models.LoanReview{
		OrganizationID: dto.OrganizationID,
		LoanID:         dto.LoanID,
		WorkflowID:     workflow.ID,
		Step:           fromStep,
		ReviewerID:     dto.ReviewerID,
		Decision:       dto.Decision,
		NextAssigneeID: dto.NextAssigneeID,
		Message:        dto.Message,
	}

	// The workflow row, the audit review and the loan transition commit as
	// one unit. A transient failure rolls everything back, so the decision
	// is safe to retry: the workflow is never left terminal with the loan
	// still pending.
	err = s.uow.Execute(func(tx repository.DecisionSet) error {
		if err := tx.Workflows.Update(workflow); err != nil {
			return err
		}
		if err := tx.Reviews.Create(review); err != nil {
			return err
		}
		if loanChanged {
			return tx.Loans.Save(loan)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(dto.Decision, workflow, loan)
	utils.GetMetrics().RecordDecision(string(dto.Decision))

	return workflow, nil
}

// Reassign hands the current step to another reviewer without advancing it.
func (s *WorkflowService) Reassign(dto ReassignDTO) (*models.LoanWorkflow, error) {
	if err := s.validateRequest(dto); err != nil {
		return nil, err
	}

	workflow, err := s.workflows.FindByLoanID(dto.OrganizationID, dto.LoanID)
	if err != nil {
		return nil, err
	}
	if workflow.IsTerminal() {
		return nil, fmt.Errorf("workflow is already %s: %w", workflow.Status, models.ErrInvalidTransition)
	}
	if workflow.CurrentAssigneeID != dto.FromUserID {
		return nil, models.ErrNotCurrentAssignee
	}

	workflow.CurrentAssigneeID = dto.ToUserID
	workflow.Append(models.WorkflowEvent{
		Timestamp:  time.Now(),
		Action:     models.ActionReassigned,
		FromUserID: dto.FromUserID,
		ToUserID:   dto.ToUserID,
		FromStep:   workflow.CurrentStep,
		ToStep:     workflow.CurrentStep,
		Message:    dto.Reason,
	})

	if err := s.workflows.Update(workflow); err != nil {
		return nil, err
	}

	s.notifyAssignee(workflow)

	return workflow, nil
}

// History returns the workflow's ordered event log. It is never empty once the
// workflow exists: creation itself is entry #1.
func (s *WorkflowService) History(organizationID, loanID uint) (models.WorkflowHistory, error) {
	workflow, err := s.workflows.FindByLoanID(organizationID, loanID)
	if err != nil {
		return nil, err
	}
	return workflow.History, nil
}

// Workflow returns the workflow row for a loan.
func (s *WorkflowService) Workflow(organizationID, loanID uint) (*models.LoanWorkflow, error) {
	return s.workflows.FindByLoanID(organizationID, loanID)
}

// notify sends decision emails after the transition has been committed.
// Failures are logged and never roll the transition back.
func (s *WorkflowService) notify(decision models.ReviewDecision, workflow *models.LoanWorkflow, loan *models.Loan) {
	if s.email == nil {
		return
	}
	switch decision {
	case models.DecisionForward:
		s.notifyAssignee(workflow)
	case models.DecisionApprove:
		if loan.BorrowerEmail == "" {
			return
		}
		if err := s.email.SendLoanApprovedNotification(loan.BorrowerEmail, loan.Reference); err != nil {
			utils.LogError("Failed to send approval notification for loan %s: %v", loan.Reference, err)
		}
	case models.DecisionReject:
		if loan.BorrowerEmail == "" {
			return
		}
		if err := s.email.SendLoanRejectedNotification(loan.BorrowerEmail, loan.Reference, loan.RejectionReason); err != nil {
			utils.LogError("Failed to send rejection notification for loan %s: %v", loan.Reference, err)
		}
	}
}

func (s *WorkflowService) notifyAssignee(workflow *models.LoanWorkflow) {
	if s.email == nil || s.users == nil {
		return
	}
	assignee, err := s.users.FindByID(workflow.OrganizationID, workflow.CurrentAssigneeID)
	if err != nil {
		utils.LogError("Failed to resolve assignee %d for workflow %d: %v", workflow.CurrentAssigneeID, workflow.ID, err)
		return
	}
	if err := s.email.SendWorkflowAssignedNotification(assignee.Email, fmt.Sprintf("loan #%d", workflow.LoanID), string(workflow.CurrentStep)); err != nil {
		utils.LogError("Failed to send assignment notification for workflow %d: %v", workflow.ID, err)
	}
}

// validateRequest validates a DTO and flattens the validation errors
func (s *WorkflowService) validateRequest(dto interface{}) error {
	if err := s.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "field "+e.Field()+" is required")
			case "oneof":
				errorMessages = append(errorMessages, "field "+e.Field()+" must be one of: "+e.Param())
			case "max":
				errorMessages = append(errorMessages, "field "+e.Field()+" exceeds the maximum length")
			default:
				errorMessages = append(errorMessages, "field "+e.Field()+" is invalid")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}
