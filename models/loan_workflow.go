package models

import (
	"time"
)

// WorkflowStep represents a stage in the human approval chain
type WorkflowStep string

const (
	StepLoanOfficer      WorkflowStep = "loan_officer"
	StepBoardDirector    WorkflowStep = "board_director"
	StepSeniorManager    WorkflowStep = "senior_manager"
	StepManagingDirector WorkflowStep = "managing_director"
)

// WorkflowSteps lists the approval steps in their fixed order.
var WorkflowSteps = []WorkflowStep{
	StepLoanOfficer,
	StepBoardDirector,
	StepSeniorManager,
	StepManagingDirector,
}

// Next returns the step after s, or false when s is the final step.
func (s WorkflowStep) Next() (WorkflowStep, bool) {
	switch s {
	case StepLoanOfficer:
		return StepBoardDirector, true
	case StepBoardDirector:
		return StepSeniorManager, true
	case StepSeniorManager:
		return StepManagingDirector, true
	case StepManagingDirector:
		return "", false
	default:
		return "", false
	}
}

// IsFinal reports whether s is the last step of the chain.
func (s WorkflowStep) IsFinal() bool {
	return s == StepManagingDirector
}

// WorkflowStatus represents the overall state of an approval workflow
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"
	WorkflowStatusInProgress WorkflowStatus = "in_progress"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusRejected   WorkflowStatus = "rejected"
)

// ReviewDecision represents a decision taken by a reviewer at a step
type ReviewDecision string

const (
	DecisionApprove     ReviewDecision = "approve"
	DecisionReject      ReviewDecision = "reject"
	DecisionForward     ReviewDecision = "forward"
	DecisionRequestInfo ReviewDecision = "request_info"
)

// WorkflowAction tags an entry in the workflow history log
type WorkflowAction string

const (
	ActionCreated       WorkflowAction = "created"
	ActionForwarded     WorkflowAction = "forwarded"
	ActionApproved      WorkflowAction = "approved"
	ActionRejected      WorkflowAction = "rejected"
	ActionReassigned    WorkflowAction = "reassigned"
	ActionInfoRequested WorkflowAction = "info_requested"
)

// WorkflowEvent is one immutable entry in a workflow's history. Entries are
// only ever appended, never rewritten.
type WorkflowEvent struct {
	Timestamp  time.Time      `json:"timestamp"`
	Action     WorkflowAction `json:"action"`
	FromUserID uint           `json:"from_user_id"`
	ToUserID   uint           `json:"to_user_id"`
	FromStep   WorkflowStep   `json:"from_step"`
	ToStep     WorkflowStep   `json:"to_step"`
	Message    string         `json:"message,omitempty"`
	Decision   ReviewDecision `json:"decision,omitempty"`
}

// WorkflowHistory is the ordered, append-only event log stored as a JSON
// column on the workflow row.
type WorkflowHistory []WorkflowEvent

// LoanWorkflow represents the approval workflow of a loan (exactly one per loan)
type LoanWorkflow struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID    uint            `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID            uint            `gorm:"column:loan_id;not null;uniqueIndex" json:"loan_id"`
	CurrentStep       WorkflowStep    `gorm:"column:current_step;type:varchar(30);not null" json:"current_step"`
	CurrentAssigneeID uint            `gorm:"column:current_assignee_id;not null" json:"current_assignee_id"`
	Status            WorkflowStatus  `gorm:"column:status;type:varchar(20);not null;default:'in_progress'" json:"status"`
	History           WorkflowHistory `gorm:"column:workflow_history;type:jsonb;serializer:json" json:"history"`
	Version           int             `gorm:"column:version;not null;default:0" json:"-"`
	StartedAt         time.Time       `gorm:"column:started_at;not null" json:"started_at"`
	CompletedAt       *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (LoanWorkflow) TableName() string {
	return "loan_workflows"
}

// Append is the single code path that adds an event to the history.
func (w *LoanWorkflow) Append(event WorkflowEvent) {
	w.History = append(w.History, event)
}

// IsTerminal reports whether the workflow can accept further decisions.
func (w *LoanWorkflow) IsTerminal() bool {
	return w.Status == WorkflowStatusCompleted || w.Status == WorkflowStatusRejected
}
