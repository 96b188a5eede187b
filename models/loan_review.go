package models

import (
	"time"
)

// LoanReview represents one human decision event on a loan workflow. Reviews
// accumulate per loan; only the latest one moves the workflow step.
type LoanReview struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint           `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID         uint           `gorm:"column:loan_id;not null;index" json:"loan_id"`
	WorkflowID     uint           `gorm:"column:workflow_id;not null;index" json:"workflow_id"`
	Step           WorkflowStep   `gorm:"column:step;type:varchar(30);not null" json:"step"`
	ReviewerID     uint           `gorm:"column:reviewer_id;not null" json:"reviewer_id"`
	Decision       ReviewDecision `gorm:"column:decision;type:varchar(20);not null" json:"decision"`
	NextAssigneeID *uint          `gorm:"column:next_assignee_id" json:"next_assignee_id,omitempty"`
	Message        string         `gorm:"column:message;size:1000" json:"message,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LoanReview) TableName() string {
	return "loan_reviews"
}
