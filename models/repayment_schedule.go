package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment state of an installment
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// RepaymentSchedule represents one installment of a loan's repayment schedule
type RepaymentSchedule struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID    uint            `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID            uint            `gorm:"column:loan_id;not null;uniqueIndex:idx_loan_installment" json:"loan_id"`
	InstallmentNumber int             `gorm:"column:installment_number;not null;uniqueIndex:idx_loan_installment" json:"installment_number"`
	DueDate           time.Time       `gorm:"column:due_date;not null" json:"due_date"`
	PrincipalDue      decimal.Decimal `gorm:"column:principal_due;type:decimal(20,2);not null" json:"principal_due"`
	InterestDue       decimal.Decimal `gorm:"column:interest_due;type:decimal(20,2);not null" json:"interest_due"`
	DueTotal          decimal.Decimal `gorm:"column:due_total;type:decimal(20,2);not null" json:"due_total"`
	IsPaid            bool            `gorm:"column:is_paid;not null;default:false" json:"is_paid"`
	PaymentStatus     PaymentStatus   `gorm:"column:payment_status;type:varchar(20);not null;default:'pending'" json:"payment_status"`
	DaysOverdue       int             `gorm:"column:days_overdue;not null;default:0" json:"days_overdue"`
	CreatedAt         time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (RepaymentSchedule) TableName() string {
	return "repayment_schedules"
}
