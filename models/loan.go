package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents the lifecycle status of a loan
type LoanStatus string

const (
	LoanStatusPending     LoanStatus = "pending"
	LoanStatusApproved    LoanStatus = "approved"
	LoanStatusRejected    LoanStatus = "rejected"
	LoanStatusDisbursed   LoanStatus = "disbursed"
	LoanStatusPerforming  LoanStatus = "performing"
	LoanStatusWatch       LoanStatus = "watch"
	LoanStatusSubstandard LoanStatus = "substandard"
	LoanStatusDoubtful    LoanStatus = "doubtful"
	LoanStatusLoss        LoanStatus = "loss"
	LoanStatusClosed      LoanStatus = "closed"
	LoanStatusWrittenOff  LoanStatus = "written_off"
)

// InterestMethod represents how interest is computed over the term
type InterestMethod string

const (
	InterestMethodFlat            InterestMethod = "flat"
	InterestMethodReducingBalance InterestMethod = "reducing_balance"
)

// RepaymentFrequency represents how often installments fall due
type RepaymentFrequency string

const (
	FrequencyMonthly    RepaymentFrequency = "monthly"
	FrequencyQuarterly  RepaymentFrequency = "quarterly"
	FrequencySemiAnnual RepaymentFrequency = "semi_annual"
	FrequencyAnnual     RepaymentFrequency = "annual"
)

// MonthsPerPeriod returns the length of one repayment period in months,
// or 0 for an unknown frequency.
func (f RepaymentFrequency) MonthsPerPeriod() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	case FrequencyAnnual:
		return 12
	default:
		return 0
	}
}

// RepaymentModality represents the shape of the repayment schedule
type RepaymentModality string

const (
	ModalitySingle               RepaymentModality = "single"
	ModalityMultipleWithInterest RepaymentModality = "multiple_with_interest"
	ModalityMultipleOnlyInterest RepaymentModality = "multiple_only_interest"
	ModalityCustomized           RepaymentModality = "customized"
)

// Loan represents a loan application and, once disbursed, the live exposure
type Loan struct {
	ID                    uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference             string             `gorm:"column:reference;size:36;uniqueIndex;not null" json:"reference"`
	OrganizationID        uint               `gorm:"column:organization_id;not null;index" json:"organization_id"`
	BorrowerID            uint               `gorm:"column:borrower_id;not null;index" json:"borrower_id"`
	BorrowerEmail         string             `gorm:"column:borrower_email;size:100" json:"borrower_email,omitempty"`
	DisbursedAmount       decimal.Decimal    `gorm:"column:disbursed_amount;type:decimal(20,2);not null" json:"disbursed_amount"`
	AnnualInterestRate    decimal.Decimal    `gorm:"column:annual_interest_rate;type:decimal(8,4);not null" json:"annual_interest_rate"`
	InterestMethod        InterestMethod     `gorm:"column:interest_method;type:varchar(20);not null;default:'flat'" json:"interest_method"`
	TermInMonths          int                `gorm:"column:term_in_months;not null" json:"term_in_months"`
	RepaymentFrequency    RepaymentFrequency `gorm:"column:repayment_frequency;type:varchar(20);not null;default:'monthly'" json:"repayment_frequency"`
	RepaymentModality     RepaymentModality  `gorm:"column:repayment_modality;type:varchar(30);not null" json:"repayment_modality"`
	GracePeriodMonths     int                `gorm:"column:grace_period_months;not null;default:0" json:"grace_period_months"`
	SinglePaymentMonths   int                `gorm:"column:single_payment_months;not null;default:0" json:"single_payment_months"`
	OutstandingPrincipal  decimal.Decimal    `gorm:"column:outstanding_principal;type:decimal(20,2);not null;default:0" json:"outstanding_principal"`
	AccruedInterestToDate decimal.Decimal    `gorm:"column:accrued_interest_to_date;type:decimal(20,2);not null;default:0" json:"accrued_interest_to_date"`
	TotalAmountToBeRepaid decimal.Decimal    `gorm:"column:total_amount_to_be_repaid;type:decimal(20,2);not null;default:0" json:"total_amount_to_be_repaid"`
	DaysInArrears         int                `gorm:"column:days_in_arrears;not null;default:0" json:"days_in_arrears"`
	Status                LoanStatus         `gorm:"column:status;type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectionReason       string             `gorm:"column:rejection_reason;size:500" json:"rejection_reason,omitempty"`
	ApprovedAt            *time.Time         `gorm:"column:approved_at" json:"approved_at,omitempty"`
	DisbursementDate      *time.Time         `gorm:"column:disbursement_date" json:"disbursement_date,omitempty"`
	MaturityDate          *time.Time         `gorm:"column:maturity_date" json:"maturity_date,omitempty"`
	CreatedAt             time.Time          `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Loan) TableName() string {
	return "loans"
}

// classifiedStatuses are the statuses a disbursed loan moves through under
// daily classification.
var classifiedStatuses = map[LoanStatus]bool{
	LoanStatusDisbursed:   true,
	LoanStatusPerforming:  true,
	LoanStatusWatch:       true,
	LoanStatusSubstandard: true,
	LoanStatusDoubtful:    true,
	LoanStatusLoss:        true,
}

// ActiveStatuses returns the statuses included in the daily recompute.
func ActiveStatuses() []LoanStatus {
	return []LoanStatus{
		LoanStatusDisbursed,
		LoanStatusPerforming,
		LoanStatusWatch,
		LoanStatusSubstandard,
		LoanStatusDoubtful,
	}
}

// Approve moves a pending loan to approved. Only the workflow engine calls this.
func (l *Loan) Approve(at time.Time) error {
	if l.Status != LoanStatusPending {
		return ErrInvalidTransition
	}
	l.Status = LoanStatusApproved
	l.ApprovedAt = &at
	return nil
}

// Reject moves a pending loan to rejected with the reviewer's reason.
func (l *Loan) Reject(reason string) error {
	if l.Status != LoanStatusPending {
		return ErrInvalidTransition
	}
	l.Status = LoanStatusRejected
	l.RejectionReason = reason
	return nil
}

// Disburse moves an approved loan to disbursed and opens the exposure.
func (l *Loan) Disburse(at time.Time) error {
	if l.Status != LoanStatusApproved {
		return ErrInvalidTransition
	}
	l.Status = LoanStatusDisbursed
	l.DisbursementDate = &at
	l.OutstandingPrincipal = l.DisbursedAmount
	return nil
}

// ApplyClassification mirrors a classification category into the loan status.
// Loans outside the disbursed family (closed, written off, not yet disbursed)
// are left untouched.
func (l *Loan) ApplyClassification(category ClassificationCategory, daysInArrears int) {
	if !classifiedStatuses[l.Status] {
		return
	}
	l.DaysInArrears = daysInArrears
	switch category {
	case CategoryPerforming:
		l.Status = LoanStatusPerforming
	case CategoryWatch:
		l.Status = LoanStatusWatch
	case CategorySubstandard:
		l.Status = LoanStatusSubstandard
	case CategoryDoubtful:
		l.Status = LoanStatusDoubtful
	case CategoryLoss:
		l.Status = LoanStatusLoss
	}
}
