package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassificationCategory represents a delinquency risk bucket
type ClassificationCategory string

const (
	CategoryPerforming  ClassificationCategory = "performing"
	CategoryWatch       ClassificationCategory = "watch"
	CategorySubstandard ClassificationCategory = "substandard"
	CategoryDoubtful    ClassificationCategory = "doubtful"
	CategoryLoss        ClassificationCategory = "loss"
)

// ClassificationResult is the derived output of classifying one loan.
// It is recomputed fresh on every run, never patched incrementally.
type ClassificationResult struct {
	LoanID            uint                   `json:"loan_id"`
	Category          ClassificationCategory `json:"category"`
	DaysOverdue       int                    `json:"days_overdue"`
	ProvisioningRate  decimal.Decimal        `json:"provisioning_rate"`
	NetExposure       decimal.Decimal        `json:"net_exposure"`
	RequiredProvision decimal.Decimal        `json:"required_provision"`
	AsOfDate          time.Time              `json:"as_of_date"`
}
