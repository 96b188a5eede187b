package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CollateralType represents the class of an asset pledged against a loan
type CollateralType string

const (
	CollateralMovable   CollateralType = "movable"
	CollateralImmovable CollateralType = "immovable"
	CollateralFinancial CollateralType = "financial"
	CollateralGuarantee CollateralType = "guarantee"
)

// Haircut returns the fraction of the nominal value recognized for
// provisioning purposes. Unknown types count for nothing.
func (t CollateralType) Haircut() decimal.Decimal {
	switch t {
	case CollateralMovable:
		return decimal.NewFromFloat(0.60)
	case CollateralImmovable:
		return decimal.NewFromFloat(0.80)
	case CollateralFinancial:
		return decimal.NewFromInt(1)
	case CollateralGuarantee:
		return decimal.NewFromFloat(0.20)
	default:
		return decimal.Zero
	}
}

// Collateral represents an asset pledged against a loan
type Collateral struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OrganizationID uint            `gorm:"column:organization_id;not null;index" json:"organization_id"`
	LoanID         uint            `gorm:"column:loan_id;not null;index" json:"loan_id"`
	Type           CollateralType  `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Description    string          `gorm:"column:description;size:255" json:"description,omitempty"`
	NominalValue   decimal.Decimal `gorm:"column:nominal_value;type:decimal(20,2);not null" json:"nominal_value"`
	CreatedAt      time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Collateral) TableName() string {
	return "collaterals"
}

// EffectiveValue returns the haircut-adjusted value rounded to 2 decimals.
func (c *Collateral) EffectiveValue() decimal.Decimal {
	return c.NominalValue.Mul(c.Type.Haircut()).Round(2)
}
