package models

import (
	"time"
)

// Organization represents a tenant. Every loan, workflow, schedule and
// collateral row is scoped to exactly one organization.
type Organization struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null;size:150" json:"name"`
	Email     string    `gorm:"column:email;unique;not null;size:100" json:"email"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}
