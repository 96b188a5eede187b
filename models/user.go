package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// UserRole maps a user to the workflow step they normally act at. The role is
// informational; the workflow engine's assignee check is the authorization
// precondition.
type UserRole string

const (
	RoleLoanOfficer      UserRole = "loan_officer"
	RoleBoardDirector    UserRole = "board_director"
	RoleSeniorManager    UserRole = "senior_manager"
	RoleManagingDirector UserRole = "managing_director"
)

type User struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	OrganizationID uint      `gorm:"column:organization_id;not null;index"`
	FirstName      string    `gorm:"column:first_name;not null;size:50"`
	LastName       string    `gorm:"column:last_name;not null;size:50"`
	Email          string    `gorm:"column:email;unique;not null;size:100;index"`
	Password       string    `gorm:"column:password;not null;size:100"`
	Role           UserRole  `gorm:"column:role;type:varchar(30);not null;default:'loan_officer'"`
	CreatedAt      time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate hook validates the record before it is inserted
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.FirstName) < 2 || len(u.FirstName) > 50 {
		return errors.New("first name must be between 2 and 50 characters")
	}
	if len(u.LastName) < 2 || len(u.LastName) > 50 {
		return errors.New("last name must be between 2 and 50 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 100 {
		return errors.New("email must be between 3 and 100 characters")
	}
	if u.OrganizationID == 0 {
		return errors.New("user must belong to an organization")
	}
	return nil
}
