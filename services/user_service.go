package services

import (
	"errors"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages organization staff accounts
type UserService struct {
	users repository.UserRepository
}

type UserDTO struct {
	ID             uint            `json:"id"`
	OrganizationID uint            `json:"organizationId"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Email          string          `json:"email"`
	Role           models.UserRole `json:"role"`
}

type CreateUserRequest struct {
	OrganizationID uint            `json:"organizationId" validate:"required"`
	FirstName      string          `json:"firstName" validate:"required,min=2,max=50"`
	LastName       string          `json:"lastName" validate:"required,min=2,max=50"`
	Email          string          `json:"email" validate:"required,email"`
	Password       string          `json:"password" validate:"required,min=8"`
	Role           models.UserRole `json:"role" validate:"required,oneof=loan_officer board_director senior_manager managing_director"`
}

// NewUserService creates a new UserService instance
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// CreateUserInternal creates a new staff account
func (h *UserService) CreateUserInternal(req CreateUserRequest) (*models.User, error) {
	// Reject a duplicate email before hashing
	if existing, _ := h.users.FindByEmail(req.Email); existing != nil {
		return nil, errors.New("user with this email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		OrganizationID: req.OrganizationID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Password:       string(hashedPassword),
		Role:           req.Role,
	}

	if err := h.users.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// FindByEmail looks a user up by email (case and whitespace insensitive)
func (h *UserService) FindByEmail(email string) (*models.User, error) {
	return h.users.FindByEmail(email)
}

// ToDTO converts a user to its API representation
func (h *UserService) ToDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		Email:          user.Email,
		Role:           user.Role,
	}
}
