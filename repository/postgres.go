package repository

import (
	"errors"

	"github.com/ingatatech/loan-management-system-backend/models"
	"gorm.io/gorm"
)

// GormLoanRepository implements LoanRepository on gorm
type GormLoanRepository struct {
	db *gorm.DB
}

func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

func (r *GormLoanRepository) FindByID(organizationID, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.Where("organization_id = ?", organizationID).First(&loan, loanID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *GormLoanRepository) FindByStatuses(organizationID uint, statuses []models.LoanStatus) ([]models.Loan, error) {
	var loans []models.Loan
	query := r.db.Where("status IN ?", statuses)
	if organizationID != 0 {
		query = query.Where("organization_id = ?", organizationID)
	}
	if err := query.Order("id ASC").Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *GormLoanRepository) Create(loan *models.Loan) error {
	return r.db.Create(loan).Error
}

func (r *GormLoanRepository) Save(loan *models.Loan) error {
	return r.db.Save(loan).Error
}

// GormWorkflowRepository implements WorkflowRepository on gorm
type GormWorkflowRepository struct {
	db *gorm.DB
}

func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{db: db}
}

func (r *GormWorkflowRepository) FindByLoanID(organizationID, loanID uint) (*models.LoanWorkflow, error) {
	var workflow models.LoanWorkflow
	err := r.db.Where("organization_id = ? AND loan_id = ?", organizationID, loanID).
		First(&workflow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrWorkflowNotFound
		}
		return nil, err
	}
	return &workflow, nil
}

func (r *GormWorkflowRepository) Create(workflow *models.LoanWorkflow) error {
	if err := r.db.Create(workflow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrWorkflowAlreadyExists
		}
		return err
	}
	return nil
}

// Update saves the workflow guarded by its version column. A stale version
// means a concurrent advance won the race. The update goes through the
// struct so the history serializer applies to the jsonb column.
func (r *GormWorkflowRepository) Update(workflow *models.LoanWorkflow) error {
	currentVersion := workflow.Version
	workflow.Version++
	result := r.db.Model(&models.LoanWorkflow{ID: workflow.ID}).
		Where("version = ?", currentVersion).
		Select("current_step", "current_assignee_id", "status", "workflow_history", "completed_at", "version").
		Updates(workflow)
	if result.Error != nil {
		workflow.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		workflow.Version = currentVersion
		return models.ErrConcurrentModification
	}
	return nil
}

// GormReviewRepository implements ReviewRepository on gorm
type GormReviewRepository struct {
	db *gorm.DB
}

func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

func (r *GormReviewRepository) Create(review *models.LoanReview) error {
	return r.db.Create(review).Error
}

func (r *GormReviewRepository) FindByLoanID(organizationID, loanID uint) ([]models.LoanReview, error) {
	var reviews []models.LoanReview
	err := r.db.Where("organization_id = ? AND loan_id = ?", organizationID, loanID).
		Order("created_at ASC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// GormScheduleRepository implements ScheduleRepository on gorm
type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) FindByLoanID(organizationID, loanID uint) ([]models.RepaymentSchedule, error) {
	var installments []models.RepaymentSchedule
	err := r.db.Where("organization_id = ? AND loan_id = ?", organizationID, loanID).
		Order("installment_number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *GormScheduleRepository) ExistsForLoan(organizationID, loanID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.RepaymentSchedule{}).
		Where("organization_id = ? AND loan_id = ?", organizationID, loanID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormScheduleRepository) CreateBatch(installments []models.RepaymentSchedule) error {
	if len(installments) == 0 {
		return nil
	}
	if err := r.db.Create(&installments).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrScheduleAlreadyExists
		}
		return err
	}
	return nil
}

func (r *GormScheduleRepository) Save(installment *models.RepaymentSchedule) error {
	return r.db.Save(installment).Error
}

// GormCollateralRepository implements CollateralRepository on gorm
type GormCollateralRepository struct {
	db *gorm.DB
}

func NewGormCollateralRepository(db *gorm.DB) *GormCollateralRepository {
	return &GormCollateralRepository{db: db}
}

func (r *GormCollateralRepository) FindByLoanID(organizationID, loanID uint) ([]models.Collateral, error) {
	var collaterals []models.Collateral
	err := r.db.Where("organization_id = ? AND loan_id = ?", organizationID, loanID).
		Find(&collaterals).Error
	if err != nil {
		return nil, err
	}
	return collaterals, nil
}

// GormUnitOfWork implements UnitOfWork on a gorm transaction. The set handed
// to fn is bound to the transaction, so an error from fn rolls every write back.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Execute(fn func(tx DecisionSet) error) error {
	return u.db.Transaction(func(tx *gorm.DB) error {
		return fn(DecisionSet{
			Loans:     NewGormLoanRepository(tx),
			Workflows: NewGormWorkflowRepository(tx),
			Reviews:   NewGormReviewRepository(tx),
		})
	})
}

// GormUserRepository implements UserRepository on gorm
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(organizationID, userID uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("organization_id = ?", organizationID).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}
