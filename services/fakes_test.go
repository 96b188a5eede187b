package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
)

var errUserNotFound = errors.New("user not found")

// In-memory repositories backing the service tests. They mirror the
// constraint behavior of the gorm implementations: the unique loan_id on
// workflows, the unique (loan_id, installment_number) on schedules and the
// version check on workflow updates.

type fakeLoanRepo struct {
	mu     sync.Mutex
	nextID uint
	loans  map[uint]*models.Loan
	// saveErrFor makes Save fail for one loan id, for partial-failure tests
	saveErrFor uint
}

func newFakeLoanRepo() *fakeLoanRepo {
	return &fakeLoanRepo{nextID: 1, loans: map[uint]*models.Loan{}}
}

func (r *fakeLoanRepo) FindByID(organizationID, loanID uint) (*models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.loans[loanID]
	if !ok || loan.OrganizationID != organizationID {
		return nil, models.ErrLoanNotFound
	}
	copied := *loan
	return &copied, nil
}

func (r *fakeLoanRepo) FindByStatuses(organizationID uint, statuses []models.LoanStatus) ([]models.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := map[models.LoanStatus]bool{}
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []models.Loan
	for _, loan := range r.loans {
		if organizationID != 0 && loan.OrganizationID != organizationID {
			continue
		}
		if len(wanted) > 0 && !wanted[loan.Status] {
			continue
		}
		out = append(out, *loan)
	}
	return out, nil
}

func (r *fakeLoanRepo) Create(loan *models.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan.ID = r.nextID
	r.nextID++
	copied := *loan
	r.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) Save(loan *models.Loan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErrFor != 0 && loan.ID == r.saveErrFor {
		return fmt.Errorf("storage unavailable for loan %d", loan.ID)
	}
	copied := *loan
	r.loans[loan.ID] = &copied
	return nil
}

func (r *fakeLoanRepo) snapshot() map[uint]models.Loan {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uint]models.Loan, len(r.loans))
	for id, loan := range r.loans {
		snap[id] = *loan
	}
	return snap
}

func (r *fakeLoanRepo) restore(snap map[uint]models.Loan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans = make(map[uint]*models.Loan, len(snap))
	for id := range snap {
		loan := snap[id]
		r.loans[id] = &loan
	}
}

type fakeWorkflowRepo struct {
	mu        sync.Mutex
	nextID    uint
	workflows map[uint]*models.LoanWorkflow // keyed by loan id
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{nextID: 1, workflows: map[uint]*models.LoanWorkflow{}}
}

func (r *fakeWorkflowRepo) FindByLoanID(organizationID, loanID uint) (*models.LoanWorkflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wf, ok := r.workflows[loanID]
	if !ok || wf.OrganizationID != organizationID {
		return nil, models.ErrWorkflowNotFound
	}
	copied := *wf
	copied.History = append(models.WorkflowHistory{}, wf.History...)
	return &copied, nil
}

func (r *fakeWorkflowRepo) Create(workflow *models.LoanWorkflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workflows[workflow.LoanID]; exists {
		return models.ErrWorkflowAlreadyExists
	}
	workflow.ID = r.nextID
	r.nextID++
	copied := *workflow
	copied.History = append(models.WorkflowHistory{}, workflow.History...)
	r.workflows[workflow.LoanID] = &copied
	return nil
}

func (r *fakeWorkflowRepo) Update(workflow *models.LoanWorkflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.workflows[workflow.LoanID]
	if !ok {
		return models.ErrWorkflowNotFound
	}
	if stored.Version != workflow.Version {
		return models.ErrConcurrentModification
	}
	workflow.Version++
	copied := *workflow
	copied.History = append(models.WorkflowHistory{}, workflow.History...)
	r.workflows[workflow.LoanID] = &copied
	return nil
}

func (r *fakeWorkflowRepo) snapshot() map[uint]models.LoanWorkflow {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uint]models.LoanWorkflow, len(r.workflows))
	for loanID, wf := range r.workflows {
		copied := *wf
		copied.History = append(models.WorkflowHistory{}, wf.History...)
		snap[loanID] = copied
	}
	return snap
}

func (r *fakeWorkflowRepo) restore(snap map[uint]models.LoanWorkflow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows = make(map[uint]*models.LoanWorkflow, len(snap))
	for loanID := range snap {
		wf := snap[loanID]
		r.workflows[loanID] = &wf
	}
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []models.LoanReview
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{}
}

func (r *fakeReviewRepo) Create(review *models.LoanReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	review.ID = uint(len(r.reviews) + 1)
	r.reviews = append(r.reviews, *review)
	return nil
}

func (r *fakeReviewRepo) snapshot() []models.LoanReview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.LoanReview{}, r.reviews...)
}

func (r *fakeReviewRepo) restore(snap []models.LoanReview) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = snap
}

func (r *fakeReviewRepo) FindByLoanID(organizationID, loanID uint) ([]models.LoanReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.LoanReview
	for _, rev := range r.reviews {
		if rev.OrganizationID == organizationID && rev.LoanID == loanID {
			out = append(out, rev)
		}
	}
	return out, nil
}

// fakeUnitOfWork mirrors the transactional contract: when fn fails, every
// repository is rolled back to its state before the call.
type fakeUnitOfWork struct {
	loans     *fakeLoanRepo
	workflows *fakeWorkflowRepo
	reviews   *fakeReviewRepo
}

func newFakeUnitOfWork(loans *fakeLoanRepo, workflows *fakeWorkflowRepo, reviews *fakeReviewRepo) *fakeUnitOfWork {
	return &fakeUnitOfWork{loans: loans, workflows: workflows, reviews: reviews}
}

func (u *fakeUnitOfWork) Execute(fn func(tx repository.DecisionSet) error) error {
	loanSnap := u.loans.snapshot()
	workflowSnap := u.workflows.snapshot()
	reviewSnap := u.reviews.snapshot()

	err := fn(repository.DecisionSet{
		Loans:     u.loans,
		Workflows: u.workflows,
		Reviews:   u.reviews,
	})
	if err != nil {
		u.loans.restore(loanSnap)
		u.workflows.restore(workflowSnap)
		u.reviews.restore(reviewSnap)
		return err
	}
	return nil
}

type fakeScheduleRepo struct {
	mu           sync.Mutex
	nextID       uint
	installments []models.RepaymentSchedule
	findErrFor   uint
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{nextID: 1}
}

func (r *fakeScheduleRepo) FindByLoanID(organizationID, loanID uint) ([]models.RepaymentSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErrFor != 0 && loanID == r.findErrFor {
		return nil, fmt.Errorf("storage unavailable for loan %d", loanID)
	}
	var out []models.RepaymentSchedule
	for _, inst := range r.installments {
		if inst.OrganizationID == organizationID && inst.LoanID == loanID {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (r *fakeScheduleRepo) ExistsForLoan(organizationID, loanID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.installments {
		if inst.OrganizationID == organizationID && inst.LoanID == loanID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeScheduleRepo) CreateBatch(installments []models.RepaymentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range installments {
		for _, existing := range r.installments {
			if existing.LoanID == inst.LoanID && existing.InstallmentNumber == inst.InstallmentNumber {
				return models.ErrScheduleAlreadyExists
			}
		}
	}
	for i := range installments {
		installments[i].ID = r.nextID
		r.nextID++
		r.installments = append(r.installments, installments[i])
	}
	return nil
}

func (r *fakeScheduleRepo) Save(installment *models.RepaymentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.installments {
		if r.installments[i].ID == installment.ID {
			r.installments[i] = *installment
			return nil
		}
	}
	return models.ErrScheduleNotFound
}

type fakeCollateralRepo struct {
	mu          sync.Mutex
	collaterals []models.Collateral
}

func newFakeCollateralRepo() *fakeCollateralRepo {
	return &fakeCollateralRepo{}
}

func (r *fakeCollateralRepo) FindByLoanID(organizationID, loanID uint) ([]models.Collateral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Collateral
	for _, c := range r.collaterals {
		if c.OrganizationID == organizationID && c.LoanID == loanID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}}
}

func (r *fakeUserRepo) FindByID(organizationID, userID uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.OrganizationID != organizationID {
		return nil, errUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errUserNotFound
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uint(len(r.users) + 1)
	copied := *user
	r.users[user.ID] = &copied
	return nil
}
