package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ingatatech/loan-management-system-backend/middleware"
	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/services"
)

// LoanController handles loan intake, queries, disbursement and
// on-demand classification
type LoanController struct {
	loanService     *services.LoanService
	scheduleService *services.ScheduleService
	classification  *services.ClassificationService
}

// NewLoanController creates a new LoanController instance
func NewLoanController(
	loans *services.LoanService,
	schedules *services.ScheduleService,
	classification *services.ClassificationService,
) *LoanController {
	return &LoanController{
		loanService:     loans,
		scheduleService: schedules,
		classification:  classification,
	}
}

// CreateLoan registers a loan application and opens its approval workflow
func (c *LoanController) CreateLoan(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto services.CreateLoanDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.OrganizationID = organizationID

	loan, err := c.loanService.Create(dto)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, loan)
}

// GetLoans lists the organization's loans, optionally filtered by status
// via ?status=performing,watch
func (c *LoanController) GetLoans(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var statuses []models.LoanStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, models.LoanStatus(strings.TrimSpace(s)))
		}
	}

	loans, err := c.loanService.ListByStatuses(organizationID, statuses)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loans)
}

// GetLoan returns one loan by id
func (c *LoanController) GetLoan(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := c.loanService.GetByID(organizationID, loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// GetSchedule returns the loan's repayment schedule
func (c *LoanController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	schedule, err := c.scheduleService.Schedule(organizationID, loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// DisburseLoan marks an approved loan as disbursed
func (c *LoanController) DisburseLoan(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := c.loanService.Disburse(organizationID, loanID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loan)
}

// GetClassification classifies a loan as of today without persisting the
// result. The daily recompute is what moves loans between categories.
func (c *LoanController) GetClassification(w http.ResponseWriter, r *http.Request) {
	_, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	result, err := c.classification.ClassifyLoan(organizationID, loanID, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func loanIDFromRequest(r *http.Request) (uint, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
