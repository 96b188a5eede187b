package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/ingatatech/loan-management-system-backend/middleware"
	"github.com/ingatatech/loan-management-system-backend/services"
)

// WorkflowController exposes the approval workflow: decisions, reassignment
// and history. Decisions go through the governance service so that a
// completed workflow immediately produces a repayment schedule.
type WorkflowController struct {
	governance  *services.GovernanceService
	workflowSvc *services.WorkflowService
}

// NewWorkflowController creates a new WorkflowController instance
func NewWorkflowController(governance *services.GovernanceService, workflows *services.WorkflowService) *WorkflowController {
	return &WorkflowController{
		governance:  governance,
		workflowSvc: workflows,
	}
}

// SubmitDecision records one reviewer decision on the loan's workflow
func (c *WorkflowController) SubmitDecision(w http.ResponseWriter, r *http.Request) {
	userID, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var dto services.GovernanceDecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.OrganizationID = organizationID
	dto.LoanID = loanID
	dto.ReviewerID = userID

	workflow, err := c.governance.SubmitDecision(dto)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workflow)
}

// Reassign hands the current step to another reviewer
func (c *WorkflowController) Reassign(w http.ResponseWriter, r *http.Request) {
	userID, organizationID, err := middleware.GetUserFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	loanID, err := loanIDFromRequest(r)
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	var dto services.ReassignDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	dto.OrganizationID = organizationID
	dto.LoanID = loanID
	dto.ActorID = userID

	workflow, err := c.workflowSvc.Reassign(dto)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workflow)
}

// GetWorkflow returns the loan's workflow with its current step and assignee
func (c *WorkflowController) GetWorkflow(w http.ResponseWriter, r *http.Request) {
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

	workflow, err := c.workflowSvc.Workflow(organizationID, loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workflow)
}

// GetHistory returns the loan's append-only workflow event log
func (c *WorkflowController) GetHistory(w http.ResponseWriter, r *http.Request) {
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

	history, err := c.workflowSvc.History(organizationID, loanID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
