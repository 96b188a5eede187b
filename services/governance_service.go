package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/repository"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

// GovernanceDecisionDTO couples a workflow decision with the approval terms
// needed when that decision completes the workflow.
type GovernanceDecisionDTO struct {
	AdvanceDecisionDTO
	Terms *ApprovalTerms `json:"terms,omitempty"`
}

// RecomputeFailure records one loan the daily recompute could not classify
type RecomputeFailure struct {
	LoanID uint   `json:"loan_id"`
	Error  string `json:"error"`
}

// RecomputeReport summarizes one daily recompute run
type RecomputeReport struct {
	Processed int                `json:"processed"`
	Failed    []RecomputeFailure `json:"failed"`
	StartedAt time.Time          `json:"started_at"`
	Duration  time.Duration      `json:"duration"`
}

// GovernanceService coordinates the workflow, schedule and classification
// engines: workflow completion triggers schedule generation, and the daily
// tick re-runs classification over every active loan.
type GovernanceService struct {
	loans          repository.LoanRepository
	workflowSvc    *WorkflowService
	scheduleSvc    *ScheduleService
	classification *ClassificationService
	workers        int
}

// NewGovernanceService creates a new GovernanceService instance
func NewGovernanceService(
	loans repository.LoanRepository,
	workflowSvc *WorkflowService,
	scheduleSvc *ScheduleService,
	classification *ClassificationService,
	workers int,
) *GovernanceService {
	if workers < 1 {
		workers = 1
	}
	return &GovernanceService{
		loans:          loans,
		workflowSvc:    workflowSvc,
		scheduleSvc:    scheduleSvc,
		classification: classification,
		workers:        workers,
	}
}

// SubmitDecision applies a reviewer decision and, when the decision completes
// the workflow, synchronously generates the repayment schedule with the final
// terms fixed at approval.
func (s *GovernanceService) SubmitDecision(dto GovernanceDecisionDTO) (*models.LoanWorkflow, error) {
	workflow, err := s.workflowSvc.Advance(dto.AdvanceDecisionDTO)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusCompleted {
		terms := ApprovalTerms{DisbursementDate: time.Now()}
		if dto.Terms != nil {
			terms = *dto.Terms
			if terms.DisbursementDate.IsZero() {
				terms.DisbursementDate = time.Now()
			}
		}
		if _, err := s.scheduleSvc.Generate(dto.OrganizationID, dto.LoanID, terms); err != nil {
			return nil, fmt.Errorf("loan approved but schedule generation failed: %w", err)
		}
		utils.GetMetrics().RecordScheduleGenerated()
	}

	return workflow, nil
}

// RunDailyRecompute reclassifies every active loan. organizationID 0 spans all
// tenants. One loan's failure never aborts the batch: failures are collected
// per loan and the run reports partial success.
func (s *GovernanceService) RunDailyRecompute(organizationID uint, asOf time.Time) (*RecomputeReport, error) {
	startedAt := time.Now()

	loans, err := s.loans.FindByStatuses(organizationID, models.ActiveStatuses())
	if err != nil {
		return nil, err
	}

	report := &RecomputeReport{StartedAt: startedAt, Failed: []RecomputeFailure{}}

	// Classification is pure and per-loan independent, so loans fan out over
	// a bounded pool; the report is the only shared state.
	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan models.Loan)

	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loan := range jobs {
				result, err := s.classification.Reclassify(loan.OrganizationID, loan.ID, asOf)
				mu.Lock()
				if err != nil {
					report.Failed = append(report.Failed, RecomputeFailure{LoanID: loan.ID, Error: err.Error()})
					utils.LogError("Classification failed for loan %d: %v", loan.ID, err)
				} else {
					report.Processed++
					utils.GetMetrics().RecordClassification(string(result.Category))
				}
				mu.Unlock()
			}
		}()
	}

	for _, loan := range loans {
		jobs <- loan
	}
	close(jobs)
	wg.Wait()

	report.Duration = time.Since(startedAt)
	utils.GetMetrics().RecordRecompute(report.Processed, len(report.Failed))
	utils.LogInfo("Daily recompute finished: %d processed, %d failed in %v",
		report.Processed, len(report.Failed), report.Duration)

	return report, nil
}
