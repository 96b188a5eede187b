package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ingatatech/loan-management-system-backend/models"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

// writeError maps service errors to HTTP status codes. Typed domain errors
// keep their message; anything unrecognized becomes an opaque 500 so internal
// details never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, models.ErrLoanNotFound),
		errors.Is(err, models.ErrWorkflowNotFound),
		errors.Is(err, models.ErrScheduleNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, models.ErrNotAuthorizedForStep),
		errors.Is(err, models.ErrNotCurrentAssignee):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrScheduleAlreadyExists),
		errors.Is(err, models.ErrWorkflowAlreadyExists),
		errors.Is(err, models.ErrConcurrentModification):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, models.ErrInvalidLoanTerms),
		errors.Is(err, models.ErrNonPositiveAmount),
		errors.Is(err, models.ErrNonChronologicalSchedule),
		errors.Is(err, models.ErrInsufficientScheduleTotal):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		utils.LogError("Unhandled error: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON sends a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
