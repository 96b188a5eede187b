package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/loan-management-system-backend/services"
	"github.com/ingatatech/loan-management-system-backend/utils"
)

// OpsController serves the operational endpoints: health, metrics and a
// manual trigger for the daily recompute. These run on a separate port and
// are not tenant-scoped.
type OpsController struct {
	governance *services.GovernanceService
}

// NewOpsController creates a new OpsController instance
func NewOpsController(governance *services.GovernanceService) *OpsController {
	return &OpsController{governance: governance}
}

// Healthz reports liveness
func (c *OpsController) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// Metrics returns the in-process counters
func (c *OpsController) Metrics(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, utils.GetMetrics().Snapshot())
}

// TriggerRecompute runs the classification recompute immediately.
// organization_id=0 (the default) covers every tenant.
func (c *OpsController) TriggerRecompute(ctx *gin.Context) {
	var req struct {
		OrganizationID uint `json:"organization_id"`
	}
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	report, err := c.governance.RunDailyRecompute(req.OrganizationID, time.Now())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, report)
}
