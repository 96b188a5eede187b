package services

import (
	"time"

	"github.com/ingatatech/loan-management-system-backend/utils"
)

// RecomputeSchedulerService periodically triggers the daily classification
// recompute. The call contract is the same one an external cron would use.
type RecomputeSchedulerService struct {
	governance *GovernanceService
	interval   time.Duration
	stop       chan struct{}
}

// NewRecomputeSchedulerService creates a new RecomputeSchedulerService instance
func NewRecomputeSchedulerService(governance *GovernanceService, interval time.Duration) *RecomputeSchedulerService {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RecomputeSchedulerService{
		governance: governance,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

// Start launches the recompute ticker
func (s *RecomputeSchedulerService) Start() {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.governance.RunDailyRecompute(0, time.Now()); err != nil {
					utils.LogError("Scheduled recompute failed: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the ticker
func (s *RecomputeSchedulerService) Stop() {
	close(s.stop)
}
