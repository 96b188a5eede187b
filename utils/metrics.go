package utils

import (
	"sync"
	"time"
)

// Metrics holds in-process counters for the governance engine
type Metrics struct {
	mu sync.RWMutex

	// Workflow metrics
	TotalDecisions    int64
	DecisionsByType   map[string]int64
	LastDecisionTime  time.Time

	// Schedule metrics
	SchedulesGenerated int64

	// Recompute metrics
	RecomputeRuns        int64
	LoansClassified      int64
	ClassificationErrors int64
	LastRecomputeTime    time.Time
	ClassificationsByCategory map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics returns the process-wide metrics instance
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			DecisionsByType:           make(map[string]int64),
			ClassificationsByCategory: make(map[string]int64),
		}
	})
	return metrics
}

// RecordDecision counts one workflow decision
func (m *Metrics) RecordDecision(decision string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalDecisions++
	m.DecisionsByType[decision]++
	m.LastDecisionTime = time.Now()
}

// RecordScheduleGenerated counts one generated repayment schedule
func (m *Metrics) RecordScheduleGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SchedulesGenerated++
}

// RecordRecompute records the outcome of one daily recompute run
func (m *Metrics) RecordRecompute(processed, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecomputeRuns++
	m.LoansClassified += int64(processed)
	m.ClassificationErrors += int64(failed)
	m.LastRecomputeTime = time.Now()
}

// RecordClassification counts one classification by its category
func (m *Metrics) RecordClassification(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClassificationsByCategory[category]++
}

// Snapshot returns a copy of the counters safe to serialize
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	decisions := make(map[string]int64, len(m.DecisionsByType))
	for k, v := range m.DecisionsByType {
		decisions[k] = v
	}
	categories := make(map[string]int64, len(m.ClassificationsByCategory))
	for k, v := range m.ClassificationsByCategory {
		categories[k] = v
	}

	return map[string]interface{}{
		"total_decisions":             m.TotalDecisions,
		"decisions_by_type":           decisions,
		"schedules_generated":         m.SchedulesGenerated,
		"recompute_runs":              m.RecomputeRuns,
		"loans_classified":            m.LoansClassified,
		"classification_errors":       m.ClassificationErrors,
		"classifications_by_category": categories,
		"last_recompute_time":         m.LastRecomputeTime,
	}
}
