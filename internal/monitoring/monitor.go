package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps a small snapshot of recent activity for the stats endpoint.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// GetMetrics returns a copy of all current values plus uptime.
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// RecordCompletion stores the outcome of the latest completion call of one
// kind ("recipes" or "instructions") and bumps its counter.
func (m *Monitor) RecordCompletion(call string, duration time.Duration, outcome string) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	prefix := call + "_"

	count, _ := m.metrics[prefix+"count"].(int)
	m.metrics[prefix+"count"] = count + 1
	m.metrics[prefix+"last_outcome"] = outcome
	m.metrics[prefix+"last_duration_ms"] = duration.Milliseconds()
	m.metrics[prefix+"last_at"] = time.Now().Format(time.RFC3339)
}

// RecordSessions stores the number of live sessions.
func (m *Monitor) RecordSessions(active int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics["active_sessions"] = active
}
