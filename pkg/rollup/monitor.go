package rollup

import (
	"sync"
	"time"
)

// unhealthyAfterErrors is how many consecutive failures an interval may
// accumulate before the health endpoint reports it unhealthy.
const unhealthyAfterErrors = 3

// Monitor tracks rollup health per interval for the health endpoint.
type Monitor struct {
	mu        sync.RWMutex
	intervals map[Interval]*intervalState
}

type intervalState struct {
	lastSuccess       time.Time
	lastAttempt       time.Time
	consecutiveErrors int
	lastError         string
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{intervals: make(map[Interval]*intervalState)}
}

func (m *Monitor) state(interval Interval) *intervalState {
	st, ok := m.intervals[interval]
	if !ok {
		st = &intervalState{}
		m.intervals[interval] = st
	}
	return st
}

// RecordSuccess records a successful bucket update.
func (m *Monitor) RecordSuccess(interval Interval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(interval)
	now := time.Now()
	st.lastSuccess = now
	st.lastAttempt = now
	st.consecutiveErrors = 0
	st.lastError = ""
}

// RecordFailure records a failed bucket update.
func (m *Monitor) RecordFailure(interval Interval, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state(interval)
	st.lastAttempt = time.Now()
	st.consecutiveErrors++
	if err != nil {
		st.lastError = err.Error()
	}
}

// IntervalStatus reports one interval's rollup health.
type IntervalStatus struct {
	Healthy           bool   `json:"healthy"`
	LastSuccess       string `json:"last_success,omitempty"`
	LastAttempt       string `json:"last_attempt,omitempty"`
	ConsecutiveErrors int    `json:"consecutive_errors,omitempty"`
	LastError         string `json:"last_error,omitempty"`
}

// Status returns per-interval rollup health. An interval that has never
// been attempted is healthy: no data is not a failure.
func (m *Monitor) Status() map[Interval]IntervalStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[Interval]IntervalStatus, len(Intervals))
	for _, interval := range Intervals {
		st, ok := m.intervals[interval]
		if !ok {
			out[interval] = IntervalStatus{Healthy: true}
			continue
		}

		status := IntervalStatus{
			Healthy: st.consecutiveErrors <= unhealthyAfterErrors,
		}
		if !st.lastSuccess.IsZero() {
			status.LastSuccess = st.lastSuccess.Format(time.RFC3339)
		}
		if !st.lastAttempt.IsZero() {
			status.LastAttempt = st.lastAttempt.Format(time.RFC3339)
		}
		if st.consecutiveErrors > 0 {
			status.ConsecutiveErrors = st.consecutiveErrors
			status.LastError = st.lastError
		}
		out[interval] = status
	}
	return out
}

// Healthy reports whether every interval is healthy.
func (m *Monitor) Healthy() bool {
	for _, st := range m.Status() {
		if !st.Healthy {
			return false
		}
	}
	return true
}
