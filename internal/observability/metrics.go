package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the API surface and the
// SLA engine.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	sweepRuns     int64
	ticketsSwept  int64
	escalations   map[string]int64
	warningCount  map[string]int64
	sweepFailures int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		escalations:  make(map[string]int64),
		warningCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordSweep accounts for one completed sweep pass.
func (m *Metrics) RecordSweep(evaluated int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepRuns++
	m.ticketsSwept += int64(evaluated)
}

// RecordEscalation counts an escalation by initiator.
func (m *Metrics) RecordEscalation(initiator string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escalations[initiator]++
}

// RecordSLAWarning counts a warning dispatch by kind.
func (m *Metrics) RecordSLAWarning(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warningCount[kind]++
}

// RecordSweepFailure counts a per-ticket failure inside a sweep pass.
func (m *Metrics) RecordSweepFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepFailures++
}

// Snapshot returns current counter values for the health endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := map[string]int64{
		"sweep_runs":     m.sweepRuns,
		"tickets_swept":  m.ticketsSwept,
		"sweep_failures": m.sweepFailures,
	}
	for initiator, n := range m.escalations {
		snapshot["escalations_"+initiator] = n
	}
	for kind, n := range m.warningCount {
		snapshot["warnings_"+kind] = n
	}
	return snapshot
}
