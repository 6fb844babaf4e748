package reporting

import (
	"context"
	"strings"
	"sync"
)

// MockReporter is a mock reporter for testing.
type MockReporter struct {
	mu      sync.Mutex
	reports []MockReport
}

// MockReport represents a captured report for testing.
type MockReport struct {
	Severity Severity
	Message  string
	Fields   []any
}

// NewMockReporter creates a new mock reporter.
func NewMockReporter() *MockReporter {
	return &MockReporter{
		reports: make([]MockReport, 0),
	}
}

// Name returns the name of the reporter.
func (m *MockReporter) Name() string {
	return "mock"
}

// Report captures the report for later verification.
func (m *MockReporter) Report(_ context.Context, severity Severity, message string, fields ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, MockReport{
		Severity: severity,
		Message:  message,
		Fields:   fields,
	})
	return nil
}

// Reports returns all captured reports.
func (m *MockReporter) Reports() []MockReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockReport, len(m.reports))
	copy(result, m.reports)
	return result
}

// Clear clears all captured reports.
func (m *MockReporter) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = m.reports[:0]
}

// Count returns the number of captured reports.
func (m *MockReporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// HasReportWithSeverity checks if a report with the given severity was sent.
func (m *MockReporter) HasReportWithSeverity(severity Severity) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.Severity == severity {
			return true
		}
	}
	return false
}

// HasReportContaining checks if a report containing the substring was sent.
func (m *MockReporter) HasReportContaining(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// LastReport returns the last captured report, or nil if none.
func (m *MockReporter) LastReport() *MockReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reports) == 0 {
		return nil
	}
	last := m.reports[len(m.reports)-1]
	return &last
}
