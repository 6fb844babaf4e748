package reporting

import (
	"context"
	"log/slog"
)

// ConsoleReporter logs reports to the console using slog.
// Useful for development and paper mode.
type ConsoleReporter struct {
	logger *slog.Logger
}

// NewConsoleReporter creates a new console reporter.
func NewConsoleReporter(logger *slog.Logger) *ConsoleReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleReporter{logger: logger}
}

// Name returns the name of the reporter.
func (c *ConsoleReporter) Name() string {
	return "console"
}

// Report logs a report to the console.
func (c *ConsoleReporter) Report(_ context.Context, severity Severity, message string, fields ...any) error {
	attrs := make([]any, 0, len(fields)+2)
	attrs = append(attrs, "severity", severity.String())
	attrs = append(attrs, fields...)

	switch severity {
	case SeverityCritical:
		c.logger.Error("[REPORT] "+message, attrs...)
	case SeverityWarning:
		c.logger.Warn("[REPORT] "+message, attrs...)
	default:
		c.logger.Info("[REPORT] "+message, attrs...)
	}

	return nil
}
