// Package reporting delivers per-order outcomes to the operator.
package reporting

import (
	"context"
	"fmt"
)

// Severity represents the report severity level.
type Severity int

const (
	// SeverityInfo is for informational messages, including policy skips.
	SeverityInfo Severity = iota
	// SeverityWarning is for environment errors and broker rejections.
	SeverityWarning
	// SeverityCritical is for conditions requiring immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns an emoji for the severity level.
func (s Severity) Emoji() string {
	switch s {
	case SeverityInfo:
		return "ℹ️"
	case SeverityWarning:
		return "⚠️"
	case SeverityCritical:
		return "🚨"
	default:
		return "❓"
	}
}

// Reporter defines the interface for delivering outcome reports.
type Reporter interface {
	// Report delivers a message with the given severity.
	Report(ctx context.Context, severity Severity, message string, fields ...any) error
	// Name returns the name of the reporter.
	Name() string
}

// FormatFields converts variadic key/value fields to a formatted string.
func FormatFields(fields ...any) string {
	if len(fields) == 0 {
		return ""
	}

	result := ""
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if result != "" {
			result += "\n"
		}
		result += fmt.Sprintf("• %s: %v", key, value)
	}
	return result
}
