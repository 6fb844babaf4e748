package reporting

import (
	"context"

	"github.com/tathienbao/signal-relay/internal/types"
)

// OutcomeSeverity maps an outcome kind to its report severity. Policy skips
// are routine and stay informational; environment errors and broker
// rejections warrant operator attention.
func OutcomeSeverity(kind types.OutcomeKind) Severity {
	switch {
	case kind.IsSuccess(), kind.IsSkip():
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Notify delivers a single outcome through the reporter.
func Notify(ctx context.Context, r Reporter, out types.Outcome) error {
	fields := make([]any, 0, 8)
	if out.Ticket != 0 {
		fields = append(fields, "ticket", out.Ticket)
	}
	if out.Symbol != "" {
		fields = append(fields, "symbol", out.Symbol)
	}
	if out.Retcode != 0 {
		fields = append(fields, "retcode", out.Retcode)
	}
	if out.SignalID != "" {
		fields = append(fields, "signal_id", out.SignalID)
	}
	return r.Report(ctx, OutcomeSeverity(out.Kind), out.Describe(), fields...)
}
