package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OutcomeKind classifies the result of one attempted operation.
type OutcomeKind int

const (
	// Successes
	OutcomeOpened OutcomeKind = iota
	OutcomeClosed
	OutcomeModified

	// Broker rejections (result returned, non-success retcode)
	OutcomeRejected

	// Environment errors
	OutcomeSymbolNotFound
	OutcomeSymbolUnavailable
	OutcomeQuoteUnavailable
	OutcomeGatewayUnreachable

	// Policy skips (expected, not failures)
	OutcomeSkippedNotProfitable
	OutcomeSkippedNotInProfit
	OutcomeUnchanged
	OutcomeMissingStopLoss
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOpened:
		return "opened"
	case OutcomeClosed:
		return "closed"
	case OutcomeModified:
		return "modified"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSymbolNotFound:
		return "symbol_not_found"
	case OutcomeSymbolUnavailable:
		return "symbol_unavailable"
	case OutcomeQuoteUnavailable:
		return "quote_unavailable"
	case OutcomeGatewayUnreachable:
		return "gateway_unreachable"
	case OutcomeSkippedNotProfitable:
		return "skipped_not_profitable"
	case OutcomeSkippedNotInProfit:
		return "skipped_not_in_profit"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeMissingStopLoss:
		return "missing_stop_loss"
	default:
		return "unknown"
	}
}

// IsSuccess reports whether the operation resulted in an executed order.
func (k OutcomeKind) IsSuccess() bool {
	switch k {
	case OutcomeOpened, OutcomeClosed, OutcomeModified:
		return true
	default:
		return false
	}
}

// IsSkip reports whether the outcome is a policy skip. Skips are expected
// and must not be treated as failures.
func (k OutcomeKind) IsSkip() bool {
	switch k {
	case OutcomeSkippedNotProfitable, OutcomeSkippedNotInProfit, OutcomeUnchanged, OutcomeMissingStopLoss:
		return true
	default:
		return false
	}
}

// Outcome is one per-order result record produced for operator visibility.
type Outcome struct {
	Kind     OutcomeKind
	SignalID string
	Symbol   string
	Ticket   int64           // 0 when no position is involved
	Price    decimal.Decimal // fill price, when applicable
	Volume   decimal.Decimal // fill volume, when applicable
	Profit   decimal.Decimal // position profit, for profit-guard skips
	Retcode  uint32          // broker retcode, for rejections
	Detail   string          // human-readable detail
}

// Describe returns a one-line human-readable description of the outcome.
func (o Outcome) Describe() string {
	switch o.Kind {
	case OutcomeOpened:
		return fmt.Sprintf("opened %s: ticket=%d price=%s volume=%s", o.Symbol, o.Ticket, o.Price, o.Volume)
	case OutcomeClosed:
		return fmt.Sprintf("closed %s: ticket=%d volume=%s", o.Symbol, o.Ticket, o.Volume)
	case OutcomeModified:
		return fmt.Sprintf("modified %s: ticket=%d sl=%s", o.Symbol, o.Ticket, o.Price)
	case OutcomeRejected:
		return fmt.Sprintf("rejected %s: ticket=%d retcode=%d %s", o.Symbol, o.Ticket, o.Retcode, o.Detail)
	case OutcomeSkippedNotProfitable:
		return fmt.Sprintf("skipped %s: ticket=%d not in profit (%s)", o.Symbol, o.Ticket, o.Profit)
	case OutcomeSkippedNotInProfit:
		return fmt.Sprintf("skipped %s: ticket=%d price not past entry", o.Symbol, o.Ticket)
	case OutcomeUnchanged:
		return fmt.Sprintf("skipped %s: ticket=%d stop-loss unchanged", o.Symbol, o.Ticket)
	case OutcomeMissingStopLoss:
		return fmt.Sprintf("skipped %s: ticket=%d no stop-loss in signal", o.Symbol, o.Ticket)
	default:
		if o.Detail != "" {
			return fmt.Sprintf("%s %s: %s", o.Kind, o.Symbol, o.Detail)
		}
		return fmt.Sprintf("%s %s", o.Kind, o.Symbol)
	}
}
