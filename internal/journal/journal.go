// Package journal provides durable records of signals and their outcomes.
package journal

import (
	"context"
	"time"

	"github.com/tathienbao/signal-relay/internal/types"
)

// SignalRecord is a persisted structured signal.
type SignalRecord struct {
	ID         string
	ReceivedAt time.Time
	Action     string
	SubAction  string
	Symbol     string
	StopLoss   string // decimal string, empty when absent
	TakeProfit string // first level, empty when absent
	Confidence float64
	Notes      string
}

// OutcomeRecord is a persisted per-order outcome.
type OutcomeRecord struct {
	ID        int64
	SignalID  string
	Kind      string
	Symbol    string
	Ticket    int64
	Retcode   uint32
	Detail    string
	CreatedAt time.Time
}

// Repository defines the journal storage interface.
type Repository interface {
	SaveSignal(ctx context.Context, rec SignalRecord) error
	SaveOutcome(ctx context.Context, rec OutcomeRecord) error
	RecentOutcomes(ctx context.Context, limit int) ([]OutcomeRecord, error)
	OutcomesBySignal(ctx context.Context, signalID string) ([]OutcomeRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// NewSignalRecord builds a journal record from a signal.
func NewSignalRecord(sig types.Signal) SignalRecord {
	rec := SignalRecord{
		ID:         sig.ID,
		ReceivedAt: sig.ReceivedAt,
		Action:     string(sig.Action),
		SubAction:  string(sig.SubAction),
		Symbol:     sig.Symbol,
		Confidence: sig.Confidence,
		Notes:      sig.Notes,
	}
	if sig.StopLoss != nil {
		rec.StopLoss = sig.StopLoss.String()
	}
	if len(sig.TakeProfits) > 0 {
		rec.TakeProfit = sig.TakeProfits[0].String()
	}
	return rec
}

// NewOutcomeRecord builds a journal record from an outcome.
func NewOutcomeRecord(out types.Outcome) OutcomeRecord {
	return OutcomeRecord{
		SignalID:  out.SignalID,
		Kind:      out.Kind.String(),
		Symbol:    out.Symbol,
		Ticket:    out.Ticket,
		Retcode:   out.Retcode,
		Detail:    out.Describe(),
		CreatedAt: time.Now(),
	}
}

// Nop is a Repository that records nothing. Used when journaling is
// disabled.
type Nop struct{}

func (Nop) SaveSignal(context.Context, SignalRecord) error   { return nil }
func (Nop) SaveOutcome(context.Context, OutcomeRecord) error { return nil }
func (Nop) RecentOutcomes(context.Context, int) ([]OutcomeRecord, error) {
	return nil, nil
}
func (Nop) OutcomesBySignal(context.Context, string) ([]OutcomeRecord, error) {
	return nil, nil
}
func (Nop) Migrate(context.Context) error { return nil }
func (Nop) Close() error                  { return nil }
