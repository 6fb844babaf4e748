// Package engine converts structured signals into terminal order requests.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/tathienbao/signal-relay/internal/metrics"
	"github.com/tathienbao/signal-relay/internal/reporting"
	"github.com/tathienbao/signal-relay/internal/terminal"
	"github.com/tathienbao/signal-relay/internal/types"
)

// Config holds engine configuration. All values are fixed per deployment.
type Config struct {
	LotSize         decimal.Decimal // volume for new positions
	MinLot          decimal.Decimal // broker minimum tradable volume
	DeviationPoints int             // max adverse slippage, in price points
	Magic           int64           // identifying tag attached to every order
	OpenComment     string
	CloseComment    string
	ModifyComment   string
}

// DefaultConfig returns default engine config.
func DefaultConfig() Config {
	return Config{
		LotSize:         decimal.RequireFromString("0.01"),
		MinLot:          decimal.RequireFromString("0.01"),
		DeviationPoints: 20,
		Magic:           234000,
		OpenComment:     "TG Signal",
		CloseComment:    "TG Close",
		ModifyComment:   "TG Modify",
	}
}

// slEpsilon is the minimum stop-loss change worth submitting. Modifications
// below it are reported as unchanged and never sent.
var slEpsilon = decimal.New(1, -5)

// Engine executes structured signals against a single terminal connection.
type Engine struct {
	cfg      Config
	term     terminal.Terminal
	reporter reporting.Reporter
	recorder *metrics.Recorder
	logger   *slog.Logger

	// mu serializes signal execution. The terminal connection is shared
	// and order submission is not idempotent, so a second signal must not
	// begin while one is mid-request.
	mu sync.Mutex
}

// New creates a new execution engine.
func New(cfg Config, term terminal.Terminal, reporter reporting.Reporter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		term:     term,
		reporter: reporter,
		recorder: metrics.NewRecorder(),
		logger:   logger,
	}
}

// Execute converts one signal into zero or more order requests and returns
// one outcome per attempted operation. A failure for one position never
// aborts processing of the others, and no failure here is fatal to the
// process.
func (e *Engine) Execute(ctx context.Context, sig types.Signal) []types.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !sig.Actionable() {
		e.logger.Debug("signal not actionable", "signal_id", sig.ID, "action", sig.Action)
		return nil
	}

	e.recorder.RecordSignal(string(sig.Action), string(sig.SubAction))

	// A named symbol gates all policies: it must exist and be visible
	// before any order can reference it.
	if sig.Symbol != "" {
		if out, ok := e.ensureVisible(ctx, sig); !ok {
			return e.finish(ctx, sig, []types.Outcome{out})
		}
	}

	var outcomes []types.Outcome
	switch sig.Action {
	case types.ActionOpen:
		outcomes = e.open(ctx, sig)
	case types.ActionClose:
		outcomes = e.closePositions(ctx, sig)
	case types.ActionModify:
		outcomes = e.modify(ctx, sig)
	default:
		e.logger.Debug("unsupported action", "signal_id", sig.ID, "action", sig.Action)
	}

	return e.finish(ctx, sig, outcomes)
}

// ensureVisible verifies the signal's symbol exists and is selectable.
func (e *Engine) ensureVisible(ctx context.Context, sig types.Signal) (types.Outcome, bool) {
	info, err := e.term.SymbolInfo(ctx, sig.Symbol)
	if err != nil {
		if errors.Is(err, types.ErrSymbolNotFound) {
			return types.Outcome{
				Kind:     types.OutcomeSymbolNotFound,
				SignalID: sig.ID,
				Symbol:   sig.Symbol,
				Detail:   "symbol not known to terminal",
			}, false
		}
		return types.Outcome{
			Kind:     types.OutcomeGatewayUnreachable,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Detail:   err.Error(),
		}, false
	}

	if info.Visible {
		return types.Outcome{}, true
	}

	e.logger.Info("symbol not visible, selecting", "symbol", sig.Symbol)
	if err := e.term.SelectSymbol(ctx, sig.Symbol, true); err != nil {
		return types.Outcome{
			Kind:     types.OutcomeSymbolUnavailable,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Detail:   "could not make symbol visible: " + err.Error(),
		}, false
	}
	return types.Outcome{}, true
}

// sendOrder submits one request and records it by trade action and status.
func (e *Engine) sendOrder(ctx context.Context, req types.OrderRequest) (*types.OrderResult, error) {
	res, err := e.term.SendOrder(ctx, req)
	switch {
	case err != nil:
		e.recorder.RecordOrder(req.TradeAction.String(), "error")
	case res.OK():
		e.recorder.RecordOrder(req.TradeAction.String(), "done")
	default:
		e.recorder.RecordOrder(req.TradeAction.String(), "rejected")
	}
	return res, err
}

// fillingFor resolves the filling mode for a symbol from its capability
// flags. Metadata fetch failures fall back to the return mode.
func (e *Engine) fillingFor(ctx context.Context, symbol string) types.FillingMode {
	info, err := e.term.SymbolInfo(ctx, symbol)
	if err != nil {
		return types.FillingReturn
	}
	return ResolveFilling(info)
}

// finish records metrics, reports and logs every outcome, then returns them.
func (e *Engine) finish(ctx context.Context, sig types.Signal, outcomes []types.Outcome) []types.Outcome {
	for _, out := range outcomes {
		e.recorder.RecordOutcome(out.Kind.String())

		switch {
		case out.Kind.IsSuccess():
			e.logger.Info("order executed",
				"signal_id", sig.ID,
				"outcome", out.Kind.String(),
				"symbol", out.Symbol,
				"ticket", out.Ticket,
			)
		case out.Kind.IsSkip():
			// Skips are expected and frequent; keep them out of the
			// error stream.
			e.logger.Info("position skipped",
				"signal_id", sig.ID,
				"outcome", out.Kind.String(),
				"symbol", out.Symbol,
				"ticket", out.Ticket,
			)
		default:
			e.logger.Warn("order not executed",
				"signal_id", sig.ID,
				"outcome", out.Kind.String(),
				"symbol", out.Symbol,
				"ticket", out.Ticket,
				"detail", out.Detail,
			)
		}

		if e.reporter != nil {
			if err := reporting.Notify(ctx, e.reporter, out); err != nil {
				e.logger.Warn("failed to report outcome", "err", err)
			}
		}
	}
	return outcomes
}
