package engine

import (
	"context"

	"github.com/tathienbao/signal-relay/internal/types"
)

// modify rewrites stop-loss levels on the matched positions from a MODIFY
// signal. Only SET_BE and SET_SL are meaningful; any other sub-action is a
// no-op. Take-profit is always preserved as-is.
func (e *Engine) modify(ctx context.Context, sig types.Signal) []types.Outcome {
	if sig.SubAction != types.SubActionSetBE && sig.SubAction != types.SubActionSetSL {
		e.logger.Debug("modify signal with unsupported sub-action dropped",
			"signal_id", sig.ID, "sub_action", sig.SubAction)
		return nil
	}

	positions, err := e.term.Positions(ctx)
	if err != nil {
		return []types.Outcome{{
			Kind:     types.OutcomeGatewayUnreachable,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Detail:   err.Error(),
		}}
	}

	matched := Match(positions, sig.Symbol)
	if len(matched) == 0 {
		e.logger.Info("no open positions to modify", "signal_id", sig.ID, "symbol", sig.Symbol)
		return nil
	}

	outcomes := make([]types.Outcome, 0, len(matched))
	for _, pos := range matched {
		outcomes = append(outcomes, e.modifyOne(ctx, sig, pos))
	}
	return outcomes
}

// modifyOne computes and submits the new stop-loss for a single position.
func (e *Engine) modifyOne(ctx context.Context, sig types.Signal, pos types.Position) types.Outcome {
	newSL := pos.StopLoss

	switch sig.SubAction {
	case types.SubActionSetBE:
		// Breakeven moves the stop to the open price, and only while
		// the market is past the entry in the position's favor. It is
		// never applied against an unfavorable move.
		favorable := pos.CurrentPrice.GreaterThan(pos.OpenPrice)
		if pos.Side == types.SideSell {
			favorable = pos.CurrentPrice.LessThan(pos.OpenPrice)
		}
		if !favorable {
			return types.Outcome{
				Kind:     types.OutcomeSkippedNotInProfit,
				SignalID: sig.ID,
				Symbol:   pos.Symbol,
				Ticket:   pos.Ticket,
			}
		}
		newSL = pos.OpenPrice

	case types.SubActionSetSL:
		if sig.StopLoss == nil {
			return types.Outcome{
				Kind:     types.OutcomeMissingStopLoss,
				SignalID: sig.ID,
				Symbol:   pos.Symbol,
				Ticket:   pos.Ticket,
			}
		}
		newSL = *sig.StopLoss
	}

	// Identical resubmissions trip broker-side "no changes" errors.
	if newSL.Sub(pos.StopLoss).Abs().LessThan(slEpsilon) {
		return types.Outcome{
			Kind:     types.OutcomeUnchanged,
			SignalID: sig.ID,
			Symbol:   pos.Symbol,
			Ticket:   pos.Ticket,
		}
	}

	req := types.OrderRequest{
		TradeAction: types.TradeActionSLTP,
		Symbol:      pos.Symbol,
		StopLoss:    newSL,
		TakeProfit:  pos.TakeProfit,
		Magic:       e.cfg.Magic,
		Comment:     e.cfg.ModifyComment,
		Position:    pos.Ticket,
	}

	res, err := e.sendOrder(ctx, req)
	if err != nil {
		return types.Outcome{
			Kind:     types.OutcomeGatewayUnreachable,
			SignalID: sig.ID,
			Symbol:   pos.Symbol,
			Ticket:   pos.Ticket,
			Detail:   err.Error(),
		}
	}
	if !res.OK() {
		return types.Outcome{
			Kind:     types.OutcomeRejected,
			SignalID: sig.ID,
			Symbol:   pos.Symbol,
			Ticket:   pos.Ticket,
			Retcode:  res.Retcode,
			Detail:   res.Comment,
		}
	}

	return types.Outcome{
		Kind:     types.OutcomeModified,
		SignalID: sig.ID,
		Symbol:   pos.Symbol,
		Ticket:   pos.Ticket,
		Price:    newSL,
	}
}
