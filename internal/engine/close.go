package engine

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tathienbao/signal-relay/internal/types"
)

var two = decimal.NewFromInt(2)

// closePositions closes the matched positions from a CLOSE signal, one order
// per position. A position is only ever closed while in profit: a close
// signal can never be used to realize a loss. Failures on one position do
// not stop processing of the rest.
func (e *Engine) closePositions(ctx context.Context, sig types.Signal) []types.Outcome {
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
		e.logger.Info("no open positions to close", "signal_id", sig.ID, "symbol", sig.Symbol)
		return nil
	}

	outcomes := make([]types.Outcome, 0, len(matched))
	for _, pos := range matched {
		outcomes = append(outcomes, e.closeOne(ctx, sig, pos))
	}
	return outcomes
}

// closeOne closes a single position, fully or by half.
func (e *Engine) closeOne(ctx context.Context, sig types.Signal, pos types.Position) types.Outcome {
	// Profit guard. Mandatory and not configurable.
	if !pos.Profit.GreaterThan(decimal.Zero) {
		return types.Outcome{
			Kind:     types.OutcomeSkippedNotProfitable,
			SignalID: sig.ID,
			Symbol:   pos.Symbol,
			Ticket:   pos.Ticket,
			Profit:   pos.Profit,
		}
	}

	volume := pos.Volume
	if sig.SubAction == types.SubActionCloseHalf {
		// Half the volume, rounded half-up to lot precision, floored
		// at the minimum lot so the order can never be zero.
		volume = decimal.Max(pos.Volume.Div(two).Round(2), e.cfg.MinLot)
	}

	// Each position needs its own quote: a symbol-less close signal can
	// span positions on different instruments.
	tick, err := e.term.Tick(ctx, pos.Symbol)
	if err != nil {
		return types.Outcome{
			Kind:     types.OutcomeQuoteUnavailable,
			SignalID: sig.ID,
			Symbol:   pos.Symbol,
			Ticket:   pos.Ticket,
			Detail:   err.Error(),
		}
	}

	// A held position closes with the opposite order at the matching
	// quote: buys close at bid, sells at ask.
	price := tick.Ask
	if pos.Side == types.SideBuy {
		price = tick.Bid
	}

	req := types.OrderRequest{
		TradeAction: types.TradeActionDeal,
		Symbol:      pos.Symbol,
		Volume:      volume,
		Type:        pos.Side.Opposite(),
		Price:       price,
		Deviation:   e.cfg.DeviationPoints,
		Magic:       e.cfg.Magic,
		Comment:     e.cfg.CloseComment,
		TimeInForce: types.OrderTimeGTC,
		Filling:     e.fillingFor(ctx, pos.Symbol),
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
		Kind:     types.OutcomeClosed,
		SignalID: sig.ID,
		Symbol:   pos.Symbol,
		Ticket:   pos.Ticket,
		Price:    res.Price,
		Volume:   volume,
	}
}
