package engine

import (
	"context"

	"github.com/tathienbao/signal-relay/internal/types"
)

// open opens a new market position from an OPEN signal. At most one order is
// sent: when the signal carries several take-profit levels only the first is
// used, and the position is never split across levels.
func (e *Engine) open(ctx context.Context, sig types.Signal) []types.Outcome {
	if sig.Symbol == "" {
		e.logger.Debug("open signal without symbol dropped", "signal_id", sig.ID)
		return nil
	}

	// Anything that is not literally BUY opens a sell. Deliberate: the
	// upstream interpreter only emits BUY/SELL here, and the historical
	// behavior is to default the rest to SELL.
	side := types.SideSell
	if sig.SubAction == types.SubActionBuy {
		side = types.SideBuy
	}

	tick, err := e.term.Tick(ctx, sig.Symbol)
	if err != nil {
		return []types.Outcome{{
			Kind:     types.OutcomeQuoteUnavailable,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Detail:   err.Error(),
		}}
	}

	price := tick.Bid
	if side == types.SideBuy {
		price = tick.Ask
	}

	req := types.OrderRequest{
		TradeAction: types.TradeActionDeal,
		Symbol:      sig.Symbol,
		Volume:      e.cfg.LotSize,
		Type:        side,
		Price:       price,
		StopLoss:    sig.StopLossOrZero(),
		TakeProfit:  sig.FirstTakeProfit(),
		Deviation:   e.cfg.DeviationPoints,
		Magic:       e.cfg.Magic,
		Comment:     e.cfg.OpenComment,
		TimeInForce: types.OrderTimeGTC,
		Filling:     e.fillingFor(ctx, sig.Symbol),
	}

	res, err := e.sendOrder(ctx, req)
	if err != nil {
		return []types.Outcome{{
			Kind:     types.OutcomeGatewayUnreachable,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Detail:   err.Error(),
		}}
	}
	if !res.OK() {
		return []types.Outcome{{
			Kind:     types.OutcomeRejected,
			SignalID: sig.ID,
			Symbol:   sig.Symbol,
			Retcode:  res.Retcode,
			Detail:   res.Comment,
		}}
	}

	return []types.Outcome{{
		Kind:     types.OutcomeOpened,
		SignalID: sig.ID,
		Symbol:   sig.Symbol,
		Ticket:   res.Order,
		Price:    res.Price,
		Volume:   res.Volume,
	}}
}
