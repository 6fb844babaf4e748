// Package sim provides an in-memory terminal for paper mode and tests.
package sim

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tathienbao/signal-relay/internal/terminal"
	"github.com/tathienbao/signal-relay/internal/types"
)

// Terminal implements terminal.Terminal against an in-memory book.
type Terminal struct {
	logger *slog.Logger

	state atomic.Int32

	mu         sync.Mutex
	symbols    map[string]*types.SymbolInfo
	ticks      map[string]types.Tick
	positions  map[int64]*types.Position
	order      []int64 // snapshot order of positions
	requests   []types.OrderRequest
	nextTicket int64

	// Scripted behavior for tests
	sendErr     error
	nextRetcode uint32
	nextComment string
	selectFails map[string]bool
}

// New creates a new simulated terminal.
func New(logger *slog.Logger) *Terminal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Terminal{
		logger:      logger,
		symbols:     make(map[string]*types.SymbolInfo),
		ticks:       make(map[string]types.Tick),
		positions:   make(map[int64]*types.Position),
		selectFails: make(map[string]bool),
		nextTicket:  1,
	}
}

// Connect marks the terminal connected.
func (t *Terminal) Connect(ctx context.Context) error {
	t.state.Store(int32(terminal.StateConnected))
	t.logger.Info("sim terminal connected")
	return nil
}

// Disconnect marks the terminal disconnected.
func (t *Terminal) Disconnect() error {
	t.state.Store(int32(terminal.StateDisconnected))
	return nil
}

// State returns the connection state.
func (t *Terminal) State() terminal.ConnectionState {
	return terminal.ConnectionState(t.state.Load())
}

// IsConnected reports whether the terminal is connected.
func (t *Terminal) IsConnected() bool {
	return t.State() == terminal.StateConnected
}

// SetSymbol seeds symbol metadata.
func (t *Terminal) SetSymbol(info types.SymbolInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := info
	t.symbols[info.Name] = &cp
}

// SetTick seeds the current quote for a symbol.
func (t *Terminal) SetTick(symbol string, bid, ask decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[symbol] = types.Tick{Bid: bid, Ask: ask, Time: time.Now()}
}

// ClearTick removes the quote for a symbol.
func (t *Terminal) ClearTick(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, symbol)
}

// AddPosition seeds an open position and returns its ticket. A zero ticket
// in pos is replaced with the next generated one.
func (t *Terminal) AddPosition(pos types.Position) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pos.Ticket == 0 {
		pos.Ticket = t.nextTicket
		t.nextTicket++
	} else if pos.Ticket >= t.nextTicket {
		t.nextTicket = pos.Ticket + 1
	}
	cp := pos
	t.positions[pos.Ticket] = &cp
	t.order = append(t.order, pos.Ticket)
	return pos.Ticket
}

// Position returns a copy of the position with the given ticket.
func (t *Terminal) Position(ticket int64) (types.Position, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, ok := t.positions[ticket]
	if !ok {
		return types.Position{}, false
	}
	return *pos, true
}

// FailSend makes every subsequent SendOrder return err. Pass nil to clear.
func (t *Terminal) FailSend(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// RejectNext makes the next SendOrder return the given retcode and comment
// instead of executing.
func (t *Terminal) RejectNext(retcode uint32, comment string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextRetcode = retcode
	t.nextComment = comment
}

// FailSelect makes SelectSymbol fail for the given symbol.
func (t *Terminal) FailSelect(symbol string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selectFails[symbol] = true
}

// Requests returns all order requests received so far.
func (t *Terminal) Requests() []types.OrderRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.OrderRequest, len(t.requests))
	copy(out, t.requests)
	return out
}

// LastRequest returns the most recent order request, if any.
func (t *Terminal) LastRequest() (types.OrderRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return types.OrderRequest{}, false
	}
	return t.requests[len(t.requests)-1], true
}

// SymbolInfo returns seeded symbol metadata.
func (t *Terminal) SymbolInfo(_ context.Context, symbol string) (*types.SymbolInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	info, ok := t.symbols[symbol]
	if !ok {
		return nil, types.ErrSymbolNotFound
	}
	cp := *info
	return &cp, nil
}

// SelectSymbol toggles the visibility of a seeded symbol.
func (t *Terminal) SelectSymbol(_ context.Context, symbol string, visible bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.selectFails[symbol] {
		return types.ErrSymbolNotFound
	}
	info, ok := t.symbols[symbol]
	if !ok {
		return types.ErrSymbolNotFound
	}
	info.Visible = visible
	return nil
}

// Tick returns the seeded quote for a symbol.
func (t *Terminal) Tick(_ context.Context, symbol string) (*types.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tick, ok := t.ticks[symbol]
	if !ok {
		return nil, types.ErrQuoteUnavailable
	}
	return &tick, nil
}

// Positions returns a snapshot of the open positions in insertion order.
func (t *Terminal) Positions(_ context.Context) ([]types.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]types.Position, 0, len(t.positions))
	for _, ticket := range t.order {
		if pos, ok := t.positions[ticket]; ok {
			out = append(out, *pos)
		}
	}
	return out, nil
}

// SendOrder applies the request to the in-memory book.
func (t *Terminal) SendOrder(_ context.Context, req types.OrderRequest) (*types.OrderResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sendErr != nil {
		return nil, t.sendErr
	}
	t.requests = append(t.requests, req)

	if t.nextRetcode != 0 {
		res := &types.OrderResult{Retcode: t.nextRetcode, Comment: t.nextComment}
		t.nextRetcode = 0
		t.nextComment = ""
		return res, nil
	}

	switch req.TradeAction {
	case types.TradeActionDeal:
		if req.Position != 0 {
			return t.closeDeal(req)
		}
		return t.openDeal(req)
	case types.TradeActionSLTP:
		return t.modifyLevels(req)
	default:
		return &types.OrderResult{Retcode: types.TradeRetcodeInvalid, Comment: "unsupported action"}, nil
	}
}

func (t *Terminal) openDeal(req types.OrderRequest) (*types.OrderResult, error) {
	ticket := t.nextTicket
	t.nextTicket++
	t.positions[ticket] = &types.Position{
		Ticket:       ticket,
		Symbol:       req.Symbol,
		Side:         req.Type,
		Volume:       req.Volume,
		OpenPrice:    req.Price,
		CurrentPrice: req.Price,
		StopLoss:     req.StopLoss,
		TakeProfit:   req.TakeProfit,
	}
	t.order = append(t.order, ticket)
	return &types.OrderResult{
		Retcode: types.TradeRetcodeDone,
		Order:   ticket,
		Deal:    ticket,
		Price:   req.Price,
		Volume:  req.Volume,
		Comment: "done",
	}, nil
}

func (t *Terminal) closeDeal(req types.OrderRequest) (*types.OrderResult, error) {
	pos, ok := t.positions[req.Position]
	if !ok {
		return &types.OrderResult{Retcode: types.TradeRetcodeInvalid, Comment: "position not found"}, nil
	}
	if req.Volume.GreaterThanOrEqual(pos.Volume) {
		delete(t.positions, req.Position)
	} else {
		pos.Volume = pos.Volume.Sub(req.Volume)
	}
	return &types.OrderResult{
		Retcode: types.TradeRetcodeDone,
		Order:   req.Position,
		Deal:    req.Position,
		Price:   req.Price,
		Volume:  req.Volume,
		Comment: "done",
	}, nil
}

func (t *Terminal) modifyLevels(req types.OrderRequest) (*types.OrderResult, error) {
	pos, ok := t.positions[req.Position]
	if !ok {
		return &types.OrderResult{Retcode: types.TradeRetcodeInvalid, Comment: "position not found"}, nil
	}
	pos.StopLoss = req.StopLoss
	pos.TakeProfit = req.TakeProfit
	return &types.OrderResult{
		Retcode: types.TradeRetcodeDone,
		Order:   req.Position,
		Comment: "done",
	}, nil
}
