// Package terminal defines the trading-terminal boundary.
package terminal

import (
	"context"

	"github.com/tathienbao/signal-relay/internal/types"
)

// ConnectionState represents the terminal connection state.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal is the trading-terminal gateway. All calls are synchronous; the
// engine issues at most one request at a time against a single connection.
//
// Absent values from the gateway surface as sentinel errors:
// types.ErrSymbolNotFound for unknown symbols, types.ErrQuoteUnavailable for
// missing ticks. Any other error means the gateway could not be reached.
type Terminal interface {
	// Connection lifecycle. The connection is an explicit object owned by
	// the caller: opened at startup, closed at shutdown.
	Connect(ctx context.Context) error
	Disconnect() error
	State() ConnectionState
	IsConnected() bool

	// SymbolInfo returns metadata for a symbol.
	SymbolInfo(ctx context.Context, symbol string) (*types.SymbolInfo, error)

	// SelectSymbol toggles the symbol's visibility in the market watch.
	SelectSymbol(ctx context.Context, symbol string, visible bool) error

	// Tick returns the current quote for a symbol.
	Tick(ctx context.Context, symbol string) (*types.Tick, error)

	// Positions returns a snapshot of all open positions, in the
	// terminal's own order.
	Positions(ctx context.Context) ([]types.Position, error)

	// SendOrder submits an order request and returns the terminal's
	// result. A non-nil result with a non-success retcode is a broker
	// rejection, not an error.
	SendOrder(ctx context.Context, req types.OrderRequest) (*types.OrderResult, error)
}
