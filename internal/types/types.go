// Package types defines shared types used across the signal relay.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the top-level instruction carried by a structured signal.
type Action string

const (
	ActionOpen   Action = "OPEN"
	ActionClose  Action = "CLOSE"
	ActionModify Action = "MODIFY"
	ActionNone   Action = "NONE"
)

// SubAction refines an Action.
type SubAction string

const (
	SubActionBuy       SubAction = "BUY"
	SubActionSell      SubAction = "SELL"
	SubActionCloseFull SubAction = "CLOSE_FULL"
	SubActionCloseHalf SubAction = "CLOSE_HALF"
	SubActionSetBE     SubAction = "SET_BE"
	SubActionSetSL     SubAction = "SET_SL"
)

// Side represents the direction of an order or position.
// The numeric values match the MT5 ORDER_TYPE_BUY/ORDER_TYPE_SELL codes.
type Side int

const (
	SideBuy  Side = 0
	SideSell Side = 1
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side that closes a position held on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Signal is a structured trading instruction, produced upstream by the
// message interpreter. Optional fields mirror the interpreter's JSON schema:
// a nil pointer or empty slice means the field was absent.
type Signal struct {
	ID         string    `json:"-"` // assigned at ingest
	ReceivedAt time.Time `json:"-"`

	IsSignal    bool              `json:"is_signal"`
	Action      Action            `json:"action"`
	SubAction   SubAction         `json:"sub_action"`
	Symbol      string            `json:"symbol"`
	Entry       []decimal.Decimal `json:"entry"`
	StopLoss    *decimal.Decimal  `json:"sl"`
	TakeProfits []decimal.Decimal `json:"tp"`
	Confidence  float64           `json:"confidence"`
	Notes       string            `json:"notes"`
}

// Actionable reports whether the signal requests any side effect.
func (s Signal) Actionable() bool {
	return s.IsSignal && s.Action != "" && s.Action != ActionNone
}

// StopLossOrZero returns the requested stop-loss, or zero (unset) if absent.
func (s Signal) StopLossOrZero() decimal.Decimal {
	if s.StopLoss == nil {
		return decimal.Zero
	}
	return *s.StopLoss
}

// FirstTakeProfit returns the first take-profit level, or zero (unset) if
// none were supplied. Additional levels are informational only.
func (s Signal) FirstTakeProfit() decimal.Decimal {
	if len(s.TakeProfits) == 0 {
		return decimal.Zero
	}
	return s.TakeProfits[0]
}

// SymbolInfo is the terminal's metadata for an instrument.
type SymbolInfo struct {
	Name        string `json:"name"`
	Visible     bool   `json:"visible"`
	FillingMask uint32 `json:"filling_mode"` // SYMBOL_FILLING_* capability bits
}

// Tick is a snapshot quote for a symbol.
type Tick struct {
	Bid  decimal.Decimal `json:"bid"`
	Ask  decimal.Decimal `json:"ask"`
	Time time.Time       `json:"time"`
}

// Position is a snapshot of an open position as reported by the terminal.
// The terminal owns this state; the relay never caches it across signals.
type Position struct {
	Ticket       int64           `json:"ticket"`
	Symbol       string          `json:"symbol"`
	Side         Side            `json:"type"`
	Volume       decimal.Decimal `json:"volume"`
	OpenPrice    decimal.Decimal `json:"price_open"`
	CurrentPrice decimal.Decimal `json:"price_current"`
	StopLoss     decimal.Decimal `json:"sl"`
	TakeProfit   decimal.Decimal `json:"tp"`
	Profit       decimal.Decimal `json:"profit"`
}

// OrderRequest is the order the engine hands to the terminal. Field names on
// the wire follow the MT5 trade-request structure.
type OrderRequest struct {
	TradeAction TradeAction     `json:"action"`
	Symbol      string          `json:"symbol"`
	Volume      decimal.Decimal `json:"volume"`
	Type        Side            `json:"type"`
	Price       decimal.Decimal `json:"price"`
	StopLoss    decimal.Decimal `json:"sl"`
	TakeProfit  decimal.Decimal `json:"tp"`
	Deviation   int             `json:"deviation"`
	Magic       int64           `json:"magic"`
	Comment     string          `json:"comment"`
	TimeInForce TimeInForce     `json:"type_time"`
	Filling     FillingMode     `json:"type_filling"`
	Position    int64           `json:"position"` // target ticket for close/modify, 0 = none
}

// OrderResult is the terminal's response to an order request.
type OrderResult struct {
	Retcode uint32          `json:"retcode"`
	Order   int64           `json:"order"`
	Deal    int64           `json:"deal"`
	Price   decimal.Decimal `json:"price"`
	Volume  decimal.Decimal `json:"volume"`
	Comment string          `json:"comment"`
}

// OK reports whether the terminal accepted and executed the request.
func (r OrderResult) OK() bool {
	return r.Retcode == TradeRetcodeDone
}
