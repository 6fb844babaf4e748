package types

// TradeAction selects the kind of operation an order request performs.
// Values match the MT5 TRADE_ACTION_* codes.
type TradeAction uint32

const (
	// TradeActionDeal is an immediate market deal (open, or close when a
	// target position ticket is set).
	TradeActionDeal TradeAction = 1
	// TradeActionSLTP modifies the stop-loss/take-profit of an open position.
	TradeActionSLTP TradeAction = 6
)

func (a TradeAction) String() string {
	switch a {
	case TradeActionDeal:
		return "DEAL"
	case TradeActionSLTP:
		return "SLTP"
	default:
		return "UNKNOWN"
	}
}

// TimeInForce matches the MT5 ORDER_TIME_* codes.
type TimeInForce uint32

// OrderTimeGTC keeps the order until cancelled.
const OrderTimeGTC TimeInForce = 0

// FillingMode matches the MT5 ORDER_FILLING_* codes.
type FillingMode uint32

const (
	FillingFOK    FillingMode = 0 // fill or kill
	FillingIOC    FillingMode = 1 // immediate or cancel
	FillingReturn FillingMode = 2 // requeue unfilled remainder
)

func (m FillingMode) String() string {
	switch m {
	case FillingFOK:
		return "FOK"
	case FillingIOC:
		return "IOC"
	case FillingReturn:
		return "RETURN"
	default:
		return "UNKNOWN"
	}
}

// SYMBOL_FILLING_* capability bits advertised in SymbolInfo.FillingMask.
const (
	FillingCapFOK uint32 = 1 << 0
	FillingCapIOC uint32 = 1 << 1
)

// Trade retcodes returned by the terminal. TradeRetcodeDone is the only code
// the engine branches on; the rest are carried through for reporting.
const (
	TradeRetcodeRequote       uint32 = 10004
	TradeRetcodeReject        uint32 = 10006
	TradeRetcodeDone          uint32 = 10009
	TradeRetcodeInvalid       uint32 = 10013
	TradeRetcodeInvalidVolume uint32 = 10014
	TradeRetcodeInvalidStops  uint32 = 10016
	TradeRetcodeMarketClosed  uint32 = 10018
	TradeRetcodeNoMoney       uint32 = 10019
)
