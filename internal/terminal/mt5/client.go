package mt5

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tathienbao/signal-relay/internal/metrics"
	"github.com/tathienbao/signal-relay/internal/terminal"
	"github.com/tathienbao/signal-relay/internal/types"
	"golang.org/x/time/rate"
)

// Bridge error codes. The bridge maps terminal "absent" results to these
// strings in the response envelope.
const (
	bridgeErrSymbolNotFound = "symbol_not_found"
	bridgeErrNoTick         = "no_tick"
)

// Client implements terminal.Terminal against an MT5 bridge speaking
// newline-delimited JSON over TCP. The bridge is strictly request/response:
// one request line in, one response line out, in order.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	recorder *metrics.Recorder

	// Connection. callMu serializes requests: the bridge handles one
	// in-flight request per connection.
	callMu      sync.Mutex
	conn        net.Conn
	reader      *bufio.Reader
	state       atomic.Int32
	connectedAt time.Time

	// Rate limiting
	limiter *rate.Limiter

	// Request ids
	nextID atomic.Int64
}

// request is the wire envelope sent to the bridge.
type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// response is the wire envelope received from the bridge.
type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewClient creates a new bridge client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.NewRecorder(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), cfg.MaxRequestsPerSecond),
	}
	c.state.Store(int32(terminal.StateDisconnected))
	c.nextID.Store(1)
	return c
}

// Connect establishes the bridge connection.
func (c *Client) Connect(ctx context.Context) error {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	if c.State() == terminal.StateConnected {
		return nil
	}
	return c.dial(ctx)
}

// dial establishes the bridge connection. The caller holds callMu.
func (c *Client) dial(ctx context.Context) error {
	c.state.Store(int32(terminal.StateConnecting))

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	c.logger.Info("connecting to MT5 bridge", "addr", addr)

	dialer := net.Dialer{Timeout: c.cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.state.Store(int32(terminal.StateError))
		return fmt.Errorf("dial bridge: %w", err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.connectedAt = time.Now()
	c.state.Store(int32(terminal.StateConnected))
	c.recorder.RecordTerminalStatus(true)

	c.logger.Info("connected to MT5 bridge", "connected_at", c.connectedAt)
	return nil
}

// Disconnect closes the bridge connection.
func (c *Client) Disconnect() error {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	if c.conn == nil {
		c.state.Store(int32(terminal.StateDisconnected))
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	c.state.Store(int32(terminal.StateDisconnected))
	c.recorder.RecordTerminalStatus(false)
	c.logger.Info("disconnected from MT5 bridge")
	return err
}

// State returns the connection state.
func (c *Client) State() terminal.ConnectionState {
	return terminal.ConnectionState(c.state.Load())
}

// IsConnected reports whether the client is connected.
func (c *Client) IsConnected() bool {
	return c.State() == terminal.StateConnected
}

// call performs one synchronous request against the bridge.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	timer := metrics.NewTimer()
	defer timer.ObserveTerminalRequest()

	c.callMu.Lock()
	defer c.callMu.Unlock()

	if c.conn == nil {
		// A deliberate Disconnect stays down. A dropped connection is
		// redialed here so later signals recover without a restart.
		if !c.cfg.AutoReconnect || c.State() != terminal.StateError {
			return types.ErrNotConnected
		}
		c.logger.Warn("bridge connection lost, redialing")
		if err := c.dial(ctx); err != nil {
			return fmt.Errorf("reconnect bridge: %w", err)
		}
	}

	req := request{
		ID:     c.nextID.Add(1),
		Method: method,
		Params: params,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}
	payload = append(payload, '\n')

	// Work on locals: dropConn clears the fields on transport failure,
	// and the deadline reset below must survive that.
	conn, reader := c.conn, c.reader

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	defer func() { _ = conn.SetDeadline(time.Time{}) }()

	if _, err := conn.Write(payload); err != nil {
		c.dropConn()
		return fmt.Errorf("write %s request: %w", method, err)
	}

	line, err := reader.ReadBytes('\n')
	if err != nil {
		c.dropConn()
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return fmt.Errorf("%w: %s", types.ErrRequestTimeout, method)
		}
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("parse %s response: %w", method, err)
	}
	if resp.ID != req.ID {
		c.dropConn()
		return fmt.Errorf("bridge response id mismatch: sent %d, got %d", req.ID, resp.ID)
	}

	if resp.Error != "" {
		return bridgeError(method, resp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// dropConn tears down a connection after a transport failure. With
// AutoReconnect the next call redials; otherwise calls fail fast with
// ErrNotConnected until the caller reconnects.
func (c *Client) dropConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
	c.state.Store(int32(terminal.StateError))
	c.recorder.RecordTerminalStatus(false)
}

// bridgeError maps bridge error strings to sentinel errors.
func bridgeError(method, code string) error {
	switch code {
	case bridgeErrSymbolNotFound:
		return types.ErrSymbolNotFound
	case bridgeErrNoTick:
		return types.ErrQuoteUnavailable
	default:
		return fmt.Errorf("bridge %s: %s", method, code)
	}
}

type symbolParams struct {
	Symbol string `json:"symbol"`
}

type selectParams struct {
	Symbol  string `json:"symbol"`
	Visible bool   `json:"visible"`
}

// SymbolInfo fetches metadata for a symbol.
func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*types.SymbolInfo, error) {
	var info types.SymbolInfo
	if err := c.call(ctx, "symbol_info", symbolParams{Symbol: symbol}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SelectSymbol toggles a symbol's market-watch visibility.
func (c *Client) SelectSymbol(ctx context.Context, symbol string, visible bool) error {
	var ok bool
	if err := c.call(ctx, "symbol_select", selectParams{Symbol: symbol, Visible: visible}, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: select %s refused", types.ErrSymbolNotFound, symbol)
	}
	return nil
}

// Tick fetches the current quote for a symbol.
func (c *Client) Tick(ctx context.Context, symbol string) (*types.Tick, error) {
	var tick types.Tick
	if err := c.call(ctx, "symbol_info_tick", symbolParams{Symbol: symbol}, &tick); err != nil {
		return nil, err
	}
	return &tick, nil
}

// Positions fetches the open-position snapshot, in terminal order.
func (c *Client) Positions(ctx context.Context) ([]types.Position, error) {
	var positions []types.Position
	if err := c.call(ctx, "positions_get", nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// SendOrder submits an order request.
func (c *Client) SendOrder(ctx context.Context, req types.OrderRequest) (*types.OrderResult, error) {
	var result types.OrderResult
	if err := c.call(ctx, "order_send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
