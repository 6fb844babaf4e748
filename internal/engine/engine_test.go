package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tathienbao/signal-relay/internal/reporting"
	"github.com/tathienbao/signal-relay/internal/terminal/sim"
	"github.com/tathienbao/signal-relay/internal/types"
)

func newTestEngine(t *testing.T) (*Engine, *sim.Terminal, *reporting.MockReporter) {
	t.Helper()
	term := sim.New(nil)
	if err := term.Connect(context.Background()); err != nil {
		t.Fatalf("connect sim terminal: %v", err)
	}
	rep := reporting.NewMockReporter()
	return New(DefaultConfig(), term, rep, nil), term, rep
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dptr(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func seedSymbol(term *sim.Terminal, name string, mask uint32) {
	term.SetSymbol(types.SymbolInfo{Name: name, Visible: true, FillingMask: mask})
}

func requireKinds(t *testing.T, outcomes []types.Outcome, want ...types.OutcomeKind) {
	t.Helper()
	if len(outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d: %+v", len(outcomes), len(want), outcomes)
	}
	for i, k := range want {
		if outcomes[i].Kind != k {
			t.Errorf("outcome[%d] = %s, want %s", i, outcomes[i].Kind, k)
		}
	}
}

func TestExecuteNotActionable(t *testing.T) {
	tests := []struct {
		name string
		sig  types.Signal
	}{
		{"not a signal", types.Signal{IsSignal: false, Action: types.ActionOpen}},
		{"action none", types.Signal{IsSignal: true, Action: types.ActionNone}},
		{"empty action", types.Signal{IsSignal: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, term, _ := newTestEngine(t)
			outcomes := eng.Execute(context.Background(), tt.sig)
			if outcomes != nil {
				t.Errorf("got %d outcomes, want none", len(outcomes))
			}
			if n := len(term.Requests()); n != 0 {
				t.Errorf("terminal received %d requests, want 0", n)
			}
		})
	}
}

func TestOpenBuy(t *testing.T) {
	eng, term, rep := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.SetTick("EURUSD", d("1.1000"), d("1.1002"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID:          "sig-1",
		IsSignal:    true,
		Action:      types.ActionOpen,
		SubAction:   types.SubActionBuy,
		Symbol:      "EURUSD",
		StopLoss:    dptr("1.0950"),
		TakeProfits: []decimal.Decimal{d("1.1100"), d("1.1200")},
	})

	requireKinds(t, outcomes, types.OutcomeOpened)
	if outcomes[0].Ticket == 0 {
		t.Error("opened outcome has no ticket")
	}

	req, ok := term.LastRequest()
	if !ok {
		t.Fatal("no request reached the terminal")
	}
	if req.TradeAction != types.TradeActionDeal {
		t.Errorf("trade action = %d, want deal", req.TradeAction)
	}
	if req.Type != types.SideBuy {
		t.Errorf("order side = %s, want BUY", req.Type)
	}
	if !req.Price.Equal(d("1.1002")) {
		t.Errorf("buy price = %s, want ask 1.1002", req.Price)
	}
	if !req.Volume.Equal(d("0.01")) {
		t.Errorf("volume = %s, want 0.01", req.Volume)
	}
	if !req.StopLoss.Equal(d("1.0950")) {
		t.Errorf("sl = %s, want 1.0950", req.StopLoss)
	}
	// Only the first take-profit level is ever used.
	if !req.TakeProfit.Equal(d("1.1100")) {
		t.Errorf("tp = %s, want 1.1100", req.TakeProfit)
	}
	if req.Filling != types.FillingFOK {
		t.Errorf("filling = %d, want FOK", req.Filling)
	}
	if req.Magic != 234000 {
		t.Errorf("magic = %d, want 234000", req.Magic)
	}
	if req.Deviation != 20 {
		t.Errorf("deviation = %d, want 20", req.Deviation)
	}
	if req.Comment != "TG Signal" {
		t.Errorf("comment = %q, want \"TG Signal\"", req.Comment)
	}
	if req.TimeInForce != types.OrderTimeGTC {
		t.Errorf("time in force = %d, want GTC", req.TimeInForce)
	}

	if !rep.HasReportWithSeverity(reporting.SeverityInfo) {
		t.Error("successful open was not reported at info severity")
	}
}

func TestOpenSellUsesBid(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapIOC)
	term.SetTick("EURUSD", d("1.1000"), d("1.1002"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-2", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionSell,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeOpened)
	req, _ := term.LastRequest()
	if req.Type != types.SideSell {
		t.Errorf("order side = %s, want SELL", req.Type)
	}
	if !req.Price.Equal(d("1.1000")) {
		t.Errorf("sell price = %s, want bid 1.1000", req.Price)
	}
	if req.Filling != types.FillingIOC {
		t.Errorf("filling = %d, want IOC", req.Filling)
	}
}

// Sub-actions other than BUY open a sell. The upstream interpreter only
// emits BUY or SELL here, and the historical default for anything else
// is SELL.
func TestOpenUnknownSubActionDefaultsToSell(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", 0)
	term.SetTick("EURUSD", d("1.1000"), d("1.1002"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-3", IsSignal: true,
		Action: types.ActionOpen, SubAction: "HOLD",
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeOpened)
	req, _ := term.LastRequest()
	if req.Type != types.SideSell {
		t.Errorf("order side = %s, want SELL", req.Type)
	}
	if req.Filling != types.FillingReturn {
		t.Errorf("filling = %d, want RETURN when no capability bits set", req.Filling)
	}
}

func TestOpenWithoutSymbolDropped(t *testing.T) {
	eng, term, _ := newTestEngine(t)

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-4", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
	})

	if outcomes != nil {
		t.Errorf("got %d outcomes, want none", len(outcomes))
	}
	if n := len(term.Requests()); n != 0 {
		t.Errorf("terminal received %d requests, want 0", n)
	}
}

func TestOpenSymbolNotFound(t *testing.T) {
	eng, term, rep := newTestEngine(t)

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-5", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "NOSUCH",
	})

	requireKinds(t, outcomes, types.OutcomeSymbolNotFound)
	if n := len(term.Requests()); n != 0 {
		t.Errorf("terminal received %d requests, want 0", n)
	}
	if !rep.HasReportWithSeverity(reporting.SeverityWarning) {
		t.Error("symbol-not-found was not reported at warning severity")
	}
}

func TestOpenSelectsHiddenSymbol(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetSymbol(types.SymbolInfo{Name: "XAUUSD", Visible: false, FillingMask: types.FillingCapFOK})
	term.SetTick("XAUUSD", d("2000.00"), d("2000.50"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-6", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "XAUUSD",
	})

	requireKinds(t, outcomes, types.OutcomeOpened)
	info, err := term.SymbolInfo(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatalf("symbol info: %v", err)
	}
	if !info.Visible {
		t.Error("symbol was not made visible before the order")
	}
}

func TestOpenSelectFailure(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetSymbol(types.SymbolInfo{Name: "XAUUSD", Visible: false})
	term.FailSelect("XAUUSD")

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-7", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "XAUUSD",
	})

	requireKinds(t, outcomes, types.OutcomeSymbolUnavailable)
	if n := len(term.Requests()); n != 0 {
		t.Errorf("terminal received %d requests, want 0", n)
	}
}

func TestOpenQuoteUnavailable(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	// No tick seeded.

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-8", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeQuoteUnavailable)
}

func TestOpenRejected(t *testing.T) {
	eng, term, rep := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.SetTick("EURUSD", d("1.1000"), d("1.1002"))
	term.RejectNext(types.TradeRetcodeNoMoney, "No money")

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-9", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeRejected)
	if outcomes[0].Retcode != types.TradeRetcodeNoMoney {
		t.Errorf("retcode = %d, want %d", outcomes[0].Retcode, types.TradeRetcodeNoMoney)
	}
	if outcomes[0].Detail != "No money" {
		t.Errorf("detail = %q, want broker comment", outcomes[0].Detail)
	}
	if !rep.HasReportWithSeverity(reporting.SeverityWarning) {
		t.Error("rejection was not reported at warning severity")
	}
}

func TestOpenGatewayUnreachable(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.SetTick("EURUSD", d("1.1000"), d("1.1002"))
	term.FailSend(errors.New("connection refused"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-10", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeGatewayUnreachable)
}

func TestCloseFullProfitable(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.SetTick("EURUSD", d("1.1050"), d("1.1052"))
	ticket := term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy,
		Volume: d("0.03"), OpenPrice: d("1.1000"), CurrentPrice: d("1.1050"),
		Profit: d("15.00"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-11", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeClosed)
	if !outcomes[0].Volume.Equal(d("0.03")) {
		t.Errorf("closed volume = %s, want full 0.03", outcomes[0].Volume)
	}

	req, _ := term.LastRequest()
	if req.Position != ticket {
		t.Errorf("request targets position %d, want %d", req.Position, ticket)
	}
	if req.Type != types.SideSell {
		t.Errorf("close side = %s, want SELL (opposite of held BUY)", req.Type)
	}
	if !req.Price.Equal(d("1.1050")) {
		t.Errorf("close price = %s, want bid 1.1050", req.Price)
	}
	if req.Comment != "TG Close" {
		t.Errorf("comment = %q, want \"TG Close\"", req.Comment)
	}

	if _, ok := term.Position(ticket); ok {
		t.Error("position still open after full close")
	}
}

func TestCloseProfitGuard(t *testing.T) {
	tests := []struct {
		name   string
		profit string
	}{
		{"negative profit", "-3.20"},
		{"zero profit", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, term, _ := newTestEngine(t)
			seedSymbol(term, "EURUSD", types.FillingCapFOK)
			term.SetTick("EURUSD", d("1.0990"), d("1.0992"))
			ticket := term.AddPosition(types.Position{
				Symbol: "EURUSD", Side: types.SideBuy,
				Volume: d("0.01"), Profit: d(tt.profit),
			})

			outcomes := eng.Execute(context.Background(), types.Signal{
				ID: "sig-12", IsSignal: true,
				Action: types.ActionClose, SubAction: types.SubActionCloseFull,
				Symbol: "EURUSD",
			})

			requireKinds(t, outcomes, types.OutcomeSkippedNotProfitable)
			if n := len(term.Requests()); n != 0 {
				t.Errorf("terminal received %d requests, want 0", n)
			}
			if _, ok := term.Position(ticket); !ok {
				t.Error("losing position was closed")
			}
		})
	}
}

func TestCloseHalfVolume(t *testing.T) {
	tests := []struct {
		volume string
		want   string
	}{
		{"0.03", "0.02"}, // 0.015 rounds half-up to lot precision
		{"0.02", "0.01"},
		{"0.01", "0.01"}, // floored at the minimum lot
		{"0.10", "0.05"},
		{"0.05", "0.03"},
		{"1.00", "0.50"},
	}
	for _, tt := range tests {
		t.Run(tt.volume, func(t *testing.T) {
			eng, term, _ := newTestEngine(t)
			seedSymbol(term, "EURUSD", types.FillingCapFOK)
			term.SetTick("EURUSD", d("1.1050"), d("1.1052"))
			term.AddPosition(types.Position{
				Symbol: "EURUSD", Side: types.SideBuy,
				Volume: d(tt.volume), Profit: d("8.00"),
			})

			outcomes := eng.Execute(context.Background(), types.Signal{
				ID: "sig-13", IsSignal: true,
				Action: types.ActionClose, SubAction: types.SubActionCloseHalf,
				Symbol: "EURUSD",
			})

			requireKinds(t, outcomes, types.OutcomeClosed)
			req, _ := term.LastRequest()
			if !req.Volume.Equal(d(tt.want)) {
				t.Errorf("half-close of %s = %s, want %s", tt.volume, req.Volume, tt.want)
			}
		})
	}
}

func TestCloseWithoutSymbolSpansInstruments(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetTick("EURUSD", d("1.1050"), d("1.1052"))
	term.SetTick("XAUUSD", d("2005.00"), d("2005.50"))
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"), Profit: d("4.00"),
	})
	term.AddPosition(types.Position{
		Symbol: "XAUUSD", Side: types.SideSell, Volume: d("0.02"), Profit: d("9.00"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-14", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
	})

	requireKinds(t, outcomes, types.OutcomeClosed, types.OutcomeClosed)
	reqs := term.Requests()
	if reqs[0].Symbol != "EURUSD" || reqs[1].Symbol != "XAUUSD" {
		t.Errorf("close order sequence = %s, %s; want snapshot order", reqs[0].Symbol, reqs[1].Symbol)
	}
	// A held sell closes with a buy at the ask.
	if reqs[1].Type != types.SideBuy {
		t.Errorf("close side for sell position = %s, want BUY", reqs[1].Type)
	}
	if !reqs[1].Price.Equal(d("2005.50")) {
		t.Errorf("close price for sell position = %s, want ask 2005.50", reqs[1].Price)
	}
}

func TestCloseAllMixedProfitability(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetTick("EURUSD", d("1.1050"), d("1.1052"))
	term.SetTick("GBPUSD", d("1.2700"), d("1.2702"))
	winner := term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("1.0"), Profit: d("5.2"),
	})
	loser := term.AddPosition(types.Position{
		Symbol: "GBPUSD", Side: types.SideSell, Volume: d("0.5"), Profit: d("-3.0"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-26", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
	})

	requireKinds(t, outcomes, types.OutcomeClosed, types.OutcomeSkippedNotProfitable)
	if outcomes[1].Ticket != loser {
		t.Errorf("skip outcome ticket = %d, want %d", outcomes[1].Ticket, loser)
	}

	reqs := term.Requests()
	if len(reqs) != 1 {
		t.Fatalf("terminal received %d requests, want exactly 1", len(reqs))
	}
	if reqs[0].Position != winner {
		t.Errorf("close targets position %d, want %d", reqs[0].Position, winner)
	}
	if _, ok := term.Position(loser); !ok {
		t.Error("losing position was closed")
	}
}

func TestCloseNoOpenPositions(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-15", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
		Symbol: "EURUSD",
	})

	if outcomes != nil {
		t.Errorf("got %d outcomes, want none", len(outcomes))
	}
}

func TestCloseQuoteFailureDoesNotStopOthers(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetTick("XAUUSD", d("2005.00"), d("2005.50"))
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"), Profit: d("4.00"),
	})
	xau := term.AddPosition(types.Position{
		Symbol: "XAUUSD", Side: types.SideBuy, Volume: d("0.02"), Profit: d("9.00"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-16", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
	})

	requireKinds(t, outcomes, types.OutcomeQuoteUnavailable, types.OutcomeClosed)
	if _, ok := term.Position(xau); ok {
		t.Error("second position not closed after first failed")
	}
}

func TestCloseIdempotent(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.SetTick("EURUSD", d("1.1050"), d("1.1052"))
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"), Profit: d("4.00"),
	})

	sig := types.Signal{
		ID: "sig-17", IsSignal: true,
		Action: types.ActionClose, SubAction: types.SubActionCloseFull,
		Symbol: "EURUSD",
	}

	requireKinds(t, eng.Execute(context.Background(), sig), types.OutcomeClosed)
	// Second delivery finds nothing left to close and sends nothing.
	before := len(term.Requests())
	if outcomes := eng.Execute(context.Background(), sig); outcomes != nil {
		t.Errorf("second close produced %d outcomes, want none", len(outcomes))
	}
	if after := len(term.Requests()); after != before {
		t.Errorf("second close sent %d extra requests", after-before)
	}
}

func TestSetBreakeven(t *testing.T) {
	tests := []struct {
		name    string
		side    types.Side
		open    string
		current string
		want    types.OutcomeKind
	}{
		{"buy in profit", types.SideBuy, "1.1000", "1.1040", types.OutcomeModified},
		{"buy against", types.SideBuy, "1.1000", "1.0980", types.OutcomeSkippedNotInProfit},
		{"buy at entry", types.SideBuy, "1.1000", "1.1000", types.OutcomeSkippedNotInProfit},
		{"sell in profit", types.SideSell, "1.1000", "1.0960", types.OutcomeModified},
		{"sell against", types.SideSell, "1.1000", "1.1020", types.OutcomeSkippedNotInProfit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, term, _ := newTestEngine(t)
			seedSymbol(term, "EURUSD", types.FillingCapFOK)
			ticket := term.AddPosition(types.Position{
				Symbol: "EURUSD", Side: tt.side,
				Volume:    d("0.01"),
				OpenPrice: d(tt.open), CurrentPrice: d(tt.current),
				TakeProfit: d("1.1200"),
			})

			outcomes := eng.Execute(context.Background(), types.Signal{
				ID: "sig-18", IsSignal: true,
				Action: types.ActionModify, SubAction: types.SubActionSetBE,
				Symbol: "EURUSD",
			})

			requireKinds(t, outcomes, tt.want)
			pos, _ := term.Position(ticket)
			if tt.want == types.OutcomeModified {
				if !pos.StopLoss.Equal(d(tt.open)) {
					t.Errorf("sl = %s, want open price %s", pos.StopLoss, tt.open)
				}
				if !pos.TakeProfit.Equal(d("1.1200")) {
					t.Errorf("tp = %s, want preserved 1.1200", pos.TakeProfit)
				}
				req, _ := term.LastRequest()
				if req.TradeAction != types.TradeActionSLTP {
					t.Errorf("trade action = %d, want SLTP", req.TradeAction)
				}
				if req.Comment != "TG Modify" {
					t.Errorf("comment = %q, want \"TG Modify\"", req.Comment)
				}
			} else if n := len(term.Requests()); n != 0 {
				t.Errorf("terminal received %d requests, want 0", n)
			}
		})
	}
}

func TestSetStopLoss(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	ticket := term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy,
		Volume: d("0.01"), StopLoss: d("1.0900"), TakeProfit: d("1.1200"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-19", IsSignal: true,
		Action: types.ActionModify, SubAction: types.SubActionSetSL,
		Symbol: "EURUSD", StopLoss: dptr("1.0950"),
	})

	requireKinds(t, outcomes, types.OutcomeModified)
	pos, _ := term.Position(ticket)
	if !pos.StopLoss.Equal(d("1.0950")) {
		t.Errorf("sl = %s, want 1.0950", pos.StopLoss)
	}
	if !pos.TakeProfit.Equal(d("1.1200")) {
		t.Errorf("tp = %s, want preserved 1.1200", pos.TakeProfit)
	}
}

func TestSetStopLossMissingLevel(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-20", IsSignal: true,
		Action: types.ActionModify, SubAction: types.SubActionSetSL,
		Symbol: "EURUSD",
	})

	requireKinds(t, outcomes, types.OutcomeMissingStopLoss)
	if n := len(term.Requests()); n != 0 {
		t.Errorf("terminal received %d requests, want 0", n)
	}
}

func TestSetStopLossUnchangedWithinEpsilon(t *testing.T) {
	tests := []struct {
		name string
		sl   string
	}{
		{"identical", "1.0950"},
		{"below epsilon", "1.095001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, term, _ := newTestEngine(t)
			seedSymbol(term, "EURUSD", types.FillingCapFOK)
			term.AddPosition(types.Position{
				Symbol: "EURUSD", Side: types.SideBuy,
				Volume: d("0.01"), StopLoss: d("1.0950"),
			})

			outcomes := eng.Execute(context.Background(), types.Signal{
				ID: "sig-21", IsSignal: true,
				Action: types.ActionModify, SubAction: types.SubActionSetSL,
				Symbol: "EURUSD", StopLoss: dptr(tt.sl),
			})

			requireKinds(t, outcomes, types.OutcomeUnchanged)
			if n := len(term.Requests()); n != 0 {
				t.Errorf("terminal received %d requests, want 0", n)
			}
		})
	}
}

func TestModifyUnsupportedSubActionDropped(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"),
	})

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-22", IsSignal: true,
		Action: types.ActionModify, SubAction: types.SubActionCloseFull,
		Symbol: "EURUSD",
	})

	if outcomes != nil {
		t.Errorf("got %d outcomes, want none", len(outcomes))
	}
	if n := len(term.Requests()); n != 0 {
		t.Errorf("terminal received %d requests, want 0", n)
	}
}

func TestSetBreakevenIdempotent(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy,
		Volume:    d("0.01"),
		OpenPrice: d("1.1000"), CurrentPrice: d("1.1040"),
	})

	sig := types.Signal{
		ID: "sig-23", IsSignal: true,
		Action: types.ActionModify, SubAction: types.SubActionSetBE,
		Symbol: "EURUSD",
	}

	requireKinds(t, eng.Execute(context.Background(), sig), types.OutcomeModified)
	// The stop already sits at the open price: the second delivery is a
	// pure no-op below the epsilon.
	before := len(term.Requests())
	requireKinds(t, eng.Execute(context.Background(), sig), types.OutcomeUnchanged)
	if after := len(term.Requests()); after != before {
		t.Errorf("second modify sent %d extra requests", after-before)
	}
}

func TestModifyRejected(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	seedSymbol(term, "EURUSD", types.FillingCapFOK)
	term.AddPosition(types.Position{
		Symbol: "EURUSD", Side: types.SideBuy, Volume: d("0.01"),
	})
	term.RejectNext(types.TradeRetcodeInvalidStops, "Invalid stops")

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-24", IsSignal: true,
		Action: types.ActionModify, SubAction: types.SubActionSetSL,
		Symbol: "EURUSD", StopLoss: dptr("1.0950"),
	})

	requireKinds(t, outcomes, types.OutcomeRejected)
	if outcomes[0].Retcode != types.TradeRetcodeInvalidStops {
		t.Errorf("retcode = %d, want %d", outcomes[0].Retcode, types.TradeRetcodeInvalidStops)
	}
}

// Gold open as it arrives from the interpreter: several take-profit levels,
// mixed filling capabilities, hidden symbol.
func TestOpenGoldEndToEnd(t *testing.T) {
	eng, term, _ := newTestEngine(t)
	term.SetSymbol(types.SymbolInfo{
		Name: "XAUUSD", Visible: false,
		FillingMask: types.FillingCapFOK | types.FillingCapIOC,
	})
	term.SetTick("XAUUSD", d("2000.00"), d("2000.30"))

	outcomes := eng.Execute(context.Background(), types.Signal{
		ID: "sig-25", IsSignal: true,
		Action: types.ActionOpen, SubAction: types.SubActionBuy,
		Symbol:      "XAUUSD",
		StopLoss:    dptr("1990"),
		TakeProfits: []decimal.Decimal{d("2010"), d("2020"), d("2030")},
	})

	requireKinds(t, outcomes, types.OutcomeOpened)
	req, _ := term.LastRequest()
	if req.Filling != types.FillingFOK {
		t.Errorf("filling = %d, want FOK over IOC", req.Filling)
	}
	if !req.TakeProfit.Equal(d("2010")) {
		t.Errorf("tp = %s, want first level 2010", req.TakeProfit)
	}
	if !req.StopLoss.Equal(d("1990")) {
		t.Errorf("sl = %s, want 1990", req.StopLoss)
	}
	if !req.Price.Equal(d("2000.30")) {
		t.Errorf("price = %s, want ask 2000.30", req.Price)
	}

	pos, ok := term.Position(outcomes[0].Ticket)
	if !ok {
		t.Fatal("opened position not found on terminal")
	}
	if pos.Side != types.SideBuy {
		t.Errorf("position side = %s, want BUY", pos.Side)
	}
}
