package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"scalper/pkg/types"
)

const flashCrashPnLPercent = -5.0

var hundred = decimal.NewFromInt(100)

// onTrade pushes into the ring buffer, invalidates caches
// keyed on the monotone push counter, mark-to-market a local (never
// written back) pnl estimate if a position is open, and evaluate the
// flash-crash guard before running the entry pipeline.
func (s *Strategy) onTrade(ctx context.Context, tick types.TradeTick) {
	if s.currentSymbol == "" || tick.Symbol != s.currentSymbol {
		return
	}

	s.tickBuffer.Push(tick)
	s.invalidateIfStale()
	now := tick.TimestampMS
	s.lastTradeTime = &now

	if pos, ok := s.state.Position(); ok {
		localPnL := localPnLPercent(pos, tick.Price)
		if localPnL < flashCrashPnLPercent {
			s.triggerClose(ctx, pos, "flash-crash")
			return
		}
	}

	s.evaluateEntry(ctx)
}

// localPnLPercent mirrors types.Position.PnLPercent but against a
// caller-supplied last-trade price instead of position.CurrentPrice,
// since trade ticks must never mutate CurrentPrice.
func localPnLPercent(pos types.Position, lastPrice decimal.Decimal) float64 {
	if pos.EntryPrice.IsZero() {
		return 0
	}
	raw := lastPrice.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(hundred)
	f, _ := raw.Float64()
	if pos.Side == types.Short {
		return -f
	}
	return f
}

// onOrderBook handles the order-book path: reject stale-symbol
// snapshots, mark CurrentPrice authoritatively, then evaluate exits.
func (s *Strategy) onOrderBook(ctx context.Context, snap types.OrderBookSnapshot) {
	if s.currentSymbol == "" || snap.Symbol != s.currentSymbol {
		return
	}
	s.lastOrderBook = &snap

	if _, ok := s.state.Position(); ok {
		s.state = s.state.WithPositionMark(snap.MidPrice())
		s.evaluateExit(ctx, snap)
	}
}

// onSymbolChanged is the symbol-switch handshake entry
// point: force a close if a position/order is live, otherwise reset
// straight to the new symbol.
func (s *Strategy) onSymbolChanged(ctx context.Context, change types.SymbolChanged) {
	switch s.state.Kind() {
	case types.StatePositionOpen, types.StateOrderPending:
		pos, hasPos := s.state.Position()
		if !hasPos {
			// OrderPending with no fill yet: nothing on the book to
			// describe, but Execution's closePosition always re-queries
			// the live position itself, so the symbol is all that
			// matters here. If the pending order later fills anyway,
			// this close reduces it back out.
			pos = types.Position{Symbol: s.currentSymbol}
		}
		s.state = types.ForceToSwitchingSymbol(s.state)
		s.pendingSwitchSymbol = change.NewSymbol
		correlationID := fmt.Sprintf("%s-switch-close", pos.Symbol)
		s.pendingSwitchCloseID = correlationID
		s.emitCloseCommand(ctx, pos, "symbol-switch", correlationID)
	default:
		s.resetForSymbol(change.NewSymbol)
	}
}

// onFeedback dispatches Execution's feedback to the entry/exit/switch/
// reconciliation handlers that own each state transition.
func (s *Strategy) onFeedback(ctx context.Context, fb types.Feedback) {
	switch {
	case fb.OrderFilled != nil:
		s.handleOrderFilled(ctx, *fb.OrderFilled)
	case fb.OrderFailed != nil:
		s.handleOrderFailed(ctx, *fb.OrderFailed)
	case fb.PositionUpdate != nil:
		s.handlePositionUpdate(ctx, *fb.PositionUpdate)
	}
}

// onReconcileTick runs periodic read-only reconciliation
// that must never itself cause a trading side effect.
func (s *Strategy) onReconcileTick(ctx context.Context) {
	if s.currentSymbol == "" {
		return
	}
	s.sendCommand(ctx, types.Command{GetPosition: &types.GetPosition{Symbol: s.currentSymbol}})
}

// onTickerUpdate records the current symbol's latest 24h change percent,
// feeding the PUMP/anti-FOMO filters in evaluateEntry.
func (s *Strategy) onTickerUpdate(upd types.TickerUpdate) {
	if s.currentSymbol == "" || upd.Symbol != s.currentSymbol {
		return
	}
	s.lastTicker24hChangePct = upd.Change24hPct
}

func (s *Strategy) resetConfirmation() {
	s.pendingSignal = nil
	s.confirmationCount = 0
	s.loggedPumpFilter = false
	s.loggedFomoFilter = false
}
