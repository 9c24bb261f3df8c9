package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"scalper/internal/venue"
	"scalper/pkg/types"
)

// closePosition queries live size/side, then places a
// reduce-only Market IOC on the opposite side, and never assume filled on
// timeout — an unresolved close reports the actual observed state via
// reconciliation instead of a synthesized flat.
func (e *Execution) closePosition(ctx context.Context, cmd types.ClosePosition) {
	views, err := e.client.GetPosition(ctx, cmd.Symbol)
	if err != nil {
		e.logger.Error("close: get position failed", "symbol", cmd.Symbol, "error", err)
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			Symbol:        cmd.Symbol,
			Reason:        "close: position lookup failed: " + err.Error(),
		}})
		return
	}

	qty, side, ok := liveSizeAndCloseSide(views, cmd.Symbol)
	if !ok {
		// Nothing to close; the venue already agrees we're flat.
		e.emit(ctx, types.Feedback{OrderFilled: &types.OrderFilled{
			CorrelationID: cmd.CorrelationID,
			Symbol:        cmd.Symbol,
			Side:          cmd.Side,
		}})
		return
	}

	order := types.Order{
		Symbol:     cmd.Symbol,
		Side:       side,
		Type:       types.Market,
		Qty:        qty,
		TIF:        types.IOC,
		ReduceOnly: true,
	}

	orderID, _, err := e.client.PlaceOrder(ctx, order)
	if err != nil {
		e.logger.Error("close: place order failed", "symbol", cmd.Symbol, "error", err)
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			Symbol:        cmd.Symbol,
			Reason:        "close: " + err.Error(),
		}})
		return
	}

	status, confirmed := e.pollUntilTerminal(ctx, cmd.Symbol, orderID)
	if confirmed && status.Status == types.StatusFilled {
		e.emit(ctx, types.Feedback{OrderFilled: &types.OrderFilled{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        cmd.Symbol,
			Side:          side,
			FilledQty:     status.CumExecQty,
			AvgPrice:      status.AvgPrice,
		}})
		e.reconcileAfterFill(ctx, cmd.Symbol, cmd.CorrelationID)
		return
	}

	// Could not confirm Filled (confirmed-but-not-filled, or never
	// terminal): report the venue's actual observed state, not a
	// synthesized "flat".
	e.reconcileAfterFill(ctx, cmd.Symbol, cmd.CorrelationID)
	e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
		CorrelationID: cmd.CorrelationID,
		OrderID:       orderID,
		Symbol:        cmd.Symbol,
		Reason:        "close could not be confirmed filled",
	}})
}

// liveSizeAndCloseSide finds the live position for symbol and returns its
// size and the order side that closes it (opposite of the position's
// entry side). ok is false if no position is held.
func liveSizeAndCloseSide(views []venue.PositionView, symbol types.Symbol) (qty decimal.Decimal, side types.Side, ok bool) {
	for _, v := range views {
		if v.Symbol != symbol {
			continue
		}
		closeSide := types.Sell
		if v.Side == types.Short {
			closeSide = types.Buy
		}
		return v.Size, closeSide, true
	}
	return decimal.Decimal{}, "", false
}
