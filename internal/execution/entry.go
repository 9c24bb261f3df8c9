package execution

import (
	"context"
	"time"

	"scalper/pkg/types"
)

// placeOrderWithConfirmation submits, polls status to a
// terminal outcome, and on timeout cancel-then-re-query rather than
// trusting either the cancel ack or the timeout itself as authoritative.
func (e *Execution) placeOrderWithConfirmation(ctx context.Context, cmd types.PlaceOrder) {
	order := cmd.Order

	orderID, _, err := e.client.PlaceOrder(ctx, order)
	if err != nil {
		e.logger.Warn("place order rejected", "symbol", order.Symbol, "error", err)
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			Symbol:        order.Symbol,
			Reason:        err.Error(),
		}})
		return
	}

	status, confirmed := e.pollUntilTerminal(ctx, order.Symbol, orderID)
	if !confirmed {
		e.resolveTimeout(ctx, cmd, orderID)
		return
	}

	switch status.Status {
	case types.StatusFilled:
		e.emit(ctx, types.Feedback{OrderFilled: &types.OrderFilled{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Side:          order.Side,
			FilledQty:     status.CumExecQty,
			AvgPrice:      status.AvgPrice,
		}})
		e.reconcileAfterFill(ctx, order.Symbol, cmd.CorrelationID)

	case types.StatusCancelled, types.StatusRejected:
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Reason:        string(status.Status),
		}})

	default:
		// Still New/PartiallyFilled somehow reached here without being
		// terminal; treat as an unresolved timeout path for safety.
		e.resolveTimeout(ctx, cmd, orderID)
	}
}

// pollUntilTerminal polls order status every statusPollInterval, up to
// statusPollAttempts times (a 10s cap).
func (e *Execution) pollUntilTerminal(ctx context.Context, symbol types.Symbol, orderID string) (types.OrderStatus, bool) {
	var last types.OrderStatus
	for attempt := 0; attempt < statusPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return last, false
		case <-time.After(statusPollInterval):
		}

		status, err := e.client.GetOrderStatus(ctx, symbol, orderID)
		if err != nil {
			e.logger.Warn("order status poll failed", "order_id", orderID, "error", err)
			continue
		}
		last = status
		if status.IsTerminal() {
			return status, true
		}
	}
	return last, false
}

// resolveTimeout handles the timeout path: cancel, wait,
// then always re-query — never assume the cancel ack reflects reality,
// since the order may have filled in the race between poll and cancel.
func (e *Execution) resolveTimeout(ctx context.Context, cmd types.PlaceOrder, orderID string) {
	order := cmd.Order

	if err := e.client.CancelOrder(ctx, order.Symbol, orderID); err != nil {
		e.logger.Warn("cancel after timeout failed", "order_id", orderID, "error", err)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(postCancelWait):
	}

	final, err := e.client.GetOrderStatus(ctx, order.Symbol, orderID)
	if err != nil {
		e.logger.Error("status re-query after cancel failed", "order_id", orderID, "error", err)
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Reason:        "timeout, cancel and re-query both unresolved: " + err.Error(),
		}})
		return
	}

	switch {
	case final.Status == types.StatusFilled:
		// Cancel-after-fill race: the order filled before the cancel took
		// effect. Treating the cancel as success here would cause a
		// silent double position.
		e.emit(ctx, types.Feedback{OrderFilled: &types.OrderFilled{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Side:          order.Side,
			FilledQty:     final.CumExecQty,
			AvgPrice:      final.AvgPrice,
		}})
		e.reconcileAfterFill(ctx, order.Symbol, cmd.CorrelationID)

	case final.Status == types.StatusPartiallyFilled && final.CumExecQty.IsPositive():
		e.reconcileAfterFill(ctx, order.Symbol, cmd.CorrelationID)
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Reason:        "partial fill, position = cum_exec_qty",
		}})

	default:
		e.emit(ctx, types.Feedback{OrderFailed: &types.OrderFailed{
			CorrelationID: cmd.CorrelationID,
			OrderID:       orderID,
			Symbol:        order.Symbol,
			Reason:        "timeout",
		}})
	}
}
