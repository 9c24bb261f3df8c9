package execution

import (
	"context"
	"time"

	"scalper/pkg/types"
)

// handleGetPosition answers a Strategy reconciliation request.
func (e *Execution) handleGetPosition(ctx context.Context, cmd types.GetPosition) {
	pos := e.reconcilePosition(ctx, cmd.Symbol)
	e.emit(ctx, types.Feedback{PositionUpdate: &types.PositionUpdate{
		CorrelationID: cmd.CorrelationID,
		Symbol:        cmd.Symbol,
		Position:      pos,
	}})
}

// reconcileAfterFill performs the automatic post-fill reconciliation
// push: any order reaching Filled is followed
// by an authoritative position query, whose result becomes the
// PositionUpdate Strategy ultimately trusts — including the
// PositionUpdate(None) that completes a symbol-switch handshake.
func (e *Execution) reconcileAfterFill(ctx context.Context, symbol types.Symbol, correlationID string) {
	pos := e.reconcilePosition(ctx, symbol)
	e.emit(ctx, types.Feedback{PositionUpdate: &types.PositionUpdate{
		CorrelationID: correlationID,
		Symbol:        symbol,
		Position:      pos,
	}})
}

// reconcilePosition retries up to reconcileRetries times
// with reconcileSpacing when the venue reports an empty position array,
// since replication lag can briefly show flat right after a fresh fill.
// Returns nil if still empty after all retries.
func (e *Execution) reconcilePosition(ctx context.Context, symbol types.Symbol) *types.Position {
	for attempt := 0; attempt < reconcileRetries; attempt++ {
		views, err := e.client.GetPosition(ctx, symbol)
		if err != nil {
			e.logger.Warn("reconcile: get position failed", "symbol", symbol, "error", err)
		} else if len(views) > 0 {
			v := views[0]
			return &types.Position{
				Symbol:       v.Symbol,
				Side:         v.Side,
				Size:         v.Size,
				EntryPrice:   v.AvgPrice,
				CurrentPrice: v.AvgPrice,
			}
		}

		if attempt == reconcileRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconcileSpacing):
		}
	}
	return nil
}
