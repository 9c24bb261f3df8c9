// Package execution implements the single-threaded order-lifecycle actor:
// it owns order identity and venue interaction, and never decides
// whether to trade, only how to realize Strategy's decision safely —
// confirming fills, handling the cancel-after-fill race, and reconciling
// position drift.
package execution

import (
	"context"
	"log/slog"
	"time"

	"scalper/internal/store"
	"scalper/internal/venue"
	"scalper/pkg/types"
)

const (
	statusPollInterval = 500 * time.Millisecond
	statusPollAttempts  = 20
	postCancelWait      = 300 * time.Millisecond
	reconcileRetries    = 3
	reconcileSpacing    = 200 * time.Millisecond
)

// Execution is a single-threaded cooperative actor: all venue calls it
// issues are sequential, so no field needs a mutex.
type Execution struct {
	client *venue.Client
	ledger *store.Store

	commandsIn  <-chan types.Command
	feedbackOut chan<- types.Feedback

	logger *slog.Logger
}

// New builds an Execution actor. feedbackOut must accept blocking sends:
// every feedback message is control-plane and must never be dropped.
// ledger may be nil, in which case no audit trail is written.
func New(client *venue.Client, ledger *store.Store, commandsIn <-chan types.Command, feedbackOut chan<- types.Feedback, logger *slog.Logger) *Execution {
	return &Execution{
		client:      client,
		ledger:      ledger,
		commandsIn:  commandsIn,
		feedbackOut: feedbackOut,
		logger:      logger.With("component", "execution"),
	}
}

// Run serializes command handling. Blocks until ctx is cancelled.
func (e *Execution) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.commandsIn:
			e.handle(ctx, cmd)
		}
	}
}

func (e *Execution) handle(ctx context.Context, cmd types.Command) {
	switch {
	case cmd.PlaceOrder != nil:
		e.placeOrderWithConfirmation(ctx, *cmd.PlaceOrder)
	case cmd.ClosePosition != nil:
		e.closePosition(ctx, *cmd.ClosePosition)
	case cmd.GetPosition != nil:
		e.handleGetPosition(ctx, *cmd.GetPosition)
	}
}

// emit always blocks (subject to ctx cancellation): feedback is
// control-plane and must never be silently dropped. Every feedback is
// also appended to the audit ledger before delivery; a ledger write
// failure is logged but never blocks or alters the trading path.
func (e *Execution) emit(ctx context.Context, fb types.Feedback) {
	e.record(fb)
	select {
	case e.feedbackOut <- fb:
	case <-ctx.Done():
	}
}

func (e *Execution) record(fb types.Feedback) {
	if e.ledger == nil {
		return
	}
	switch {
	case fb.OrderFilled != nil:
		f := fb.OrderFilled
		if err := e.ledger.AppendTrade("OrderFilled", f.Symbol, f.CorrelationID, string(f.Side)+" "+f.FilledQty.String()+"@"+f.AvgPrice.String()); err != nil {
			e.logger.Warn("ledger append failed", "error", err)
		}
	case fb.OrderFailed != nil:
		f := fb.OrderFailed
		if err := e.ledger.AppendTrade("OrderFailed", f.Symbol, f.CorrelationID, f.Reason); err != nil {
			e.logger.Warn("ledger append failed", "error", err)
		}
	case fb.PositionUpdate != nil:
		f := fb.PositionUpdate
		if err := e.ledger.SavePosition(f.Symbol, f.Position); err != nil {
			e.logger.Warn("position persist failed", "error", err)
		}
	}
}
