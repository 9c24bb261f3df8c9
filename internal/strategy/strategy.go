// Package strategy implements the single-symbol entry/exit state machine:
// tick ingestion into a bounded ring buffer, cached indicators whose
// invalidation survives a saturated buffer, confirmation-gated signal
// generation, dynamic risk sizing, and the symbol-switch handshake with
// MarketData.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scalper/internal/config"
	"scalper/internal/notify"
	"scalper/pkg/types"
)

// Strategy is a single-threaded cooperative actor: all of its
// state is touched only from the Run goroutine, so no field needs a mutex.
type Strategy struct {
	cfg       config.StrategyConfig
	riskCfg   config.RiskConfig
	marketCfg config.MarketConfig

	state         types.StrategyState
	currentSymbol types.Symbol
	// pendingSwitchSymbol is the symbol to adopt once the in-flight close
	// triggered by a symbol switch confirms flat.
	pendingSwitchSymbol types.Symbol
	// pendingSwitchCloseID is the correlation ID of the close command a
	// symbol switch preempted any live order/position with; matching it in
	// handleOrderFilled lets the switch complete as soon as that close
	// itself confirms, without waiting on a PositionUpdate that some
	// close outcomes never emit.
	pendingSwitchCloseID string

	tickBuffer             *types.RingBuffer[types.TradeTick]
	lastCacheUpdateCounter uint64
	cache                  indicatorCache

	lastOrderBook *types.OrderBookSnapshot
	lastTradeTime *int64

	pendingSignal     *types.Side
	confirmationCount int

	// pendingEntryRisk holds the dynamic risk computed at order-submission
	// time until the fill confirmation arrives and it is attached to the
	// resulting position.
	pendingEntryRisk *types.DynamicRisk

	// loggedPumpFilter/loggedFomoFilter dedupe the PUMP/anti-FOMO filter
	// log line so it fires once per pending signal, not once per tick.
	loggedPumpFilter bool
	loggedFomoFilter bool

	lastTicker24hChangePct float64

	tradesIn         <-chan types.TradeTick
	booksIn          <-chan types.OrderBookSnapshot
	symbolChangesIn  <-chan types.SymbolChanged
	feedbackIn       <-chan types.Feedback
	tickerUpdatesIn  <-chan types.TickerUpdate
	commandsOut      chan<- types.Command

	notifier notify.Sink
	logger   *slog.Logger
}

// New builds a Strategy actor wired to the given channels. commandsOut
// must have capacity >=100; feedbackIn is read-only here since
// Execution owns the blocking-send discipline on its side.
func New(
	cfg config.StrategyConfig,
	riskCfg config.RiskConfig,
	marketCfg config.MarketConfig,
	tradesIn <-chan types.TradeTick,
	booksIn <-chan types.OrderBookSnapshot,
	symbolChangesIn <-chan types.SymbolChanged,
	feedbackIn <-chan types.Feedback,
	tickerUpdatesIn <-chan types.TickerUpdate,
	commandsOut chan<- types.Command,
	notifier notify.Sink,
	logger *slog.Logger,
) *Strategy {
	return &Strategy{
		cfg:             cfg,
		riskCfg:         riskCfg,
		marketCfg:       marketCfg,
		state:           types.NewIdleState(),
		tickBuffer:      types.NewRingBuffer[types.TradeTick](cfg.RingCapacity),
		tradesIn:        tradesIn,
		booksIn:         booksIn,
		symbolChangesIn: symbolChangesIn,
		feedbackIn:      feedbackIn,
		tickerUpdatesIn: tickerUpdatesIn,
		commandsOut:     commandsOut,
		notifier:        notifier,
		logger:          logger.With("component", "strategy"),
	}
}

// Run serializes ingestion and decision-making over the actor's inbound
// channels. Blocks until ctx is cancelled.
func (s *Strategy) Run(ctx context.Context) {
	reconcileTicker := time.NewTicker(s.cfg.PositionVerifyInterval())
	defer reconcileTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-s.tradesIn:
			s.onTrade(ctx, tick)
		case book := <-s.booksIn:
			s.onOrderBook(ctx, book)
		case change := <-s.symbolChangesIn:
			s.onSymbolChanged(ctx, change)
		case fb := <-s.feedbackIn:
			s.onFeedback(ctx, fb)
		case upd := <-s.tickerUpdatesIn:
			s.onTickerUpdate(upd)
		case <-reconcileTicker.C:
			s.onReconcileTick(ctx)
		}
	}
}

// sendCommand is the only way Strategy talks to Execution; it always
// blocks (the command edge is control-plane and must never silently
// drop), but still respects ctx cancellation.
func (s *Strategy) sendCommand(ctx context.Context, cmd types.Command) {
	select {
	case s.commandsOut <- cmd:
	case <-ctx.Done():
	}
}

func (s *Strategy) notifyf(severity notify.Severity, format string, args ...any) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.Background(), notify.Event{Severity: severity, Message: fmt.Sprintf(format, args...)})
}
