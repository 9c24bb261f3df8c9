// Package engine wires together the four cooperative actors (Scanner,
// MarketData, Strategy, Execution) described in the concurrency model:
// Scanner ranks candidate symbols and hands switch decisions to
// MarketData; MarketData fans out live order-book/trade data to Strategy;
// Strategy decides entries/exits and issues commands to Execution;
// Execution talks to the venue and reports fills/failures/reconciliation
// back to Strategy. Engine owns every channel's capacity and backpressure
// policy, starts each actor's Run loop, and tears them all down together.
//
// Lifecycle: New() -> Start() -> [runs until ctx cancelled] -> Stop()
package engine

import (
	"context"
	"log/slog"
	"sync"

	"scalper/internal/config"
	"scalper/internal/execution"
	"scalper/internal/marketdata"
	"scalper/internal/notify"
	"scalper/internal/scanner"
	"scalper/internal/store"
	"scalper/internal/strategy"
	"scalper/internal/venue"
	"scalper/pkg/types"
)

// Channel capacities per the concurrency model: control-plane edges
// (switch decisions, commands, feedback) are generously sized and always
// delivered via blocking send; the order-book edge is small because only
// the latest snapshot ever matters; the trade edge is sized for bursts
// since every tick must be accounted for.
const (
	switchCapacity = 256
	bookCapacity   = 64
	tradeCapacity  = 960
	changeCapacity = 64
	commandCapacity  = 128
	feedbackCapacity = 256
)

// Engine orchestrates the Scanner -> MarketData -> Strategy -> Execution
// pipeline for a single traded symbol at a time.
type Engine struct {
	cfg    config.Config
	client *venue.Client
	store  *store.Store
	logger *slog.Logger

	scanner    *scanner.Scanner
	marketData *marketdata.MarketData
	strategy   *strategy.Strategy
	execution  *execution.Execution

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires all components. It does not start any goroutine.
func New(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	client := venue.NewClient(cfg.Endpoints.RestBaseURL, cfg.Credentials.APIKey, cfg.Credentials.APISecret, logger)

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return nil, err
	}

	var sink notify.Sink = notify.NopSink{}
	if cfg.Notify.TelegramToken != "" {
		telegramSink, err := notify.NewTelegramSink(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, logger)
		if err != nil {
			logger.Warn("telegram notify sink unavailable, falling back to no-op", "error", err)
		} else {
			sink = telegramSink
		}
	}

	scan := scanner.New(client, cfg.Scanner, switchCapacity, logger)
	md := marketdata.New(cfg.Endpoints.WSURL, cfg.Market, scan.Out(), bookCapacity, tradeCapacity, changeCapacity, logger)

	commandsCh := make(chan types.Command, commandCapacity)
	feedbackCh := make(chan types.Feedback, feedbackCapacity)

	strat := strategy.New(
		cfg.Strategy,
		cfg.Risk,
		cfg.Market,
		md.Trades(),
		md.OrderBooks(),
		md.SymbolChanges(),
		feedbackCh,
		scan.TickerUpdates(),
		commandsCh,
		sink,
		logger,
	)

	exec := execution.New(client, st, commandsCh, feedbackCh, logger)

	ctx, cancel := context.WithCancel(context.Background())

	return &Engine{
		cfg:        cfg,
		client:     client,
		store:      st,
		logger:     logger.With("component", "engine"),
		scanner:    scan,
		marketData: md,
		strategy:   strat,
		execution:  exec,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start launches every actor's Run loop in its own goroutine.
func (e *Engine) Start() error {
	e.runActor(func(ctx context.Context) { e.scanner.Run(ctx) })
	e.runActor(func(ctx context.Context) { e.marketData.Run(ctx) })
	e.runActor(func(ctx context.Context) { e.execution.Run(ctx) })
	e.runActor(func(ctx context.Context) { e.strategy.Run(ctx) })
	return nil
}

func (e *Engine) runActor(run func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		run(e.ctx)
	}()
}

// Stop cancels every actor, waits for them to exit, and closes resources.
func (e *Engine) Stop() {
	e.logger.Info("shutting down...")

	e.cancel()
	e.wg.Wait()

	if err := e.store.Close(); err != nil {
		e.logger.Error("failed to close store", "error", err)
	}

	e.logger.Info("shutdown complete")
}

// Healthy reports whether the engine's venue connection is usable.
func (e *Engine) Healthy() (bool, string) {
	return e.client.Healthy()
}
