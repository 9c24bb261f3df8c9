package execution

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"scalper/internal/venue"
	"scalper/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestExecution(t *testing.T, mux *http.ServeMux) (*Execution, chan types.Feedback, func()) {
	t.Helper()
	srv := httptest.NewServer(mux)
	client := venue.NewClient(srv.URL, "test-key", "test-secret", testLogger())
	feedback := make(chan types.Feedback, 16)
	e := New(client, nil, nil, feedback, testLogger())
	return e, feedback, srv.Close
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// TestResolveTimeout_CancelAfterFillRace covers the case where a status
// poll times out, the cancel is issued, but the re-query after the
// cancel finds the order actually filled in the race window.
func TestResolveTimeout_CancelAfterFillRace(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v5/order/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct{}{})
	})
	mux.HandleFunc("/v5/order/realtime", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.OrderStatusResponse{
			OrderID:     "order-1",
			OrderStatus: string(types.StatusFilled),
			Qty:         "1",
			CumExecQty:  "1",
			AvgPrice:    "100.5",
		})
	})
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.PositionListResponse{List: []venue.PositionEntry{
			{Symbol: "BTCUSDT", Side: "Long", Size: "1", AvgPrice: "100.5"},
		}})
	})

	e, feedback, closeSrv := newTestExecution(t, mux)
	defer closeSrv()
	cmd := types.PlaceOrder{
		Order:         types.Order{Symbol: "BTCUSDT", Side: types.Buy},
		CorrelationID: "corr-1",
	}

	e.resolveTimeout(context.Background(), cmd, "order-1")

	fb1 := <-feedback
	if fb1.OrderFilled == nil {
		t.Fatalf("expected OrderFilled, got %+v", fb1)
	}
	if fb1.OrderFilled.CorrelationID != "corr-1" || !fb1.OrderFilled.FilledQty.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unexpected OrderFilled: %+v", fb1.OrderFilled)
	}

	fb2 := <-feedback
	if fb2.PositionUpdate == nil || fb2.PositionUpdate.Position == nil {
		t.Fatalf("expected non-nil PositionUpdate from post-fill reconciliation, got %+v", fb2)
	}
}

// TestResolveTimeout_TrueTimeout covers the path where the order never
// filled: cancel succeeds, re-query finds it cancelled with zero fill.
func TestResolveTimeout_TrueTimeout(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v5/order/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct{}{})
	})
	mux.HandleFunc("/v5/order/realtime", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.OrderStatusResponse{
			OrderID:     "order-2",
			OrderStatus: string(types.StatusCancelled),
			Qty:         "1",
			CumExecQty:  "0",
			AvgPrice:    "0",
		})
	})

	e, feedback, closeSrv := newTestExecution(t, mux)
	defer closeSrv()
	cmd := types.PlaceOrder{
		Order:         types.Order{Symbol: "BTCUSDT", Side: types.Buy},
		CorrelationID: "corr-2",
	}

	e.resolveTimeout(context.Background(), cmd, "order-2")

	fb := <-feedback
	if fb.OrderFailed == nil {
		t.Fatalf("expected OrderFailed, got %+v", fb)
	}
	if fb.OrderFailed.Reason != "timeout" {
		t.Errorf("expected reason %q, got %q", "timeout", fb.OrderFailed.Reason)
	}
}

// TestResolveTimeout_PartialFill covers the case where the status poll
// times out, the cancel is issued, and the re-query after the cancel
// finds the order partially filled rather than fully filled or flat: the
// position must be reconciled to the actual cum_exec_qty and the order
// itself still reported failed.
func TestResolveTimeout_PartialFill(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v5/order/cancel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, struct{}{})
	})
	mux.HandleFunc("/v5/order/realtime", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.OrderStatusResponse{
			OrderID:     "order-3",
			OrderStatus: string(types.StatusPartiallyFilled),
			Qty:         "100",
			CumExecQty:  "60",
			AvgPrice:    "100.5",
		})
	})
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.PositionListResponse{List: []venue.PositionEntry{
			{Symbol: "BTCUSDT", Side: "Long", Size: "60", AvgPrice: "100.5"},
		}})
	})

	e, feedback, closeSrv := newTestExecution(t, mux)
	defer closeSrv()
	cmd := types.PlaceOrder{
		Order:         types.Order{Symbol: "BTCUSDT", Side: types.Buy, Qty: decimal.NewFromInt(100)},
		CorrelationID: "corr-5",
	}

	e.resolveTimeout(context.Background(), cmd, "order-3")

	fb1 := <-feedback
	if fb1.PositionUpdate == nil || fb1.PositionUpdate.Position == nil {
		t.Fatalf("expected PositionUpdate reconciling the partial fill, got %+v", fb1)
	}
	if !fb1.PositionUpdate.Position.Size.Equal(decimal.NewFromInt(60)) {
		t.Errorf("reconciled position size = %s, want 60", fb1.PositionUpdate.Position.Size)
	}

	fb2 := <-feedback
	if fb2.OrderFailed == nil {
		t.Fatalf("expected OrderFailed reporting the partial fill, got %+v", fb2)
	}
	if fb2.OrderFailed.Reason != "partial fill, position = cum_exec_qty" {
		t.Errorf("unexpected reason: %q", fb2.OrderFailed.Reason)
	}
}

// TestReconcilePosition_RetriesOnEmptyThenSucceeds covers replication lag:
// the venue reports an empty position array on the first call, then the
// real position on the second.
func TestReconcilePosition_RetriesOnEmptyThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			writeJSON(w, venue.PositionListResponse{List: nil})
			return
		}
		writeJSON(w, venue.PositionListResponse{List: []venue.PositionEntry{
			{Symbol: "ETHUSDT", Side: "Short", Size: "2", AvgPrice: "50"},
		}})
	})

	e, _, closeSrv := newTestExecution(t, mux)
	defer closeSrv()

	pos := e.reconcilePosition(context.Background(), "ETHUSDT")
	if pos == nil {
		t.Fatal("expected non-nil position after retry")
	}
	if pos.Side != types.Short || !pos.Size.Equal(decimal.NewFromInt(2)) {
		t.Errorf("unexpected position: %+v", pos)
	}
	if atomic.LoadInt32(&calls) < 2 {
		t.Errorf("expected at least 2 calls (retry), got %d", calls)
	}
}

// TestReconcilePosition_ExhaustsRetriesReturnsNil covers the case where the
// venue keeps reporting flat across every retry.
func TestReconcilePosition_ExhaustsRetriesReturnsNil(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.PositionListResponse{List: nil})
	})

	e, _, closeSrv := newTestExecution(t, mux)
	defer closeSrv()

	pos := e.reconcilePosition(context.Background(), "ETHUSDT")
	if pos != nil {
		t.Errorf("expected nil position, got %+v", pos)
	}
}

// TestClosePosition_NothingToClose covers closing when the venue already
// agrees the symbol is flat: no order should be placed.
func TestClosePosition_NothingToClose(t *testing.T) {
	t.Parallel()

	orderPlaced := false
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.PositionListResponse{List: nil})
	})
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		orderPlaced = true
		writeJSON(w, venue.OrderCreateResponse{OrderID: "should-not-happen"})
	})

	e, feedback, closeSrv := newTestExecution(t, mux)
	defer closeSrv()
	e.closePosition(context.Background(), types.ClosePosition{
		Symbol:        "BTCUSDT",
		Side:          types.Sell,
		CorrelationID: "corr-3",
	})

	fb := <-feedback
	if fb.OrderFilled == nil {
		t.Fatalf("expected OrderFilled(already flat), got %+v", fb)
	}
	if orderPlaced {
		t.Error("expected no order to be placed when already flat")
	}
}

// TestClosePosition_PlacesReduceOnlyOppositeSide covers the live-close
// path: a held Long position must be closed with a Sell order.
func TestClosePosition_PlacesReduceOnlyOppositeSide(t *testing.T) {
	t.Parallel()

	var gotReduceOnly bool
	var gotSide string
	mux := http.NewServeMux()
	mux.HandleFunc("/v5/position/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.PositionListResponse{List: []venue.PositionEntry{
			{Symbol: "BTCUSDT", Side: "Long", Size: "3", AvgPrice: "200"},
		}})
	})
	mux.HandleFunc("/v5/order/create", func(w http.ResponseWriter, r *http.Request) {
		var req venue.OrderCreateRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotReduceOnly = req.ReduceOnly
		gotSide = req.Side
		writeJSON(w, venue.OrderCreateResponse{OrderID: "close-order"})
	})
	mux.HandleFunc("/v5/order/realtime", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, venue.OrderStatusResponse{
			OrderID:     "close-order",
			OrderStatus: string(types.StatusFilled),
			Qty:         "3",
			CumExecQty:  "3",
			AvgPrice:    "199.5",
		})
	})

	e, feedback, closeSrv := newTestExecution(t, mux)
	defer closeSrv()
	e.closePosition(context.Background(), types.ClosePosition{
		Symbol:        "BTCUSDT",
		CorrelationID: "corr-4",
	})

	fb := <-feedback
	if fb.OrderFilled == nil {
		t.Fatalf("expected OrderFilled, got %+v", fb)
	}
	if !gotReduceOnly {
		t.Error("expected ReduceOnly=true on the close order")
	}
	if gotSide != string(types.Sell) {
		t.Errorf("expected Sell to close a Long position, got %q", gotSide)
	}
}
