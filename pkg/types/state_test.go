package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic, got none", name)
		}
	}()
	fn()
}

func TestStrategyStateHappyPathTransitions(t *testing.T) {
	t.Parallel()

	s := NewIdleState()
	if s.Kind() != StateIdle {
		t.Fatalf("NewIdleState().Kind() = %s, want Idle", s.Kind())
	}

	s = s.ToOrderPending("order-1")
	if s.Kind() != StateOrderPending || s.PendingOrderID() != "order-1" {
		t.Fatalf("ToOrderPending: got kind=%s orderID=%s", s.Kind(), s.PendingOrderID())
	}

	pos := Position{Symbol: "BTCUSDT", Side: Long, Size: decimal.NewFromInt(1)}
	risk := DynamicRisk{StopLossPercent: decimal.NewFromFloat(1.0), TakeProfitPercent: decimal.NewFromFloat(1.5)}
	s = s.ToPositionOpen(pos, risk)
	if s.Kind() != StatePositionOpen {
		t.Fatalf("ToPositionOpen: got kind=%s", s.Kind())
	}
	gotPos, ok := s.Position()
	if !ok || gotPos.Symbol != "BTCUSDT" {
		t.Fatalf("Position() = (%+v, %v)", gotPos, ok)
	}
	gotRisk, ok := s.DynamicRisk()
	if !ok || !gotRisk.StopLossPercent.Equal(risk.StopLossPercent) {
		t.Fatalf("DynamicRisk() = (%+v, %v)", gotRisk, ok)
	}

	s = s.ToClosingPosition("close-1")
	if s.Kind() != StateClosingPosition || s.PendingOrderID() != "close-1" {
		t.Fatalf("ToClosingPosition: got kind=%s orderID=%s", s.Kind(), s.PendingOrderID())
	}
	if _, ok := s.Position(); !ok {
		t.Error("expected position to survive into ClosingPosition")
	}

	s = s.ToIdle()
	if s.Kind() != StateIdle {
		t.Fatalf("ToIdle: got kind=%s", s.Kind())
	}
	if _, ok := s.Position(); ok {
		t.Error("expected position discarded after ToIdle")
	}
}

func TestStrategyStateSwitchHandshake(t *testing.T) {
	t.Parallel()

	s := NewIdleState()
	s = s.ToSwitchingSymbol()
	if s.Kind() != StateSwitchingSymbol {
		t.Fatalf("ToSwitchingSymbol: got kind=%s", s.Kind())
	}
	s = s.ToIdleFromSwitch()
	if s.Kind() != StateIdle {
		t.Fatalf("ToIdleFromSwitch: got kind=%s", s.Kind())
	}
}

func TestForceToSwitchingSymbolFromPositionOpenOrOrderPending(t *testing.T) {
	t.Parallel()

	pending := NewIdleState().ToOrderPending("o1")
	forced := ForceToSwitchingSymbol(pending)
	if forced.Kind() != StateSwitchingSymbol {
		t.Errorf("ForceToSwitchingSymbol from OrderPending: got kind=%s", forced.Kind())
	}

	open := NewIdleState().ToOrderPending("o2").ToPositionOpen(
		Position{Symbol: "ETHUSDT", Side: Short},
		DynamicRisk{},
	)
	forced = ForceToSwitchingSymbol(open)
	if forced.Kind() != StateSwitchingSymbol {
		t.Errorf("ForceToSwitchingSymbol from PositionOpen: got kind=%s", forced.Kind())
	}
}

func TestForceToSwitchingSymbolPanicsFromIdle(t *testing.T) {
	t.Parallel()
	mustPanic(t, "ForceToSwitchingSymbol from Idle", func() {
		ForceToSwitchingSymbol(NewIdleState())
	})
}

func TestBackToPositionOpenRestoresPositionAndRisk(t *testing.T) {
	t.Parallel()

	pos := Position{Symbol: "BTCUSDT", Side: Long, Size: decimal.NewFromInt(2)}
	risk := DynamicRisk{StopLossPercent: decimal.NewFromFloat(2.0)}
	s := NewIdleState().ToOrderPending("o1").ToPositionOpen(pos, risk).ToClosingPosition("c1")

	s = s.BackToPositionOpen()
	if s.Kind() != StatePositionOpen {
		t.Fatalf("BackToPositionOpen: got kind=%s", s.Kind())
	}
	gotPos, ok := s.Position()
	if !ok || !gotPos.Size.Equal(pos.Size) {
		t.Errorf("expected position restored, got %+v", gotPos)
	}
}

func TestBackToIdleFromOrderPending(t *testing.T) {
	t.Parallel()
	s := NewIdleState().ToOrderPending("o1").BackToIdle()
	if s.Kind() != StateIdle {
		t.Fatalf("BackToIdle: got kind=%s", s.Kind())
	}
}

func TestWithPositionMarkUpdatesCurrentPriceOnly(t *testing.T) {
	t.Parallel()

	pos := Position{Symbol: "BTCUSDT", Side: Long, EntryPrice: decimal.NewFromInt(100), CurrentPrice: decimal.NewFromInt(100)}
	s := NewIdleState().ToOrderPending("o1").ToPositionOpen(pos, DynamicRisk{})

	s = s.WithPositionMark(decimal.NewFromInt(110))
	got, ok := s.Position()
	if !ok {
		t.Fatal("expected position present")
	}
	if !got.CurrentPrice.Equal(decimal.NewFromInt(110)) {
		t.Errorf("CurrentPrice = %v, want 110", got.CurrentPrice)
	}
	if !got.EntryPrice.Equal(decimal.NewFromInt(100)) {
		t.Errorf("EntryPrice should be unchanged, got %v", got.EntryPrice)
	}
}

func TestWithPositionMarkPanicsWithoutPosition(t *testing.T) {
	t.Parallel()
	mustPanic(t, "WithPositionMark with no position", func() {
		NewIdleState().WithPositionMark(decimal.NewFromInt(1))
	})
}

func TestInvalidTransitionsPanic(t *testing.T) {
	t.Parallel()

	mustPanic(t, "ToPositionOpen from Idle", func() {
		NewIdleState().ToPositionOpen(Position{}, DynamicRisk{})
	})
	mustPanic(t, "ToClosingPosition from Idle", func() {
		NewIdleState().ToClosingPosition("x")
	})
	mustPanic(t, "ToIdle from Idle", func() {
		NewIdleState().ToIdle()
	})
	mustPanic(t, "ToOrderPending from OrderPending", func() {
		NewIdleState().ToOrderPending("o1").ToOrderPending("o2")
	})
	mustPanic(t, "ToSwitchingSymbol from OrderPending", func() {
		NewIdleState().ToOrderPending("o1").ToSwitchingSymbol()
	})
}
