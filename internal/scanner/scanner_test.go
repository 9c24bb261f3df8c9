package scanner

import (
	"log/slog"
	"testing"

	"scalper/internal/config"
	"scalper/internal/venue"
)

func testScannerConfig() config.ScannerConfig {
	return config.ScannerConfig{
		MinTurnover24hUSD:         1.0e7,
		SwitchThresholdMultiplier: 1.2,
		QuoteSuffix:               "USDT",
		ExcludeMajors:             []string{"BTCUSDT", "ETHUSDT"},
		ExcludeStableBases:        []string{"USDC", "BUSD", "DAI", "TUSD"},
	}
}

func TestFilterAndRank_PureVolatilitySelection(t *testing.T) {
	t.Parallel()
	s := &Scanner{cfg: testScannerConfig(), logger: slog.Default()}

	tickers := []venue.TickerEntry{
		{Symbol: "BTCUSDT", Turnover24h: "1e10", PriceChange24hPct: "0.001"},
		{Symbol: "FOOUSDT", Turnover24h: "5e7", PriceChange24hPct: "0.08"},
		{Symbol: "USDCUSDT", Turnover24h: "1e9", PriceChange24hPct: "0.0001"},
	}

	ranked := s.filterAndRank(tickers)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 eligible symbol, got %d: %+v", len(ranked), ranked)
	}
	if ranked[0].Symbol != "FOOUSDT" {
		t.Errorf("expected FOOUSDT, got %s", ranked[0].Symbol)
	}
	const wantScore = 5e7 * 0.08
	if diff := ranked[0].Score - wantScore; diff > 1 || diff < -1 {
		t.Errorf("expected score ~%v, got %v", wantScore, ranked[0].Score)
	}
}

func TestShouldSwitch_ThresholdGate(t *testing.T) {
	t.Parallel()
	s := &Scanner{
		cfg:           testScannerConfig(),
		logger:        slog.Default(),
		currentSymbol: "AUSDT",
		currentScore:  1.0e9,
	}

	top := Ranked{Symbol: "BUSDT", Score: 1.15e9}
	if s.shouldSwitch(top) {
		t.Errorf("expected no switch: 1.15e9 does not exceed 1.2e9 threshold")
	}

	top2 := Ranked{Symbol: "BUSDT", Score: 1.25e9}
	if !s.shouldSwitch(top2) {
		t.Errorf("expected switch: 1.25e9 exceeds 1.2e9 threshold")
	}
}

func TestShouldSwitch_NoCurrentSymbol(t *testing.T) {
	t.Parallel()
	s := &Scanner{cfg: testScannerConfig(), logger: slog.Default()}
	if !s.shouldSwitch(Ranked{Symbol: "ANYUSDT", Score: 1}) {
		t.Errorf("expected switch when no symbol is currently selected")
	}
}

func TestFilterAndRank_TieBreakLexicographic(t *testing.T) {
	t.Parallel()
	s := &Scanner{cfg: testScannerConfig(), logger: slog.Default()}

	tickers := []venue.TickerEntry{
		{Symbol: "ZZZUSDT", Turnover24h: "1e8", PriceChange24hPct: "0.1"},
		{Symbol: "AAAUSDT", Turnover24h: "1e8", PriceChange24hPct: "0.1"},
	}
	ranked := s.filterAndRank(tickers)
	if len(ranked) != 2 || ranked[0].Symbol != "AAAUSDT" {
		t.Errorf("expected AAAUSDT first on tie-break, got %+v", ranked)
	}
}
