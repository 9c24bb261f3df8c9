package strategy

import (
	"math"

	"github.com/shopspring/decimal"

	"scalper/pkg/types"
)

// indicatorCache holds the three cached derived values. A nil pointer
// means "not yet computed since the last invalidation".
type indicatorCache struct {
	vwapShort  *decimal.Decimal
	vwapLong   *decimal.Decimal
	volatility *decimal.Decimal
}

func (c *indicatorCache) clear() {
	c.vwapShort = nil
	c.vwapLong = nil
	c.volatility = nil
}

// invalidateIfStale applies the cache-invalidation rule:
// the key is tickCounter (PushCounter), never buffer occupancy, because
// Len() saturates at capacity and cannot distinguish "still the same N
// ticks" from "the buffer has fully turned over since".
func (s *Strategy) invalidateIfStale() {
	counter := s.tickBuffer.PushCounter()
	if counter != s.lastCacheUpdateCounter {
		s.cache.clear()
		s.lastCacheUpdateCounter = counter
	}
}

// vwap computes the volume-weighted average price over the last n ticks.
func vwap(ticks []types.TradeTick) decimal.Decimal {
	if len(ticks) == 0 {
		return decimal.Zero
	}
	var num, den decimal.Decimal
	for _, t := range ticks {
		num = num.Add(t.Price.Mul(t.Size))
		den = den.Add(t.Size)
	}
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// VWAPShort returns the cached short-window VWAP, computing it on first
// read after invalidation.
func (s *Strategy) VWAPShort() decimal.Decimal {
	if s.cache.vwapShort == nil {
		ticks := s.tickBuffer.LastN(s.cfg.ShortWindow)
		v := vwap(ticks)
		s.cache.vwapShort = &v
	}
	return *s.cache.vwapShort
}

// VWAPLong returns the cached long-window VWAP, computing it on first
// read after invalidation.
func (s *Strategy) VWAPLong() decimal.Decimal {
	if s.cache.vwapLong == nil {
		ticks := s.tickBuffer.LastN(s.cfg.LongWindow)
		v := vwap(ticks)
		s.cache.vwapLong = &v
	}
	return *s.cache.vwapLong
}

// Volatility returns the cached stddev of returns over the long window,
// used by dynamic-risk sizing. Returns (0, false) if fewer than
// two ticks are available to form a return series.
func (s *Strategy) Volatility() (decimal.Decimal, bool) {
	if s.cache.volatility != nil {
		return *s.cache.volatility, true
	}
	ticks := s.tickBuffer.LastN(s.cfg.LongWindow)
	if len(ticks) < 2 {
		return decimal.Zero, false
	}

	returns := make([]float64, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev := ticks[i-1].Price
		cur := ticks[i].Price
		if prev.IsZero() {
			continue
		}
		r, _ := cur.Sub(prev).Div(prev).Float64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return decimal.Zero, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(returns)-1)
	stddev := math.Sqrt(variance)

	v := decimal.NewFromFloat(stddev)
	s.cache.volatility = &v
	return v, true
}

// Momentum computes (last_price - VWAP_short) / VWAP_short, converting to
// float64 only at this final step for threshold comparison.
func (s *Strategy) Momentum() (float64, bool) {
	last, ok := s.tickBuffer.Last()
	if !ok {
		return 0, false
	}
	vwapShort := s.VWAPShort()
	if vwapShort.IsZero() {
		return 0, false
	}
	ratio := last.Price.Sub(vwapShort).Div(vwapShort)
	f, _ := ratio.Float64()
	return f, true
}
