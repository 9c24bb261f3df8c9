package strategy

import (
	"github.com/shopspring/decimal"

	"scalper/pkg/types"
)

// computeDynamicRisk scales the stop-loss percent with
// realized volatility (clamped to a configured band), and the take-profit
// percent is fixed at 1.5x the stop-loss. When volatility is not yet
// available (insufficient tick history), it falls back to the static
// configured stop-loss (floored at MinSLPercent) rather than deferring
// entry entirely, mirroring RiskConfig's documented fallback role.
func (s *Strategy) computeDynamicRisk() (types.DynamicRisk, bool) {
	minSL := decimal.NewFromFloat(s.riskCfg.MinSLPercent)
	maxSL := decimal.NewFromFloat(s.riskCfg.MaxSLPercent)

	sigma, ok := s.Volatility()
	if !ok {
		slPct := decimal.NewFromFloat(s.riskCfg.StopLossPercent)
		if slPct.LessThan(minSL) {
			slPct = minSL
		}
		tpPct := slPct.Mul(decimal.NewFromFloat(1.5))
		return types.DynamicRisk{StopLossPercent: slPct, TakeProfitPercent: tpPct}, true
	}

	sigmaPct := sigma.Mul(hundred)
	slPct := sigmaPct.Mul(decimal.NewFromFloat(s.riskCfg.KSL))

	if slPct.LessThan(minSL) {
		slPct = minSL
	}
	if slPct.GreaterThan(maxSL) {
		slPct = maxSL
	}

	tpPct := slPct.Mul(decimal.NewFromFloat(1.5))

	return types.DynamicRisk{StopLossPercent: slPct, TakeProfitPercent: tpPct}, true
}

// computeQty implements the dollar-risk-budget sizing rule: position size
// is chosen so that a move of sl_pct against entry loses exactly
// risk_budget_usd, capped by max_position_usd. Returns false if the
// stop-loss distance or price is zero (division-by-zero guard).
func (s *Strategy) computeQty(risk types.DynamicRisk, midPrice decimal.Decimal) (decimal.Decimal, bool) {
	if midPrice.IsZero() || risk.StopLossPercent.IsZero() {
		return decimal.Zero, false
	}

	slFraction := risk.StopLossPercent.Div(hundred)
	stopDistance := midPrice.Mul(slFraction)
	if stopDistance.IsZero() {
		return decimal.Zero, false
	}

	riskBudget := decimal.NewFromFloat(s.riskCfg.RiskBudgetUSD)
	qtyFromRisk := riskBudget.Div(stopDistance)

	maxNotional := decimal.NewFromFloat(s.riskCfg.MaxPositionUSD)
	qtyFromCap := maxNotional.Div(midPrice)

	qty := qtyFromRisk
	if qty.GreaterThan(qtyFromCap) {
		qty = qtyFromCap
	}

	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return qty, true
}
