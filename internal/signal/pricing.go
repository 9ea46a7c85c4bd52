package signal

import "github.com/shopspring/decimal"

// Advisory price offsets, relative to the trigger price.
const (
	targetOffsetPct = 0.05
	stopOffsetPct   = 0.03
)

// offsetPrice shifts price by pct (0.05 = +5%) in decimal space and rounds
// to 4 places so persisted advisory prices are stable.
func offsetPrice(price, pct float64) float64 {
	if price <= 0 {
		return 0
	}
	d := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(1 + pct)).Round(4)
	f, _ := d.Float64()
	return f
}

// advisoryPrices returns (target, stop) for a directional decision, zero
// values for HOLD.
func advisoryPrices(dec Decision, trigger float64) (target, stop float64) {
	switch dec {
	case Buy:
		return offsetPrice(trigger, targetOffsetPct), offsetPrice(trigger, -stopOffsetPct)
	case Sell:
		return offsetPrice(trigger, -targetOffsetPct), offsetPrice(trigger, stopOffsetPct)
	default:
		return 0, 0
	}
}
