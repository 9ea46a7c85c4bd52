package signal

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"stocksage/internal/market"
)

// RSI signals on oversold/overbought readings of the Wilder relative
// strength index.
type RSI struct {
	id         string
	period     int
	overbought float64
	oversold   float64
}

func NewRSI(id string, period int, overbought, oversold float64) (*RSI, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: rsi period must be positive (got %d)", ErrInvalidParams, period)
	}
	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, fmt.Errorf("%w: rsi thresholds must satisfy 0 < oversold < overbought < 100 (got %.1f/%.1f)", ErrInvalidParams, oversold, overbought)
	}
	return &RSI{id: id, period: period, overbought: overbought, oversold: oversold}, nil
}

func (g *RSI) ID() string   { return g.id }
func (g *RSI) Kind() string { return KindRSI }

func (g *RSI) MinLookback() int { return g.period + 1 }

func (g *RSI) GenerateSignal(series market.Series) Signal {
	if series.Len() < g.MinLookback() {
		return insufficientData(g.id, fmt.Sprintf("insufficient data: need %d bars, have %d", g.MinLookback(), series.Len()))
	}
	closes := series.Closes()
	rsi := talib.Rsi(closes, g.period)
	cur := rsi[len(rsi)-1]
	if math.IsNaN(cur) || math.IsInf(cur, 0) {
		return insufficientData(g.id, "rsi value unavailable")
	}
	lastClose := closes[len(closes)-1]

	switch {
	case cur < g.oversold:
		strength := clamp01((g.oversold - cur) / g.oversold * 2)
		target, stop := advisoryPrices(Buy, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Buy,
			Confidence:  0.8,
			Strength:    strength,
			Rationale:   fmt.Sprintf("rsi oversold: %.1f below %.1f", cur, g.oversold),
			TargetPrice: target,
			StopLoss:    stop,
		}
	case cur > g.overbought:
		strength := clamp01((cur - g.overbought) / (100 - g.overbought) * 2)
		target, stop := advisoryPrices(Sell, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Sell,
			Confidence:  0.8,
			Strength:    strength,
			Rationale:   fmt.Sprintf("rsi overbought: %.1f above %.1f", cur, g.overbought),
			TargetPrice: target,
			StopLoss:    stop,
		}
	default:
		distOversold := math.Abs(cur-g.oversold) / g.oversold
		distOverbought := math.Abs(cur-g.overbought) / (100 - g.overbought)
		confidence := math.Max(0.4, 1.0-math.Min(distOversold, distOverbought))
		return Signal{
			GeneratorID: g.id,
			Decision:    Hold,
			Confidence:  clamp01(confidence),
			Strength:    0.4,
			Rationale:   fmt.Sprintf("rsi neutral: %.1f", cur),
		}
	}
}
