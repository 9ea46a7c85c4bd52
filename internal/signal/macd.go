package signal

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"stocksage/internal/market"
)

// MACD signals on crossovers between the MACD line and its signal line.
type MACD struct {
	id           string
	fast         int
	slow         int
	signalPeriod int
}

func NewMACD(id string, fast, slow, signalPeriod int) (*MACD, error) {
	if fast <= 0 || signalPeriod <= 0 {
		return nil, fmt.Errorf("%w: macd periods must be positive (fast=%d signal=%d)", ErrInvalidParams, fast, signalPeriod)
	}
	if slow <= fast {
		return nil, fmt.Errorf("%w: macd slow period %d must exceed fast period %d", ErrInvalidParams, slow, fast)
	}
	return &MACD{id: id, fast: fast, slow: slow, signalPeriod: signalPeriod}, nil
}

func (g *MACD) ID() string   { return g.id }
func (g *MACD) Kind() string { return KindMACD }

func (g *MACD) MinLookback() int { return g.slow + g.signalPeriod }

func (g *MACD) GenerateSignal(series market.Series) Signal {
	if series.Len() < g.MinLookback() {
		return insufficientData(g.id, fmt.Sprintf("insufficient data: need %d bars, have %d", g.MinLookback(), series.Len()))
	}
	closes := series.Closes()
	macd, sig, hist := talib.Macd(closes, g.fast, g.slow, g.signalPeriod)

	n := len(closes)
	curMACD, curSig, curHist := macd[n-1], sig[n-1], hist[n-1]
	prevMACD, prevSig := macd[n-2], sig[n-2]
	lastClose := closes[n-1]

	switch {
	case curMACD > curSig && prevMACD <= prevSig:
		target, stop := advisoryPrices(Buy, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Buy,
			Confidence:  0.7,
			Strength:    clamp01(math.Abs(curHist) * 10),
			Rationale:   fmt.Sprintf("macd bullish crossover (macd=%.3f signal=%.3f)", curMACD, curSig),
			TargetPrice: target,
			StopLoss:    stop,
		}
	case curMACD < curSig && prevMACD >= prevSig:
		target, stop := advisoryPrices(Sell, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Sell,
			Confidence:  0.7,
			Strength:    clamp01(math.Abs(curHist) * 10),
			Rationale:   fmt.Sprintf("macd bearish crossover (macd=%.3f signal=%.3f)", curMACD, curSig),
			TargetPrice: target,
			StopLoss:    stop,
		}
	default:
		distance := math.Abs(curMACD - curSig)
		return Signal{
			GeneratorID: g.id,
			Decision:    Hold,
			Confidence:  clamp01(math.Max(0.4, 1.0-distance*10)),
			Strength:    0.3,
			Rationale:   fmt.Sprintf("macd no crossover (macd=%.3f signal=%.3f)", curMACD, curSig),
		}
	}
}
