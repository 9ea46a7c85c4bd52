package signal

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"stocksage/internal/market"
)

// BollingerBands signals mean reversion when the close touches or pierces
// a band.
type BollingerBands struct {
	id     string
	period int
	stdDev float64
}

func NewBollingerBands(id string, period int, stdDev float64) (*BollingerBands, error) {
	if period < 2 {
		return nil, fmt.Errorf("%w: bollinger period must be at least 2 (got %d)", ErrInvalidParams, period)
	}
	if stdDev <= 0 {
		return nil, fmt.Errorf("%w: bollinger std dev must be positive (got %.2f)", ErrInvalidParams, stdDev)
	}
	return &BollingerBands{id: id, period: period, stdDev: stdDev}, nil
}

func (g *BollingerBands) ID() string   { return g.id }
func (g *BollingerBands) Kind() string { return KindBollingerBands }

func (g *BollingerBands) MinLookback() int { return g.period }

func (g *BollingerBands) GenerateSignal(series market.Series) Signal {
	if series.Len() < g.MinLookback() {
		return insufficientData(g.id, fmt.Sprintf("insufficient data: need %d bars, have %d", g.MinLookback(), series.Len()))
	}
	closes := series.Closes()
	upper, _, lower := talib.BBands(closes, g.period, g.stdDev, g.stdDev, talib.SMA)

	n := len(closes)
	up, lo := upper[n-1], lower[n-1]
	last := closes[n-1]
	width := up - lo

	switch {
	case last <= lo:
		depth := 0.0
		if lo > 0 {
			depth = (lo - last) / lo
		}
		target, stop := advisoryPrices(Buy, last)
		return Signal{
			GeneratorID: g.id,
			Decision:    Buy,
			Confidence:  0.75,
			Strength:    clamp01(0.2 + depth*10),
			Rationale:   fmt.Sprintf("close %.2f at or below lower band %.2f", last, lo),
			TargetPrice: target,
			StopLoss:    stop,
		}
	case last >= up:
		depth := 0.0
		if up > 0 {
			depth = (last - up) / up
		}
		target, stop := advisoryPrices(Sell, last)
		return Signal{
			GeneratorID: g.id,
			Decision:    Sell,
			Confidence:  0.75,
			Strength:    clamp01(0.2 + depth*10),
			Rationale:   fmt.Sprintf("close %.2f at or above upper band %.2f", last, up),
			TargetPrice: target,
			StopLoss:    stop,
		}
	default:
		// Hold confidence grows as the close approaches either band, since a
		// trigger is then nearer; at mid-band it bottoms out at 0.4.
		confidence := 0.4
		if width > 0 {
			toBand := math.Min(last-lo, up-last) / width
			confidence = math.Max(0.4, 1.0-2*toBand)
		}
		return Signal{
			GeneratorID: g.id,
			Decision:    Hold,
			Confidence:  clamp01(confidence),
			Strength:    0.3,
			Rationale:   fmt.Sprintf("close %.2f inside bands [%.2f, %.2f]", last, lo, up),
		}
	}
}
