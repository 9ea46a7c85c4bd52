package signal

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"stocksage/internal/market"
)

// MovingAverageCrossover signals on golden/death crosses of two simple
// moving averages of the close price.
type MovingAverageCrossover struct {
	id    string
	short int
	long  int
}

func NewMovingAverageCrossover(id string, short, long int) (*MovingAverageCrossover, error) {
	if short <= 0 || long <= 0 {
		return nil, fmt.Errorf("%w: ma_crossover windows must be positive (short=%d long=%d)", ErrInvalidParams, short, long)
	}
	if short >= long {
		return nil, fmt.Errorf("%w: ma_crossover short window %d must be below long window %d", ErrInvalidParams, short, long)
	}
	return &MovingAverageCrossover{id: id, short: short, long: long}, nil
}

func (g *MovingAverageCrossover) ID() string   { return g.id }
func (g *MovingAverageCrossover) Kind() string { return KindMovingAverageCrossover }

func (g *MovingAverageCrossover) MinLookback() int { return g.long }

func (g *MovingAverageCrossover) GenerateSignal(series market.Series) Signal {
	if series.Len() < g.MinLookback() {
		return insufficientData(g.id, fmt.Sprintf("insufficient data: need %d bars, have %d", g.MinLookback(), series.Len()))
	}
	closes := series.Closes()
	smaShort := talib.Sma(closes, g.short)
	smaLong := talib.Sma(closes, g.long)

	n := len(closes)
	curShort, curLong := smaShort[n-1], smaLong[n-1]
	prevShort, prevLong := curShort, curLong
	if n > g.long {
		prevShort, prevLong = smaShort[n-2], smaLong[n-2]
	}
	lastClose := closes[n-1]

	switch {
	case curShort > curLong && prevShort <= prevLong:
		strength := clamp01((curShort - curLong) / curLong * 10)
		target, stop := advisoryPrices(Buy, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Buy,
			Confidence:  0.7,
			Strength:    strength,
			Rationale:   fmt.Sprintf("golden cross: SMA%d moved above SMA%d", g.short, g.long),
			TargetPrice: target,
			StopLoss:    stop,
		}
	case curShort < curLong && prevShort >= prevLong:
		strength := clamp01((curLong - curShort) / curShort * 10)
		target, stop := advisoryPrices(Sell, lastClose)
		return Signal{
			GeneratorID: g.id,
			Decision:    Sell,
			Confidence:  0.7,
			Strength:    strength,
			Rationale:   fmt.Sprintf("death cross: SMA%d moved below SMA%d", g.short, g.long),
			TargetPrice: target,
			StopLoss:    stop,
		}
	default:
		distance := math.Abs(curShort-curLong) / curLong
		return Signal{
			GeneratorID: g.id,
			Decision:    Hold,
			Confidence:  clamp01(math.Max(0.3, 1.0-distance*2)),
			Strength:    0.3,
			Rationale:   fmt.Sprintf("no crossover: SMA%d/%d gap %.2f%%", g.short, g.long, distance*100),
		}
	}
}
