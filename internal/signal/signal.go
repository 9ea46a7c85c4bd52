package signal

import "stocksage/internal/market"

// Decision is one model's verdict for a symbol.
type Decision string

const (
	Buy  Decision = "BUY"
	Sell Decision = "SELL"
	Hold Decision = "HOLD"
)

// Decisions enumerates all decision types in priority order. Vote
// tie-breaking walks this slice, so BUY beats SELL beats HOLD on exactly
// equal scores.
var Decisions = []Decision{Buy, Sell, Hold}

// Signal is one generator's independent opinion at a point in time.
// Confidence and Strength are always clamped into [0,1]; Strength is a
// magnitude and carries no direction. TargetPrice/StopLoss are advisory
// and ignored by the voting engine; zero means unset.
type Signal struct {
	GeneratorID string   `json:"generator_id"`
	Decision    Decision `json:"decision"`
	Confidence  float64  `json:"confidence"`
	Strength    float64  `json:"signal_strength"`
	Rationale   string   `json:"rationale"`
	TargetPrice float64  `json:"target_price,omitempty"`
	StopLoss    float64  `json:"stop_loss_price,omitempty"`
}

// Generator turns a price series into a Signal. Implementations are pure
// and deterministic for a given series and configuration, and never fail:
// unusable input degrades to a low-confidence HOLD.
type Generator interface {
	ID() string
	Kind() string
	// MinLookback is the fewest bars the generator can work with. Shorter
	// series yield the insufficient-data HOLD.
	MinLookback() int
	GenerateSignal(series market.Series) Signal
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

// insufficientData is the uniform fail-closed signal every generator
// returns when the series is shorter than its minimum lookback.
func insufficientData(id, rationale string) Signal {
	return Signal{
		GeneratorID: id,
		Decision:    Hold,
		Confidence:  0.3,
		Strength:    0.2,
		Rationale:   rationale,
	}
}
