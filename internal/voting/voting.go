package voting

import (
	"fmt"
	"strings"

	"stocksage/internal/signal"
)

// Strategy selects how per-generator signals are merged into one decision.
type Strategy string

const (
	Majority           Strategy = "majority"
	Weighted           Strategy = "weighted"
	ConfidenceWeighted Strategy = "confidence_weighted"
)

// ParseStrategy maps a config string to a Strategy, defaulting to weighted.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Majority:
		return Majority, nil
	case Weighted, "":
		return Weighted, nil
	case ConfidenceWeighted:
		return ConfidenceWeighted, nil
	default:
		return "", fmt.Errorf("unknown voting strategy %q", s)
	}
}

// Config governs one aggregation pass. Threshold is the acceptance bar for
// the winning score (boundary inclusive); MinConfidence filters individual
// signals before counting and floors the aggregate confidence afterwards.
type Config struct {
	Strategy      Strategy `json:"strategy"`
	Threshold     float64  `json:"threshold"`
	MinConfidence float64  `json:"min_confidence"`
}

// DefaultConfig mirrors the historical engine defaults.
func DefaultConfig() Config {
	return Config{Strategy: Weighted, Threshold: 0.6, MinConfidence: 0.6}
}

// Weights maps generator id to its voting weight under the weighted
// strategy. Absent ids weigh 1.0.
type Weights map[string]float64

func (w Weights) For(id string) float64 {
	if w == nil {
		return 1.0
	}
	v, ok := w[id]
	if !ok {
		return 1.0
	}
	return v
}

// RiskLevel is the engine-local coarse risk bucket derived from confidence
// and vote agreement. The risk controller refines it downstream.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Aggregated is the merged verdict of one aggregation pass. It is derived
// state, recomputed fresh on every call.
type Aggregated struct {
	Decision    signal.Decision         `json:"decision"`
	Confidence  float64                 `json:"confidence"`
	VoteSummary map[signal.Decision]int `json:"vote_summary"`
	Signals     []signal.Signal         `json:"contributing_signals"`
	RiskLevel   RiskLevel               `json:"risk_level"`
	Reasoning   string                  `json:"reasoning"`
}
