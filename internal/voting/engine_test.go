package voting

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksage/internal/signal"
)

func sig(id string, d signal.Decision, conf float64) signal.Signal {
	return signal.Signal{GeneratorID: id, Decision: d, Confidence: conf, Strength: 0.5}
}

func repeat(d signal.Decision, conf float64, n int) []signal.Signal {
	out := make([]signal.Signal, n)
	for i := range out {
		out[i] = sig(string(d)+"-"+string(rune('a'+i)), d, conf)
	}
	return out
}

func TestAggregate_MajorityThresholdBoundaryInclusive(t *testing.T) {
	// 6 BUY vs 4 SELL: vote ratio is exactly 0.6 and must pass a 0.6
	// threshold.
	signals := append(repeat(signal.Buy, 0.7, 6), repeat(signal.Sell, 0.7, 4)...)
	cfg := Config{Strategy: Majority, Threshold: 0.6, MinConfidence: 0.6}

	out := Aggregate(signals, cfg, nil)

	assert.Equal(t, signal.Buy, out.Decision)
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)
	assert.Equal(t, 6, out.VoteSummary[signal.Buy])
	assert.Equal(t, 4, out.VoteSummary[signal.Sell])
	assert.Len(t, out.Signals, 10)
}

func TestAggregate_NoSignals(t *testing.T) {
	out := Aggregate(nil, DefaultConfig(), nil)
	assert.Equal(t, signal.Hold, out.Decision)
	assert.Equal(t, 0.5, out.Confidence)
	assert.Contains(t, out.Reasoning, "no valid signals")
	assert.Equal(t, RiskMedium, out.RiskLevel)
}

func TestAggregate_AllBelowMinConfidence(t *testing.T) {
	signals := repeat(signal.Buy, 0.4, 5)
	out := Aggregate(signals, Config{Strategy: Majority, Threshold: 0.5, MinConfidence: 0.6}, nil)
	assert.Equal(t, signal.Hold, out.Decision)
	assert.Contains(t, out.Reasoning, "no valid signals")
}

func TestAggregate_MajorityBelowThreshold(t *testing.T) {
	signals := append(repeat(signal.Buy, 0.8, 5), repeat(signal.Sell, 0.8, 4)...)
	signals = append(signals, sig("h", signal.Hold, 0.8))
	out := Aggregate(signals, Config{Strategy: Majority, Threshold: 0.6, MinConfidence: 0.6}, nil)

	assert.Equal(t, signal.Hold, out.Decision)
	assert.Contains(t, out.Reasoning, "below threshold")
	assert.Equal(t, 0.5, out.Confidence)
}

func TestAggregate_TieBreakPrefersBuy(t *testing.T) {
	signals := append(repeat(signal.Buy, 0.8, 3), repeat(signal.Sell, 0.8, 3)...)
	out := Aggregate(signals, Config{Strategy: Majority, Threshold: 0.5, MinConfidence: 0.6}, nil)
	assert.Equal(t, signal.Buy, out.Decision)
}

func TestAggregate_WeightedStrategy(t *testing.T) {
	signals := []signal.Signal{
		sig("heavy", signal.Buy, 0.9),
		sig("light1", signal.Sell, 0.7),
		sig("light2", signal.Sell, 0.7),
	}
	weights := Weights{"heavy": 3.0}

	// buy score 2.7 vs sell score 1.4, total weight 5 -> 0.54 normalized.
	out := Aggregate(signals, Config{Strategy: Weighted, Threshold: 0.5, MinConfidence: 0.6}, weights)
	require.Equal(t, signal.Buy, out.Decision)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)

	out = Aggregate(signals, Config{Strategy: Weighted, Threshold: 0.6, MinConfidence: 0.6}, weights)
	assert.Equal(t, signal.Hold, out.Decision)
	assert.Contains(t, out.Reasoning, "below threshold")
}

func TestAggregate_WeightedDefaultsToUnitWeight(t *testing.T) {
	signals := append(repeat(signal.Buy, 0.9, 3), sig("s", signal.Sell, 0.9))
	// No explicit weights: every generator weighs 1.0, buy score 2.7 of 4.
	out := Aggregate(signals, Config{Strategy: Weighted, Threshold: 0.6, MinConfidence: 0.6}, nil)
	assert.Equal(t, signal.Buy, out.Decision)
}

func TestAggregate_ConfidenceWeightedStrategy(t *testing.T) {
	signals := []signal.Signal{
		sig("a", signal.Buy, 0.9),
		sig("b", signal.Buy, 0.9),
		sig("c", signal.Sell, 0.7),
	}
	// buy 1.8 of total 2.5 -> 0.72 normalized.
	out := Aggregate(signals, Config{Strategy: ConfidenceWeighted, Threshold: 0.6, MinConfidence: 0.6}, nil)
	require.Equal(t, signal.Buy, out.Decision)
	assert.InDelta(t, 0.9, out.Confidence, 1e-9)
}

func TestAggregate_RiskLevelHeuristic(t *testing.T) {
	unanimous := repeat(signal.Buy, 0.9, 10)
	out := Aggregate(unanimous, Config{Strategy: Majority, Threshold: 0.6, MinConfidence: 0.6}, nil)
	assert.Equal(t, RiskLow, out.RiskLevel)

	split := append(repeat(signal.Buy, 0.65, 7), repeat(signal.Sell, 0.65, 3)...)
	out = Aggregate(split, Config{Strategy: Majority, Threshold: 0.6, MinConfidence: 0.6}, nil)
	assert.Equal(t, RiskMedium, out.RiskLevel)
}

func TestEngine_SwapsConfigAtomically(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	signals := repeat(signal.Buy, 0.9, 4)

	out := e.Aggregate(signals)
	assert.Equal(t, signal.Buy, out.Decision)

	cfg := e.Config()
	cfg.MinConfidence = 0.95
	e.SetConfig(cfg)
	out = e.Aggregate(signals)
	assert.Equal(t, signal.Hold, out.Decision)
	assert.Contains(t, out.Reasoning, "no valid signals")
}

func TestEngine_PerKeyWeightUpdatesDoNotLoseEachOther(t *testing.T) {
	e := NewEngine(DefaultConfig(), Weights{"keep": 2.0})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("gen-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.SetWeight(id, 1.5)
		}()
	}
	wg.Wait()

	got := e.Weights()
	assert.Len(t, got, 21)
	assert.Equal(t, 2.0, got["keep"])
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1.5, got[fmt.Sprintf("gen-%d", i)])
	}

	e.DeleteWeight("keep")
	got = e.Weights()
	assert.NotContains(t, got, "keep")
	assert.Len(t, got, 20)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("MAJORITY")
	require.NoError(t, err)
	assert.Equal(t, Majority, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Weighted, s)

	_, err = ParseStrategy("quantum")
	assert.Error(t, err)
}
