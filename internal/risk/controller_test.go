package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksage/internal/signal"
	"stocksage/internal/voting"
)

func aggregated(d signal.Decision, level voting.RiskLevel) voting.Aggregated {
	return voting.Aggregated{Decision: d, Confidence: 0.8, RiskLevel: level}
}

func ptr(v float64) *float64 { return &v }

func TestAssess_Defaults(t *testing.T) {
	c := NewController(DefaultLimits())
	out := c.Assess(aggregated(signal.Buy, voting.RiskLow), "AAPL", nil)

	assert.True(t, out.Approved)
	assert.Equal(t, signal.Buy, out.AdjustedDecision)
	assert.Equal(t, voting.RiskLow, out.RiskLevel)
	assert.Equal(t, 1.0, out.PositionSuggestion)
	assert.Empty(t, out.Warnings)
}

func TestAssess_PositionLimitVetoesBuy(t *testing.T) {
	c := NewController(Limits{MaxPositionSize: 0.1, MaxDailyLoss: 0.05})
	out := c.Assess(aggregated(signal.Buy, voting.RiskLow), "AAPL", ptr(0.15))

	assert.False(t, out.Approved)
	assert.Equal(t, signal.Hold, out.AdjustedDecision)
	assert.Contains(t, out.Warnings, "position limit exceeded")
}

func TestAssess_PositionLimitWarnsButAllowsSell(t *testing.T) {
	c := NewController(Limits{MaxPositionSize: 0.1, MaxDailyLoss: 0.05})
	out := c.Assess(aggregated(signal.Sell, voting.RiskLow), "AAPL", ptr(0.15))

	assert.True(t, out.Approved)
	assert.Equal(t, signal.Sell, out.AdjustedDecision)
	assert.Contains(t, out.Warnings, "position limit exceeded")
}

func TestAssess_PositionSuggestionScalesWithRisk(t *testing.T) {
	c := NewController(DefaultLimits())

	high := c.Assess(aggregated(signal.Buy, voting.RiskHigh), "AAPL", nil)
	assert.Equal(t, 0.3, high.PositionSuggestion)
	assert.Contains(t, high.Warnings, "high risk, reduce position")

	medium := c.Assess(aggregated(signal.Buy, voting.RiskMedium), "AAPL", nil)
	assert.Equal(t, 0.6, medium.PositionSuggestion)

	low := c.Assess(aggregated(signal.Buy, voting.RiskLow), "AAPL", nil)
	assert.Equal(t, 1.0, low.PositionSuggestion)
}

func TestAssess_DailyLossLimitBlocksNewBuys(t *testing.T) {
	c := NewController(Limits{MaxDailyLoss: 0.05, MaxPositionSize: 0.1})
	c.UpdateDailyPnL(-0.03)
	c.UpdateDailyPnL(-0.03)
	require.InDelta(t, -0.06, c.DailyPnL(), 1e-9)

	out := c.Assess(aggregated(signal.Buy, voting.RiskLow), "AAPL", nil)
	assert.False(t, out.Approved)
	assert.Equal(t, signal.Hold, out.AdjustedDecision)
	assert.Contains(t, out.Warnings, "daily loss limit reached")

	// Sells still pass while the limit is breached.
	out = c.Assess(aggregated(signal.Sell, voting.RiskLow), "AAPL", nil)
	assert.True(t, out.Approved)

	c.ResetDailyPnL()
	out = c.Assess(aggregated(signal.Buy, voting.RiskLow), "AAPL", nil)
	assert.True(t, out.Approved)
}

func TestSetLimits_IgnoresNonPositiveValues(t *testing.T) {
	c := NewController(DefaultLimits())
	c.SetLimits(Limits{MaxDailyLoss: 0.2})

	got := c.Limits()
	assert.Equal(t, 0.2, got.MaxDailyLoss)
	assert.Equal(t, DefaultLimits().MaxPositionSize, got.MaxPositionSize)
}
