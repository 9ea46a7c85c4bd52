package risk

import (
	"sync"

	"stocksage/internal/signal"
	"stocksage/internal/voting"
)

// Limits are the controller's tunables, expressed as fractions of capital.
type Limits struct {
	MaxDailyLoss    float64 `json:"max_daily_loss"`
	MaxPositionSize float64 `json:"max_position_size"`
}

// DefaultLimits mirrors the historical controller defaults.
func DefaultLimits() Limits {
	return Limits{MaxDailyLoss: 0.05, MaxPositionSize: 0.10}
}

// Assessment is the risk-adjusted view of an aggregated decision.
type Assessment struct {
	Approved           bool             `json:"approved"`
	RiskLevel          voting.RiskLevel `json:"risk_level"`
	Warnings           []string         `json:"warnings"`
	AdjustedDecision   signal.Decision  `json:"adjusted_decision"`
	PositionSuggestion float64          `json:"position_suggestion"`
}

// Controller applies position and loss limits to aggregated decisions. The
// daily PnL accumulator is its only mutable state; callers reset it once
// per trading session.
type Controller struct {
	mu       sync.Mutex
	limits   Limits
	dailyPnL float64
}

func NewController(limits Limits) *Controller {
	if limits.MaxDailyLoss <= 0 {
		limits.MaxDailyLoss = DefaultLimits().MaxDailyLoss
	}
	if limits.MaxPositionSize <= 0 {
		limits.MaxPositionSize = DefaultLimits().MaxPositionSize
	}
	return &Controller{limits: limits}
}

func (c *Controller) Limits() Limits {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits
}

func (c *Controller) SetLimits(limits Limits) {
	c.mu.Lock()
	if limits.MaxDailyLoss > 0 {
		c.limits.MaxDailyLoss = limits.MaxDailyLoss
	}
	if limits.MaxPositionSize > 0 {
		c.limits.MaxPositionSize = limits.MaxPositionSize
	}
	c.mu.Unlock()
}

// UpdateDailyPnL adds a realized profit or loss to the running daily total.
func (c *Controller) UpdateDailyPnL(delta float64) {
	c.mu.Lock()
	c.dailyPnL += delta
	c.mu.Unlock()
}

// ResetDailyPnL zeroes the accumulator at the start of a trading session.
func (c *Controller) ResetDailyPnL() {
	c.mu.Lock()
	c.dailyPnL = 0
	c.mu.Unlock()
}

func (c *Controller) DailyPnL() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dailyPnL
}

// Assess applies the risk rules in order: position limit, daily loss limit,
// then the risk-level position scaling. currentPosition is the fraction of
// capital already allocated to the symbol; nil means unknown.
func (c *Controller) Assess(decision voting.Aggregated, symbol string, currentPosition *float64) Assessment {
	c.mu.Lock()
	limits, pnl := c.limits, c.dailyPnL
	c.mu.Unlock()

	out := Assessment{
		Approved:           true,
		RiskLevel:          decision.RiskLevel,
		Warnings:           []string{},
		AdjustedDecision:   decision.Decision,
		PositionSuggestion: 1.0,
	}

	if currentPosition != nil && *currentPosition > limits.MaxPositionSize {
		out.Warnings = append(out.Warnings, "position limit exceeded")
		if decision.Decision == signal.Buy {
			out.Approved = false
			out.AdjustedDecision = signal.Hold
		}
	}

	// The accumulator gates new exposure once the session is down past the
	// loss limit; sells and holds still pass.
	if pnl <= -limits.MaxDailyLoss {
		out.Warnings = append(out.Warnings, "daily loss limit reached")
		if decision.Decision == signal.Buy {
			out.Approved = false
			out.AdjustedDecision = signal.Hold
		}
	}

	switch decision.RiskLevel {
	case voting.RiskHigh:
		out.PositionSuggestion = 0.3
		out.Warnings = append(out.Warnings, "high risk, reduce position")
	case voting.RiskMedium:
		out.PositionSuggestion = 0.6
	default:
		out.PositionSuggestion = 1.0
	}

	return out
}
