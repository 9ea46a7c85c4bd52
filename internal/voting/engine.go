package voting

import (
	"fmt"
	"sync"

	"stocksage/internal/signal"
)

// Engine holds the current voting configuration and weights. Admin
// operations and the config watcher may swap them between aggregations;
// a running aggregation always sees one consistent snapshot.
type Engine struct {
	mu      sync.RWMutex
	cfg     Config
	weights Weights
}

func NewEngine(cfg Config, weights Weights) *Engine {
	if weights == nil {
		weights = Weights{}
	}
	return &Engine{cfg: cfg, weights: weights}
}

func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
}

func (e *Engine) Weights() Weights {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(Weights, len(e.weights))
	for k, v := range e.weights {
		out[k] = v
	}
	return out
}

func (e *Engine) SetWeights(w Weights) {
	if w == nil {
		w = Weights{}
	}
	e.mu.Lock()
	e.weights = w
	e.mu.Unlock()
}

// SetWeight updates one generator's weight without disturbing the rest.
// Copy-on-write: an aggregation holding the previous snapshot keeps
// reading an unchanging map.
func (e *Engine) SetWeight(id string, w float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := make(Weights, len(e.weights)+1)
	for k, v := range e.weights {
		next[k] = v
	}
	next[id] = w
	e.weights = next
}

// DeleteWeight drops one generator's weight, reverting it to the default.
func (e *Engine) DeleteWeight(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := make(Weights, len(e.weights))
	for k, v := range e.weights {
		if k != id {
			next[k] = v
		}
	}
	e.weights = next
}

// Aggregate merges signals under the engine's current config and weights.
func (e *Engine) Aggregate(signals []signal.Signal) Aggregated {
	e.mu.RLock()
	cfg, weights := e.cfg, e.weights
	e.mu.RUnlock()
	return Aggregate(signals, cfg, weights)
}

// Aggregate merges the given signals into one decision. Pure: the result
// depends only on the arguments.
func Aggregate(signals []signal.Signal, cfg Config, weights Weights) Aggregated {
	filtered := make([]signal.Signal, 0, len(signals))
	for _, s := range signals {
		if s.Confidence >= cfg.MinConfidence {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return holdFallback("no valid signals")
	}

	summary := countVotes(filtered)

	var winner signal.Decision
	var score float64
	switch cfg.Strategy {
	case Majority:
		winner, score = majorityScore(summary, len(filtered))
	case ConfidenceWeighted:
		winner, score = confidenceScore(filtered)
	default:
		winner, score = weightedScore(filtered, weights)
	}

	if score < cfg.Threshold {
		return holdFallback(fmt.Sprintf("%s vote below threshold: %.1f%% < %.1f%%", cfg.Strategy, score*100, cfg.Threshold*100))
	}

	confidence := agreementConfidence(filtered, winner, cfg.Strategy, weights)
	if confidence < cfg.MinConfidence {
		return holdFallback(fmt.Sprintf("confidence below minimum after aggregation: %.2f < %.2f", confidence, cfg.MinConfidence))
	}

	return Aggregated{
		Decision:    winner,
		Confidence:  confidence,
		VoteSummary: summary,
		Signals:     filtered,
		RiskLevel:   riskLevelFor(confidence, score),
		Reasoning:   fmt.Sprintf("%s vote passed: %.1f%% for %s", cfg.Strategy, score*100, winner),
	}
}

func countVotes(signals []signal.Signal) map[signal.Decision]int {
	summary := emptySummary()
	for _, s := range signals {
		summary[s.Decision]++
	}
	return summary
}

// majorityScore returns the raw-count winner and its vote ratio.
func majorityScore(summary map[signal.Decision]int, total int) (signal.Decision, float64) {
	winner, best := pickWinnerInt(summary)
	return winner, float64(best) / float64(total)
}

// weightedScore sums weight x confidence per decision and normalizes by the
// total weight of the filtered signals.
func weightedScore(signals []signal.Signal, weights Weights) (signal.Decision, float64) {
	scores := map[signal.Decision]float64{}
	totalWeight := 0.0
	for _, s := range signals {
		w := weights.For(s.GeneratorID)
		scores[s.Decision] += w * s.Confidence
		totalWeight += w
	}
	winner, best := pickWinnerFloat(scores)
	if totalWeight <= 0 {
		return winner, 0
	}
	return winner, best / totalWeight
}

// confidenceScore sums plain confidences per decision and normalizes by the
// total confidence.
func confidenceScore(signals []signal.Signal) (signal.Decision, float64) {
	scores := map[signal.Decision]float64{}
	total := 0.0
	for _, s := range signals {
		scores[s.Decision] += s.Confidence
		total += s.Confidence
	}
	winner, best := pickWinnerFloat(scores)
	if total <= 0 {
		return winner, 0
	}
	return winner, best / total
}

// agreementConfidence averages the confidence of the signals agreeing with
// the winner; the weighted strategy averages by model weight.
func agreementConfidence(signals []signal.Signal, winner signal.Decision, strategy Strategy, weights Weights) float64 {
	sum, norm := 0.0, 0.0
	for _, s := range signals {
		if s.Decision != winner {
			continue
		}
		w := 1.0
		if strategy == Weighted {
			w = weights.For(s.GeneratorID)
		}
		sum += s.Confidence * w
		norm += w
	}
	if norm <= 0 {
		return 0
	}
	return sum / norm
}

// pickWinnerInt walks decisions in fixed priority order (BUY > SELL > HOLD)
// with a strict comparison, making ties deterministic.
func pickWinnerInt(scores map[signal.Decision]int) (signal.Decision, int) {
	winner, best := signal.Hold, -1
	for _, d := range signal.Decisions {
		if scores[d] > best {
			winner, best = d, scores[d]
		}
	}
	return winner, best
}

func pickWinnerFloat(scores map[signal.Decision]float64) (signal.Decision, float64) {
	winner, best := signal.Hold, -1.0
	for _, d := range signal.Decisions {
		if scores[d] > best {
			winner, best = d, scores[d]
		}
	}
	return winner, best
}

func riskLevelFor(confidence, score float64) RiskLevel {
	switch {
	case confidence >= 0.8 && score >= 0.8:
		return RiskLow
	case confidence >= 0.6 && score >= 0.6:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func emptySummary() map[signal.Decision]int {
	return map[signal.Decision]int{signal.Buy: 0, signal.Sell: 0, signal.Hold: 0}
}

func holdFallback(reason string) Aggregated {
	return Aggregated{
		Decision:    signal.Hold,
		Confidence:  0.5,
		VoteSummary: emptySummary(),
		RiskLevel:   RiskMedium,
		Reasoning:   reason,
	}
}
