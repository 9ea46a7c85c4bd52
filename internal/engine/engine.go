package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stocksage/internal/logger"
	"stocksage/internal/market"
	"stocksage/internal/risk"
	"stocksage/internal/signal"
	"stocksage/internal/voting"
)

// ErrNoActiveGenerators reports that the registry holds nothing to run.
var ErrNoActiveGenerators = errors.New("no active generators")

// Sink receives finished decisions for storage. Persistence failures are
// logged, never fatal to the decision itself.
type Sink interface {
	SaveDecision(ctx context.Context, res *Result) error
}

// Request asks for one symbol's decision as of a trading day.
// CurrentPosition is the fraction of capital already held; nil if unknown.
type Request struct {
	Symbol          string
	AsOf            time.Time
	CurrentPosition *float64
}

// Counts reports the generator fan-out outcome.
type Counts struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Result is the full outcome for one symbol.
type Result struct {
	ID       string            `json:"id"`
	Symbol   string            `json:"symbol"`
	AsOf     time.Time         `json:"as_of"`
	Decision voting.Aggregated `json:"decision"`
	Risk     risk.Assessment   `json:"risk_assessment"`
	Counts   Counts            `json:"model_results"`
}

// SymbolOutcome is one batch entry: either a result or a structured error.
type SymbolOutcome struct {
	Symbol string  `json:"symbol"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// BatchResult collects per-symbol outcomes of one batch run.
type BatchResult struct {
	RunID        string          `json:"run_id"`
	AsOf         time.Time       `json:"as_of"`
	Results      []SymbolOutcome `json:"results"`
	SuccessCount int             `json:"success_count"`
	TotalCount   int             `json:"total_count"`
}

// Config tunes the orchestrator.
type Config struct {
	// LookbackDays bounds the price history fetched per decision.
	LookbackDays int
	// BatchParallelism caps concurrent symbols in batch mode. The limit
	// protects the upstream bar source, not the computation.
	BatchParallelism int
}

// Engine sequences series fetch, generator fan-out, vote aggregation and
// risk assessment. It is built once at startup and shared by the HTTP
// layer and the scheduler.
type Engine struct {
	source   market.Source
	registry *signal.Registry
	voter    *voting.Engine
	riskCtl  *risk.Controller
	sink     Sink
	cfg      Config
}

func New(source market.Source, registry *signal.Registry, voter *voting.Engine, riskCtl *risk.Controller, sink Sink, cfg Config) *Engine {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 120
	}
	if cfg.BatchParallelism <= 0 {
		cfg.BatchParallelism = 4
	}
	return &Engine{source: source, registry: registry, voter: voter, riskCtl: riskCtl, sink: sink, cfg: cfg}
}

// RunForSymbol computes one decision. Only upstream data failures surface
// as errors; generator failures degrade to fewer votes.
func (e *Engine) RunForSymbol(ctx context.Context, req Request) (*Result, error) {
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	gens := e.registry.Active()
	if len(gens) == 0 {
		return nil, ErrNoActiveGenerators
	}

	start := asOf.AddDate(0, 0, -e.cfg.LookbackDays)
	series, err := e.source.GetSeries(ctx, req.Symbol, start, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching price series for %s: %w", req.Symbol, err)
	}

	signals, failed := fanOut(gens, series)
	aggregated := e.voter.Aggregate(signals)
	assessment := e.riskCtl.Assess(aggregated, req.Symbol, req.CurrentPosition)

	res := &Result{
		ID:       uuid.NewString(),
		Symbol:   req.Symbol,
		AsOf:     asOf,
		Decision: aggregated,
		Risk:     assessment,
		Counts:   Counts{Total: len(gens), Successful: len(signals), Failed: failed},
	}
	if e.sink != nil {
		if err := e.sink.SaveDecision(ctx, res); err != nil {
			logger.Warnf("persisting decision %s for %s failed: %v", res.ID, req.Symbol, err)
		}
	}
	return res, nil
}

// fanOut runs every generator concurrently over the shared immutable
// series and joins before returning. A panicking generator is logged and
// excluded; it never cancels its siblings.
func fanOut(gens []signal.Generator, series market.Series) ([]signal.Signal, int) {
	results := make([]*signal.Signal, len(gens))
	var wg sync.WaitGroup
	for i, gen := range gens {
		wg.Add(1)
		go func(i int, gen signal.Generator) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("generator %s (%s) failed: %v", gen.ID(), gen.Kind(), r)
				}
			}()
			s := gen.GenerateSignal(series)
			results[i] = &s
		}(i, gen)
	}
	wg.Wait()

	signals := make([]signal.Signal, 0, len(gens))
	failed := 0
	for _, s := range results {
		if s == nil {
			failed++
			continue
		}
		signals = append(signals, *s)
	}
	return signals, failed
}

// RunBatch computes decisions for many symbols independently. One symbol's
// failure becomes a structured error entry and the rest continue.
func (e *Engine) RunBatch(ctx context.Context, symbols []string, asOf time.Time) *BatchResult {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	outcomes := make([]SymbolOutcome, len(symbols))

	g := &errgroup.Group{}
	g.SetLimit(e.cfg.BatchParallelism)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := e.RunForSymbol(ctx, Request{Symbol: symbol, AsOf: asOf})
			if err != nil {
				logger.Warnf("batch decision for %s failed: %v", symbol, err)
				outcomes[i] = SymbolOutcome{Symbol: symbol, Error: err.Error()}
				return nil
			}
			outcomes[i] = SymbolOutcome{Symbol: symbol, Result: res}
			return nil
		})
	}
	_ = g.Wait()

	success := 0
	for _, o := range outcomes {
		if o.Error == "" {
			success++
		}
	}
	return &BatchResult{
		RunID:        uuid.NewString(),
		AsOf:         asOf,
		Results:      outcomes,
		SuccessCount: success,
		TotalCount:   len(symbols),
	}
}
