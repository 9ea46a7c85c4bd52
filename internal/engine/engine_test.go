package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocksage/internal/market"
	"stocksage/internal/risk"
	"stocksage/internal/signal"
	"stocksage/internal/voting"
)

// fakeSource serves canned series and reports unknown symbols the way the
// bar store does.
type fakeSource struct {
	series map[string]market.Series
}

func (f *fakeSource) GetSeries(_ context.Context, symbol string, _, _ time.Time) (market.Series, error) {
	s, ok := f.series[symbol]
	if !ok {
		return market.Series{}, fmt.Errorf("%w: %s", market.ErrSymbolNotFound, symbol)
	}
	return s, nil
}

// stubGenerator returns a fixed signal.
type stubGenerator struct {
	id  string
	out signal.Signal
}

func (g *stubGenerator) ID() string        { return g.id }
func (g *stubGenerator) Kind() string      { return "stub" }
func (g *stubGenerator) MinLookback() int  { return 1 }
func (g *stubGenerator) GenerateSignal(market.Series) signal.Signal {
	out := g.out
	out.GeneratorID = g.id
	return out
}

// panicGenerator simulates an unexpected failure inside one model.
type panicGenerator struct{ id string }

func (g *panicGenerator) ID() string       { return g.id }
func (g *panicGenerator) Kind() string     { return "panic" }
func (g *panicGenerator) MinLookback() int { return 1 }
func (g *panicGenerator) GenerateSignal(market.Series) signal.Signal {
	panic("division by zero")
}

// recordingSink captures persisted decisions.
type recordingSink struct{ saved []*Result }

func (s *recordingSink) SaveDecision(_ context.Context, res *Result) error {
	s.saved = append(s.saved, res)
	return nil
}

func testSeries(symbol string) market.Series {
	bars := make([]market.Bar, 30)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = market.Bar{Date: base.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return market.NewSeries(symbol, bars)
}

func newTestEngine(t *testing.T, source market.Source, sink Sink, gens ...signal.Generator) *Engine {
	t.Helper()
	registry := signal.NewRegistry()
	for _, g := range gens {
		require.NoError(t, registry.Add(g, true))
	}
	voter := voting.NewEngine(voting.Config{Strategy: voting.Majority, Threshold: 0.5, MinConfidence: 0.6}, nil)
	riskCtl := risk.NewController(risk.DefaultLimits())
	return New(source, registry, voter, riskCtl, sink, Config{LookbackDays: 60, BatchParallelism: 2})
}

func buyStub(id string) *stubGenerator {
	return &stubGenerator{id: id, out: signal.Signal{Decision: signal.Buy, Confidence: 0.9, Strength: 0.8}}
}

func TestRunForSymbol_HappyPath(t *testing.T) {
	source := &fakeSource{series: map[string]market.Series{"AAPL": testSeries("AAPL")}}
	sink := &recordingSink{}
	eng := newTestEngine(t, source, sink, buyStub("a"), buyStub("b"), buyStub("c"))

	res, err := eng.RunForSymbol(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, signal.Buy, res.Decision.Decision)
	assert.Equal(t, Counts{Total: 3, Successful: 3, Failed: 0}, res.Counts)
	assert.NotEmpty(t, res.ID)
	assert.True(t, res.Risk.Approved)
	require.Len(t, sink.saved, 1)
	assert.Equal(t, res.ID, sink.saved[0].ID)
}

func TestRunForSymbol_GeneratorFailureIsExcludedNotFatal(t *testing.T) {
	source := &fakeSource{series: map[string]market.Series{"AAPL": testSeries("AAPL")}}
	eng := newTestEngine(t, source, nil, buyStub("a"), buyStub("b"), &panicGenerator{id: "broken"})

	res, err := eng.RunForSymbol(context.Background(), Request{Symbol: "AAPL"})
	require.NoError(t, err)

	assert.Equal(t, Counts{Total: 3, Successful: 2, Failed: 1}, res.Counts)
	assert.Equal(t, signal.Buy, res.Decision.Decision)
}

func TestRunForSymbol_UnknownSymbolPropagates(t *testing.T) {
	source := &fakeSource{series: map[string]market.Series{}}
	eng := newTestEngine(t, source, nil, buyStub("a"))

	_, err := eng.RunForSymbol(context.Background(), Request{Symbol: "GHOST"})
	assert.ErrorIs(t, err, market.ErrSymbolNotFound)
}

func TestRunForSymbol_NoActiveGenerators(t *testing.T) {
	source := &fakeSource{series: map[string]market.Series{"AAPL": testSeries("AAPL")}}
	eng := newTestEngine(t, source, nil)

	_, err := eng.RunForSymbol(context.Background(), Request{Symbol: "AAPL"})
	assert.ErrorIs(t, err, ErrNoActiveGenerators)
}

func TestRunForSymbol_RiskVetoOnOversizedPosition(t *testing.T) {
	source := &fakeSource{series: map[string]market.Series{"AAPL": testSeries("AAPL")}}
	eng := newTestEngine(t, source, nil, buyStub("a"), buyStub("b"))

	pos := 0.15
	res, err := eng.RunForSymbol(context.Background(), Request{Symbol: "AAPL", CurrentPosition: &pos})
	require.NoError(t, err)

	assert.False(t, res.Risk.Approved)
	assert.Equal(t, signal.Hold, res.Risk.AdjustedDecision)
}

func TestRunBatch_ContinuesPastFailingSymbol(t *testing.T) {
	series := map[string]market.Series{}
	symbols := []string{"S1", "S2", "S3", "S4", "S5"}
	for _, s := range symbols {
		if s == "S3" {
			continue // S3's fetch fails with not-found
		}
		series[s] = testSeries(s)
	}
	eng := newTestEngine(t, &fakeSource{series: series}, nil, buyStub("a"))

	res := eng.RunBatch(context.Background(), symbols, time.Time{})

	assert.Equal(t, 5, res.TotalCount)
	assert.Equal(t, 4, res.SuccessCount)
	require.Len(t, res.Results, 5)
	assert.Equal(t, "S3", res.Results[2].Symbol)
	assert.NotEmpty(t, res.Results[2].Error)
	assert.Nil(t, res.Results[2].Result)
	for i, out := range res.Results {
		if i == 2 {
			continue
		}
		require.NotNil(t, out.Result, "symbol %s", out.Symbol)
		assert.Empty(t, out.Error)
	}
}

func TestFanOut_JoinCollectsPartialFailures(t *testing.T) {
	gens := []signal.Generator{buyStub("a"), &panicGenerator{id: "p1"}, buyStub("b"), &panicGenerator{id: "p2"}}
	signals, failed := fanOut(gens, testSeries("X"))

	assert.Len(t, signals, 2)
	assert.Equal(t, 2, failed)
}
