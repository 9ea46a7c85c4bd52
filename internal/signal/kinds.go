package signal

import (
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Generator kinds known to the registry.
const (
	KindMovingAverageCrossover = "moving_average_crossover"
	KindRSI                    = "rsi"
	KindMACD                   = "macd"
	KindBollingerBands         = "bollinger_bands"
)

var (
	ErrInvalidParams = errors.New("invalid generator parameters")
	ErrUnknownKind   = errors.New("unknown generator kind")
)

// Params carries generator parameters decoded from JSON. Missing keys fall
// back to the kind's defaults.
type Params map[string]any

func (p Params) intOr(key string, def int) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func (p Params) floatOr(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}

type kindSpec struct {
	schema *jsonschema.Schema
	build  func(id string, p Params) (Generator, error)
}

func mustSchema(name, doc string) *jsonschema.Schema {
	s, err := jsonschema.CompileString(name+".json", doc)
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return s
}

// builtinKinds wires each kind's parameter schema to its constructor.
// Range constraints that span multiple fields (short < long, oversold <
// overbought) stay in the constructors.
func builtinKinds() map[string]kindSpec {
	return map[string]kindSpec{
		KindMovingAverageCrossover: {
			schema: mustSchema(KindMovingAverageCrossover, `{
				"type": "object",
				"properties": {
					"short_window": {"type": "integer", "minimum": 1},
					"long_window":  {"type": "integer", "minimum": 2}
				},
				"additionalProperties": false
			}`),
			build: func(id string, p Params) (Generator, error) {
				return NewMovingAverageCrossover(id, p.intOr("short_window", 5), p.intOr("long_window", 20))
			},
		},
		KindRSI: {
			schema: mustSchema(KindRSI, `{
				"type": "object",
				"properties": {
					"period":     {"type": "integer", "minimum": 1},
					"overbought": {"type": "number", "exclusiveMaximum": 100},
					"oversold":   {"type": "number", "exclusiveMinimum": 0}
				},
				"additionalProperties": false
			}`),
			build: func(id string, p Params) (Generator, error) {
				return NewRSI(id, p.intOr("period", 14), p.floatOr("overbought", 70), p.floatOr("oversold", 30))
			},
		},
		KindMACD: {
			schema: mustSchema(KindMACD, `{
				"type": "object",
				"properties": {
					"fast_period":   {"type": "integer", "minimum": 1},
					"slow_period":   {"type": "integer", "minimum": 2},
					"signal_period": {"type": "integer", "minimum": 1}
				},
				"additionalProperties": false
			}`),
			build: func(id string, p Params) (Generator, error) {
				return NewMACD(id, p.intOr("fast_period", 12), p.intOr("slow_period", 26), p.intOr("signal_period", 9))
			},
		},
		KindBollingerBands: {
			schema: mustSchema(KindBollingerBands, `{
				"type": "object",
				"properties": {
					"period":  {"type": "integer", "minimum": 2},
					"std_dev": {"type": "number", "exclusiveMinimum": 0}
				},
				"additionalProperties": false
			}`),
			build: func(id string, p Params) (Generator, error) {
				return NewBollingerBands(id, p.intOr("period", 20), p.floatOr("std_dev", 2.0))
			},
		},
	}
}
