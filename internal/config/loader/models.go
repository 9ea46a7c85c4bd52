// Package loader reads the generator roster file. The roster lives outside
// the main config so that model changes do not touch process settings.
package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelSpec declares one generator to register at startup.
type ModelSpec struct {
	ID     string         `yaml:"id"`
	Kind   string         `yaml:"kind"`
	Weight float64        `yaml:"weight"`
	Active *bool          `yaml:"active"`
	Params map[string]any `yaml:"params"`
}

// IsActive defaults to true when the field is omitted.
func (m ModelSpec) IsActive() bool {
	return m.Active == nil || *m.Active
}

// VoteWeight defaults to 1.0 when omitted or non-positive.
func (m ModelSpec) VoteWeight() float64 {
	if m.Weight <= 0 {
		return 1.0
	}
	return m.Weight
}

// LoadModels parses the roster at path. An empty path or a missing file
// yields the default roster rather than an error, so a fresh checkout runs
// out of the box.
func LoadModels(path string) ([]ModelSpec, error) {
	if path == "" {
		return DefaultModels(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultModels(), nil
		}
		return nil, fmt.Errorf("reading models file failed (%s): %w", path, err)
	}
	var doc struct {
		Models []ModelSpec `yaml:"models"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing models file failed (%s): %w", path, err)
	}
	if len(doc.Models) == 0 {
		return DefaultModels(), nil
	}
	for i, m := range doc.Models {
		if m.ID == "" || m.Kind == "" {
			return nil, fmt.Errorf("models[%d]: id and kind are required", i)
		}
	}
	return doc.Models, nil
}

// DefaultModels is the roster used when no file is configured: the classic
// technical set with its textbook parameters.
func DefaultModels() []ModelSpec {
	return []ModelSpec{
		{ID: "ma_cross_5_20", Kind: "moving_average_crossover", Params: map[string]any{"short_window": 5, "long_window": 20}},
		{ID: "rsi_14", Kind: "rsi", Params: map[string]any{"period": 14, "overbought": 70, "oversold": 30}},
		{ID: "macd_12_26_9", Kind: "macd", Params: map[string]any{"fast_period": 12, "slow_period": 26, "signal_period": 9}},
		{ID: "bbands_20", Kind: "bollinger_bands", Params: map[string]any{"period": 20, "std_dev": 2.0}},
	}
}
