package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/stocksage.db"
	}
	if c.Engine.LookbackDays <= 0 {
		c.Engine.LookbackDays = 120
	}
	if c.Engine.BatchParallelism <= 0 {
		c.Engine.BatchParallelism = 4
	}
	if c.Voting.Strategy == "" {
		c.Voting.Strategy = "weighted"
	}
	if c.Voting.Threshold == 0 {
		c.Voting.Threshold = 0.6
	}
	if c.Voting.MinConfidence == 0 {
		c.Voting.MinConfidence = 0.6
	}
	if c.Risk.MaxDailyLoss == 0 {
		c.Risk.MaxDailyLoss = 0.05
	}
	if c.Risk.MaxPositionSize == 0 {
		c.Risk.MaxPositionSize = 0.10
	}
}

func validate(c *Config) error {
	if c.Voting.Threshold < 0 || c.Voting.Threshold > 1 {
		return fmt.Errorf("voting.threshold must be within [0,1], got %v", c.Voting.Threshold)
	}
	if c.Voting.MinConfidence < 0 || c.Voting.MinConfidence > 1 {
		return fmt.Errorf("voting.min_confidence must be within [0,1], got %v", c.Voting.MinConfidence)
	}
	switch c.Voting.Strategy {
	case "majority", "weighted", "confidence_weighted":
	default:
		return fmt.Errorf("voting.strategy must be one of majority/weighted/confidence_weighted, got %q", c.Voting.Strategy)
	}
	if c.Risk.MaxDailyLoss <= 0 || c.Risk.MaxDailyLoss > 1 {
		return fmt.Errorf("risk.max_daily_loss must be within (0,1], got %v", c.Risk.MaxDailyLoss)
	}
	if c.Risk.MaxPositionSize <= 0 || c.Risk.MaxPositionSize > 1 {
		return fmt.Errorf("risk.max_position_size must be within (0,1], got %v", c.Risk.MaxPositionSize)
	}
	return nil
}
