package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stocksage/internal/config"
	"stocksage/internal/config/loader"
	"stocksage/internal/engine"
	"stocksage/internal/logger"
	"stocksage/internal/risk"
	"stocksage/internal/scheduler"
	"stocksage/internal/signal"
	"stocksage/internal/store"
	httpapi "stocksage/internal/transport/http"
	"stocksage/internal/voting"
)

// App owns the process-wide object graph. Everything is built once here
// and passed by reference; there is no ambient global state.
type App struct {
	cfg      *config.Config
	cfgPath  string
	store    *store.Store
	registry *signal.Registry
	voter    *voting.Engine
	riskCtl  *risk.Controller
	engine   *engine.Engine
	http     *httpapi.Server
}

func NewApp(cfg *config.Config, cfgPath string) (*App, error) {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store failed: %w", err)
	}

	registry := signal.NewRegistry()
	specs, err := loader.LoadModels(cfg.Models.Path)
	if err != nil {
		return nil, err
	}
	weights := voting.Weights{}
	for _, spec := range specs {
		raw, err := json.Marshal(spec.Params)
		if err != nil {
			return nil, fmt.Errorf("model %s: encoding params failed: %w", spec.ID, err)
		}
		if _, err := registry.Register(spec.ID, spec.Kind, raw, spec.IsActive()); err != nil {
			return nil, fmt.Errorf("model %s: %w", spec.ID, err)
		}
		weights[spec.ID] = spec.VoteWeight()
	}
	logger.Infof("registered %d generators from %s", len(specs), orDefault(cfg.Models.Path, "builtin defaults"))

	strategy, err := voting.ParseStrategy(cfg.Voting.Strategy)
	if err != nil {
		return nil, err
	}
	voter := voting.NewEngine(voting.Config{
		Strategy:      strategy,
		Threshold:     cfg.Voting.Threshold,
		MinConfidence: cfg.Voting.MinConfidence,
	}, weights)

	riskCtl := risk.NewController(risk.Limits{
		MaxDailyLoss:    cfg.Risk.MaxDailyLoss,
		MaxPositionSize: cfg.Risk.MaxPositionSize,
	})

	eng := engine.New(st, registry, voter, riskCtl, st, engine.Config{
		LookbackDays:     cfg.Engine.LookbackDays,
		BatchParallelism: cfg.Engine.BatchParallelism,
	})

	srv, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:     cfg.HTTP.Addr,
		Engine:   eng,
		Store:    st,
		Registry: registry,
		Voter:    voter,
		Risk:     riskCtl,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		cfgPath:  cfgPath,
		store:    st,
		registry: registry,
		voter:    voter,
		riskCtl:  riskCtl,
		engine:   eng,
		http:     srv,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Run starts the watchers, schedulers and the HTTP server and blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	if a.cfg.App.WatchConfig && a.cfgPath != "" {
		go func() {
			if err := config.Watch(ctx, a.cfgPath, a.reloadConfig); err != nil && ctx.Err() == nil {
				logger.Warnf("config watcher stopped: %v", err)
			}
		}()
		if a.cfg.Models.Path != "" {
			go func() {
				if err := config.Watch(ctx, a.cfg.Models.Path, a.reloadWeights); err != nil && ctx.Err() == nil {
					logger.Warnf("models watcher stopped: %v", err)
				}
			}()
		}
	}

	// The controller's PnL accumulator is session-scoped; reset it daily.
	go scheduler.NewIntervalScheduler(ctx, "pnl_reset", 24*time.Hour).Start(func() {
		a.riskCtl.ResetDailyPnL()
		logger.Infof("daily pnl accumulator reset")
	})

	if interval, ok := scheduler.ParseIntervalDuration(a.cfg.Schedule.Interval); ok && len(a.cfg.Schedule.Symbols) > 0 {
		batch := scheduler.NewIntervalScheduler(ctx, "batch_decisions", interval)
		batch.RunImmediately = a.cfg.Schedule.RunImmediately
		go batch.Start(func() {
			res := a.engine.RunBatch(ctx, a.cfg.Schedule.Symbols, time.Now().UTC())
			logger.Infof("scheduled batch %s: %d/%d succeeded", res.RunID, res.SuccessCount, res.TotalCount)
		})
	}

	return a.http.Start(ctx)
}

// reloadConfig re-reads the main config and applies the hot-reloadable
// sections: voting config and risk limits. Structural settings (store
// path, HTTP addr) require a restart.
func (a *App) reloadConfig() {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		logger.Warnf("config reload rejected: %v", err)
		return
	}
	strategy, err := voting.ParseStrategy(cfg.Voting.Strategy)
	if err != nil {
		logger.Warnf("config reload rejected: %v", err)
		return
	}
	a.voter.SetConfig(voting.Config{
		Strategy:      strategy,
		Threshold:     cfg.Voting.Threshold,
		MinConfidence: cfg.Voting.MinConfidence,
	})
	a.riskCtl.SetLimits(risk.Limits{
		MaxDailyLoss:    cfg.Risk.MaxDailyLoss,
		MaxPositionSize: cfg.Risk.MaxPositionSize,
	})
	logger.Infof("voting config and risk limits reloaded")
}

// reloadWeights refreshes model weights from the roster file. Generator
// definitions themselves stay as registered; changing parameters live goes
// through the models API instead.
func (a *App) reloadWeights() {
	specs, err := loader.LoadModels(a.cfg.Models.Path)
	if err != nil {
		logger.Warnf("weights reload rejected: %v", err)
		return
	}
	weights := voting.Weights{}
	for _, spec := range specs {
		weights[spec.ID] = spec.VoteWeight()
	}
	a.voter.SetWeights(weights)
	logger.Infof("model weights reloaded (%d entries)", len(weights))
}
