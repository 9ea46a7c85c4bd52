package config

// Config is the process-wide configuration tree, loaded once at startup
// and re-read by the watcher for the hot-reloadable sections.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Store    StoreConfig    `mapstructure:"store"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Voting   VotingConfig   `mapstructure:"voting"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Models   ModelsConfig   `mapstructure:"models"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

type AppConfig struct {
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	LogPath     string `mapstructure:"log_path"`
	WatchConfig bool   `mapstructure:"watch_config"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type EngineConfig struct {
	LookbackDays     int `mapstructure:"lookback_days"`
	BatchParallelism int `mapstructure:"batch_parallelism"`
}

// VotingConfig is hot-reloadable: the watcher pushes changes into the
// voting engine between aggregations.
type VotingConfig struct {
	Strategy      string  `mapstructure:"strategy"`
	Threshold     float64 `mapstructure:"threshold"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// RiskConfig is hot-reloadable like VotingConfig.
type RiskConfig struct {
	MaxDailyLoss    float64 `mapstructure:"max_daily_loss"`
	MaxPositionSize float64 `mapstructure:"max_position_size"`
}

// ModelsConfig points at the generator roster file (see loader package).
type ModelsConfig struct {
	Path string `mapstructure:"path"`
}

// ScheduleConfig drives the periodic batch run. An empty interval disables
// it; the daily PnL reset always runs on its own daily tick.
type ScheduleConfig struct {
	Interval       string   `mapstructure:"interval"`
	RunImmediately bool     `mapstructure:"run_immediately"`
	Symbols        []string `mapstructure:"symbols"`
}
