package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration for the trader and benchmarker.
// It is passed explicitly into constructors; there is no ambient state,
// so multiple agents/runs can use distinct credentials in one process.
type Config struct {
	Platform  PlatformConfig  `yaml:"platform"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Log       LogConfig       `yaml:"log"`
}

// PlatformConfig selects and parameterizes the market platform.
type PlatformConfig struct {
	Name     string `yaml:"name"`     // omen | manifold | polymarket
	Identity string `yaml:"identity"` // wallet address or platform user id

	// REST platforms
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` // overridden by PLATFORM_API_KEY

	// On-chain platform
	RPCURL     string `yaml:"rpc_url"`
	PrivateKey string `yaml:"private_key"` // overridden by PRIVATE_KEY; never log this

	// SettleTimeoutSeconds bounds the wait for trade settlement.
	SettleTimeoutSeconds int `yaml:"settle_timeout_seconds"`
}

// StrategyConfig parameterizes trade sizing.
type StrategyConfig struct {
	MaxStake          float64 `yaml:"max_stake"`
	MinEdge           float64 `yaml:"min_edge"`
	KellyFraction     float64 `yaml:"kelly_fraction"` // fraction of full Kelly to bet
	AllowOppositeBets bool    `yaml:"allow_opposite_bets"`
}

// PipelineConfig controls one trading run.
type PipelineConfig struct {
	MarketLimit      int    `yaml:"market_limit"`
	MaxMarketsPerRun int    `yaml:"max_markets_per_run"` // 0 = no cap
	SortBy           string `yaml:"sort_by"`
	DeadlineSeconds  int    `yaml:"deadline_seconds"` // 0 = no deadline
}

// BenchmarkConfig controls benchmark runs.
type BenchmarkConfig struct {
	CacheDSN    string `yaml:"cache_dsn"` // sqlite path or ":memory:"
	MarketLimit int    `yaml:"market_limit"`
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present. Env values
// override the YAML for secret keys.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Deadline returns the pipeline run budget, or 0 when unbounded.
func (c *Config) Deadline() time.Duration {
	return time.Duration(c.Pipeline.DeadlineSeconds) * time.Second
}

// SettleTimeout returns the per-trade settlement wait bound.
func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Platform.SettleTimeoutSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRIVATE_KEY"); v != "" {
		cfg.Platform.PrivateKey = v
	}
	if v := os.Getenv("PLATFORM_API_KEY"); v != "" {
		cfg.Platform.APIKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Platform.Name == "" {
		cfg.Platform.Name = "manifold"
	}
	if cfg.Platform.SettleTimeoutSeconds <= 0 {
		cfg.Platform.SettleTimeoutSeconds = 90
	}
	if cfg.Strategy.MaxStake <= 0 {
		cfg.Strategy.MaxStake = 10
	}
	if cfg.Strategy.MinEdge <= 0 {
		cfg.Strategy.MinEdge = 0.05
	}
	if cfg.Strategy.KellyFraction <= 0 || cfg.Strategy.KellyFraction > 1 {
		cfg.Strategy.KellyFraction = 1
	}
	if cfg.Pipeline.MarketLimit <= 0 {
		cfg.Pipeline.MarketLimit = 20
	}
	if cfg.Pipeline.SortBy == "" {
		cfg.Pipeline.SortBy = "closing-soonest"
	}
	if cfg.Benchmark.CacheDSN == "" {
		cfg.Benchmark.CacheDSN = "predictions.db"
	}
	if cfg.Benchmark.MarketLimit <= 0 {
		cfg.Benchmark.MarketLimit = 50
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
