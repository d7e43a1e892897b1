// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/classify"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/discovery"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/market"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/resilience"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/roadmap"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/universe"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/winnability"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig        `yaml:"store" mapstructure:"store"`
	Providers   ProvidersConfig    `yaml:"providers" mapstructure:"providers"`
	Discovery   discovery.Config   `yaml:"discovery" mapstructure:"discovery"`
	Classify    classify.Config    `yaml:"classify" mapstructure:"classify"`
	Universe    universe.Config    `yaml:"universe" mapstructure:"universe"`
	Winnability winnability.Config `yaml:"winnability" mapstructure:"winnability"`
	Market      market.Config      `yaml:"market" mapstructure:"market"`
	Roadmap     roadmap.Config     `yaml:"roadmap" mapstructure:"roadmap"`
	Retry       RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Server      ServerConfig       `yaml:"server" mapstructure:"server"`
	Log         LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ProvidersConfig configures the metrics-provider registry.
type ProvidersConfig struct {
	// Primary is the designated primary source used when reconciliation
	// variance is too high to blend.
	Primary string `yaml:"primary" mapstructure:"primary"`
	// FixturesDir points the static provider at its fixture files.
	FixturesDir string `yaml:"fixtures_dir" mapstructure:"fixtures_dir"`
}

// RetryConfig mirrors resilience.RetryConfig in file-friendly units.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	CallTimeoutSecs  int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
}

// Resilience converts to the policy value used by call sites.
func (r RetryConfig) Resilience() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if r.MaxAttempts > 0 {
		cfg.MaxAttempts = r.MaxAttempts
	}
	if r.InitialBackoffMS > 0 {
		cfg.InitialBackoff = time.Duration(r.InitialBackoffMS) * time.Millisecond
	}
	if r.MaxBackoffMS > 0 {
		cfg.MaxBackoff = time.Duration(r.MaxBackoffMS) * time.Millisecond
	}
	if r.Multiplier > 0 {
		cfg.Multiplier = r.Multiplier
	}
	if r.JitterFraction > 0 {
		cfg.JitterFraction = r.JitterFraction
	}
	cfg.CallTimeout = r.CallTimeout()
	return cfg
}

// CallTimeout is the global per-external-call timeout.
func (r RetryConfig) CallTimeout() time.Duration {
	if r.CallTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.CallTimeoutSecs) * time.Second
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("AUTHORICY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "authoricy.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("discovery.serp_depth", 10)
	v.SetDefault("discovery.max_candidates", 20)
	v.SetDefault("discovery.concurrency", 5)
	v.SetDefault("discovery.rate_per_sec", 8)
	v.SetDefault("classify.overlap_threshold", 15)
	v.SetDefault("universe.depth_per_competitor", 500)
	v.SetDefault("universe.concurrency", 5)
	v.SetDefault("universe.rate_per_sec", 8)
	v.SetDefault("winnability.weights.authority_gap", 0.5)
	v.SetDefault("winnability.weights.difficulty_inverse", 0.3)
	v.SetDefault("winnability.weights.weak_signal", 0.1)
	v.SetDefault("winnability.weights.ai_overview", 0.1)
	v.SetDefault("winnability.ai_overview_present", 20)
	v.SetDefault("market.obtainable_threshold", 50)
	v.SetDefault("roadmap.min_beachhead_winnability", 60)
	v.SetDefault("roadmap.max_beachheads", 20)
	v.SetDefault("roadmap.diversity_cap", 0.4)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 400)
	v.SetDefault("retry.max_backoff_ms", 15000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("retry.call_timeout_secs", 30)
	v.SetDefault("providers.primary", "static")
	v.SetDefault("providers.fixtures_dir", "fixtures")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
