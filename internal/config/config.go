// Package config loads application configuration from file and
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Tiering TieringConfig `yaml:"tiering" mapstructure:"tiering"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// APIConfig holds search-performance API credentials and rate limits.
type APIConfig struct {
	Token   string  `yaml:"token" mapstructure:"token"`
	BaseURL string  `yaml:"base_url" mapstructure:"base_url"`
	QPS     float64 `yaml:"qps" mapstructure:"qps"`
}

// IngestConfig tunes the ingestion gateway.
type IngestConfig struct {
	RowLimit    int    `yaml:"row_limit" mapstructure:"row_limit"`
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	MaxAttempts int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	SearchType  string `yaml:"search_type" mapstructure:"search_type"`
}

// TieringConfig locates the analysis config and tunes the worker pool.
type TieringConfig struct {
	ConfigPath string `yaml:"config_path" mapstructure:"config_path"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the trigger server.
type ServerConfig struct {
	Port          int    `yaml:"port" mapstructure:"port"`
	TriggerSecret string `yaml:"trigger_secret" mapstructure:"trigger_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SEOPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "seopulse.db")
	v.SetDefault("api.token", "")
	v.SetDefault("api.base_url", "https://www.googleapis.com/webmasters/v3")
	v.SetDefault("api.qps", 5.0)
	v.SetDefault("ingest.row_limit", 25000)
	v.SetDefault("ingest.batch_size", 480)
	v.SetDefault("ingest.max_attempts", 5)
	v.SetDefault("ingest.search_type", "")
	v.SetDefault("tiering.config_path", "")
	v.SetDefault("tiering.workers", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.trigger_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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
