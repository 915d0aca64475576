package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/isojs/isojs/internal/logging"
)

// Config holds CLI settings sourced from ISOJS_* environment variables.
// Flags override the environment where both are given.
type Config struct {
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
	Development bool          `envconfig:"DEV" default:"false"`
	PoolSize    int           `envconfig:"POOL_SIZE" default:"2"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
	HistoryFile string        `envconfig:"HISTORY_FILE" default:""`
}

// LoadConfig reads configuration from the environment, falling back to
// defaults on any malformed variable.
func LoadConfig() Config {
	var cfg Config
	if err := envconfig.Process("isojs", &cfg); err != nil {
		return Config{
			LogLevel:    "info",
			Development: false,
			PoolSize:    2,
			Timeout:     30 * time.Second,
		}
	}
	return cfg
}

// Logger builds the logger matching the configuration.
func (c Config) Logger() *logging.Logger {
	if c.Development {
		return logging.NewDevelopment()
	}
	log, err := logging.New(logging.Config{
		Level:       c.LogLevel,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewDefault()
	}
	return log
}
