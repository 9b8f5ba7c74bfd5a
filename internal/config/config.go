// Package config loads and validates analyser configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all analyser configuration knobs loaded via Viper.
type Config struct {
	Job          string        `mapstructure:"job"`
	LaunchID     string        `mapstructure:"launch_id"`
	LogPath      string        `mapstructure:"log_path"`
	TargetsPath  string        `mapstructure:"targets_path"`
	OutputPrefix string        `mapstructure:"output_prefix"`
	Mapper       MapperConfig  `mapstructure:"mapper"`
	Storage      StorageConfig `mapstructure:"storage"`
	PubSub       PubSubConfig  `mapstructure:"pubsub"`
	DB           DBConfig      `mapstructure:"db"`
	Server       ServerConfig  `mapstructure:"server"`
	Logging      LoggingConfig `mapstructure:"logging"`
}

// MapperConfig governs the map phase worker pool.
type MapperConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// StorageConfig selects where inputs and the output artifact live.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PubSubConfig holds metadata for document notifications; empty disables
// publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// DBConfig controls the optional Postgres document store; an empty DSN
// disables it.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LOGANALYSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_prefix", "task-state")
	v.SetDefault("mapper.concurrency", 4)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.base_dir", ".")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Job == "" {
		return fmt.Errorf("job must be set")
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path must be set")
	}
	if c.TargetsPath == "" {
		return fmt.Errorf("targets_path must be set")
	}
	if c.Mapper.Concurrency <= 0 {
		return fmt.Errorf("mapper.concurrency must be > 0")
	}
	switch c.Storage.Backend {
	case "local", "gcs", "memory":
	default:
		return fmt.Errorf("storage.backend must be one of local, gcs, memory")
	}
	if c.Storage.Backend == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	return nil
}
