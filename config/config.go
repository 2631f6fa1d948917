// Package config loads hub configuration from a file and the environment.
//
// Every key can be overridden with a GRIDHOOK_-prefixed environment
// variable, e.g. GRIDHOOK_ENGINE_CONCURRENCY or GRIDHOOK_REDIS_ADDR.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full file-level configuration for an embedding application.
type Config struct {
	Engine EngineConfig `mapstructure:"engine"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Notify NotifyConfig `mapstructure:"notify"`
}

// EngineConfig tunes the delivery engine.
type EngineConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig selects the Redis store backend. An empty Addr means the
// in-memory store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotifyConfig tunes the notification dispatcher and its providers.
type NotifyConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	RetryBase  time.Duration `mapstructure:"retry_base"`
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`

	Chat  ChatConfig  `mapstructure:"chat"`
	Email EmailConfig `mapstructure:"email"`
}

// ChatConfig configures the chat channel provider.
type ChatConfig struct {
	APIURL string `mapstructure:"api_url"`
	Token  string `mapstructure:"token"`
}

// EmailConfig configures the email channel provider.
type EmailConfig struct {
	RelayURL string `mapstructure:"relay_url"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
}

// Load reads configuration from the given file path (YAML; optional, an
// empty path skips the file) with GRIDHOOK_* environment overrides applied
// on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GRIDHOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.concurrency", 10)
	v.SetDefault("engine.poll_interval", time.Second)
	v.SetDefault("engine.batch_size", 50)
	v.SetDefault("engine.shutdown_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("notify.max_retries", 3)
	v.SetDefault("notify.retry_base", 500*time.Millisecond)
	v.SetDefault("notify.rate_limit", 60)
	v.SetDefault("notify.rate_window", time.Minute)
	v.SetDefault("notify.chat.api_url", "https://slack.com/api")
	v.SetDefault("notify.email.from", "")
}
