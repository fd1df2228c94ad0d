// Package config loads service configuration from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Warmer     WarmerConfig     `yaml:"warmer"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type ServerConfig struct {
	Port           string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"15s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" env-default:"http://localhost:3000,http://localhost:5173"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" env:"RATE_LIMIT" env-default:"600"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"curbside.db"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"` // memory | redis | none
	TTL           time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
}

// WarmerConfig is opt-out: cleanenv cannot default a bool to true and still
// honour an explicit false.
type WarmerConfig struct {
	Disabled bool          `yaml:"disabled" env:"WARMER_DISABLED"`
	Interval time.Duration `yaml:"interval" env:"WARMER_INTERVAL" env-default:"5m"`
}

type EvaluationConfig struct {
	BulkWorkers int `yaml:"bulk_workers" env:"EVAL_BULK_WORKERS" env-default:"8"`
}

// Load reads the YAML file at path, then applies environment overrides.
// An empty path means environment and defaults only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from env: %w", err)
		}
		return &cfg, cfg.Validate()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	return &cfg, cfg.Validate()
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend)
	}
	if !c.Warmer.Disabled && c.Warmer.Interval <= 0 {
		return fmt.Errorf("warmer.interval must be positive")
	}
	if c.Evaluation.BulkWorkers < 0 {
		return fmt.Errorf("evaluation.bulk_workers must not be negative")
	}
	return nil
}

// PathFromEnv returns CONFIG_PATH, used when no -config flag is given.
func PathFromEnv() string {
	return os.Getenv("CONFIG_PATH")
}
