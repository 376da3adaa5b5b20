package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"finedb/internal/db"
	"finedb/internal/engine"
)

// Config is the daemon configuration file.
type Config struct {
	Addr           string        `yaml:"addr"`
	Engine         string        `yaml:"engine"`
	Dir            string        `yaml:"dir"`
	QueueCapacity  int           `yaml:"queue_capacity"`
	EnqueueTimeout time.Duration `yaml:"enqueue_timeout"`
	CacheSize      int           `yaml:"cache_size"`
	NoSync         bool          `yaml:"no_sync"`
	Logging        bool          `yaml:"logging"`
	Limits         LimitsConfig  `yaml:"limits"`
}

type LimitsConfig struct {
	MaxKeySize   int  `yaml:"max_key_size"`
	MaxValueSize int  `yaml:"max_value_size"`
	StrictDelete bool `yaml:"strict_delete"`
}

// Default mirrors db.DefaultOptions.
func Default() Config {
	return Config{
		Addr:          "127.0.0.1:8080",
		Engine:        string(db.DefaultOptions.Engine),
		QueueCapacity: db.DefaultOptions.QueueCapacity,
		CacheSize:     db.DefaultOptions.CacheSize,
		Logging:       true,
		Limits: LimitsConfig{
			MaxKeySize:   engine.DefaultLimits.MaxKeySize,
			MaxValueSize: engine.DefaultLimits.MaxValueSize,
		},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch db.EngineKind(c.Engine) {
	case db.EngineMemory, db.EngineBadger:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must be >= 0, got %d", c.QueueCapacity)
	}
	if c.EnqueueTimeout < 0 {
		return fmt.Errorf("enqueue_timeout must be >= 0, got %s", c.EnqueueTimeout)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be >= 0, got %d", c.CacheSize)
	}
	if c.Limits.MaxKeySize < 0 {
		return fmt.Errorf("limits.max_key_size must be >= 0, got %d", c.Limits.MaxKeySize)
	}
	if c.Limits.MaxValueSize < 0 {
		return fmt.Errorf("limits.max_value_size must be >= 0, got %d", c.Limits.MaxValueSize)
	}
	return nil
}

// Options translates the file into db options.
func (c Config) Options() []db.Option {
	return []db.Option{
		db.WithEngine(db.EngineKind(c.Engine)),
		db.WithDir(c.Dir),
		db.WithQueueCapacity(c.QueueCapacity),
		db.WithEnqueueTimeout(c.EnqueueTimeout),
		db.WithCacheSize(c.CacheSize),
		db.WithNoSync(c.NoSync),
		db.WithLimits(engine.Limits{
			MaxKeySize:   c.Limits.MaxKeySize,
			MaxValueSize: c.Limits.MaxValueSize,
			StrictDelete: c.Limits.StrictDelete,
		}),
	}
}
