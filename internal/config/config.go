// Package config loads the datasetctl configuration from a YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/on-the-ground/ymir_dataset/effects/configkeys"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding the file.
const (
	EnvAPIURL   = "YMIR_API_URL"
	EnvAPIToken = "YMIR_API_TOKEN"
	EnvLogLevel = "YMIR_LOG_LEVEL"
)

// Config holds all configuration values.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
	Store    EffectConfig   `yaml:"store"`
	Gateway  EffectConfig   `yaml:"gateway"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Progress ProgressConfig `yaml:"progress"`
}

type APIConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
	// CacheEntries sizes the dataset and asset cache; 0 disables it.
	CacheEntries int64 `yaml:"cache_entries"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	BufferSize  int    `yaml:"buffer_size"`
}

// EffectConfig sizes one partitioned effect handler.
type EffectConfig struct {
	BufferSize int `yaml:"buffer_size"`
	NumWorkers int `yaml:"num_workers"`
}

type DatasetConfig struct {
	HotLimit int `yaml:"hot_limit"`
}

type ProgressConfig struct {
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		API: APIConfig{
			URL:          "http://localhost:8088/api/v1",
			Timeout:      30 * time.Second,
			CacheEntries: 1024,
		},
		Log: LogConfig{
			Level:      "info",
			BufferSize: 64,
		},
		Store:    EffectConfig{BufferSize: 8, NumWorkers: 4},
		Gateway:  EffectConfig{BufferSize: 8, NumWorkers: 4},
		Dataset:  DatasetConfig{HotLimit: 8},
		Progress: ProgressConfig{FlushInterval: time.Second},
	}
}

// Load reads path over the defaults, then applies the environment. An empty
// path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.API.URL = getEnv(EnvAPIURL, c.API.URL)
	c.API.Token = getEnv(EnvAPIToken, c.API.Token)
	c.Log.Level = getEnv(EnvLogLevel, c.Log.Level)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error
	if u, perr := url.Parse(c.API.URL); perr != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("api.url: %q is not an http(s) url", c.API.URL))
	}
	if c.API.Timeout < 0 {
		err = multierr.Append(err, errors.New("api.timeout: must not be negative"))
	}
	if c.API.CacheEntries < 0 {
		err = multierr.Append(err, errors.New("api.cache_entries: must not be negative"))
	}
	if _, perr := parseLevel(c.Log.Level); perr != nil {
		err = multierr.Append(err, fmt.Errorf("log.level: %w", perr))
	}
	err = multierr.Append(err, c.Store.validate("store"))
	err = multierr.Append(err, c.Gateway.validate("gateway"))
	if c.Dataset.HotLimit <= 0 {
		err = multierr.Append(err, errors.New("dataset.hot_limit: must be positive"))
	}
	if c.Progress.FlushInterval <= 0 {
		err = multierr.Append(err, errors.New("progress.flush_interval: must be positive"))
	}
	return err
}

func (e EffectConfig) validate(name string) error {
	var err error
	if e.BufferSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.buffer_size: must be positive", name))
	}
	if e.NumWorkers <= 0 {
		err = multierr.Append(err, fmt.Errorf("%s.num_workers: must be positive", name))
	}
	return err
}

// Bindings flattens the settings read through the binding effect.
func (c Config) Bindings() map[string]any {
	return map[string]any{
		configkeys.ConfigEffectStoreBufferSize:   c.Store.BufferSize,
		configkeys.ConfigEffectStoreNumWorkers:   c.Store.NumWorkers,
		configkeys.ConfigEffectGatewayBufferSize: c.Gateway.BufferSize,
		configkeys.ConfigEffectGatewayNumWorkers: c.Gateway.NumWorkers,
		configkeys.ConfigEffectLogBufferSize:     c.Log.BufferSize,
		configkeys.DatasetHotLimit:               c.Dataset.HotLimit,
		configkeys.ProgressFlushInterval:         c.Progress.FlushInterval,
	}
}
