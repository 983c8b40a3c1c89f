// Package config assembles the service configuration from defaults, an
// optional config file, and environment overrides, in that order.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config is the resolved service configuration.
type Config struct {
	// Addr is the listen address for the HTTP API.
	Addr string `yaml:"addr" json:"addr"`

	// SearchTimeout bounds one full search pass across all sources.
	SearchTimeout time.Duration `yaml:"searchTimeout" json:"searchTimeout"`

	Fetch struct {
		// MaxAttempts includes the initial try.
		MaxAttempts   int           `yaml:"maxAttempts" json:"maxAttempts"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout"`
		RetryDelayMin time.Duration `yaml:"retryDelayMin" json:"retryDelayMin"`
		RetryDelayMax time.Duration `yaml:"retryDelayMax" json:"retryDelayMax"`
		// BlockMinBodyBytes treats shorter 200 responses as blocked.
		BlockMinBodyBytes int     `yaml:"blockMinBodyBytes" json:"blockMinBodyBytes"`
		PerHostRPS        float64 `yaml:"perHostRPS" json:"perHostRPS"`
		// UserAgents replaces the built-in browser identity pool when set.
		UserAgents []string `yaml:"userAgents" json:"userAgents"`
	} `yaml:"fetch" json:"fetch"`

	Log struct {
		// File enables rotating file output alongside the console.
		File       string `yaml:"file" json:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB" json:"maxSizeMB"`
		MaxBackups int    `yaml:"maxBackups" json:"maxBackups"`
		MaxAgeDays int    `yaml:"maxAgeDays" json:"maxAgeDays"`
		// Level is a zerolog level name: debug, info, warn, error.
		Level string `yaml:"level" json:"level"`
	} `yaml:"log" json:"log"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	var c Config
	c.Addr = ":8080"
	c.SearchTimeout = 30 * time.Second
	c.Fetch.MaxAttempts = 3
	c.Fetch.Timeout = 15 * time.Second
	c.Fetch.RetryDelayMin = time.Second
	c.Fetch.RetryDelayMax = 3 * time.Second
	c.Fetch.BlockMinBodyBytes = 1000
	c.Fetch.PerHostRPS = 1
	c.Log.MaxSizeMB = 20
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 14
	c.Log.Level = "info"
	return c
}

// LoadFile merges a YAML or JSON config file over cfg.
func LoadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	default:
		if yerr := yaml.Unmarshal(b, cfg); yerr != nil {
			if jerr := json.Unmarshal(b, cfg); jerr != nil {
				return fmt.Errorf("parse config: %v (yaml) / %v (json)", yerr, jerr)
			}
		}
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. Unset variables leave the
// current value alone.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv("COSMOSCOUT_ADDR"); v != "" {
		cfg.Addr = v
	}
	if err := envDuration("COSMOSCOUT_SEARCH_TIMEOUT", &cfg.SearchTimeout); err != nil {
		return err
	}
	if err := envInt("COSMOSCOUT_FETCH_MAX_ATTEMPTS", &cfg.Fetch.MaxAttempts); err != nil {
		return err
	}
	if err := envDuration("COSMOSCOUT_FETCH_TIMEOUT", &cfg.Fetch.Timeout); err != nil {
		return err
	}
	if err := envDuration("COSMOSCOUT_FETCH_RETRY_DELAY_MIN", &cfg.Fetch.RetryDelayMin); err != nil {
		return err
	}
	if err := envDuration("COSMOSCOUT_FETCH_RETRY_DELAY_MAX", &cfg.Fetch.RetryDelayMax); err != nil {
		return err
	}
	if err := envInt("COSMOSCOUT_FETCH_BLOCK_MIN_BODY_BYTES", &cfg.Fetch.BlockMinBodyBytes); err != nil {
		return err
	}
	if v := os.Getenv("COSMOSCOUT_FETCH_PER_HOST_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("COSMOSCOUT_FETCH_PER_HOST_RPS: %w", err)
		}
		cfg.Fetch.PerHostRPS = f
	}
	if v := os.Getenv("COSMOSCOUT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("COSMOSCOUT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("searchTimeout must be positive")
	}
	if c.Fetch.MaxAttempts < 1 {
		return fmt.Errorf("fetch.maxAttempts must be at least 1")
	}
	if c.Fetch.RetryDelayMax < c.Fetch.RetryDelayMin {
		return fmt.Errorf("fetch.retryDelayMax must not be below fetch.retryDelayMin")
	}
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
