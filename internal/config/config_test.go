package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFileYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := []byte("addr: \":9090\"\nfetch:\n  maxAttempts: 5\n  perHostRPS: 0.5\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Fetch.MaxAttempts != 5 {
		t.Errorf("maxAttempts = %d", cfg.Fetch.MaxAttempts)
	}
	if cfg.Fetch.PerHostRPS != 0.5 {
		t.Errorf("perHostRPS = %v", cfg.Fetch.PerHostRPS)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	// untouched fields keep their defaults
	if cfg.SearchTimeout != 30*time.Second {
		t.Errorf("searchTimeout = %v", cfg.SearchTimeout)
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	if err := os.WriteFile(path, []byte(`{"addr": ":7070"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q", cfg.Addr)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("COSMOSCOUT_ADDR", ":6060")
	t.Setenv("COSMOSCOUT_SEARCH_TIMEOUT", "45s")
	t.Setenv("COSMOSCOUT_FETCH_MAX_ATTEMPTS", "4")
	t.Setenv("COSMOSCOUT_LOG_LEVEL", "warn")

	cfg := Default()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr != ":6060" || cfg.SearchTimeout != 45*time.Second || cfg.Fetch.MaxAttempts != 4 || cfg.Log.Level != "warn" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	t.Setenv("COSMOSCOUT_SEARCH_TIMEOUT", "soon")
	cfg := Default()
	if err := ApplyEnv(&cfg); err == nil {
		t.Fatal("expected an error for an unparseable duration")
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Addr = "" },
		func(c *Config) { c.SearchTimeout = 0 },
		func(c *Config) { c.Fetch.MaxAttempts = 0 },
		func(c *Config) { c.Fetch.RetryDelayMin = 5 * time.Second; c.Fetch.RetryDelayMax = time.Second },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected a validation error", i)
		}
	}
}
