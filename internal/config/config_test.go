package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pressline/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")
	cfg, path, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("missing file should report exists=false")
	}
	if path != missing {
		t.Fatalf("expected resolved path %s, got %s", missing, path)
	}
	if cfg.Server.Bind != "127.0.0.1:7319" {
		t.Fatalf("default bind missing: %q", cfg.Server.Bind)
	}
	if cfg.Learning.RecomputeSchedule != "0 3 * * *" {
		t.Fatalf("default schedule missing: %q", cfg.Learning.RecomputeSchedule)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir should be expanded to absolute: %q", cfg.Paths.DataDir)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`[paths]`,
		`data_dir = "` + filepath.Join(dir, "data") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		``,
		`[server]`,
		`bind = "  127.0.0.1:0  "`,
		`api_token = "secret"`,
		``,
		`[workflow]`,
		`default_substages = [" Printing ", "CUTTING"]`,
		``,
		`[logging]`,
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	path := filepath.Join(dir, "pressline.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Server.Bind != "127.0.0.1:0" {
		t.Fatalf("bind not trimmed: %q", cfg.Server.Bind)
	}
	if cfg.Server.APIToken != "secret" {
		t.Fatalf("token not loaded: %q", cfg.Server.APIToken)
	}
	if cfg.Workflow.DefaultSubstages[0] != "printing" || cfg.Workflow.DefaultSubstages[1] != "cutting" {
		t.Fatalf("substages not normalized: %#v", cfg.Workflow.DefaultSubstages)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging config not loaded: %#v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty data dir", func(c *config.Config) { c.Paths.DataDir = "" }},
		{"empty log dir", func(c *config.Config) { c.Paths.LogDir = "" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "trace" }},
		{"bad schedule", func(c *config.Config) { c.Learning.RecomputeSchedule = "every tuesday" }},
		{"six field schedule", func(c *config.Config) { c.Learning.RecomputeSchedule = "0 0 3 * * *" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	cfg.Learning.RecomputeSchedule = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty schedule should validate: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	cfg, _, exists, err := config.Load(target)
	if err != nil {
		t.Fatalf("sample config must load cleanly: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Paths.DataDir == "" {
		t.Fatal("sample should populate paths")
	}

	if err := config.CreateSample(target); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "a", "data")
	cfg.Paths.LogDir = filepath.Join(dir, "b", "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, p := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", p, err)
		}
	}

	if got := cfg.RecomputeLockPath(); got != filepath.Join(cfg.Paths.DataDir, "recompute.lock") {
		t.Fatalf("unexpected lock path: %s", got)
	}
}
