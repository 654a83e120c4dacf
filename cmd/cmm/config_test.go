package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(envConfigPath, "/tmp/custom.yaml")
	if got := configPath(); got != "/tmp/custom.yaml" {
		t.Fatalf("configPath mismatch: got %q want %q", got, "/tmp/custom.yaml")
	}
}

func TestLoadConfigMissing(t *testing.T) {
	t.Setenv(envConfigPath, filepath.Join(t.TempDir(), "absent.yaml"))
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Format != "" || cfg.Limit != nil || cfg.Mmap != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "format: json\nlimit: 5\nmmap: true\nlog_level: debug\nlog_format: text\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envConfigPath, path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Format != "json" || cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Fatalf("string fields mismatch: got %+v", cfg)
	}
	if cfg.Limit == nil || *cfg.Limit != 5 {
		t.Fatalf("limit mismatch: got %v want 5", cfg.Limit)
	}
	if cfg.Mmap == nil || !*cfg.Mmap {
		t.Fatalf("mmap mismatch: got %v want true", cfg.Mmap)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("limit: [1, 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envConfigPath, path)
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestApplyOutputConfig(t *testing.T) {
	limit := 7
	cfg := Config{Format: "msgpack", Limit: &limit}

	var (
		format = "text"
		n      int
	)
	applyOutputConfig(func(string) bool { return false }, cfg, &format, &n)
	if format != "msgpack" {
		t.Fatalf("format mismatch: got %q want %q", format, "msgpack")
	}
	if n != 7 {
		t.Fatalf("limit mismatch: got %d want 7", n)
	}

	format, n = "json", 1
	applyOutputConfig(func(name string) bool { return name == "format" }, cfg, &format, &n)
	if format != "json" {
		t.Fatalf("explicit format overridden: got %q want %q", format, "json")
	}
	if n != 7 {
		t.Fatalf("limit mismatch: got %d want 7", n)
	}
}
