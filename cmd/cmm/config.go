package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/cmm/internal/logger"
)

const envConfigPath = "CMM_CONFIG"

// Config is the optional ~/.config/cmm/config.yaml. Values only apply when
// the matching flag was not given on the command line.
type Config struct {
	Format    string `yaml:"format"`
	Limit     *int   `yaml:"limit"`
	Mmap      *bool  `yaml:"mmap"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// appConfig is loaded once by setup.
var appConfig Config

func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "cmm", "config.yaml")
}

// LoadConfig reads the config file. A missing file yields a zero Config.
func LoadConfig() (Config, error) {
	path := configPath()
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	} else if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig fills root flags from the config file.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.Mmap != nil && !c.IsSet("mmap") {
		useMmap = *cfg.Mmap
	}
}

// applyOutputConfig fills per-command output flags from the config file.
// isSet is normally the command's IsSet method.
func applyOutputConfig(isSet func(string) bool, cfg Config, format *string, limit *int) {
	if format != nil && cfg.Format != "" && !isSet("format") {
		*format = cfg.Format
	}
	if limit != nil && cfg.Limit != nil && !isSet("limit") {
		*limit = *cfg.Limit
	}
}

// setup runs before every command: it loads the config and installs the
// logger in the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: load config: %v", err), 1)
	}
	appConfig = cfg
	applyGlobalConfig(cmd, cfg)

	log, err := logger.FromFlags(os.Stderr, logFormat, logLevel, debug)
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return logger.WithContext(ctx, log), nil
}
