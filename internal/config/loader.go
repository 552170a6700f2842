// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/postmaster/internal/postmaster"
)

// Environment keys.
const (
	EnvLogLevel         = "POSTMASTER_LOG_LEVEL"
	EnvLogService       = "POSTMASTER_LOG_SERVICE"
	EnvListenAddr       = "POSTMASTER_LISTEN_ADDR"
	EnvUpkeepInterval   = "POSTMASTER_UPKEEP_INTERVAL"
	EnvSnapshotPath     = "POSTMASTER_SNAPSHOT_PATH"
	EnvSnapshotInterval = "POSTMASTER_SNAPSHOT_INTERVAL"
	EnvShowLogging      = "POSTMASTER_BUS_SHOW_LOGGING"
	EnvShowWarnings     = "POSTMASTER_BUS_SHOW_WARNINGS"
	EnvShowErrors       = "POSTMASTER_BUS_SHOW_ERRORS"
	EnvRateRequests     = "POSTMASTER_RATE_LIMIT_REQUESTS"
	EnvRateWindow       = "POSTMASTER_RATE_LIMIT_WINDOW"

	// EnvConfigPath is read by the host when -config is not given.
	EnvConfigPath = "POSTMASTER_CONFIG"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

// Path returns the config file path, empty for ENV-only configuration.
func (l *Loader) Path() string {
	return l.configPath
}

// Load loads configuration with precedence: ENV > File > Defaults
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:         "info",
		LogService:       "postmaster",
		ListenAddr:       DefaultListenAddr,
		UpkeepInterval:   DefaultUpkeepInterval,
		SnapshotInterval: DefaultSnapshotInterval,
		Bus:              postmaster.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Requests: DefaultRateRequests,
			Window:   DefaultRateWindow,
		},
	}
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, src *FileConfig) error {
	if src == nil {
		return nil
	}
	if src.LogLevel != "" {
		cfg.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		cfg.LogService = src.LogService
	}
	if src.ListenAddr != nil {
		cfg.ListenAddr = *src.ListenAddr
	}
	if src.SnapshotPath != nil {
		cfg.SnapshotPath = *src.SnapshotPath
	}

	var err error
	if cfg.UpkeepInterval, err = parseFileDuration("upkeep_interval", src.UpkeepInterval, cfg.UpkeepInterval); err != nil {
		return err
	}
	if cfg.SnapshotInterval, err = parseFileDuration("snapshot_interval", src.SnapshotInterval, cfg.SnapshotInterval); err != nil {
		return err
	}
	if cfg.RateLimit.Window, err = parseFileDuration("rate_limit.window", src.RateLimit.Window, cfg.RateLimit.Window); err != nil {
		return err
	}
	if src.RateLimit.Requests != nil {
		cfg.RateLimit.Requests = *src.RateLimit.Requests
	}

	if src.Bus.ShowLogging != nil {
		cfg.Bus.ShowLogging = *src.Bus.ShowLogging
	}
	if src.Bus.ShowWarnings != nil {
		cfg.Bus.ShowWarnings = *src.Bus.ShowWarnings
	}
	if src.Bus.ShowErrors != nil {
		cfg.Bus.ShowErrors = *src.Bus.ShowErrors
	}
	return nil
}

func parseFileDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.ListenAddr = l.envString(EnvListenAddr, cfg.ListenAddr)
	cfg.UpkeepInterval = l.envDuration(EnvUpkeepInterval, cfg.UpkeepInterval)
	cfg.SnapshotPath = l.envString(EnvSnapshotPath, cfg.SnapshotPath)
	cfg.SnapshotInterval = l.envDuration(EnvSnapshotInterval, cfg.SnapshotInterval)
	cfg.Bus.ShowLogging = l.envBool(EnvShowLogging, cfg.Bus.ShowLogging)
	cfg.Bus.ShowWarnings = l.envBool(EnvShowWarnings, cfg.Bus.ShowWarnings)
	cfg.Bus.ShowErrors = l.envBool(EnvShowErrors, cfg.Bus.ShowErrors)
	cfg.RateLimit.Requests = l.envInt(EnvRateRequests, cfg.RateLimit.Requests)
	cfg.RateLimit.Window = l.envDuration(EnvRateWindow, cfg.RateLimit.Window)
}
