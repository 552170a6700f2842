// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/postmaster/internal/postmaster"
)

// AppConfig is the fully merged host configuration.
type AppConfig struct {
	Version    string
	LogLevel   string
	LogService string

	// ListenAddr serves the inspection API and metrics. Empty disables HTTP.
	ListenAddr string

	// UpkeepInterval is the host tick that drains released subscriptions.
	UpkeepInterval time.Duration

	// SnapshotPath receives periodic JSON bus statistics. Empty disables it.
	SnapshotPath     string
	SnapshotInterval time.Duration

	Bus       postmaster.Config
	RateLimit RateLimitConfig
}

// RateLimitConfig bounds requests to the inspection API per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// FileConfig mirrors the YAML file. Pointer fields distinguish "unset" from
// zero values so the file only overrides what it names.
type FileConfig struct {
	LogLevel         string        `yaml:"log_level,omitempty"`
	LogService       string        `yaml:"log_service,omitempty"`
	ListenAddr       *string       `yaml:"listen_addr,omitempty"`
	UpkeepInterval   string        `yaml:"upkeep_interval,omitempty"`
	SnapshotPath     *string       `yaml:"snapshot_path,omitempty"`
	SnapshotInterval string        `yaml:"snapshot_interval,omitempty"`
	Bus              BusFileConfig `yaml:"bus,omitempty"`
	RateLimit        RateLimitFile `yaml:"rate_limit,omitempty"`
}

// BusFileConfig holds the bus reporting flags.
type BusFileConfig struct {
	ShowLogging  *bool `yaml:"show_logging,omitempty"`
	ShowWarnings *bool `yaml:"show_warnings,omitempty"`
	ShowErrors   *bool `yaml:"show_errors,omitempty"`
}

// RateLimitFile holds the inspection API limiter settings.
type RateLimitFile struct {
	Requests *int   `yaml:"requests,omitempty"`
	Window   string `yaml:"window,omitempty"`
}

// Defaults.
const (
	DefaultListenAddr       = ":8089"
	DefaultUpkeepInterval   = 100 * time.Millisecond
	DefaultSnapshotInterval = 30 * time.Second
	DefaultRateRequests     = 600
	DefaultRateWindow       = time.Minute
)
