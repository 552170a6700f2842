// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/postmaster/internal/postmaster"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v1.2.3"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, postmaster.DefaultConfig(), cfg.Bus)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
log_level: debug
listen_addr: ""
upkeep_interval: 250ms
snapshot_path: /tmp/postmaster-stats.json
snapshot_interval: 5s
bus:
  show_logging: true
  show_errors: false
rate_limit:
  requests: 10
  window: 30s
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "", cfg.ListenAddr, "explicit empty listen_addr disables HTTP")
	assert.Equal(t, 250*time.Millisecond, cfg.UpkeepInterval)
	assert.Equal(t, "/tmp/postmaster-stats.json", cfg.SnapshotPath)
	assert.Equal(t, 5*time.Second, cfg.SnapshotInterval)
	assert.Equal(t, postmaster.Config{ShowLogging: true, ShowWarnings: true, ShowErrors: false}, cfg.Bus)
	assert.Equal(t, RateLimitConfig{Requests: 10, Window: 30 * time.Second}, cfg.RateLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.yml", "upkeep_interval: 1s\nbus:\n  show_warnings: true\n")
	t.Setenv(EnvUpkeepInterval, "50ms")
	t.Setenv(EnvShowWarnings, "no")
	t.Setenv(EnvShowLogging, "1")
	t.Setenv(EnvListenAddr, "127.0.0.1:9999")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.UpkeepInterval)
	assert.False(t, cfg.Bus.ShowWarnings)
	assert.True(t, cfg.Bus.ShowLogging)
	assert.Equal(t, "127.0.0.1:9999", cfg.ListenAddr)
	assert.Contains(t, l.ConsumedEnvKeys, EnvUpkeepInterval)
	assert.Contains(t, l.ConsumedEnvKeys, EnvRateWindow)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv(EnvUpkeepInterval, "soon")
	t.Setenv(EnvShowErrors, "maybe")
	t.Setenv(EnvRateRequests, "many")

	cfg, err := NewLoader("", "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultUpkeepInterval, cfg.UpkeepInterval)
	assert.True(t, cfg.Bus.ShowErrors)
	assert.Equal(t, DefaultRateRequests, cfg.RateLimit.Requests)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "config.yaml", "bus:\n  show_everything: true\n")

	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField))
}

func TestLoad_FileErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "wrong extension", file: "config.json", body: "{}"},
		{name: "bad duration", file: "config.yaml", body: "upkeep_interval: often\n"},
		{name: "multiple documents", file: "config.yaml", body: "log_level: info\n---\nlog_level: debug\n"},
		{name: "bad yaml", file: "config.yaml", body: "bus: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := NewLoader(path, "").Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultUpkeepInterval, cfg.UpkeepInterval)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))

	cfg.LogLevel = "loud"
	cfg.UpkeepInterval = 0
	cfg.SnapshotPath = "/tmp/x.json"
	cfg.SnapshotInterval = 0
	cfg.RateLimit.Requests = 0

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, key := range []string{"log_level", "upkeep_interval", "snapshot_interval", "rate_limit.requests"} {
		assert.Contains(t, err.Error(), key)
	}

	// Rate limits only matter when HTTP is enabled.
	cfg = Defaults()
	cfg.ListenAddr = ""
	cfg.RateLimit = RateLimitConfig{}
	require.NoError(t, Validate(cfg))
}

func TestLoadFileConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", "bus:\n  show_logging: false\n")
	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	require.NotNil(t, fc.Bus.ShowLogging)
	assert.False(t, *fc.Bus.ShowLogging)
	assert.Nil(t, fc.Bus.ShowErrors)
}
