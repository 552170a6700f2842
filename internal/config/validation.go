// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Validate checks the merged configuration. All problems are reported at once.
func Validate(cfg AppConfig) error {
	var errs []error

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: %w", cfg.LogLevel, err))
	}
	if cfg.UpkeepInterval <= 0 {
		errs = append(errs, fmt.Errorf("upkeep_interval must be positive, got %s", cfg.UpkeepInterval))
	}
	if cfg.SnapshotPath != "" && cfg.SnapshotInterval <= 0 {
		errs = append(errs, fmt.Errorf("snapshot_interval must be positive when snapshot_path is set, got %s", cfg.SnapshotInterval))
	}
	if cfg.ListenAddr != "" {
		if cfg.RateLimit.Requests <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests must be positive, got %d", cfg.RateLimit.Requests))
		}
		if cfg.RateLimit.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", cfg.RateLimit.Window))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
