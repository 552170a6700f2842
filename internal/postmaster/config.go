// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

// Config controls how chatty the bus is. It never changes delivery.
type Config struct {
	// ShowLogging emits info lines for subscriptions, sends and upkeep passes.
	ShowLogging bool `yaml:"show_logging" json:"show_logging"`
	// ShowWarnings reports misuse such as releasing a foreign handle.
	ShowWarnings bool `yaml:"show_warnings" json:"show_warnings"`
	// ShowErrors reports subscriber list desynchronization found by Upkeep.
	ShowErrors bool `yaml:"show_errors" json:"show_errors"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		ShowLogging:  false,
		ShowWarnings: true,
		ShowErrors:   true,
	}
}
