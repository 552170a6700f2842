// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/postmaster/internal/config"
	"github.com/ManuGH/postmaster/internal/diagnostics"
)

func runConfigCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  postmaster config validate --file config.yaml")
	fmt.Fprintln(w, "  postmaster config dump [--file config.yaml] [--format=yaml|json]")
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("postmaster config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(file)
	if path == "" {
		fmt.Fprintln(stderr, "Error: --file is required")
		return 2
	}

	if _, err := config.NewLoader(path, version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", path)
	return 0
}

// effectiveConfig is the serialized form of a merged AppConfig.
type effectiveConfig struct {
	LogLevel         string `json:"log_level" yaml:"log_level"`
	LogService       string `json:"log_service" yaml:"log_service"`
	ListenAddr       string `json:"listen_addr" yaml:"listen_addr"`
	UpkeepInterval   string `json:"upkeep_interval" yaml:"upkeep_interval"`
	SnapshotPath     string `json:"snapshot_path,omitempty" yaml:"snapshot_path,omitempty"`
	SnapshotInterval string `json:"snapshot_interval" yaml:"snapshot_interval"`
	Bus              struct {
		ShowLogging  bool `json:"show_logging" yaml:"show_logging"`
		ShowWarnings bool `json:"show_warnings" yaml:"show_warnings"`
		ShowErrors   bool `json:"show_errors" yaml:"show_errors"`
	} `json:"bus" yaml:"bus"`
	RateLimit struct {
		Requests int    `json:"requests" yaml:"requests"`
		Window   string `json:"window" yaml:"window"`
	} `json:"rate_limit" yaml:"rate_limit"`
}

func toEffective(cfg config.AppConfig) effectiveConfig {
	var out effectiveConfig
	out.LogLevel = cfg.LogLevel
	out.LogService = cfg.LogService
	out.ListenAddr = cfg.ListenAddr
	out.UpkeepInterval = cfg.UpkeepInterval.String()
	out.SnapshotPath = cfg.SnapshotPath
	out.SnapshotInterval = cfg.SnapshotInterval.String()
	out.Bus.ShowLogging = cfg.Bus.ShowLogging
	out.Bus.ShowWarnings = cfg.Bus.ShowWarnings
	out.Bus.ShowErrors = cfg.Bus.ShowErrors
	out.RateLimit.Requests = cfg.RateLimit.Requests
	out.RateLimit.Window = cfg.RateLimit.Window.String()
	return out
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("postmaster config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(strings.TrimSpace(file), version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return 1
	}

	eff := toEffective(cfg)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(eff); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(eff); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		_ = enc.Close()
	default:
		fmt.Fprintf(stderr, "Unknown format: %s\n", format)
		return 2
	}
	return 0
}

func runStatsCLI(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("postmaster stats", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var asJSON bool
	fs.StringVar(&file, "file", config.ParseString(config.EnvSnapshotPath, ""), "path to a snapshot written by the host")
	fs.StringVar(&file, "f", config.ParseString(config.EnvSnapshotPath, ""), "path to a snapshot (shorthand)")
	fs.BoolVar(&asJSON, "json", false, "print the raw snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(file) == "" {
		fmt.Fprintf(stderr, "Error: --file is required (or set %s)\n", config.EnvSnapshotPath)
		return 2
	}

	snap, err := diagnostics.Load(file)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return 0
	}

	fmt.Fprintf(stdout, "generated %s, %d pending removal(s)\n\n", snap.GeneratedAt.Format("2006-01-02 15:04:05 MST"), snap.Pending)
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MESSAGE TYPE\tSENDS\tLISTENER CALLS\tSUBSCRIBERS\tPENDING")
	for _, g := range snap.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", g.Name, g.SendCount, g.ListenerCallCount, g.Subscribers, g.Pending)
	}
	_ = tw.Flush()
	return 0
}
