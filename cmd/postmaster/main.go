// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/postmaster/internal/config"
	xglog "github.com/ManuGH/postmaster/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:], os.Stdout, os.Stderr))
		case "stats":
			os.Exit(runStatsCLI(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Safe defaults until the config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "postmaster",
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = config.ParseString(config.EnvConfigPath, "")
	}

	// ENV > File > Defaults
	loader := config.NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str(xglog.FieldPath, path).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(xglog.FieldPath, path).
		Msg("configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, loader); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("postmaster host exited with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("postmaster host stopped")
}
