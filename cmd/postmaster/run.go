// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/postmaster/internal/config"
	"github.com/ManuGH/postmaster/internal/demo"
	"github.com/ManuGH/postmaster/internal/diagnostics"
	"github.com/ManuGH/postmaster/internal/health"
	"github.com/ManuGH/postmaster/internal/inspect"
	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
	"github.com/ManuGH/postmaster/internal/upkeep"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second

	// pendingThreshold is the removal backlog that marks the host degraded.
	pendingThreshold = 1024
)

// tickStallAfter is how long the upkeep loop may go silent before the
// readiness probe fails.
func tickStallAfter(interval time.Duration) time.Duration {
	return max(10*interval, 5*time.Second)
}

// run owns the bus for the life of ctx: upkeep loop, config reloads and the
// inspection server all stop when ctx is cancelled.
func run(ctx context.Context, cfg config.AppConfig, loader *config.Loader) error {
	logger := xglog.WithComponent("daemon")

	bus := postmaster.New(postmaster.WithConfig(cfg.Bus))
	if err := postmaster.Claim(bus); err != nil {
		return fmt.Errorf("claim bus: %w", err)
	}
	defer postmaster.Unclaim(bus)
	defer bus.Close()

	component := demo.New(bus, nil)
	defer component.Close()

	window := inspect.NewWindow(bus, message.Default)
	defer window.Close()

	opts := []upkeep.Option{upkeep.WithTick(window.Update)}
	if cfg.SnapshotPath != "" {
		writer, err := diagnostics.NewWriter(bus, cfg.SnapshotPath)
		if err != nil {
			return fmt.Errorf("snapshot writer: %w", err)
		}
		opts = append(opts, upkeep.WithSnapshots(writer, cfg.SnapshotInterval))
	}
	worker := upkeep.NewWorker(bus, cfg.UpkeepInterval, opts...)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewPendingChecker(bus, pendingThreshold))
	hm.RegisterChecker(health.NewTickChecker(worker.LastTick, tickStallAfter(cfg.UpkeepInterval)))

	holder := config.NewHolder(cfg, loader)

	g, ctx := errgroup.WithContext(ctx)

	// Watcher is best-effort: startup does not fail if it cannot be started.
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Str(xglog.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
	}
	defer holder.Stop()

	applyCh := make(chan config.AppConfig, 1)
	holder.RegisterListener(applyCh)
	g.Go(func() error {
		current := cfg
		for {
			select {
			case <-ctx.Done():
				return nil
			case next := <-applyCh:
				applyConfig(logger, bus, current, next)
				current = next
			}
		}
	})

	if loader.Path() != "" {
		g.Go(func() error {
			return reloadOnSignal(ctx, logger, holder)
		})
	}

	g.Go(func() error {
		worker.Start(ctx)
		return nil
	})

	if cfg.ListenAddr != "" {
		srv := &http.Server{
			Addr: cfg.ListenAddr,
			Handler: inspect.NewRouter(window, hm, inspect.RateLimitConfig{
				Requests: cfg.RateLimit.Requests,
				Window:   cfg.RateLimit.Window,
			}),
			ReadHeaderTimeout: readHeaderTimeout,
		}
		g.Go(func() error {
			logger.Info().
				Str(xglog.FieldEvent, "http.listening").
				Str(xglog.FieldListenAddr, cfg.ListenAddr).
				Msg("inspection server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("inspection server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info().
		Str(xglog.FieldEvent, "daemon.started").
		Int("variants", message.Default.Len()).
		Dur("upkeep_interval", cfg.UpkeepInterval).
		Msg("postmaster host started")

	return g.Wait()
}

// applyConfig pushes reloadable settings into running components. The
// listen address and upkeep interval only take effect on restart.
func applyConfig(logger zerolog.Logger, bus *postmaster.Bus, old, next config.AppConfig) {
	bus.Configure(next.Bus)

	if old.LogLevel != next.LogLevel || old.LogService != next.LogService {
		xglog.Configure(xglog.Config{
			Level:   next.LogLevel,
			Service: next.LogService,
			Version: next.Version,
		})
	}
	if old.ListenAddr != next.ListenAddr || old.UpkeepInterval != next.UpkeepInterval {
		logger.Warn().
			Str(xglog.FieldEvent, "config.restart_required").
			Msg("listen_addr and upkeep_interval changes apply after restart")
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.applied").
		Bool("show_logging", next.Bus.ShowLogging).
		Bool("show_warnings", next.Bus.ShowWarnings).
		Bool("show_errors", next.Bus.ShowErrors).
		Msg("applied reloaded configuration")
}

func reloadOnSignal(ctx context.Context, logger zerolog.Logger, holder *config.Holder) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			logger.Info().
				Str(xglog.FieldEvent, "config.reload_signal").
				Msg("received SIGHUP, reloading config")
			if err := holder.Reload(ctx); err != nil {
				logger.Warn().
					Err(err).
					Str(xglog.FieldEvent, "config.reload_failed").
					Msg("config reload failed")
			}
		}
	}
}
