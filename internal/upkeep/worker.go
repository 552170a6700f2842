// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package upkeep drives the host tick that drains released subscriptions.
package upkeep

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

// Upkeeper is the bus surface the worker needs.
type Upkeeper interface {
	Upkeep() postmaster.UpkeepResult
}

// SnapshotWriter persists bus statistics.
type SnapshotWriter interface {
	Write(ctx context.Context) error
}

// TickFunc runs on every tick before Upkeep, e.g. to advance inspection
// activity indicators by the elapsed time.
type TickFunc func(dt time.Duration)

// Worker manages the periodic upkeep loop.
type Worker struct {
	bus      Upkeeper
	interval time.Duration
	logger   zerolog.Logger

	snapshots     SnapshotWriter
	snapshotEvery time.Duration
	lastSnapshot  time.Time

	onTick   []TickFunc
	last     time.Time
	lastTick atomic.Int64
	busy     atomic.Bool
	now      func() time.Time
}

// Option configures a Worker.
type Option func(*Worker)

// WithSnapshots writes a snapshot at most once per every.
func WithSnapshots(w SnapshotWriter, every time.Duration) Option {
	return func(wk *Worker) {
		wk.snapshots = w
		wk.snapshotEvery = every
	}
}

// WithTick registers fn to run on every tick.
func WithTick(fn TickFunc) Option {
	return func(wk *Worker) {
		if fn != nil {
			wk.onTick = append(wk.onTick, fn)
		}
	}
}

// NewWorker creates a new upkeep worker.
func NewWorker(bus Upkeeper, interval time.Duration, opts ...Option) *Worker {
	w := &Worker{
		bus:      bus,
		interval: interval,
		logger:   xglog.WithComponent("upkeep"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the upkeep loop. It blocks until context is canceled and
// runs one final pass on the way out so released handles do not linger.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().
		Str(xglog.FieldEvent, "upkeep.started").
		Dur("interval", w.interval).
		Msg("upkeep loop started")

	for {
		select {
		case <-ctx.Done():
			w.Tick(context.WithoutCancel(ctx))
			w.logger.Info().Str(xglog.FieldEvent, "upkeep.stopped").Msg("upkeep loop stopped")
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one pass unless another one is in progress. It reports whether
// the pass ran.
func (w *Worker) Tick(ctx context.Context) bool {
	if !w.busy.CompareAndSwap(false, true) {
		return false
	}
	defer w.busy.Store(false)

	now := w.now()
	if !w.last.IsZero() {
		dt := now.Sub(w.last)
		for _, fn := range w.onTick {
			fn(dt)
		}
	}
	w.last = now
	w.lastTick.Store(now.UnixNano())

	res := w.bus.Upkeep()
	if res.Desynced > 0 {
		w.logger.Warn().
			Str(xglog.FieldEvent, "upkeep.desync").
			Int(xglog.FieldRemoved, res.Removed).
			Int(xglog.FieldDesynced, res.Desynced).
			Msg("upkeep found subscriptions out of sync")
	} else if res.Removed > 0 {
		w.logger.Debug().
			Str(xglog.FieldEvent, "upkeep.pass").
			Int(xglog.FieldRemoved, res.Removed).
			Msg("upkeep removed subscriptions")
	}

	w.maybeSnapshot(ctx, now)
	return true
}

// LastTick returns when the last pass ran, zero before the first one.
func (w *Worker) LastTick() time.Time {
	n := w.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (w *Worker) maybeSnapshot(ctx context.Context, now time.Time) {
	if w.snapshots == nil {
		return
	}
	if !w.lastSnapshot.IsZero() && now.Sub(w.lastSnapshot) < w.snapshotEvery {
		return
	}
	if err := w.snapshots.Write(ctx); err != nil {
		w.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "upkeep.snapshot_failed").
			Msg("failed to write bus snapshot")
		return
	}
	w.lastSnapshot = now
}
