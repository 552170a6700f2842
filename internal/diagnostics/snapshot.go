// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package diagnostics persists bus statistics for offline inspection.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

// SchemaVersion is written into every snapshot file.
const SchemaVersion = 1

// ErrEmptyPath is returned when a Writer is created without a destination.
var ErrEmptyPath = errors.New("snapshot path is required")

// Source provides bus statistics. *postmaster.Bus satisfies it.
type Source interface {
	Snapshot() []postmaster.Stats
	Pending() int
}

// Snapshot is the persisted document.
type Snapshot struct {
	Version     int                `json:"version"`
	GeneratedAt time.Time          `json:"generated_at"`
	Pending     int                `json:"pending"`
	Groups      []postmaster.Stats `json:"groups"`
}

// Writer writes snapshots of a Source to a file.
type Writer struct {
	source Source
	path   string
	now    func() time.Time
}

// NewWriter creates a writer for path.
func NewWriter(source Source, path string) (*Writer, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &Writer{source: source, path: filepath.Clean(path), now: time.Now}, nil
}

// Path returns the destination file.
func (w *Writer) Path() string {
	return w.path
}

// Write captures the source and replaces the file atomically.
func (w *Writer) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := xglog.WithComponent("diagnostics")

	snap := Snapshot{
		Version:     SchemaVersion,
		GeneratedAt: w.now().UTC(),
		Pending:     w.source.Pending(),
		Groups:      w.source.Snapshot(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(w.path)
	if err != nil {
		return fmt.Errorf("create pending snapshot file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending snapshot file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write snapshot data: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit snapshot file: %w", err)
	}

	logger.Debug().
		Str(xglog.FieldEvent, "diagnostics.snapshot_written").
		Str(xglog.FieldPath, w.path).
		Int("groups", len(snap.Groups)).
		Msg("bus snapshot written")
	return nil
}

// Load reads a snapshot file written by Writer.
func Load(path string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SchemaVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap, nil
}
