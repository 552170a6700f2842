// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package inspect exposes a live view of the message bus: one row per
// catalog variant with its counters and a short-lived activity indicator,
// plus manual dispatch of zero-valued messages.
package inspect

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

// DefaultFadeTime is how long a row stays highlighted after a send.
const DefaultFadeTime = time.Second

// Row is the serialized state of one variant.
type Row struct {
	Tag         message.Tag `json:"tag"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	MessageType string      `json:"message_type"`
	// Activity is 1 right after a send and decays to 0 over the fade time.
	Activity          float64 `json:"activity"`
	SendCount         uint64  `json:"send_count"`
	ListenerCallCount uint64  `json:"listener_call_count"`
	Subscribers       int     `json:"subscribers"`
	// Found is false until the bus has a group for the type.
	Found bool `json:"found"`
}

type entry struct {
	catalog  message.Entry
	msgType  postmaster.MessageType
	sub      *postmaster.Subscription
	activity time.Duration
}

// Window tracks every visible catalog variant on a bus.
type Window struct {
	bus      *postmaster.Bus
	catalog  *message.Catalog
	fadeTime time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	entries []*entry
	repaint bool
	closed  bool
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithFadeTime overrides DefaultFadeTime.
func WithFadeTime(d time.Duration) WindowOption {
	return func(w *Window) {
		if d > 0 {
			w.fadeTime = d
		}
	}
}

// NewWindow subscribes to every visible variant of catalog on bus.
// The subscriptions count toward the bus's listener totals like any other.
func NewWindow(bus *postmaster.Bus, catalog *message.Catalog, opts ...WindowOption) *Window {
	w := &Window{
		bus:      bus,
		catalog:  catalog,
		fadeTime: DefaultFadeTime,
		logger:   xglog.WithComponent("inspect"),
	}
	for _, opt := range opts {
		opt(w)
	}

	visible := catalog.Visible()
	w.entries = make([]*entry, 0, len(visible))
	for _, ce := range visible {
		e := &entry{catalog: ce, msgType: postmaster.TypeFor(ce.Type)}
		e.sub = bus.SubscribeType(e.msgType, func(message.Message) {
			w.highlight(e)
		})
		w.entries = append(w.entries, e)
	}

	w.logger.Debug().
		Str(xglog.FieldEvent, "inspect.window.open").
		Int("variants", len(w.entries)).
		Msg("inspection window opened")
	return w
}

func (w *Window) highlight(e *entry) {
	w.mu.Lock()
	e.activity = w.fadeTime
	w.repaint = true
	w.mu.Unlock()
}

// Update advances the activity fade by dt.
func (w *Window) Update(dt time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entries {
		if e.activity <= 0 {
			continue
		}
		e.activity -= dt
		if e.activity < 0 {
			e.activity = 0
		}
		w.repaint = true
	}
}

// NeedsRepaint reports and clears the pending repaint request.
func (w *Window) NeedsRepaint() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	r := w.repaint
	w.repaint = false
	return r
}

// Rows returns the current state of every tracked variant in catalog order.
func (w *Window) Rows() []Row {
	w.mu.Lock()
	rows := make([]Row, 0, len(w.entries))
	for _, e := range w.entries {
		rows = append(rows, Row{
			Tag:         e.catalog.Tag,
			Name:        e.catalog.DisplayName(),
			Description: e.catalog.Metadata.Description,
			MessageType: e.msgType.String(),
			Activity:    float64(e.activity) / float64(w.fadeTime),
		})
	}
	entries := w.entries
	w.mu.Unlock()

	for i, e := range entries {
		stats, ok := w.bus.Lookup(e.msgType)
		if !ok {
			continue
		}
		rows[i].Found = true
		rows[i].SendCount = stats.SendCount
		rows[i].ListenerCallCount = stats.ListenerCallCount
		rows[i].Subscribers = stats.Subscribers
	}
	return rows
}

// Dispatch sends a zero value of the variant registered under tag.
func (w *Window) Dispatch(tag message.Tag) error {
	ce, ok := w.catalog.Lookup(tag)
	if !ok {
		return fmt.Errorf("dispatch %q: %w", tag, ErrUnknownMessage)
	}
	if err := w.bus.SendAs(postmaster.TypeFor(ce.Type), ce.New()); err != nil {
		return fmt.Errorf("dispatch %q: %w", tag, err)
	}

	w.logger.Info().
		Str(xglog.FieldEvent, "inspect.dispatch").
		Str(xglog.FieldMessageTag, string(tag)).
		Msg("manual dispatch")
	return nil
}

// Close releases every subscription held by the window. It is idempotent.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	entries := w.entries
	w.mu.Unlock()

	for _, e := range entries {
		e.sub.Release()
	}
}
