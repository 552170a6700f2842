// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/metrics"
)

// Bus routes messages from senders to the subscriptions registered for the
// message's type.
type Bus struct {
	mu      sync.Mutex
	groups  map[MessageType]*group
	pending map[*Subscription]struct{}
	cfg     Config
	logger  zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithConfig sets the initial configuration.
func WithConfig(cfg Config) Option {
	return func(b *Bus) {
		b.cfg = cfg
	}
}

// WithLogger sets the logger used for bus diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bus) {
		b.logger = l
	}
}

// New creates an empty bus using DefaultConfig.
func New(opts ...Option) *Bus {
	b := &Bus{
		groups:  make(map[MessageType]*group),
		pending: make(map[*Subscription]struct{}),
		cfg:     DefaultConfig(),
		logger:  xglog.WithComponent("postmaster"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Configure replaces the configuration. It may be called at any time.
func (b *Bus) Configure(cfg Config) {
	b.mu.Lock()
	b.cfg = cfg
	b.mu.Unlock()
}

// Config returns the current configuration.
func (b *Bus) Config() Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Subscribe registers fn for messages of type T.
func Subscribe[T message.Message](b *Bus, fn func(T)) *Subscription {
	var cb Callback
	if fn != nil {
		cb = func(msg message.Message) {
			v, ok := msg.(T)
			if !ok && msg != nil {
				b.logger.Error().
					Str(xglog.FieldEvent, "bus.type_mismatch").
					Str(xglog.FieldMessageType, TypeOf[T]().String()).
					Str("payload_type", describe(msg)).
					Msg("dropping message routed to a subscriber of another type")
				return
			}
			fn(v)
		}
	}
	return b.SubscribeType(TypeOf[T](), cb)
}

// SubscribeType registers cb for messages routed as mt. It always succeeds;
// a nil cb yields a handle that is counted as a subscriber but does nothing.
func (b *Bus) SubscribeType(mt MessageType, cb Callback) *Subscription {
	if cb == nil {
		cb = func(message.Message) {}
	}
	s := &Subscription{
		id:       uuid.NewString(),
		msgType:  mt,
		bus:      b,
		callback: cb,
	}
	s.state.Store(int32(StateActive))

	b.mu.Lock()
	g, ok := b.groups[mt]
	if !ok {
		g = &group{msgType: mt}
		b.groups[mt] = g
	}
	g.subs = append(g.subs, s)
	showLogging := b.cfg.ShowLogging
	b.mu.Unlock()

	if showLogging {
		b.logger.Info().
			Str(xglog.FieldEvent, "bus.subscribed").
			Str(xglog.FieldMessageType, mt.String()).
			Str(xglog.FieldSubscription, s.id).
			Msg("subscription registered")
	}
	return s
}

// Unsubscribe queues s for removal on the next Upkeep and clears its
// callback. The subscriber list itself is not touched, so this is safe to
// call from inside a callback. Repeated calls are no-ops.
func (b *Bus) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.bus != b {
		if b.cfg.ShowWarnings {
			b.logger.Warn().
				Str(xglog.FieldEvent, "bus.foreign_release").
				Str(xglog.FieldSubscription, s.id).
				Str(xglog.FieldMessageType, s.msgType.String()).
				Msg("ignoring release of a subscription owned by another bus")
		}
		return
	}
	if !s.state.CompareAndSwap(int32(StateActive), int32(StatePendingRemoval)) {
		return
	}
	s.callback = nil
	b.pending[s] = struct{}{}
	metrics.IncReleased()
	metrics.AddPending(1)
}

// Upkeep removes every released subscription from its group. Hosts call it
// once per tick, outside of any dispatch. Pending entries that cannot be
// found are reported as desynchronization and dropped; the pending set is
// always emptied.
func (b *Bus) Upkeep() UpkeepResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var res UpkeepResult
	if len(b.pending) == 0 {
		return res
	}

	total := len(b.pending)
	if b.cfg.ShowLogging {
		b.logger.Info().
			Str(xglog.FieldEvent, "bus.upkeep").
			Int(xglog.FieldPending, total).
			Msgf("removing %d subscriptions", total)
	}

	touched := make(map[*group]struct{})
	for s := range b.pending {
		if g, ok := b.groups[s.msgType]; ok {
			touched[g] = struct{}{}
		}
	}
	for g := range touched {
		for _, s := range g.compact(b.pending) {
			s.state.Store(int32(StateRemoved))
			delete(b.pending, s)
			res.Removed++
		}
	}

	// Whatever is left was not found where it should have been.
	for s := range b.pending {
		reason := metrics.DesyncMissingEntry
		if _, ok := b.groups[s.msgType]; !ok {
			reason = metrics.DesyncMissingGroup
		}
		s.state.Store(int32(StateRemoved))
		res.Desynced++
		metrics.IncDesync(reason)
		b.reportDesync(s, reason)
	}

	clear(b.pending)
	metrics.AddRemoved(res.Removed)
	metrics.AddPending(-total)
	return res
}

// reportDesync logs a pending subscription Upkeep could not find.
// Callers must hold b.mu.
func (b *Bus) reportDesync(s *Subscription, reason string) {
	var ev *zerolog.Event
	switch {
	case b.cfg.ShowErrors:
		ev = b.logger.Error()
	case b.cfg.ShowWarnings:
		ev = b.logger.Warn()
	default:
		return
	}
	msg := "desync with subscriber list, was upkeep run from within a message callback?"
	if reason == metrics.DesyncMissingGroup {
		msg = "tried to remove a subscription whose group does not exist, was upkeep run from within a message callback?"
	}
	ev.Str(xglog.FieldEvent, "bus.desync").
		Str("reason", reason).
		Str(xglog.FieldMessageType, s.msgType.String()).
		Str(xglog.FieldSubscription, s.id).
		Msg(msg)
}

// Lookup returns the statistics of the group for mt. The second result is
// false when nothing ever subscribed to mt.
func (b *Bus) Lookup(mt MessageType) (Stats, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.groups[mt]
	if !ok {
		return Stats{}, false
	}
	return g.stats(), true
}

// Snapshot returns the statistics of every group sorted by type name.
func (b *Bus) Snapshot() []Stats {
	b.mu.Lock()
	out := make([]Stats, 0, len(b.groups))
	for _, g := range b.groups {
		out = append(out, g.stats())
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Pending returns the number of subscriptions waiting for Upkeep.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close releases every subscription and forgets all groups and counters.
// Handles released afterwards are ignored. The bus stays usable.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, g := range b.groups {
		for _, s := range g.subs {
			s.callback = nil
			s.state.Store(int32(StateRemoved))
		}
	}
	metrics.AddPending(-len(b.pending))
	clear(b.groups)
	clear(b.pending)
}
