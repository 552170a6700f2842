// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import "sync/atomic"

// State is the lifecycle state of a Subscription.
type State int32

const (
	// StateActive means the subscription is invoked by matching sends.
	StateActive State = iota
	// StatePendingRemoval means Release was called and Upkeep has not run yet.
	StatePendingRemoval
	// StateRemoved means the subscription left its group for good.
	StateRemoved
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePendingRemoval:
		return "pending_removal"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Subscription is the handle returned by Subscribe. Release it when the
// owner no longer wants messages.
type Subscription struct {
	id      string
	msgType MessageType
	bus     *Bus
	state   atomic.Int32

	// callback is guarded by bus.mu and cleared on release.
	callback Callback
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Type returns the message type the subscription listens for.
func (s *Subscription) Type() MessageType {
	return s.msgType
}

// State returns the current lifecycle state.
func (s *Subscription) State() State {
	return State(s.state.Load())
}

// Release stops delivery to this subscription. The callback is never
// invoked by a later Send; removal from the group happens on the next
// Upkeep. Calling Release more than once has no further effect.
func (s *Subscription) Release() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.Unsubscribe(s)
}

// Close implements io.Closer for owners that manage handles generically.
func (s *Subscription) Close() error {
	s.Release()
	return nil
}
