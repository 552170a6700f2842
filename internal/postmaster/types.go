// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import (
	"reflect"

	"github.com/ManuGH/postmaster/internal/message"
)

// MessageType identifies the type a subscription listens for and a send is
// routed by. The zero value identifies no type.
type MessageType struct {
	t reflect.Type
}

// TypeOf returns the MessageType of T.
func TypeOf[T message.Message]() MessageType {
	return MessageType{t: reflect.TypeFor[T]()}
}

// TypeFor wraps a reflect.Type, as stored in a message catalog entry.
func TypeFor(t reflect.Type) MessageType {
	return MessageType{t: t}
}

// IsZero reports whether m identifies no type.
func (m MessageType) IsZero() bool {
	return m.t == nil
}

// String returns the Go type name, e.g. "demo.Interaction".
func (m MessageType) String() string {
	if m.t == nil {
		return "<nil>"
	}
	return m.t.String()
}

// accepts reports whether msg may be delivered to subscribers of m.
func (m MessageType) accepts(msg message.Message) bool {
	if m.t == nil || msg == nil {
		return false
	}
	return reflect.TypeOf(msg).AssignableTo(m.t)
}

// coerce returns msg as a value whose dynamic type is exactly m, so typed
// subscribers can unwrap it. Interface types keep the concrete payload.
// msg must already be accepted by m.
func (m MessageType) coerce(msg message.Message) message.Message {
	if m.t.Kind() == reflect.Interface || reflect.TypeOf(msg) == m.t {
		return msg
	}
	return reflect.ValueOf(msg).Convert(m.t).Interface()
}

// Callback receives a routed message.
type Callback func(msg message.Message)

// Stats is a read-only view of one subscription group.
type Stats struct {
	Type MessageType `json:"-"`
	// Name is Type.String(), kept for serialization.
	Name string `json:"message_type"`
	// SendCount is the number of sends that reached this group.
	SendCount uint64 `json:"send_count"`
	// ListenerCallCount is the total number of callbacks scheduled by those sends.
	ListenerCallCount uint64 `json:"listener_call_count"`
	// Subscribers is the number of active subscriptions.
	Subscribers int `json:"subscribers"`
	// Pending is the number of released subscriptions awaiting upkeep.
	Pending int `json:"pending"`
}

// UpkeepResult summarizes one Upkeep pass.
type UpkeepResult struct {
	Removed  int
	Desynced int
}
