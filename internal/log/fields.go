// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Process fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldEvent     = "event"
	FieldComponent = "component"

	// Bus fields
	FieldMessageType  = "message_type"
	FieldMessageTag   = "message_tag"
	FieldSubscription = "subscription_id"
	FieldPending      = "pending"
	FieldRemoved      = "removed"
	FieldDesynced     = "desynced"
	FieldSubscribers  = "subscribers"

	// Path / network fields
	FieldPath       = "path"
	FieldListenAddr = "listen_addr"
)
