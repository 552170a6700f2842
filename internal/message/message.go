// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package message defines the marker type routed by the postmaster bus and
// the catalog that describes known message variants for inspection surfaces.
package message

// Message is any value that can be routed by the bus.
// Concrete variants are plain data carriers.
type Message interface{}

// Tag is the stable identifier of a message variant in a Catalog.
// By convention tags are dotted lowercase names, e.g. "demo.interaction".
type Tag string

// Metadata is display information attached to a message variant.
// It never influences delivery.
type Metadata struct {
	// Name is an optional friendly name. When empty, the Go type name is shown.
	Name string
	// Description is a free-form note shown by inspection surfaces.
	Description string
	// Hidden keeps the variant out of inspection listings. Sending and
	// subscribing are unaffected.
	Hidden bool
}
