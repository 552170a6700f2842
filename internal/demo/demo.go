// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package demo registers a sample message variant and a component that
// listens for it, so a fresh host has something to inspect and dispatch.
package demo

import (
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

// InteractionTag is the catalog tag of Interaction.
const InteractionTag message.Tag = "demo.interaction"

// Interaction is the demo message. Manual dispatch from the inspection
// surface sends the zero value; Click sends one with custom data.
type Interaction struct {
	HasCustomData bool `json:"has_custom_data"`
}

func init() {
	message.MustRegister[Interaction](InteractionTag, message.Metadata{
		Name:        "Demo Message",
		Description: "This is a demo message called Interaction. It contains some data.",
	})
}

// Component subscribes to Interaction and logs every delivery.
type Component struct {
	bus    *postmaster.Bus
	sub    *postmaster.Subscription
	logger zerolog.Logger
}

// New subscribes a demo component to bus.
func New(bus *postmaster.Bus, logger *zerolog.Logger) *Component {
	c := &Component{bus: bus, logger: xglog.WithComponent("demo")}
	if logger != nil {
		c.logger = *logger
	}
	c.sub = postmaster.Subscribe(bus, c.onInteraction)
	return c
}

// Click sends an Interaction carrying custom data.
func (c *Component) Click() {
	postmaster.Send(c.bus, Interaction{HasCustomData: true})
}

// Close releases the component's subscription.
func (c *Component) Close() {
	c.sub.Release()
}

func (c *Component) onInteraction(msg Interaction) {
	kind := "default"
	if msg.HasCustomData {
		kind = "custom"
	}
	c.logger.Info().
		Str(xglog.FieldEvent, "demo.interaction").
		Bool("custom_data", msg.HasCustomData).
		Msgf("callback received with %s data", kind)
}
