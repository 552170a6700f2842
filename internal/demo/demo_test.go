// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package demo

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

func TestInteraction_Registered(t *testing.T) {
	e, ok := message.Default.Lookup(InteractionTag)
	require.True(t, ok)
	assert.Equal(t, "Demo Message", e.DisplayName())
	assert.False(t, e.Metadata.Hidden)
	assert.Equal(t, Interaction{}, e.New())
}

func TestComponent_LogsCallbacks(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := postmaster.New()
	c := New(bus, &logger)

	c.Click()
	assert.Contains(t, buf.String(), "callback received with custom data")

	buf.Reset()
	e, _ := message.Default.Lookup(InteractionTag)
	require.NoError(t, bus.SendAs(postmaster.TypeFor(e.Type), e.New()))
	assert.Contains(t, buf.String(), "callback received with default data")
	assert.Contains(t, buf.String(), `"event":"demo.interaction"`)

	c.Close()
	bus.Upkeep()
	buf.Reset()
	c.Click()
	assert.Empty(t, buf.String())

	st, ok := bus.Lookup(postmaster.TypeOf[Interaction]())
	require.True(t, ok)
	assert.Equal(t, uint64(3), st.SendCount)
	assert.Equal(t, uint64(2), st.ListenerCallCount)
}
