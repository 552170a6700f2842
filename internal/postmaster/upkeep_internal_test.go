// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tick struct{}

func newTestBus(buf *bytes.Buffer, cfg Config) *Bus {
	return New(WithConfig(cfg), WithLogger(zerolog.New(buf).Level(zerolog.DebugLevel)))
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func eventsOf(lines []map[string]any) []string {
	var out []string
	for _, l := range lines {
		if ev, ok := l["event"].(string); ok {
			out = append(out, ev)
		}
	}
	return out
}

func TestUpkeep_MissingEntryIsReportedAndDropped(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, DefaultConfig())

	lost := Subscribe(b, func(tick) {})
	kept := Subscribe(b, func(tick) {})
	lost.Release()

	// Simulate an excision that happened behind upkeep's back.
	g := b.groups[TypeOf[tick]()]
	g.subs = []*Subscription{kept}

	res := b.Upkeep()
	assert.Equal(t, UpkeepResult{Desynced: 1}, res)
	assert.Zero(t, b.Pending(), "pending set is cleared even on desync")
	assert.Equal(t, StateRemoved, lost.State())

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "bus.desync", lines[0]["event"])
	assert.Equal(t, "missing_entry", lines[0]["reason"])
}

func TestUpkeep_MissingGroupIsReportedAsWarningWhenErrorsHidden(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, Config{ShowWarnings: true})

	sub := Subscribe(b, func(tick) {})
	sub.Release()
	delete(b.groups, TypeOf[tick]())

	res := b.Upkeep()
	assert.Equal(t, UpkeepResult{Desynced: 1}, res)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "missing_group", lines[0]["reason"])
}

func TestUpkeep_DesyncSilentWhenReportingDisabled(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, Config{})

	sub := Subscribe(b, func(tick) {})
	sub.Release()
	delete(b.groups, TypeOf[tick]())

	assert.Equal(t, UpkeepResult{Desynced: 1}, b.Upkeep())
	assert.Zero(t, buf.Len())
}

func TestUpkeep_PartialDesyncStillRemovesOthers(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, DefaultConfig())

	a := Subscribe(b, func(tick) {})
	c := Subscribe(b, func(tick) {})
	a.Release()
	c.Release()
	b.groups[TypeOf[tick]()].subs = []*Subscription{c}

	assert.Equal(t, UpkeepResult{Removed: 1, Desynced: 1}, b.Upkeep())
	assert.Empty(t, b.groups[TypeOf[tick]()].subs)
}

func TestShowLogging_EmitsLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, Config{ShowLogging: true})

	sub := Subscribe(b, func(tick) {})
	Send(b, tick{})
	sub.Release()
	b.Upkeep()

	assert.Equal(t, []string{"bus.subscribed", "bus.send", "bus.upkeep"}, eventsOf(logLines(t, &buf)))
}

func TestDefaultConfig_IsQuietOnHappyPath(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, DefaultConfig())

	sub := Subscribe(b, func(tick) {})
	Send(b, tick{})
	sub.Release()
	b.Upkeep()

	assert.Zero(t, buf.Len())
}

func TestForeignReleaseWarns(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, DefaultConfig())
	other := New()

	sub := Subscribe(other, func(tick) {})
	b.Unsubscribe(sub)

	assert.Equal(t, []string{"bus.foreign_release"}, eventsOf(logLines(t, &buf)))
}

func TestGroupCompact(t *testing.T) {
	a, b2, c := &Subscription{id: "a"}, &Subscription{id: "b"}, &Subscription{id: "c"}
	g := &group{subs: []*Subscription{a, b2, c}}

	removed := g.compact(map[*Subscription]struct{}{a: {}, c: {}})
	assert.Equal(t, []*Subscription{a, c}, removed)
	assert.Equal(t, []*Subscription{b2}, g.subs)
}

func TestSubscribe_WrapperRejectsForeignPayload(t *testing.T) {
	var buf bytes.Buffer
	b := newTestBus(&buf, DefaultConfig())

	called := false
	s := Subscribe(b, func(tick) { called = true })
	s.callback(struct{ N int }{N: 1})

	assert.False(t, called, "a payload of another type must not reach the callback as a zero value")
	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "bus.type_mismatch", lines[0]["event"])
	assert.Equal(t, "error", lines[0]["level"])
}

func TestCoerce_ConvertsNamedPayloadToDeclaredType(t *testing.T) {
	type scores map[string]int

	mt := TypeOf[map[string]int]()
	require.True(t, mt.accepts(scores{"a": 1}))

	got, ok := mt.coerce(scores{"a": 1}).(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 1, got["a"])

	iface := TypeOf[interface{ Len() int }]()
	p := &bytes.Buffer{}
	assert.Same(t, p, iface.coerce(p), "interface types keep the concrete payload")
}
