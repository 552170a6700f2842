// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &fields))
	return fields
}

func TestConfigure_AttachesServiceAndVersion(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "svc-test", Version: "v9.9.9"})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Str(FieldEvent, "test.configure").Msg("hello")

	fields := decodeLine(t, &buf)
	require.Equal(t, "svc-test", fields[FieldService])
	require.Equal(t, "v9.9.9", fields[FieldVersion])
	require.Equal(t, "test.configure", fields[FieldEvent])
	require.Equal(t, "hello", fields["message"])
}

func TestConfigure_ReplacesPreviousLogger(t *testing.T) {
	var first, second bytes.Buffer
	Configure(Config{Output: &first})
	Configure(Config{Output: &second, Level: "info"})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("goes to second")
	require.Zero(t, first.Len())
	require.NotZero(t, second.Len())
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("postmaster")
	l.Warn().Msg("x")

	fields := decodeLine(t, &buf)
	require.Equal(t, "postmaster", fields[FieldComponent])
	require.Equal(t, "warn", fields["level"])
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "shouting"})
	t.Cleanup(func() { Configure(Config{}) })

	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestDerive(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Derive(func(c *zerolog.Context) {
		*c = c.Str(FieldMessageTag, "demo.interaction")
	})
	l.Info().Msg("derived")

	fields := decodeLine(t, &buf)
	require.Equal(t, "demo.interaction", fields[FieldMessageTag])
}
