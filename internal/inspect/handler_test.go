// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

type fakeHealth struct{}

func (fakeHealth) ServeHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (fakeHealth) ServeReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
}

func newTestRouter(t *testing.T, rl RateLimitConfig) (http.Handler, *postmaster.Bus) {
	t.Helper()
	bus := postmaster.New()
	w := NewWindow(bus, testCatalog(t))
	t.Cleanup(w.Close)
	return NewRouter(w, fakeHealth{}, rl), bus
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_ListMessages(t *testing.T) {
	h, bus := newTestRouter(t, RateLimitConfig{})
	postmaster.Send(bus, doorOpened{})

	rec := do(h, http.MethodGet, "/api/messages")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rows []Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, message.Tag("door.opened"), rows[0].Tag)
	assert.Equal(t, uint64(1), rows[0].SendCount)
	assert.Greater(t, rows[0].Activity, 0.0)
}

func TestRouter_Dispatch(t *testing.T) {
	h, bus := newTestRouter(t, RateLimitConfig{})

	rec := do(h, http.MethodPost, "/api/messages/door.opened/dispatch")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	st, ok := bus.Lookup(postmaster.TypeOf[doorOpened]())
	require.True(t, ok)
	assert.Equal(t, uint64(1), st.SendCount)

	rec = do(h, http.MethodPost, "/api/messages/missing/dispatch")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_message")

	rec = do(h, http.MethodGet, "/api/messages/door.opened/dispatch")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	h, _ := newTestRouter(t, RateLimitConfig{Requests: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/messages").Code)

	rec := do(h, http.MethodGet, "/api/messages")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")

	// Probes are outside the limited group.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
}

func TestRouter_RateLimitSubSecondWindow(t *testing.T) {
	h, _ := newTestRouter(t, RateLimitConfig{Requests: 1, Window: 500 * time.Millisecond})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/messages").Code)
	rec := do(h, http.MethodGet, "/api/messages")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRetryAfter_RoundsUp(t *testing.T) {
	assert.Equal(t, "1", retryAfter(time.Millisecond))
	assert.Equal(t, "2", retryAfter(1500*time.Millisecond))
	assert.Equal(t, "60", retryAfter(time.Minute))
}

func TestRouter_ProbesAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t, RateLimitConfig{})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/readyz").Code)

	rec := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "postmaster_")
}
