// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inspect

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/postmaster"
)

// HealthHandlers serves liveness and readiness probes.
type HealthHandlers interface {
	ServeHealth(w http.ResponseWriter, r *http.Request)
	ServeReady(w http.ResponseWriter, r *http.Request)
}

// RateLimitConfig bounds the /api routes per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// NewRouter builds the HTTP surface for w. health may be nil.
func NewRouter(w *Window, health HealthHandlers, rl RateLimitConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if health != nil {
		r.Get("/healthz", health.ServeHealth)
		r.Get("/readyz", health.ServeReady)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		if rl.Requests > 0 && rl.Window > 0 {
			api.Use(rateLimit(rl))
		}
		api.Get("/messages", func(rw http.ResponseWriter, _ *http.Request) {
			writeJSON(rw, http.StatusOK, w.Rows())
		})
		api.Post("/messages/{tag}/dispatch", func(rw http.ResponseWriter, req *http.Request) {
			tag := message.Tag(chi.URLParam(req, "tag"))
			err := w.Dispatch(tag)
			switch {
			case err == nil:
				writeJSON(rw, http.StatusAccepted, map[string]string{"status": "dispatched", "tag": string(tag)})
			case errors.Is(err, ErrUnknownMessage):
				writeJSON(rw, http.StatusNotFound, map[string]string{"error": "unknown_message", "detail": err.Error()})
			case errors.Is(err, postmaster.ErrInvalidArgument):
				writeJSON(rw, http.StatusBadRequest, map[string]string{"error": "invalid_argument", "detail": err.Error()})
			default:
				writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			}
		})
	})
	return r
}

func rateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter(cfg.Window))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`))
		}),
	)
}

// retryAfter renders d in whole seconds, rounded up so short windows never
// advertise an immediate retry.
func retryAfter(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
