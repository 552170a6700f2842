// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmaster_send_total",
		Help: "Total number of sends that reached at least one subscription group, by message type",
	}, []string{"message"})

	ListenerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmaster_listener_calls_total",
		Help: "Total number of subscriber callbacks scheduled by sends, by message type",
	}, []string{"message"})

	ReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postmaster_released_total",
		Help: "Total number of subscriptions queued for removal",
	})

	RemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postmaster_removed_total",
		Help: "Total number of subscriptions excised by upkeep",
	})

	DesyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postmaster_desync_total",
		Help: "Total number of pending removals upkeep could not find, by reason",
	}, []string{"reason"})

	PendingRemovals = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "postmaster_pending_removals",
		Help: "Number of subscriptions currently waiting for upkeep",
	})
)

// Desync reasons.
const (
	DesyncMissingGroup = "missing_group"
	DesyncMissingEntry = "missing_entry"
)

// RecordSend records one send fanning out to the given number of listeners.
func RecordSend(message string, listeners int) {
	if message == "" {
		message = "unknown"
	}
	SendTotal.WithLabelValues(message).Inc()
	ListenerCallsTotal.WithLabelValues(message).Add(float64(listeners))
}

// IncReleased records one subscription entering the pending-removal set.
func IncReleased() {
	ReleasedTotal.Inc()
}

// AddRemoved records subscriptions removed by an upkeep pass.
func AddRemoved(n int) {
	if n <= 0 {
		return
	}
	RemovedTotal.Add(float64(n))
}

// IncDesync records a pending removal that could not be applied.
func IncDesync(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	DesyncTotal.WithLabelValues(reason).Inc()
}

// AddPending adjusts the pending-removal gauge.
func AddPending(delta int) {
	PendingRemovals.Add(float64(delta))
}
