// Package metrics provides Prometheus metrics for the signal relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered once on the default registry at init.
var (
	SignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_signals_total",
		Help: "Actionable signals received, by action and sub-action.",
	}, []string{"action", "sub_action"})

	SignalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_signals_dropped_total",
		Help: "Inbound payloads dropped before execution.",
	}, []string{"reason"})

	OutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_outcomes_total",
		Help: "Per-order outcomes, by kind.",
	}, []string{"kind"})

	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_orders_total",
		Help: "Order requests sent to the terminal, by trade action and status.",
	}, []string{"action", "status"})

	TerminalRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_terminal_request_seconds",
		Help:    "Latency of terminal requests.",
		Buckets: prometheus.DefBuckets,
	})

	TerminalConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_terminal_connected",
		Help: "Whether the terminal connection is up (1) or down (0).",
	})

	HeartbeatTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_heartbeat_timestamp_seconds",
		Help: "Unix timestamp of the last processed signal.",
	})

	JournalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_journal_errors_total",
		Help: "Failed journal writes.",
	})
)
