// Package metrics defines and registers the Prometheus metrics of the shift
// tracker. It is the single source of truth for metric names, labels, and
// help strings. Metrics register with the default registry on import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shifttracker"

// ── Shift service ─────────────────────────────────────────────────────────────

// ShiftOperationsTotal counts service calls.
// Labels:
//   - operation: "start", "end", "history", "export", "export_rows", "statistics"
//   - result: "ok", "already_active", "no_active_shift", "empty", "storage_error", "error"
var ShiftOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shift_operations_total",
		Help:      "Total number of shift service operations, by outcome.",
	},
	[]string{"operation", "result"},
)

// ShiftOperationDuration measures service call latency, store round trip included.
var ShiftOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "shift_operation_duration_seconds",
		Help:      "Duration of shift service operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// ── Bot ───────────────────────────────────────────────────────────────────────

// BotUpdatesTotal counts handled Telegram commands.
// Label:
//   - command: command name without the slash, or "other"
var BotUpdatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_updates_total",
		Help:      "Total number of Telegram updates handled, by command.",
	},
	[]string{"command"},
)

// BotDedupTotal counts deduplication decisions.
// Label:
//   - result: "hit" (duplicate, skipped) or "miss" (new update, processed)
var BotDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_dedup_total",
		Help:      "Total number of update deduplication checks, by result (hit/miss).",
	},
	[]string{"result"},
)

// BotQueueDepth tracks updates waiting in each dispatcher worker channel.
var BotQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bot_queue_depth",
		Help:      "Current number of updates pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── HTTP ──────────────────────────────────────────────────────────────────────

// HTTPRequestsTotal counts API requests by route template and status code.
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	},
	[]string{"method", "route", "code"},
)

// HTTPRequestDuration measures API latency by route template.
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
