// Package metrics defines the custom Prometheus metrics of the accounts API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry through promauto
// on package initialisation and exposed on /metrics by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Authentication metrics ───────────────────────────────────────────────────

// AuthAttemptsTotal counts token requests.
// Label:
//   - outcome: "ok", "not_found", "invalid_credential", "too_many_attempts", "invalid_input",
//     "store_unavailable" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by outcome.",
	},
	[]string{"outcome"},
)

// TokensIssuedTotal counts access tokens handed out.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of access tokens issued.",
	},
)

// ── Account metrics ──────────────────────────────────────────────────────────

// AccountsCreatedTotal counts newly created accounts.
// Label:
//   - role: "admin" or "user"
var AccountsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of accounts created, by role.",
	},
	[]string{"role"},
)

// ── Audit metrics ────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditErrorsTotal counts audit events that were dropped or failed to persist.
// Label:
//   - reason: "queue_full" or "write_failed"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit events that were dropped or failed to persist.",
	},
	[]string{"reason"},
)
