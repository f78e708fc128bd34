// Package metrics defines and registers all custom Prometheus metrics for the
// back office API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "backoffice"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthDenialsTotal counts requests refused by the session or guard middleware.
// Label:
//   - stage: "session" (no live actor) or "guard" (kind or scope mismatch)
var AuthDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_denials_total",
		Help:      "Total number of requests denied at the auth boundary.",
	},
	[]string{"stage"},
)

// LoginsTotal counts login attempts.
// Labels:
//   - kind: actor kind ("end_user", "studio", "master_admin")
//   - result: "ok" or "rejected"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by actor kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// DeletionsTotal counts cascading deletes.
// Labels:
//   - root: "studio", "client" or "project"
//   - outcome: "deleted", "noop" (already gone) or "failed" (rolled back)
var DeletionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletions_total",
		Help:      "Total number of cascading deletes, by root kind and outcome.",
	},
	[]string{"root", "outcome"},
)

// DeletedRecordsTotal counts records removed by committed cascading deletes.
// Label:
//   - entity: "studio", "client", "project" or "section"
var DeletedRecordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deleted_records_total",
		Help:      "Total number of records removed by cascading deletes.",
	},
	[]string{"entity"},
)

// DeletionDuration measures a committed delete transaction, closure walk included.
var DeletionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "deletion_duration_seconds",
		Help:      "Duration of cascading delete transactions.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"root"},
)

// ── Storage cleanup metrics ───────────────────────────────────────────────────

// CleanupObjectsTotal counts per-object cleanup outcomes.
// Label:
//   - result: "removed", "missing" (already absent) or "failed" (sent to the failure channel)
var CleanupObjectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_objects_total",
		Help:      "Total number of storage objects processed by cleanup, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks jobs waiting in each cleanup worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cleanup_queue_depth",
		Help:      "Current number of deletion jobs pending in each cleanup worker channel.",
	},
	[]string{"worker_id"},
)

// CleanupJobsDroppedTotal counts jobs that found the queue full and went
// straight to the failure channel.
var CleanupJobsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_jobs_dropped_total",
		Help:      "Total number of deletion jobs rejected by a full cleanup queue.",
	},
)
