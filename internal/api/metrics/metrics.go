// Package metrics defines and registers the custom Prometheus metrics of the
// blog. It is the single source of truth for metric names, labels, and help
// strings.
//
// Collectors register with the default Prometheus registry at package init;
// HTTP request metrics are added per router by echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "blog"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthEventsTotal counts identity transitions.
// Labels:
//   - action: "register", "login" or "logout"
//   - result: "success", "conflict", "invalid_credentials", "invalid_form" or "error"
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of register, login and logout attempts, by result.",
	},
	[]string{"action", "result"},
)

// GuardRejectionsTotal counts requests stopped by an authorization guard.
// Label:
//   - guard: "authenticated" or "administrator"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by an authorization guard.",
	},
	[]string{"guard"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// PostWritesTotal counts successful post mutations.
// Label:
//   - op: "create", "edit" or "delete"
var PostWritesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "post_writes_total",
		Help:      "Total number of posts created, edited or deleted.",
	},
	[]string{"op"},
)

// CommentsCreatedTotal counts comments stored.
var CommentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comments_created_total",
		Help:      "Total number of comments created.",
	},
)

// FormRejectionsTotal counts submitted forms that failed validation.
// Label:
//   - form: "register", "login", "comment" or "post"
var FormRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "form_rejections_total",
		Help:      "Total number of submitted forms re-rendered with validation errors.",
	},
	[]string{"form"},
)
