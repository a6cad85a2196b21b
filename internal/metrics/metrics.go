// Package metrics declares the Prometheus series exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ActionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "reducer",
	Name:      "actions_applied_total",
	Help:      "Reducer actions that changed state, by action.",
}, []string{"action"})

var ActionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "reducer",
	Name:      "actions_rejected_total",
	Help:      "Reducer actions rejected, by action and reason class.",
}, []string{"action", "reason"})

var Persists = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "store",
	Name:      "persists_total",
	Help:      "Player persists by trigger and outcome.",
}, []string{"trigger", "result"})

var PersistsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "store",
	Name:      "persists_suppressed_total",
	Help:      "Persists skipped because the account is being deleted.",
})

var Balance = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stardust",
	Subsystem: "player",
	Name:      "balance",
	Help:      "Current stardust balance of the session player.",
})

var Energy = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "stardust",
	Subsystem: "player",
	Name:      "energy",
	Help:      "Current energy of the session player.",
})

var HoldRewards = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "hold",
	Name:      "rewards_total",
	Help:      "Stardust produced by hold sessions, by outcome (confirmed or discarded).",
}, []string{"outcome"})

var OfflineIncome = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "offline",
	Name:      "income_total",
	Help:      "Offline income surfaced at load, by outcome.",
}, []string{"outcome"})

var PushesApplied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "push",
	Name:      "deltas_applied_total",
	Help:      "Player deltas merged from the push feed.",
})

var ExternalFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "stardust",
	Subsystem: "external",
	Name:      "failures_total",
	Help:      "Collaborator failures by collaborator.",
}, []string{"collaborator"})
