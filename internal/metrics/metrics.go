// Package metrics exposes picvault Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts upload attempts by outcome: accepted, rejected,
	// or failed (operational error).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picvault",
		Name:      "uploads_total",
		Help:      "Upload attempts by outcome.",
	}, []string{"result"})

	// DuplicateHitsTotal counts uploads whose content was already known.
	DuplicateHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picvault",
		Name:      "duplicate_hits_total",
		Help:      "Uploads that matched existing content by hash.",
	})

	// JobsTotal counts enrichment job executions by kind and outcome.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picvault",
		Name:      "jobs_total",
		Help:      "Enrichment job executions by kind and result.",
	}, []string{"kind", "result"})
)
