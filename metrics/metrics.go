// Package metrics provides Prometheus metrics for the restriction engine.
// Labels are bounded enums (verdict, reason, error kind, cache backend);
// slot IDs and rule codes are never used as labels.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/curbside/generic"
)

var (
	// EvaluationsTotal counts evaluated requests by verdict and reason.
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curbside_evaluations_total",
		Help: "Total number of checkin evaluations, by verdict and reason.",
	}, []string{"verdict", "reason"})

	// EvaluationErrorsTotal counts failed evaluations by error kind.
	EvaluationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curbside_evaluation_errors_total",
		Help: "Total number of evaluations that failed, by kind (invalid_request, data_integrity, not_found, internal).",
	}, []string{"kind"})

	// BulkSlotsEvaluated observes the number of slots per bulk filter call.
	BulkSlotsEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "curbside_bulk_slots_evaluated",
		Help:    "Number of slots evaluated per bulk filter request.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	// RuleCacheRequestsTotal counts rule cache lookups by backend and result.
	RuleCacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curbside_rule_cache_requests_total",
		Help: "Total number of consolidated-rule cache lookups, by backend and result (hit/miss).",
	}, []string{"backend", "result"})

	// RulesGroupedTotal counts consolidated rules produced from raw records.
	RulesGroupedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "curbside_rules_grouped_total",
		Help: "Total number of consolidated rules produced by grouping raw records.",
	})

	// WarmerRunsTotal counts cache warmer passes by outcome.
	WarmerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curbside_cache_warmer_runs_total",
		Help: "Total number of cache warmer passes, by outcome (ok/partial/error).",
	}, []string{"outcome"})
)

// RecordVerdict increments the evaluation counter.
func RecordVerdict(restricted bool, reason string) {
	verdict := "allowed"
	if restricted {
		verdict = "restricted"
	}
	if reason == "" {
		reason = "none"
	}
	EvaluationsTotal.WithLabelValues(verdict, reason).Inc()
}

// RecordError classifies err and increments the error counter.
func RecordError(err error) {
	EvaluationErrorsTotal.WithLabelValues(ErrorKind(err)).Inc()
}

// ErrorKind maps an error to its bounded label value.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, generic.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, generic.ErrDataIntegrity):
		return "data_integrity"
	case errors.Is(err, generic.ErrSlotNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// RecordCacheLookup increments the cache counter.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	RuleCacheRequestsTotal.WithLabelValues(backend, result).Inc()
}
