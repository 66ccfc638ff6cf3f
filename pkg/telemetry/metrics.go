// Package telemetry exposes the tracker's Prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RollupsApplied counts bucket updates per interval.
	RollupsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillwatch_rollups_applied_total",
		Help: "Number of raw writes folded into a rollup bucket, per interval.",
	}, []string{"interval"})

	// RollupsSkipped counts change notifications ignored as echoes of the
	// aggregator's own bucket writes.
	RollupsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillwatch_rollups_skipped_total",
		Help: "Number of change notifications ignored as aggregate write echoes.",
	})

	// RollupErrors counts failed bucket updates per interval.
	RollupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillwatch_rollup_errors_total",
		Help: "Number of failed rollup bucket updates, per interval.",
	}, []string{"interval"})

	// RecordsIngested counts rows accepted at the raw-write boundary.
	RecordsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillwatch_records_ingested_total",
		Help: "Number of raw records accepted through the write API.",
	})

	// QueryDuration observes query handling time per aggregation level.
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillwatch_query_duration_seconds",
		Help:    "Time spent serving hiscores queries, per aggregation level.",
		Buckets: prometheus.DefBuckets,
	}, []string{"level"})
)
