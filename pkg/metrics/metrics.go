/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package metrics exposes the process's prometheus counters and gauges. All
// operational failures named in spec §7 are observable here rather than
// through returned errors on the hot path.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IngestAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_ingest_accepted_total",
		Help: "Number of log lines accepted for ingestion.",
	})
	IngestMatched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_ingest_matched_total",
		Help: "Number of ingested lines matched to an existing template.",
	})
	UnmatchedQueueDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_unmatched_queue_dropped_total",
		Help: "Unmatched lines dropped because the unmatched queue was full.",
	})
	GeneratorTransportFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_generator_transport_failures_total",
		Help: "Template generator RPC attempts that failed in transport.",
	})
	GeneratorMalformedReplies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_generator_malformed_replies_total",
		Help: "Template generator RPC replies that failed to parse.",
	})
	GeneratorBatchesDiscarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_generator_batches_discarded_total",
		Help: "Unmatched-line batches discarded after exhausting retries.",
	})
	TemplateValidationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_template_validation_failures_total",
		Help: "Generated template candidates rejected at validation.",
	})
	TemplatesInstalled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_templates_installed_total",
		Help: "Templates successfully installed into the live snapshot.",
	})
	InstallFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_install_failures_total",
		Help: "Snapshot builds that failed invariants and were discarded.",
	})
	StoreWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_store_write_failures_total",
		Help: "Sink flushes that failed after exhausting retries.",
	})
	StoreBatchesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "logmatcher_store_batches_dropped_total",
		Help: "Log and template points dropped because the sink buffer was full.",
	})
	SnapshotBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "logmatcher_snapshot_build_duration_seconds",
		Help:    "Time to build a new snapshot from a catalog.",
		Buckets: prometheus.DefBuckets,
	})
	DistributionDivergence = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "logmatcher_distribution_divergence_jsd_nats",
		Help: "Jensen-Shannon divergence, in nats, between the current and previous baseline window's matched-template distribution.",
	})
)

func init() {
	prometheus.MustRegister(
		IngestAccepted,
		IngestMatched,
		UnmatchedQueueDropped,
		GeneratorTransportFailures,
		GeneratorMalformedReplies,
		GeneratorBatchesDiscarded,
		TemplateValidationFailures,
		TemplatesInstalled,
		InstallFailures,
		StoreWriteFailures,
		StoreBatchesDropped,
		SnapshotBuildDuration,
		DistributionDivergence,
	)
}
