// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReportRenders counts rendered reports by report slug and output format.
	ReportRenders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unveil_report_renders_total",
		Help: "Total number of rendered reports",
	}, []string{"report", "format"})

	// ReportRows gauges the row count of the last render of each report.
	ReportRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unveil_report_rows",
		Help: "Number of rows in the last render of a report",
	}, []string{"report"})

	// UnresolvedRoutes counts route lookups that did not resolve.
	UnresolvedRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unveil_unresolved_routes_total",
		Help: "Total number of route resolutions that failed",
	}, []string{"report"})

	// RouteLookups counts distinct route resolutions made per render.
	RouteLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unveil_route_lookups_total",
		Help: "Total number of distinct route resolutions",
	}, []string{"report"})

	// ReportDurationSeconds observes how long one report takes to collect.
	ReportDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "unveil_report_duration_seconds",
		Help:    "Time to collect one report (in seconds)",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})
)
