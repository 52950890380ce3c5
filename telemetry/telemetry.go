// Package telemetry holds the Prometheus metrics of the dashboard backend.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// RowsProcessed counts raw rows read by the pipeline, by sheet layout and
// outcome (accepted|rejected).
var RowsProcessed = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcenter",
	Name:      "rows_processed_total",
	Help:      "Raw sheet rows read by the pipeline",
}, []string{"layout", "outcome"})

// RowIssues counts row-level errors and warnings recorded during runs.
var RowIssues = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcenter",
	Name:      "row_issues_total",
	Help:      "Non-fatal problems found in sheet rows",
}, []string{"layout"})

// PipelineRuns counts pipeline runs by result (ok|no_data|layout_mismatch|canceled).
var PipelineRuns = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "callcenter",
	Name:      "pipeline_runs_total",
	Help:      "Pipeline runs by result",
}, []string{"result"})

// PipelineDuration observes how long a full run takes.
var PipelineDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "callcenter",
	Name:      "pipeline_duration_seconds",
	Help:      "Duration of a full ingestion and aggregation run",
	Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
})

// OperatorsRanked is the number of operators in the latest ranking.
var OperatorsRanked = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "callcenter",
	Name:      "operators_ranked",
	Help:      "Operators present in the most recent ranking",
})

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
