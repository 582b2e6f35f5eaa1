package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rejection reasons for ReceiptsRejected
const (
	ReasonStructural   = "structural"
	ReasonUnrecognized = "unrecognized_line"
	ReasonDuplicate    = "duplicate"
	ReasonStorage      = "storage"
)

type Registry struct {
	reg              *prometheus.Registry
	ReceiptsIngested prometheus.Counter
	ReceiptsRejected *prometheus.CounterVec
	LineWarnings     *prometheus.CounterVec
	LineItems        prometheus.Counter
	ProductsCreated  prometheus.Counter
	IngestLatencySec prometheus.Histogram

	ProductsMerged prometheus.Counter
	MergeFailures  prometheus.Counter

	JobsProcessed *prometheus.CounterVec

	HTTPRequests   *prometheus.CounterVec
	HTTPLatencySec *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ingested := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipts_ingested_total"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipts_rejected_total"}, []string{"reason"})
	warnings := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "receipt_line_warnings_total"}, []string{"kind"})
	lineItems := prometheus.NewCounter(prometheus.CounterOpts{Name: "receipt_line_items_total"})
	created := prometheus.NewCounter(prometheus.CounterOpts{Name: "products_created_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "receipt_ingest_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	merged := prometheus.NewCounter(prometheus.CounterOpts{Name: "products_merged_total"})
	mergeFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "product_merge_failures_total"})
	jobs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "jobs_processed_total"}, []string{"job_type", "status"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	r.MustRegister(ingested, rejected, warnings, lineItems, created, latency, merged, mergeFailures, jobs, httpRequests, httpLatency)
	return &Registry{
		reg:              r,
		ReceiptsIngested: ingested,
		ReceiptsRejected: rejected,
		LineWarnings:     warnings,
		LineItems:        lineItems,
		ProductsCreated:  created,
		IngestLatencySec: latency,
		ProductsMerged:   merged,
		MergeFailures:    mergeFailures,
		JobsProcessed:    jobs,
		HTTPRequests:     httpRequests,
		HTTPLatencySec:   httpLatency,
	}
}

// ObserveHTTP records one served request. route must be low cardinality.
func (r *Registry) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPLatencySec.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
