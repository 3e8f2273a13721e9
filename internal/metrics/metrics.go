// Package metrics exposes Prometheus counters for the resolution engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the metrics surface the resolver and batch processor
// record against. Tests use Noop.
type Collector interface {
	RecordResolveSuccess()
	RecordGeocodeFailure(reason string)
	RecordBoundaryLoadFailure(jurisdictionID string)
	RecordSubdivisionKeyFailure(jurisdictionID string)
	RecordRecordSkipped()
	RecordRecordFailed()
	RecordBatchDuration(d time.Duration)
}

// PromCollector implements Collector on a Prometheus registry.
type PromCollector struct {
	resolveSuccess  prometheus.Counter
	geocodeFail     *prometheus.CounterVec
	boundaryFail    *prometheus.CounterVec
	subdivisionFail *prometheus.CounterVec
	recordsSkipped  prometheus.Counter
	recordsFailed   prometheus.Counter
	batchDuration   prometheus.Histogram
}

// NewPromCollector builds a PromCollector and registers its metrics.
func NewPromCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		resolveSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "districting_resolve_success_total",
			Help: "Successful address resolutions.",
		}),
		geocodeFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "districting_geocode_failures_total",
			Help: "Geocoding failures by reason.",
		}, []string{"reason"}),
		boundaryFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "districting_boundary_load_failures_total",
			Help: "Boundary load failures by jurisdiction.",
		}, []string{"jurisdiction"}),
		subdivisionFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "districting_subdivision_key_failures_total",
			Help: "Matched features missing every configured subdivision key, by jurisdiction.",
		}, []string{"jurisdiction"}),
		recordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "districting_records_skipped_total",
			Help: "Batch records dropped because their address did not change.",
		}),
		recordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "districting_records_failed_total",
			Help: "Batch records whose resolution or write failed.",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "districting_batch_duration_seconds",
			Help:    "Wall time to process one change batch.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.resolveSuccess,
		c.geocodeFail,
		c.boundaryFail,
		c.subdivisionFail,
		c.recordsSkipped,
		c.recordsFailed,
		c.batchDuration,
	)
	return c
}

func (c *PromCollector) RecordResolveSuccess() { c.resolveSuccess.Inc() }

func (c *PromCollector) RecordGeocodeFailure(reason string) {
	c.geocodeFail.WithLabelValues(reason).Inc()
}

func (c *PromCollector) RecordBoundaryLoadFailure(jurisdictionID string) {
	c.boundaryFail.WithLabelValues(jurisdictionID).Inc()
}

func (c *PromCollector) RecordSubdivisionKeyFailure(jurisdictionID string) {
	c.subdivisionFail.WithLabelValues(jurisdictionID).Inc()
}

func (c *PromCollector) RecordRecordSkipped() { c.recordsSkipped.Inc() }

func (c *PromCollector) RecordRecordFailed() { c.recordsFailed.Inc() }

func (c *PromCollector) RecordBatchDuration(d time.Duration) {
	c.batchDuration.Observe(d.Seconds())
}

// Noop discards every metric.
type Noop struct{}

func (Noop) RecordResolveSuccess()              {}
func (Noop) RecordGeocodeFailure(string)        {}
func (Noop) RecordBoundaryLoadFailure(string)   {}
func (Noop) RecordSubdivisionKeyFailure(string) {}
func (Noop) RecordRecordSkipped()               {}
func (Noop) RecordRecordFailed()                {}
func (Noop) RecordBatchDuration(time.Duration)  {}
