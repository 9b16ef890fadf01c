package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder provides observability for the projection engine.
// It implements projection.Observer.
type Recorder struct {
	// Records projected by type
	RecordsProjected *prometheus.CounterVec

	// Records skipped by type and failure code
	RecordsSkipped *prometheus.CounterVec

	// Fields omitted or cleared by type and diagnostic code
	FieldsOmitted *prometheus.CounterVec

	// Per-record projection latency
	ProjectionLatency prometheus.Histogram
}

// New creates a Recorder with all projection metrics registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		RecordsProjected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordsync_records_projected_total",
			Help: "Total records projected by object type",
		}, []string{"type"}),

		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordsync_records_skipped_total",
			Help: "Total objects skipped by object type and failure code",
		}, []string{"type", "code"}),

		FieldsOmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recordsync_fields_omitted_total",
			Help: "Total fields omitted or cleared by object type and diagnostic code",
		}, []string{"type", "code"}),

		ProjectionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recordsync_projection_duration_seconds",
			Help:    "Duration of a single record projection",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}

// Projected records a successful projection.
func (r *Recorder) Projected(typeName string, d time.Duration) {
	if r != nil {
		r.RecordsProjected.WithLabelValues(typeName).Inc()
		r.ProjectionLatency.Observe(d.Seconds())
	}
}

// Skipped records an object left out because of a soft failure.
func (r *Recorder) Skipped(typeName, code string) {
	if r != nil {
		r.RecordsSkipped.WithLabelValues(typeName, code).Inc()
	}
}

// Diagnosed records a field that was omitted or cleared.
func (r *Recorder) Diagnosed(typeName, code string) {
	if r != nil {
		r.FieldsOmitted.WithLabelValues(typeName, code).Inc()
	}
}
