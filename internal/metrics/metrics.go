// Package metrics holds the Prometheus collectors for deploy requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts upsert outcomes and times deploy requests.
type Recorder struct {
	upserts         *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fatalErrors     prometheus.Counter
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		upserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "branch_deployer_upserts_total",
				Help: "Resource upserts by kind and outcome status.",
			},
			[]string{"kind", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "branch_deployer_request_duration_seconds",
				Help:    "Latency of deploy requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code"},
		),
		fatalErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "branch_deployer_fatal_errors_total",
				Help: "Deploy requests that failed without an API response.",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(r.Collectors()...)
	}
	return r
}

func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{r.upserts, r.requestDuration, r.fatalErrors}
}

func (r *Recorder) ObserveUpsert(kind, status string) {
	if r == nil {
		return
	}
	r.upserts.WithLabelValues(kind, status).Inc()
}

func (r *Recorder) ObserveRequest(code string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requestDuration.WithLabelValues(code).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveFatal() {
	if r == nil {
		return
	}
	r.fatalErrors.Inc()
}
