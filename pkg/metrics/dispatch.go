package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records metadata for notification dispatch runs.
type DispatchMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_dispatch_duration_seconds",
		Help:    "Duration of notification dispatch runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_success",
		Help: "Successful notification dispatches.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_failure",
		Help: "Failed notification dispatches.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure)
	return &DispatchMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named notification kind.
func (d *DispatchMetrics) ObserveDuration(kind string, duration time.Duration) {
	if d == nil || d.duration == nil {
		return
	}
	d.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named kind.
func (d *DispatchMetrics) IncSuccess(kind string) {
	if d == nil || d.success == nil {
		return
	}
	d.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncFailure increments the failure counter for the named kind.
func (d *DispatchMetrics) IncFailure(kind string) {
	if d == nil || d.failure == nil {
		return
	}
	d.failure.WithLabelValues(normalizeLabel(kind)).Inc()
}
