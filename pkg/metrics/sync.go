package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records outcomes of background media sync attempts.
type SyncMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	skipped  prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sync_duration_seconds",
		Help:    "Duration of record media sync attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_success",
		Help: "Successful record sync attempts.",
	}, []string{"trigger"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_failure",
		Help: "Failed record sync attempts.",
	}, []string{"trigger"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sync_skipped",
		Help: "Sync attempts skipped because no remote backend is configured.",
	})
	reg.MustRegister(duration, success, failure, skipped)
	return &SyncMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		skipped:  skipped,
	}
}

// ObserveDuration records the duration for the given trigger (create/retry).
func (s *SyncMetrics) ObserveDuration(trigger string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the given trigger.
func (s *SyncMetrics) IncSuccess(trigger string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncFailure increments the failure counter for the given trigger.
func (s *SyncMetrics) IncFailure(trigger string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// IncSkipped increments the skipped counter.
func (s *SyncMetrics) IncSkipped() {
	if s == nil || s.skipped == nil {
		return
	}
	s.skipped.Inc()
}

func normalizeLabel(trigger string) string {
	if trigger == "" {
		return "unknown"
	}
	return trigger
}
