package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the wizard.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	stepSubmissions *prometheus.CounterVec
	guardRedirects  *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	slotOperations  *prometheus.HistogramVec
	artifactsFailed prometheus.Counter
}

// NewMetricsService registers the wizard collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	stepSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_step_submissions_total",
		Help: "Step form submissions by outcome",
	}, []string{"step", "outcome"})

	guardRedirects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_guard_redirects_total",
		Help: "Step entries redirected by a guard, labelled by the requested step",
	}, []string{"step"})

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_submissions_total",
		Help: "Final enrollment submissions by outcome",
	}, []string{"outcome"})

	slotOperations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slot_operation_seconds",
		Help:    "Latency of persisted slot operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	artifactsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "submission_artifacts_failed_total",
		Help: "Submission artifacts that could not be written after all retries",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, stepSubmissions, guardRedirects, submissions, slotOperations, artifactsFailed, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		stepSubmissions: stepSubmissions,
		guardRedirects:  guardRedirects,
		submissions:     submissions,
		slotOperations:  slotOperations,
		artifactsFailed: artifactsFailed,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry (tests gather from it).
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordStepSubmission counts an accepted or rejected step form.
func (m *MetricsService) RecordStepSubmission(step models.Step, accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.stepSubmissions.WithLabelValues(step.Slug(), outcome).Inc()
}

// RecordGuardRedirect counts a redirect away from the requested step.
func (m *MetricsService) RecordGuardRedirect(requested models.Step) {
	if m == nil {
		return
	}
	m.guardRedirects.WithLabelValues(requested.Slug()).Inc()
}

// RecordSubmission counts a final submission attempt.
func (m *MetricsService) RecordSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveSlotOperation records the latency of a slot get, set or remove.
func (m *MetricsService) ObserveSlotOperation(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.slotOperations.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordArtifactFailure counts an artifact job that exhausted its retries.
func (m *MetricsService) RecordArtifactFailure() {
	if m == nil {
		return
	}
	m.artifactsFailed.Inc()
}
