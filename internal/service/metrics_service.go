package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/vaccine-registration/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the form service.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	invalidTags     *prometheus.CounterVec
	verdicts        *prometheus.CounterVec
	storeLatency    *prometheus.HistogramVec
	storeLookups    *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors on a private registry.
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

	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_submissions_total",
		Help: "Form submissions by outcome",
	}, []string{"outcome"})

	invalidTags := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_invalid_fields_total",
		Help: "Validation failures by invalid-field tag",
	}, []string{"tag"})

	verdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_eligibility_total",
		Help: "Eligibility verdicts shown in the confirmation dialog",
	}, []string{"eligible"})

	storeLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "form_store_duration_seconds",
		Help:    "Latency of form state store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	storeLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_store_lookups_total",
		Help: "Form state loads by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, submissions, invalidTags, verdicts, storeLatency, storeLookups, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		submissions:     submissions,
		invalidTags:     invalidTags,
		verdicts:        verdicts,
		storeLatency:    storeLatency,
		storeLookups:    storeLookups,
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

// Registry returns the underlying registry, mainly for tests.
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

// RecordSubmission counts a submission and the tags it produced.
func (m *MetricsService) RecordSubmission(tags []models.InvalidTag) {
	if m == nil {
		return
	}
	if len(tags) == 0 {
		m.submissions.WithLabelValues("accepted").Inc()
		return
	}
	m.submissions.WithLabelValues("rejected").Inc()
	for _, tag := range tags {
		m.invalidTags.WithLabelValues(string(tag)).Inc()
	}
}

// RecordVerdict counts an eligibility verdict.
func (m *MetricsService) RecordVerdict(eligible bool) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(strconv.FormatBool(eligible)).Inc()
}

// RecordStoreLoad tracks a form state load; hit is false when the session had no state yet.
func (m *MetricsService) RecordStoreLoad(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues("load").Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.storeLookups.WithLabelValues(result).Inc()
}

// ObserveStoreWrite tracks the duration of save and delete operations.
func (m *MetricsService) ObserveStoreWrite(op string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeLatency.WithLabelValues(op).Observe(duration.Seconds())
}
