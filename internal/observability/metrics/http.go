package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	scoutRunsTotal      *prometheus.CounterVec
	scoutSavedTotal     *prometheus.CounterVec
	scoutFailedTotal    *prometheus.CounterVec
	enrichmentsTotal    *prometheus.CounterVec
	deepDiveQueuedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "anshin",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "anshin",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	scoutRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "scout",
			Name:      "runs_total",
			Help:      "Total completed scout runs by job status.",
		},
		[]string{"service", "status"},
	)
	scoutSavedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "scout",
			Name:      "candidates_saved_total",
			Help:      "Total new candidates persisted by scout runs.",
		},
		[]string{"service"},
	)
	scoutFailedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "scout",
			Name:      "candidates_failed_total",
			Help:      "Total candidate persist failures in scout runs.",
		},
		[]string{"service"},
	)
	enrichmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "enricher",
			Name:      "enrichments_total",
			Help:      "Total directory enrichments by outcome.",
		},
		[]string{"service", "status"},
	)
	deepDiveQueuedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "miner",
			Name:      "deep_dives_queued_total",
			Help:      "Total deep dive requests published to the queue.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		scoutRunsTotal,
		scoutSavedTotal,
		scoutFailedTotal,
		enrichmentsTotal,
		deepDiveQueuedTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		scoutRunsTotal:      scoutRunsTotal,
		scoutSavedTotal:     scoutSavedTotal,
		scoutFailedTotal:    scoutFailedTotal,
		enrichmentsTotal:    enrichmentsTotal,
		deepDiveQueuedTotal: deepDiveQueuedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/admin/candidates/") && path != "/v1/admin/candidates/deep-dive" && path != "/v1/admin/candidates/enrich":
		return "/v1/admin/candidates/{candidate_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordScoutRun(service, status string, saved, failed int) {
	if status == "" {
		status = "unknown"
	}
	m.scoutRunsTotal.WithLabelValues(service, status).Inc()
	if saved > 0 {
		m.scoutSavedTotal.WithLabelValues(service).Add(float64(saved))
	}
	if failed > 0 {
		m.scoutFailedTotal.WithLabelValues(service).Add(float64(failed))
	}
}

func (m *HTTPServerMetrics) RecordEnrichment(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.enrichmentsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordDeepDiveQueued(service string) {
	m.deepDiveQueuedTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
