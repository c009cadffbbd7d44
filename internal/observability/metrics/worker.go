package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	deepDiveTotal    *prometheus.CounterVec
	deepDiveDuration *prometheus.HistogramVec
	deepDiveInFlight prometheus.Gauge
	menusExtracted   *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	deepDiveTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "anshin",
			Subsystem: "miner",
			Name:      "deep_dive_total",
			Help:      "Total processed deep dives by status.",
		},
		[]string{"service", "status"},
	)
	deepDiveDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "anshin",
			Subsystem: "miner",
			Name:      "deep_dive_duration_seconds",
			Help:      "Deep dive duration in seconds by status.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"service", "status"},
	)
	deepDiveInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "anshin",
			Subsystem: "miner",
			Name:      "deep_dive_in_flight",
			Help:      "Number of in-flight deep dives.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	menusExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "anshin",
			Subsystem: "miner",
			Name:      "menus_extracted",
			Help:      "Distribution of menu items on a candidate after a deep dive.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
		},
		[]string{"service"},
	)

	registry.MustRegister(deepDiveTotal, deepDiveDuration, deepDiveInFlight, menusExtracted)

	return &WorkerMetrics{
		registry:         registry,
		deepDiveTotal:    deepDiveTotal,
		deepDiveDuration: deepDiveDuration,
		deepDiveInFlight: deepDiveInFlight,
		menusExtracted:   menusExtracted,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDeepDive() {
	m.deepDiveInFlight.Inc()
}

func (m *WorkerMetrics) FinishDeepDive(service string, duration time.Duration, err error) {
	m.deepDiveInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.deepDiveTotal.WithLabelValues(service, status).Inc()
	m.deepDiveDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveMenuCount(service string, count int) {
	if count < 0 {
		return
	}
	m.menusExtracted.WithLabelValues(service).Observe(float64(count))
}
