package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfndi/wellcast-go/internal/models"
)

const namespace = "wellcast"

// Metrics holds the service collectors on a dedicated registry
type Metrics struct {
	registry *prometheus.Registry

	ForecastsTotal        *prometheus.CounterVec
	DegradedForecasts     prometheus.Counter
	ForecastDuration      *prometheus.HistogramVec
	RecommendationSources *prometheus.CounterVec
	SignalsRecorded       *prometheus.CounterVec
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	CircuitBreakerState   *prometheus.GaugeVec
	CleanupDeleted        *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ForecastsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecasts_total",
				Help:      "Total number of forecasts computed",
			},
			[]string{"risk_level"},
		),
		DegradedForecasts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "degraded_forecasts_total",
				Help:      "Forecasts computed with too few signals",
			},
		),
		ForecastDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forecast_duration_seconds",
				Help:      "Forecast computation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"degraded"},
		),
		RecommendationSources: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendation_source_total",
				Help:      "Recommendation sets produced, by strategy",
			},
			[]string{"source"},
		),
		SignalsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_recorded_total",
				Help:      "Total number of wellness signals stored",
			},
			[]string{"type"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CircuitBreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			},
			[]string{"name"},
		),
		CleanupDeleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_deleted_total",
				Help:      "Rows removed by retention cleanup",
			},
			[]string{"table"},
		),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveForecast(risk models.RiskLevel, degraded bool, duration time.Duration) {
	m.ForecastsTotal.WithLabelValues(string(risk)).Inc()
	if degraded {
		m.DegradedForecasts.Inc()
	}
	m.ForecastDuration.WithLabelValues(strconv.FormatBool(degraded)).Observe(duration.Seconds())
}

func (m *Metrics) RecordRecommendationSource(source string) {
	m.RecommendationSources.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordSignal(signalType models.SignalType) {
	m.SignalsRecorded.WithLabelValues(string(signalType)).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) RecordCleanup(table string, deleted int64) {
	m.CleanupDeleted.WithLabelValues(table).Add(float64(deleted))
}
