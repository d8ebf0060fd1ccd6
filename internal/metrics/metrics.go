// Package metrics собирает счётчики сервера в отдельный Prometheus-реестр.
//
// Методы счётчиков безопасны на nil *Metrics: сервер без метрик вызывает
// их без проверок.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resolvd"

// Metrics - коллекторы одного экземпляра сервера.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	resolutions      prometheus.Counter
	resolutionErrors prometheus.Counter
	connErrors       prometheus.Counter
	rejected         prometheus.Counter
	inFlight         prometheus.Gauge
}

// New создаёт реестр и регистрирует коллекторы.
// cacheSize, если не nil, экспортируется как resolvd_cache_entries.
func New(cacheSize func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served, by cache result.",
		}, []string{"cache"}),
		resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Resolver calls made on cache miss.",
		}),
		resolutionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_errors_total",
			Help:      "Resolver calls that failed.",
		}),
		connErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_errors_total",
			Help:      "Connections aborted before a request was read or the reply written.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_connections_total",
			Help:      "Connections closed by the accept rate limiter.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "handlers_in_flight",
			Help:      "Connection handlers currently running or queued.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.resolutions,
		m.resolutionErrors,
		m.connErrors,
		m.rejected,
		m.inFlight,
	)

	if cacheSize != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Domains currently cached.",
		}, cacheSize))
	}

	return m
}

// Registry возвращает реестр (для тестов и встраивания).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в текстовом формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Hit() {
	if m != nil {
		m.requests.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) Miss() {
	if m != nil {
		m.requests.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) Resolution(err error) {
	if m == nil {
		return
	}
	m.resolutions.Inc()
	if err != nil {
		m.resolutionErrors.Inc()
	}
}

func (m *Metrics) ConnectionError() {
	if m != nil {
		m.connErrors.Inc()
	}
}

func (m *Metrics) Rejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) HandlerStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) HandlerDone() {
	if m != nil {
		m.inFlight.Dec()
	}
}
