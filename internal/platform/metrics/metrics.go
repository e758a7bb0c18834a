package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors. It implements the ledger's
// OperationObserver and the relay's RelayObserver.
type Metrics struct {
	registry *prometheus.Registry

	operations       *prometheus.CounterVec
	relayPublished   prometheus.Counter
	relayFailures    prometheus.Counter
	relayLastRun     prometheus.Gauge
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_ledger_operations_total",
			Help: "Ledger operations by outcome; kind is empty on success.",
		}, []string{"operation", "outcome", "kind"}),
		relayPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "agora_outbox_published_total",
			Help: "Journaled events relayed to the event bus.",
		}),
		relayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "agora_outbox_relay_failures_total",
			Help: "Relay runs that stopped on an error.",
		}),
		relayLastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agora_outbox_relay_last_run_timestamp_seconds",
			Help: "Unix time of the last relay run.",
		}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agora_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		requestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "agora_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveOperation(operation string, kind string) {
	outcome := "ok"
	if kind != "" {
		outcome = "rejected"
	}
	m.operations.WithLabelValues(operation, outcome, kind).Inc()
}

func (m *Metrics) ObserveRelay(published int, failed bool) {
	if published > 0 {
		m.relayPublished.Add(float64(published))
	}
	if failed {
		m.relayFailures.Inc()
	}
	m.relayLastRun.SetToCurrentTime()
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, method string, status int, elapsed time.Duration) {
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) TrackInFlight() func() {
	m.requestsInFlight.Inc()
	return m.requestsInFlight.Dec
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
