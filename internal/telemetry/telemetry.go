// Package telemetry exposes Prometheus metrics and an OpenTelemetry tracer
// for the classification service.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jonesrussell/referer-classifier"

// Provider bundles the service's metrics and tracer. Constructing it against
// a caller-supplied registry keeps tests free of global registration
// conflicts.
type Provider struct {
	registry *prometheus.Registry
	tracer   trace.Tracer

	ClassificationsTotal *prometheus.CounterVec
	NotClassifiableTotal prometheus.Counter
	LookupDuration       prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	BufferDepth          prometheus.Gauge
	EventsDroppedTotal   prometheus.Counter
}

// NewProvider registers the service metrics on reg and returns the provider.
func NewProvider(reg *prometheus.Registry) *Provider {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Provider{
		registry: reg,
		tracer:   otel.Tracer(tracerName),

		ClassificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "referer_classifications_total",
			Help: "Classifications performed, by resulting medium.",
		}, []string{"medium"}),

		NotClassifiableTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "referer_not_classifiable_total",
			Help: "Referer values that could not be parsed as classifiable URLs.",
		}),

		LookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "referer_lookup_duration_seconds",
			Help:    "Duration of dataset lookups including search term extraction.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		}),

		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "referer_cache_hits_total",
			Help: "Classification results served from the Redis cache.",
		}),

		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "referer_cache_misses_total",
			Help: "Classification requests not found in the Redis cache.",
		}),

		BufferDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "referer_event_buffer_depth",
			Help: "Events currently queued for batch insertion.",
		}),

		EventsDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "referer_events_dropped_total",
			Help: "Events dropped because the buffer was full.",
		}),
	}
}

// Tracer returns the service tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Handler returns the /metrics HTTP handler for this provider's registry.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveClassification records one classification outcome.
func (p *Provider) ObserveClassification(medium string) {
	p.ClassificationsTotal.WithLabelValues(medium).Inc()
}
