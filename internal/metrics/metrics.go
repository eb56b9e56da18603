package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ProviderInterface interface {
	IncCaptures(status string)
	IncRestores(status string)
	IncDeletes()
	IncElementFailures(kind string)
	ObserveCaptureDuration(d time.Duration)
	// TrackSnapshots registers a gauge reading the current store size.
	TrackSnapshots(count func() int)
	Handler() http.Handler
}

type Provider struct {
	registry        *prometheus.Registry
	captures        *prometheus.CounterVec
	restores        *prometheus.CounterVec
	deletes         prometheus.Counter
	elementFailures *prometheus.CounterVec
	captureDuration prometheus.Histogram
}

// New returns a noop provider when disabled. Each enabled provider owns its
// registry so several stores can live in one process.
func New(enabled bool) ProviderInterface {
	if !enabled {
		return &noopMetrics{}
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Provider{
		registry: reg,
		captures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_snap_captures_total",
			Help: "Snapshot captures by outcome",
		}, []string{"status"}),
		restores: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_snap_restores_total",
			Help: "Snapshot restores by outcome",
		}, []string{"status"}),
		deletes: factory.NewCounter(prometheus.CounterOpts{
			Name: "canvas_snap_deletes_total",
			Help: "Deleted snapshots",
		}),
		elementFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "canvas_snap_element_failures_total",
			Help: "Elements skipped during restore",
		}, []string{"kind"}),
		captureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "canvas_snap_capture_duration_seconds",
			Help:    "Duration of snapshot captures in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (p *Provider) IncCaptures(status string) { p.captures.WithLabelValues(status).Inc() }
func (p *Provider) IncRestores(status string) { p.restores.WithLabelValues(status).Inc() }
func (p *Provider) IncDeletes()               { p.deletes.Inc() }

func (p *Provider) IncElementFailures(kind string) {
	p.elementFailures.WithLabelValues(kind).Inc()
}

func (p *Provider) ObserveCaptureDuration(d time.Duration) {
	p.captureDuration.Observe(d.Seconds())
}

func (p *Provider) TrackSnapshots(count func() int) {
	p.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "canvas_snap_snapshots",
		Help: "Snapshots currently held in memory",
	}, func() float64 {
		return float64(count())
	}))
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry exposes the underlying registry for tests.
func (p *Provider) Registry() *prometheus.Registry { return p.registry }

type noopMetrics struct{}

func (n *noopMetrics) IncCaptures(_ string)                   {}
func (n *noopMetrics) IncRestores(_ string)                   {}
func (n *noopMetrics) IncDeletes()                            {}
func (n *noopMetrics) IncElementFailures(_ string)            {}
func (n *noopMetrics) ObserveCaptureDuration(_ time.Duration) {}
func (n *noopMetrics) TrackSnapshots(_ func() int)            {}

func (n *noopMetrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "metrics disabled", http.StatusNotFound)
	})
}
