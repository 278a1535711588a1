package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Searches    prometheus.Counter
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter

	ConnectorFailures *prometheus.CounterVec
	ConnectorDuration *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	searches := prometheus.NewCounter(prometheus.CounterOpts{Name: "raresource_searches_total"})
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "raresource_cache_hits_total"})
	misses := prometheus.NewCounter(prometheus.CounterOpts{Name: "raresource_cache_misses_total"})
	cacheErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "raresource_cache_errors_total"})

	connFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "raresource_connector_failures_total"},
		[]string{"connector"},
	)
	connDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "raresource_connector_duration_seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"connector"},
	)

	r.MustRegister(searches, hits, misses, cacheErrs, connFailures, connDuration)
	return &Registry{
		reg:               r,
		Searches:          searches,
		CacheHits:         hits,
		CacheMisses:       misses,
		CacheErrors:       cacheErrs,
		ConnectorFailures: connFailures,
		ConnectorDuration: connDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
