package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/example/go-wordlens/internal/tokencache"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	tokens   prometheus.Counter
	lookups  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer, cacheStats func() tokencache.Stats) *metrics {
	f := promauto.With(reg)
	if cacheStats != nil {
		registerCacheMetrics(f, cacheStats)
	}
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordlens",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wordlens",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "wordlens",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently holding a worker slot.",
		}),
		tokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wordlens",
			Name:      "tokens_emitted_total",
			Help:      "Tokens returned by /tokenize.",
		}),
		lookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wordlens",
			Name:      "lookups_total",
			Help:      "Word lookups by outcome.",
		}, []string{"outcome"}),
	}
}

func registerCacheMetrics(f promauto.Factory, stats func() tokencache.Stats) {
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "wordlens",
		Name:      "token_cache_hits_total",
		Help:      "Tokenizations served from the cache.",
	}, func() float64 { return float64(stats().Hits) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: "wordlens",
		Name:      "token_cache_misses_total",
		Help:      "Tokenizations computed on a cache miss.",
	}, func() float64 { return float64(stats().Misses) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "wordlens",
		Name:      "token_cache_entries",
		Help:      "Texts currently held in the token cache.",
	}, func() float64 { return float64(stats().Len) })
}
