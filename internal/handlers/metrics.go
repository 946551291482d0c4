package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one handler. Each handler owns
// its registry so several can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	SessionsActive prometheus.GaugeFunc
	Searches       prometheus.Counter
	ArtworkLoads   *prometheus.CounterVec
}

func newMetrics(sessions func() int) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallery",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gallery",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SessionsActive: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "gallery",
				Name:      "sessions_active",
				Help:      "Number of open gallery sessions",
			},
			func() float64 { return float64(sessions()) },
		),
		Searches: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "gallery",
				Name:      "searches_total",
				Help:      "Total number of submitted searches",
			},
		),
		ArtworkLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gallery",
				Name:      "artwork_loads_total",
				Help:      "Artwork detail loads by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.HTTPRequests, m.HTTPDuration, m.SessionsActive, m.Searches, m.ArtworkLoads)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument records request counts and durations by route pattern
func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
