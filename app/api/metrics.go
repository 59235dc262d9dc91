package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server gets
// its own registry so tests can build many.
type Metrics struct {
	registry           *prometheus.Registry
	RequestDuration    *prometheus.HistogramVec
	Downloads          *prometheus.CounterVec
	LedgerWrites       *prometheus.CounterVec
	ExclusionsAdded    prometheus.Counter
	ExclusionConflicts prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quickwatch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		Downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quickwatch_downloads_total",
				Help: "Media downloads, by outcome.",
			},
			[]string{"status"},
		),
		LedgerWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quickwatch_ledger_writes_total",
				Help: "Ledger writes, by outcome.",
			},
			[]string{"status"},
		),
		ExclusionsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quickwatch_exclusions_added_total",
				Help: "Videos marked not relevant.",
			},
		),
		ExclusionConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "quickwatch_exclusion_conflicts_total",
				Help: "Exclusion writes abandoned after repeated concurrent modification.",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestDuration,
		m.Downloads,
		m.LedgerWrites,
		m.ExclusionsAdded,
		m.ExclusionConflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request durations under the matched route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
