// Package metrics exposes Prometheus metrics for generation, export and
// the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records application metrics. It satisfies the recorder
// interfaces of the studio and export packages.
type Collector struct {
	generations       *prometheus.CounterVec
	generationLatency prometheus.Histogram
	exports           *prometheus.CounterVec
	exportLatency     prometheus.Histogram
	exportBytes       prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsinsight_generations_total",
			Help: "Generation attempts by outcome",
		}, []string{"outcome"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsinsight_generation_duration_seconds",
			Help:    "Duration of generation attempts",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsinsight_exports_total",
			Help: "PNG exports by outcome",
		}, []string{"outcome"}),
		exportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsinsight_export_duration_seconds",
			Help:    "Duration of card captures",
			Buckets: prometheus.DefBuckets,
		}),
		exportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsinsight_export_bytes",
			Help:    "Size of exported PNG files",
			Buckets: prometheus.ExponentialBuckets(64<<10, 2, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "newsinsight_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "newsinsight_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.generations,
		c.generationLatency,
		c.exports,
		c.exportLatency,
		c.exportBytes,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordGeneration records one generation attempt. Rejected attempts are
// counted but not timed.
func (c *Collector) RecordGeneration(outcome string, took time.Duration) {
	c.generations.WithLabelValues(outcome).Inc()
	if outcome == "invalid" || outcome == "busy" {
		return
	}
	c.generationLatency.Observe(took.Seconds())
}

func (c *Collector) RecordExport(outcome string, took time.Duration, size int) {
	c.exports.WithLabelValues(outcome).Inc()
	c.exportLatency.Observe(took.Seconds())
	if size > 0 {
		c.exportBytes.Observe(float64(size))
	}
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, took time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(took.Seconds())
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
