// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the recorder interfaces of the store, the catalog
// source, the reminder broadcaster, the bot and the HTTP server.
type Collector struct {
	storeOps       *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	firings        prometheus.Counter
	botUpdates     *prometheus.CounterVec
	catalogReloads *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weightduel_store_operations_total",
			Help: "State store operations by operation and result.",
		}, []string{"op", "result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weightduel_reminder_deliveries_total",
			Help: "Reminder deliveries by result.",
		}, []string{"result"}),
		firings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weightduel_reminder_firings_total",
			Help: "Reminder firings.",
		}),
		botUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weightduel_bot_updates_total",
			Help: "Telegram updates handled by kind.",
		}, []string{"kind"}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weightduel_catalog_reloads_total",
			Help: "Meal catalog reloads by result.",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weightduel_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weightduel_http_request_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.storeOps,
		c.deliveries,
		c.firings,
		c.botUpdates,
		c.catalogReloads,
		c.httpStatus,
		c.httpLatency,
	)
	return c
}

// RecordStoreOp counts one store operation.
func (c *Collector) RecordStoreOp(op, result string) {
	c.storeOps.WithLabelValues(op, result).Inc()
}

// RecordFiring counts one reminder firing.
func (c *Collector) RecordFiring() {
	c.firings.Inc()
}

// RecordDelivery counts one reminder delivery attempt.
func (c *Collector) RecordDelivery(result string) {
	c.deliveries.WithLabelValues(result).Inc()
}

// RecordUpdate counts one handled bot update.
func (c *Collector) RecordUpdate(kind string) {
	c.botUpdates.WithLabelValues(kind).Inc()
}

// RecordCatalogReload counts one catalog reload.
func (c *Collector) RecordCatalogReload(result string) {
	c.catalogReloads.WithLabelValues(result).Inc()
}

// RecordHTTP records the status and latency of one HTTP request.
func (c *Collector) RecordHTTP(statusCode int, d time.Duration) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(d.Seconds())
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
