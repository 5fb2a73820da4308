package obs

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studiostock/internal/core"
)

var (
	_ core.MetricsRecorder   = (*PrometheusRecorder)(nil)
	_ core.InventoryObserver = (*PrometheusRecorder)(nil)
)

// PrometheusRecorder exports service operation outcomes and the latest
// inventory figures on its own registry.
type PrometheusRecorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	value      prometheus.Gauge
	alerts     prometheus.Gauge
	items      prometheus.Gauge
}

// NewPrometheusRecorder builds a recorder with a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiostock",
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "studiostock",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency, including backend round trips.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		value: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studiostock",
			Name:      "inventory_value",
			Help:      "Sum of quantity on hand times unit cost.",
		}),
		alerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studiostock",
			Name:      "inventory_alerts",
			Help:      "Items at or below their minimum quantity.",
		}),
		items: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "studiostock",
			Name:      "inventory_items",
			Help:      "Distinct items in the collection.",
		}),
	}
	r.registry.MustRegister(
		r.operations, r.durations, r.value, r.alerts, r.items,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe implements core.MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveInventory implements core.InventoryObserver.
func (r *PrometheusRecorder) ObserveInventory(_ context.Context, s core.Summary) {
	r.value.Set(s.TotalValue.InexactFloat64())
	r.alerts.Set(float64(s.AlertCount))
	r.items.Set(float64(s.UniqueItemCount))
}

// Registry exposes the underlying registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
