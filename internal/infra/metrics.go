// Package-level Prometheus metrics for observability.
//
// Exposed series:
//   - floorguard_events_total{type}        – order-lifecycle events consumed
//   - floorguard_triggers_total{pool}      – floor-breach triggers raised
//   - floorguard_buybacks_total{status}    – buyback attempts by final status
//   - floorguard_buyback_volume_usdc      – cumulative quote spent (gauge)
//   - floorguard_ws_reconnects_total       – event stream reconnections
//
// Registered in init() and served by the HTTP handler started in main.go at
// /metrics (Prometheus text exposition format).
package infra

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mtxEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorguard_events_total",
			Help: "Order lifecycle events consumed",
		},
		[]string{"type"},
	)

	mtxTriggers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorguard_triggers_total",
			Help: "Floor breach triggers raised",
		},
		[]string{"pool"},
	)

	mtxBuybacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floorguard_buybacks_total",
			Help: "Buyback attempts by final status",
		},
		[]string{"status"},
	)

	mtxBuybackVolume = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "floorguard_buyback_volume_usdc",
			Help: "Cumulative quote asset spent on buybacks",
		},
	)

	mtxWSReconnects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "floorguard_ws_reconnects_total",
			Help: "Event stream reconnections",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxEvents, mtxTriggers, mtxBuybacks, mtxBuybackVolume, mtxWSReconnects)
}

// ObserveEvent counts one consumed event.
func ObserveEvent(eventType string) {
	mtxEvents.WithLabelValues(eventType).Inc()
}

// ObserveTrigger counts one raised trigger.
func ObserveTrigger(pool string) {
	mtxTriggers.WithLabelValues(pool).Inc()
}

// ObserveBuyback counts one buyback attempt outcome.
func ObserveBuyback(status string) {
	mtxBuybacks.WithLabelValues(status).Inc()
}

// SetBuybackVolume updates the cumulative spend gauge.
func SetBuybackVolume(usdc float64) {
	mtxBuybackVolume.Set(usdc)
}

// ObserveReconnect counts one event stream reconnection.
func ObserveReconnect() {
	mtxWSReconnects.Inc()
}

// MetricsHandler returns the /metrics HTTP handler.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
