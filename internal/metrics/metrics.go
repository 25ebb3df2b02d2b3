// Package metrics - счетчики Prometheus сервиса карты.
package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeEmpty = "empty"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_map_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venue_map_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	directionsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_map_directions_requests_total",
			Help: "Directions API calls by outcome.",
		},
		[]string{"outcome"},
	)

	directionsLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "venue_map_directions_latency_seconds",
			Help:    "Latency of Directions API calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.025, 2, 10),
		},
	)

	layerBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_map_layer_builds_total",
			Help: "Category and zone layer builds by outcome.",
		},
		[]string{"kind", "outcome"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venue_map_active_sessions",
			Help: "Number of live map sessions.",
		},
	)

	bounceFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venue_map_bounce_frames_total",
			Help: "Animation frames rendered by the selection bounce loop.",
		},
	)

	placeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_map_place_events_total",
			Help: "Place change events handled by workers.",
		},
		[]string{"worker", "action"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveDirections(outcome string, durationSeconds float64) {
	directionsRequestsTotal.WithLabelValues(outcome).Inc()
	directionsLatencySeconds.Observe(durationSeconds)
}

// IncLayerBuild - kind: category или zone
func IncLayerBuild(kind, outcome string) {
	layerBuildsTotal.WithLabelValues(kind, outcome).Inc()
}

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

func IncBounceFrame() { bounceFramesTotal.Inc() }

func IncPlaceEvent(worker, action string) {
	placeEventsTotal.WithLabelValues(worker, action).Inc()
}

// RegisterDBStats публикует статистику пула соединений. Повторная регистрация той же базы игнорируется.
func RegisterDBStats(db *sql.DB, dbName string) {
	err := prometheus.Register(collectors.NewDBStatsCollector(db, dbName))
	var already prometheus.AlreadyRegisteredError
	if err != nil && !errors.As(err, &already) {
		panic(err)
	}
}

// Handler отдает метрики реестра по умолчанию
func Handler() http.Handler {
	return promhttp.Handler()
}
