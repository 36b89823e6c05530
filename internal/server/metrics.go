package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigdet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigdet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Detection metrics
	detectRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigdet_detect_requests_total",
			Help: "Total number of detection requests",
		},
		[]string{"type", "status"}, // type: image, pdf
	)

	inferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigdet_inference_duration_seconds",
			Help:    "Model inference duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	detectionsPerImage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigdet_detections_per_image",
			Help:    "Number of signatures detected per image",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigdet_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigdet_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)
)
