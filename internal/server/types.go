package server

import (
	"context"
	"image"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tech4humans/sigdet/internal/crop"
	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/metrics"
	"github.com/tech4humans/sigdet/internal/pdf"
	"github.com/tech4humans/sigdet/internal/pipeline"
)

// detectionPipeline is the narrow view of the pipeline the server needs;
// the concrete implementation is pipeline.Pipeline, tests substitute a stub.
type detectionPipeline interface {
	ProcessImageWith(img image.Image, confThres, iouThres float64) (*pipeline.ImageResult, error)
	Annotated(img image.Image, detections []detector.Detection) *image.RGBA
	Crops(img image.Image, detections []detector.Detection) []crop.Crop
	Metrics() *metrics.Storage
	Thresholds() (float64, float64)
}

// pdfProcessor is the PDF boundary; nil disables the PDF endpoints.
type pdfProcessor interface {
	ProcessFileWithProgress(ctx context.Context, filename string, progress pdf.PageProgressFunc) (*pdf.DocumentResult, error)
}

// Config contains HTTP server settings.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int
	TimeoutSec      int
	ShutdownTimeout int
	RecentWindow    int
}

// Server exposes the detection pipeline over HTTP.
type Server struct {
	config    Config
	pipeline  detectionPipeline
	pdfProc   pdfProcessor
	startedAt time.Time
}

// NewServer creates a server around a detection pipeline and an optional
// PDF processor.
func NewServer(config Config, pl detectionPipeline, pdfProc pdfProcessor) *Server {
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	if config.RecentWindow <= 0 {
		config.RecentWindow = metrics.DefaultRecentLimit
	}
	return &Server{
		config:    config,
		pipeline:  pl,
		pdfProc:   pdfProc,
		startedAt: time.Now(),
	}
}

// SetupRoutes registers all handlers on the mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.withMiddleware(s.healthHandler))
	mux.HandleFunc("/stats", s.withMiddleware(s.statsHandler))
	mux.HandleFunc("/detect/image", s.withMiddleware(s.detectImageHandler))
	mux.HandleFunc("/detect/pdf", s.withMiddleware(s.detectPDFHandler))
	mux.HandleFunc("/ws/progress", s.progressWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// DetectionResponse is the /detect/image payload.
type DetectionResponse struct {
	Detections  []DetectionView `json:"detections"`
	Count       int             `json:"count"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	InferenceMS float64         `json:"inference_ms"`
	Overlay     string          `json:"overlay,omitempty"` // base64 PNG
	CropCount   int             `json:"crop_count,omitempty"`
}

// DetectionView is one detection in API form.
type DetectionView struct {
	Left    int     `json:"left"`
	Top     int     `json:"top"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Score   float64 `json:"score"`
	ClassID int     `json:"class_id"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
