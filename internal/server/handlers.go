package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/utils"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	store := s.pipeline.Metrics()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics storage not configured")
		return
	}
	writeJSON(w, http.StatusOK, store.Summarize(s.config.RecentWindow))
}

// parseThresholds reads optional confidence/iou form values, falling back to
// the pipeline defaults. Values outside [0,1] are rejected.
func (s *Server) parseThresholds(r *http.Request) (float64, float64, error) {
	confThres, iouThres := s.pipeline.Thresholds()

	if v := r.FormValue("confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid confidence value: %q", v)
		}
		confThres = f
	}
	if v := r.FormValue("iou"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid iou value: %q", v)
		}
		iouThres = f
	}
	if confThres < 0 || confThres > 1 {
		return 0, 0, fmt.Errorf("confidence threshold out of range: %g", confThres)
	}
	if iouThres < 0 || iouThres > 1 {
		return 0, 0, fmt.Errorf("IoU threshold out of range: %g", iouThres)
	}
	return confThres, iouThres, nil
}

func (s *Server) detectImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	maxBytes := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusBadRequest, "missing file field in form data")
		return
	}
	defer file.Close()
	uploadSizeBytes.Observe(float64(header.Size))

	img, _, err := image.Decode(file)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode image: %v", err))
		return
	}

	confThres, iouThres, err := s.parseThresholds(r)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.ProcessImageWith(img, confThres, iouThres)
	if err != nil {
		detectRequestsTotal.WithLabelValues("image", "error").Inc()
		slog.Error("Detection failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "detection failed")
		return
	}

	inferenceDuration.Observe(result.InferenceMS / 1000)
	detectionsPerImage.Observe(float64(len(result.Detections)))
	detectRequestsTotal.WithLabelValues("image", "success").Inc()

	resp := DetectionResponse{
		Detections:  toDetectionViews(result.Detections),
		Count:       len(result.Detections),
		Width:       result.Width,
		Height:      result.Height,
		InferenceMS: result.InferenceMS,
	}

	if r.FormValue("overlay") == "true" {
		annotated := s.pipeline.Annotated(img, result.Detections)
		encoded, err := encodePNGBase64(annotated)
		if err != nil {
			slog.Warn("Failed to encode overlay", "error", err)
		} else {
			resp.Overlay = encoded
		}
	}
	if r.FormValue("crops") == "true" {
		resp.CropCount = len(s.pipeline.Crops(img, result.Detections))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) detectPDFHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.pdfProc == nil {
		writeError(w, http.StatusServiceUnavailable, "PDF processing not available")
		return
	}

	maxBytes := int64(s.config.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		writeError(w, http.StatusBadRequest, "missing file field in form data")
		return
	}
	defer file.Close()
	uploadSizeBytes.Observe(float64(header.Size))

	// pdfcpu works on files, so the upload goes through a temp file.
	tmpPath, cleanup, err := saveUploadToTemp(file, header.Filename)
	if err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		slog.Error("Failed to save upload", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	defer cleanup()

	result, err := s.pdfProc.ProcessFileWithProgress(r.Context(), tmpPath, nil)
	if err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		slog.Error("PDF processing failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "PDF processing failed")
		return
	}
	result.Filename = header.Filename

	for _, page := range result.Pages {
		detectionsPerImage.Observe(float64(len(page.Detections)))
	}
	detectRequestsTotal.WithLabelValues("pdf", "success").Inc()

	writeJSON(w, http.StatusOK, result)
}

func toDetectionViews(detections []detector.Detection) []DetectionView {
	views := make([]DetectionView, len(detections))
	for i, d := range detections {
		views[i] = DetectionView{
			Left:    d.Box.Left,
			Top:     d.Box.Top,
			Width:   d.Box.Width,
			Height:  d.Box.Height,
			Score:   d.Score,
			ClassID: d.ClassID,
		}
	}
	return views
}

func encodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", &utils.ImageProcessingError{Operation: "encode overlay", Err: err}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func saveUploadToTemp(src io.Reader, filename string) (string, func(), error) {
	dir, err := os.MkdirTemp("", "sigdet-upload-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	name := filepath.Base(filename)
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
