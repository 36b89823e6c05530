package server

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/tech4humans/sigdet/internal/pdf"
)

// progressMessage is one frame on the /ws/progress stream.
type progressMessage struct {
	Type   string              `json:"type"` // "page", "done", "error"
	Page   *pdf.PageResult     `json:"page,omitempty"`
	Result *pdf.DocumentResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if s.config.CORSOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == s.config.CORSOrigin
		},
	}
}

// progressWebSocketHandler accepts a PDF as a single binary message and
// streams one "page" frame per processed page image, followed by a "done"
// frame carrying the full document result.
func (s *Server) progressWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if s.pdfProc == nil {
		writeError(w, http.StatusServiceUnavailable, "PDF processing not available")
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	maxBytes := int64(s.config.MaxUploadMB) << 20
	conn.SetReadLimit(maxBytes)

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		slog.Warn("WebSocket read failed", "error", err)
		return
	}
	if msgType != websocket.BinaryMessage || len(data) == 0 {
		s.sendProgressError(conn, "expected a binary message containing the PDF")
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	tmpPath, cleanup, err := saveUploadToTemp(bytes.NewReader(data), "upload.pdf")
	if err != nil {
		slog.Error("Failed to save upload", "error", err)
		s.sendProgressError(conn, "failed to save upload")
		return
	}
	defer cleanup()

	progress := func(page pdf.PageResult) {
		msg := progressMessage{Type: "page", Page: &page}
		if err := conn.WriteJSON(msg); err != nil {
			slog.Warn("WebSocket write failed", "error", err)
		}
	}

	result, err := s.pdfProc.ProcessFileWithProgress(r.Context(), tmpPath, progress)
	if err != nil {
		detectRequestsTotal.WithLabelValues("pdf", "error").Inc()
		slog.Error("PDF processing failed", "error", err)
		s.sendProgressError(conn, "PDF processing failed")
		return
	}
	detectRequestsTotal.WithLabelValues("pdf", "success").Inc()

	if err := conn.WriteJSON(progressMessage{Type: "done", Result: result}); err != nil {
		slog.Warn("WebSocket write failed", "error", err)
	}
}

func (s *Server) sendProgressError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(progressMessage{Type: "error", Error: message}); err != nil {
		slog.Warn("WebSocket write failed", "error", err)
	}
}
