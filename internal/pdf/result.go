package pdf

import (
	"time"

	"github.com/tech4humans/sigdet/internal/detector"
)

// PageResult holds the detections for one page image.
type PageResult struct {
	Page        int                  `json:"page" yaml:"page"`
	ImageIndex  int                  `json:"image_index" yaml:"image_index"`
	Width       int                  `json:"width" yaml:"width"`
	Height      int                  `json:"height" yaml:"height"`
	Detections  []detector.Detection `json:"detections" yaml:"detections"`
	InferenceMS float64              `json:"inference_ms" yaml:"inference_ms"`
	Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// DocumentResult aggregates per-page results for one PDF file.
type DocumentResult struct {
	Filename        string        `json:"filename" yaml:"filename"`
	Pages           []PageResult  `json:"pages" yaml:"pages"`
	TotalDetections int           `json:"total_detections" yaml:"total_detections"`
	Processing      time.Duration `json:"-" yaml:"-"`
	ProcessingMS    float64       `json:"processing_ms" yaml:"processing_ms"`
}

// pageCount returns the set of distinct pages in the result.
func (r *DocumentResult) pageCount() map[int]bool {
	pages := make(map[int]bool, len(r.Pages))
	for _, p := range r.Pages {
		pages[p.Page] = true
	}
	return pages
}
