package pipeline

import (
	"fmt"

	"github.com/tech4humans/sigdet/internal/crop"
	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/metrics"
	"github.com/tech4humans/sigdet/internal/models"
)

// Builder assembles a Pipeline from configuration fragments.
type Builder struct {
	modelsDir   string
	modelPath   string
	confThres   float64
	iouThres    float64
	cropPadding int
	metricsPath string
	numThreads  int
	warmup      int
	gpu         detector.GPUConfig
	store       *metrics.Storage
}

// NewBuilder returns a builder with reference defaults.
func NewBuilder() *Builder {
	return &Builder{
		confThres:   detector.DefaultConfThreshold,
		iouThres:    detector.DefaultIoUThreshold,
		cropPadding: crop.DefaultPadding,
	}
}

// WithModelsDir sets the directory used to resolve the model file.
func (b *Builder) WithModelsDir(dir string) *Builder { b.modelsDir = dir; return b }

// WithModelPath overrides the resolved model path entirely.
func (b *Builder) WithModelPath(path string) *Builder { b.modelPath = path; return b }

// WithConfidence sets the confidence threshold.
func (b *Builder) WithConfidence(v float64) *Builder { b.confThres = v; return b }

// WithIoU sets the NMS IoU threshold.
func (b *Builder) WithIoU(v float64) *Builder { b.iouThres = v; return b }

// WithCropPadding sets the padding used when cropping signatures.
func (b *Builder) WithCropPadding(px int) *Builder { b.cropPadding = px; return b }

// WithMetricsPath enables the durable metrics log at the given path.
func (b *Builder) WithMetricsPath(path string) *Builder { b.metricsPath = path; return b }

// WithMetricsStorage attaches an externally managed metrics storage.
func (b *Builder) WithMetricsStorage(s *metrics.Storage) *Builder { b.store = s; return b }

// WithThreads sets the intra-op thread count for inference.
func (b *Builder) WithThreads(n int) *Builder { b.numThreads = n; return b }

// WithWarmup sets the number of warmup inference passes.
func (b *Builder) WithWarmup(iterations int) *Builder { b.warmup = iterations; return b }

// WithGPU configures GPU acceleration.
func (b *Builder) WithGPU(cfg detector.GPUConfig) *Builder { b.gpu = cfg; return b }

// Build validates the configuration and constructs the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	modelPath := b.modelPath
	if modelPath == "" {
		modelPath = models.DetectionModelPath(b.modelsDir)
	}
	if err := models.ValidateModelExists(modelPath); err != nil {
		return nil, err
	}

	cfg := detector.DefaultConfig()
	cfg.ModelPath = modelPath
	cfg.ConfThreshold = b.confThres
	cfg.IoUThreshold = b.iouThres
	cfg.NumThreads = b.numThreads
	cfg.GPU = b.gpu

	det, err := detector.NewDetector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build detector: %w", err)
	}

	if b.warmup > 0 {
		if err := det.Warmup(b.warmup); err != nil {
			_ = det.Close()
			return nil, fmt.Errorf("detector warmup failed: %w", err)
		}
	}

	store := b.store
	ownsMetrics := false
	if store == nil {
		if b.metricsPath != "" {
			store, err = metrics.NewStorage(b.metricsPath)
			if err != nil {
				_ = det.Close()
				return nil, fmt.Errorf("failed to open metrics storage: %w", err)
			}
		} else {
			store = metrics.NewMemoryStorage()
		}
		ownsMetrics = true
	}

	return &Pipeline{
		detector:    det,
		metrics:     store,
		cropper:     crop.NewCropper(b.cropPadding),
		confThres:   b.confThres,
		iouThres:    b.iouThres,
		ownsMetrics: ownsMetrics,
	}, nil
}

// NewPipelineWithDetector wires a pipeline around an existing detector
// implementation, mainly for tests.
func NewPipelineWithDetector(det Detector, store *metrics.Storage, confThres, iouThres float64) *Pipeline {
	return &Pipeline{
		detector:  det,
		metrics:   store,
		cropper:   crop.NewCropper(crop.DefaultPadding),
		confThres: confThres,
		iouThres:  iouThres,
	}
}
