package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/metrics"
)

// stubDetector is a deterministic Detector for pipeline tests.
type stubDetector struct {
	mu         sync.Mutex
	detections []detector.Detection
	err        error
	closed     bool

	lastConf float64
	lastIoU  float64
	calls    int
}

func (s *stubDetector) DetectWithThresholds(img image.Image,
	confThres, iouThres float64,
) (*detector.DetectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastConf = confThres
	s.lastIoU = iouThres
	if s.err != nil {
		return nil, s.err
	}
	b := img.Bounds()
	return &detector.DetectionResult{
		Detections:     s.detections,
		OriginalWidth:  b.Dx(),
		OriginalHeight: b.Dy(),
		InferenceTime:  int64(5 * time.Millisecond),
	}, nil
}

func (s *stubDetector) GetConfig() detector.Config {
	cfg := detector.DefaultConfig()
	return cfg
}

func (s *stubDetector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func testDetections() []detector.Detection {
	return []detector.Detection{
		{Box: detector.Box{Left: 10, Top: 20, Width: 100, Height: 50}, Score: 0.9},
		{Box: detector.Box{Left: 200, Top: 200, Width: 60, Height: 30}, Score: 0.6},
	}
}

func TestProcessImage_RecordsMetric(t *testing.T) {
	stub := &stubDetector{detections: testDetections()}
	store := metrics.NewMemoryStorage()
	p := NewPipelineWithDetector(stub, store, 0.25, 0.5)

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	res, err := p.ProcessImage(img)
	require.NoError(t, err)

	assert.Len(t, res.Detections, 2)
	assert.Equal(t, 640, res.Width)
	assert.Equal(t, 480, res.Height)
	assert.InDelta(t, 5.0, res.InferenceMS, 1e-9)
	assert.Equal(t, 1, store.TotalCount())
}

func TestProcessImage_UsesConfiguredThresholds(t *testing.T) {
	stub := &stubDetector{}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.4, 0.6)

	_, err := p.ProcessImage(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)

	assert.InDelta(t, 0.4, stub.lastConf, 1e-9)
	assert.InDelta(t, 0.6, stub.lastIoU, 1e-9)
}

func TestProcessImageWith_OverridesThresholds(t *testing.T) {
	stub := &stubDetector{}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.25, 0.5)

	_, err := p.ProcessImageWith(image.NewRGBA(image.Rect(0, 0, 10, 10)), 0.8, 0.3)
	require.NoError(t, err)

	assert.InDelta(t, 0.8, stub.lastConf, 1e-9)
	assert.InDelta(t, 0.3, stub.lastIoU, 1e-9)
}

func TestProcessImage_NilImage(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.25, 0.5)
	_, err := p.ProcessImage(nil)
	assert.Error(t, err)
}

func TestProcessImage_DetectorError(t *testing.T) {
	wantErr := errors.New("backend exploded")
	stub := &stubDetector{err: wantErr}
	store := metrics.NewMemoryStorage()
	p := NewPipelineWithDetector(stub, store, 0.25, 0.5)

	_, err := p.ProcessImage(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	require.ErrorIs(t, err, wantErr)
	assert.Zero(t, store.TotalCount(), "failed runs record no metric")
}

func TestAnnotatedAndCrops(t *testing.T) {
	stub := &stubDetector{detections: testDetections()}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.25, 0.5)

	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	annotated := p.Annotated(img, testDetections())
	require.NotNil(t, annotated)
	assert.Equal(t, img.Bounds().Size(), annotated.Bounds().Size())

	crops := p.Crops(img, testDetections())
	assert.Len(t, crops, 2)
}

func TestClose_ClosesDetector(t *testing.T) {
	stub := &stubDetector{}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.25, 0.5)

	require.NoError(t, p.Close())
	assert.True(t, stub.closed)
}

func TestThresholds(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.33, 0.44)
	conf, iou := p.Thresholds()
	assert.InDelta(t, 0.33, conf, 1e-9)
	assert.InDelta(t, 0.44, iou, 1e-9)
}

func TestProcessImagesParallel_PreservesOrder(t *testing.T) {
	stub := &stubDetector{}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.25, 0.5)

	images := make([]image.Image, 10)
	for i := range images {
		// Distinct sizes so each result is attributable to its input.
		images[i] = image.NewRGBA(image.Rect(0, 0, 10+i, 10))
	}

	results, err := p.ProcessImagesParallel(context.Background(), images, ParallelConfig{MaxWorkers: 4})
	require.NoError(t, err)
	require.Len(t, results, 10)
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, 10+i, res.Width)
	}
}

func TestProcessImagesParallel_Progress(t *testing.T) {
	stub := &stubDetector{}
	p := NewPipelineWithDetector(stub, metrics.NewMemoryStorage(), 0.25, 0.5)

	var mu sync.Mutex
	var seen []int
	progress := func(done, total int) {
		mu.Lock()
		seen = append(seen, done)
		mu.Unlock()
		assert.Equal(t, 4, total)
	}

	images := []image.Image{
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
		image.NewRGBA(image.Rect(0, 0, 10, 10)),
	}
	_, err := p.ProcessImagesParallel(context.Background(), images, ParallelConfig{
		MaxWorkers: 2,
		Progress:   progress,
	})
	require.NoError(t, err)
	assert.Len(t, seen, 4)
}

func TestProcessImagesParallel_Empty(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.25, 0.5)
	_, err := p.ProcessImagesParallel(context.Background(), nil, ParallelConfig{})
	assert.Error(t, err)
}

func TestProcessImagesParallel_CanceledContext(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.25, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	images := []image.Image{image.NewRGBA(image.Rect(0, 0, 10, 10))}
	_, err := p.ProcessImagesParallel(ctx, images, ParallelConfig{MaxWorkers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessFilesParallel_MissingFile(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.25, 0.5)

	results, err := p.ProcessFilesParallel(context.Background(),
		[]string{"/nonexistent/image.png"}, ParallelConfig{})
	require.Error(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
}

func TestProcessFilesParallel_ContinueOnError(t *testing.T) {
	p := NewPipelineWithDetector(&stubDetector{}, metrics.NewMemoryStorage(), 0.25, 0.5)

	results, err := p.ProcessFilesParallel(context.Background(),
		[]string{"/nonexistent/a.png", "/nonexistent/b.png"},
		ParallelConfig{ContinueOnError: true})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}
