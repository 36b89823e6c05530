package pdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/tech4humans/sigdet/internal/pipeline"
)

// ProcessorConfig controls PDF processing.
type ProcessorConfig struct {
	// Pages selects which pages to process ("1-3,7"); empty = all.
	Pages string
	// TargetDPI is the resolution hint passed to the page renderer. It
	// only affects documents whose pages are rasterized on extraction;
	// embedded images come out at their native resolution.
	TargetDPI int
	// MaxWorkers bounds parallel page processing (0 = NumCPU).
	MaxWorkers int
}

// DefaultProcessorConfig returns the default processor configuration.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		TargetDPI:  150,
		MaxWorkers: 0,
	}
}

// PageProgressFunc receives each finished page result as it completes.
// Completion order is not page order under parallel processing.
type PageProgressFunc func(PageResult)

// Processor runs signature detection over PDF page images.
type Processor struct {
	pipeline *pipeline.Pipeline
	config   ProcessorConfig
}

// NewProcessor creates a PDF processor around an existing pipeline.
func NewProcessor(pl *pipeline.Pipeline, config ProcessorConfig) *Processor {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	return &Processor{pipeline: pl, config: config}
}

// ProcessFile extracts page images from a PDF and runs detection on each,
// returning per-page results sorted by page number.
func (p *Processor) ProcessFile(ctx context.Context, filename string) (*DocumentResult, error) {
	return p.ProcessFileWithProgress(ctx, filename, nil)
}

// ProcessFileWithProgress is ProcessFile with a per-page completion callback.
func (p *Processor) ProcessFileWithProgress(ctx context.Context, filename string,
	progress PageProgressFunc,
) (*DocumentResult, error) {
	start := time.Now()

	pageImages, err := ExtractPageImages(filename, p.config.Pages)
	if err != nil {
		return nil, err
	}
	if len(pageImages) == 0 {
		return &DocumentResult{Filename: filename, Processing: time.Since(start)}, nil
	}

	type job struct {
		page  int
		index int
	}
	var jobList []job
	for page, images := range pageImages {
		for idx := range images {
			jobList = append(jobList, job{page: page, index: idx})
		}
	}

	workers := p.config.MaxWorkers
	if workers > len(jobList) {
		workers = len(jobList)
	}

	jobs := make(chan job, len(jobList))
	out := make(chan PageResult, len(jobList))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out <- p.processPageImage(ctx, j.page, j.index, pageImages[j.page][j.index])
			}
		}()
	}
	for _, j := range jobList {
		jobs <- j
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(out)
	}()

	var pages []PageResult
	for res := range out {
		if progress != nil {
			progress(res)
		}
		pages = append(pages, res)
	}

	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Page != pages[j].Page {
			return pages[i].Page < pages[j].Page
		}
		return pages[i].ImageIndex < pages[j].ImageIndex
	})

	result := &DocumentResult{
		Filename:   filename,
		Pages:      pages,
		Processing: time.Since(start),
	}
	result.ProcessingMS = float64(result.Processing.Nanoseconds()) / 1e6
	for _, pg := range pages {
		result.TotalDetections += len(pg.Detections)
	}

	slog.Debug("Processed PDF",
		"file", filename,
		"pages", len(result.pageCount()),
		"detections", result.TotalDetections,
		"duration", result.Processing)
	return result, nil
}

// processPageImage runs one page image through the detection pipeline. Each
// page run is independent; a failure is reported on its PageResult without
// aborting the rest of the document.
func (p *Processor) processPageImage(ctx context.Context, page, index int, img image.Image) PageResult {
	res := PageResult{Page: page, ImageIndex: index}

	select {
	case <-ctx.Done():
		res.Error = ctx.Err().Error()
		return res
	default:
	}

	imgResult, err := p.pipeline.ProcessImage(img)
	if err != nil {
		res.Error = fmt.Sprintf("detection failed: %v", err)
		return res
	}

	res.Width = imgResult.Width
	res.Height = imgResult.Height
	res.Detections = imgResult.Detections
	res.InferenceMS = imgResult.InferenceMS
	return res
}
