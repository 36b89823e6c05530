package pipeline

import (
	"context"
	"errors"
	"image"
	"runtime"
	"sync"
)

// ProgressFunc receives (completed, total) after each finished image.
type ProgressFunc func(done, total int)

// ParallelConfig controls batch processing.
type ParallelConfig struct {
	MaxWorkers      int  // 0 = runtime.NumCPU()
	ContinueOnError bool // keep processing remaining images after a failure
	Progress        ProgressFunc
}

// DefaultParallelConfig returns sensible defaults for parallel processing.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{MaxWorkers: runtime.NumCPU()}
}

type imageJob struct {
	index int
	img   image.Image
}

type imageOutcome struct {
	index  int
	result *ImageResult
	err    error
}

// ProcessImagesParallel runs independent single-image pipelines over a
// worker pool and returns results in input order. Each image's run is
// self-contained; the only shared state is the metrics storage, which
// serializes appends internally.
func (p *Pipeline) ProcessImagesParallel(ctx context.Context, images []image.Image,
	config ParallelConfig,
) ([]*ImageResult, error) {
	if len(images) == 0 {
		return nil, errors.New("no images provided")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	if config.MaxWorkers > len(images) {
		config.MaxWorkers = len(images)
	}

	jobs := make(chan imageJob, len(images))
	outcomes := make(chan imageOutcome, len(images))

	var wg sync.WaitGroup
	for range config.MaxWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					outcomes <- imageOutcome{index: job.index, err: ctx.Err()}
					continue
				default:
				}
				res, err := p.ProcessImage(job.img)
				outcomes <- imageOutcome{index: job.index, result: res, err: err}
			}
		}()
	}

	for i, img := range images {
		jobs <- imageJob{index: i, img: img}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make([]*ImageResult, len(images))
	var firstErr error
	done := 0
	for outcome := range outcomes {
		done++
		if config.Progress != nil {
			config.Progress(done, len(images))
		}
		if outcome.err != nil {
			if firstErr == nil {
				firstErr = outcome.err
			}
			continue
		}
		results[outcome.index] = outcome.result
	}

	if firstErr != nil && !config.ContinueOnError {
		return results, firstErr
	}
	return results, nil
}

// ProcessFilesParallel loads and processes image files over a worker pool,
// returning per-file results in input order. Load and detection errors are
// reported per file.
func (p *Pipeline) ProcessFilesParallel(ctx context.Context, paths []string,
	config ParallelConfig,
) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files provided")
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	if config.MaxWorkers > len(paths) {
		config.MaxWorkers = len(paths)
	}

	results := make([]FileResult, len(paths))
	jobs := make(chan int, len(paths))

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for range config.MaxWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := FileResult{Path: paths[i]}
				select {
				case <-ctx.Done():
					res.Err = ctx.Err()
				default:
					res.Result, res.Err = p.ProcessFile(paths[i])
				}
				results[i] = res

				if config.Progress != nil {
					mu.Lock()
					done++
					config.Progress(done, len(paths))
					mu.Unlock()
				}
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if !config.ContinueOnError {
		for _, r := range results {
			if r.Err != nil {
				return results, r.Err
			}
		}
	}
	return results, nil
}
