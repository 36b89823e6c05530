// Package metrics keeps an append-only log of inference durations with a
// rolling recent window, persisted so history survives process restarts.
package metrics

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultRecentLimit is the rolling window used for "recent" queries.
const DefaultRecentLimit = 80

// Sample is one recorded inference measurement. Samples are never mutated
// or deleted after recording.
type Sample struct {
	DurationMS float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Summary is a snapshot for display layers.
type Summary struct {
	Times      []float64 `json:"times"`       // recent durations, oldest first
	Total      int       `json:"total"`       // all-time inference count
	Average    float64   `json:"average_ms"`  // mean over the recent window
	StartIndex int       `json:"start_index"` // absolute index of Times[0]
}

// Storage is an append-only inference metrics log. When backed by a file it
// appends one JSON line per sample and reloads them on open. All operations
// are safe for concurrent use; each append is visible to Recent/Average as
// soon as Record returns.
type Storage struct {
	mu      sync.Mutex
	samples []Sample
	file    *os.File
	path    string
}

// NewStorage opens (or creates) a file-backed storage at path.
func NewStorage(path string) (*Storage, error) {
	if path == "" {
		return nil, errors.New("storage path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	samples, err := loadSamples(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640) //nolint:gosec // G304: user-chosen metrics path
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics log: %w", err)
	}
	return &Storage{samples: samples, file: f, path: path}, nil
}

// NewMemoryStorage returns a storage without persistence, for tests and
// callers that opt out of durable history.
func NewMemoryStorage() *Storage {
	return &Storage{}
}

func loadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path) //nolint:gosec // G304: user-chosen metrics path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read metrics log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var samples []Sample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(line, &s); err != nil {
			// A torn final line from an interrupted write is skipped
			// rather than poisoning the whole history.
			continue
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan metrics log: %w", err)
	}
	return samples, nil
}

// Record appends a new duration measurement in milliseconds.
func (s *Storage) Record(durationMS float64) error {
	sample := Sample{DurationMS: durationMS, Timestamp: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		line, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("failed to encode metric sample: %w", err)
		}
		if _, err := s.file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to append metric sample: %w", err)
		}
	}
	s.samples = append(s.samples, sample)
	return nil
}

// Recent returns the most recent limit durations in chronological order
// (oldest first). limit <= 0 uses DefaultRecentLimit.
func (s *Storage) Recent(limit int) []float64 {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := len(s.samples) - limit
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(s.samples)-start)
	for _, sample := range s.samples[start:] {
		out = append(out, sample.DurationMS)
	}
	return out
}

// Average returns the arithmetic mean of the most recent limit samples, or
// 0 when nothing has been recorded. limit <= 0 uses DefaultRecentLimit.
func (s *Storage) Average(limit int) float64 {
	times := s.Recent(limit)
	if len(times) == 0 {
		return 0
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return sum / float64(len(times))
}

// TotalCount returns the all-time number of recorded samples. The count is
// monotonic; samples are never deleted.
func (s *Storage) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Summarize builds a display snapshot over the recent window.
func (s *Storage) Summarize(limit int) Summary {
	times := s.Recent(limit)
	total := s.TotalCount()

	var avg float64
	if len(times) > 0 {
		var sum float64
		for _, t := range times {
			sum += t
		}
		avg = sum / float64(len(times))
	}

	return Summary{
		Times:      times,
		Total:      total,
		Average:    avg,
		StartIndex: total - len(times),
	}
}

// Close flushes and closes the backing file, if any.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
