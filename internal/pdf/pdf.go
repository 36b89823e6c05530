// Package pdf extracts page images from PDF documents and runs signature
// detection on them page by page.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractPageImages extracts the images embedded in the selected pages of a
// PDF, grouped by 1-based page number. pageRange accepts forms like
// "3", "1-5", or "1-3,7"; empty selects every page.
func ExtractPageImages(filename string, pageRange string) (map[int][]image.Image, error) {
	pageNumbers, err := ParsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "sigdet-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	pages, err := collectPageImages(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}
	return pages, nil
}

// collectPageImages walks the extraction directory and groups decoded images
// by page number. pdfcpu names files page_<num>_image_<idx>.<ext>.
func collectPageImages(dir string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		pageNum, err := pageFromFilename(info.Name())
		if err != nil {
			return nil // not a page image, skip
		}
		img, err := decodeImageFile(path)
		if err != nil {
			return nil // unreadable image, skip
		}
		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from our own temp dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	return img, err
}

func pageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}
	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}
	pageNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.New("invalid page number")
	}
	return pageNum, nil
}

// ParsePageRange parses a page selection like "1-3,7" into a sorted list of
// unique page numbers. An empty string selects all pages (nil result).
func ParsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(pageRange, ",") {
		pages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			seen[p] = true
		}
	}

	result := make([]int, 0, len(seen))
	for p := range seen {
		result = append(result, p)
	}
	sort.Ints(result)
	return result, nil
}

func parseRangeToken(part string) ([]int, error) {
	if part == "" {
		return nil, errors.New("empty page token")
	}
	if lo, hi, ok := strings.Cut(part, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", lo)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", hi)
		}
		if start < 1 || end < start {
			return nil, fmt.Errorf("invalid page range %d-%d", start, end)
		}
		pages := make([]int, 0, end-start+1)
		for p := start; p <= end; p++ {
			pages = append(pages, p)
		}
		return pages, nil
	}

	p, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number %q", part)
	}
	if p < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", p)
	}
	return []int{p}, nil
}
