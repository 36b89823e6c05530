package models

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const downloadTimeout = 10 * time.Minute

// Download fetches a model file over HTTP into dest. The file is written to
// a temporary sibling first and renamed into place, so an interrupted
// download never leaves a partial model behind.
func Download(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}

	slog.Info("Downloading model", "url", url, "dest", dest)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("model download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model download failed: unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".sigdet-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	written, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("model download produced an empty file from %s", url)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	slog.Info("Model downloaded successfully", "bytes", written, "path", dest)
	return nil
}

// DownloadDefault fetches the published signature model into the resolved
// models directory unless it is already present.
func DownloadDefault(ctx context.Context, modelsDir string, force bool) (string, error) {
	dest := DetectionModelPath(modelsDir)
	if !force {
		if err := ValidateModelExists(dest); err == nil {
			slog.Debug("Model already present", "path", dest)
			return dest, nil
		}
	}
	if err := Download(ctx, DefaultModelURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
