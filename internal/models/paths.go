// Package models resolves model file locations and fetches published
// signature-detection weights.
package models

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvModelsDir overrides the default models directory.
	EnvModelsDir = "SIGDET_MODELS_DIR"

	// DetectionModelFile is the on-disk name of the signature model.
	DetectionModelFile = "yolov8s-signature.onnx"

	// DefaultModelURL is the published location of the pre-trained
	// signature detection weights.
	DefaultModelURL = "https://huggingface.co/tech4humans/yolov8s-signature-detector/resolve/main/yolov8s.onnx"
)

// GetModelsDir resolves the models directory: explicit value, then the
// environment, then ~/.cache/sigdet/models.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "sigdet", "models")
	}
	return "models"
}

// DetectionModelPath returns the expected path of the signature model.
func DetectionModelPath(modelsDir string) string {
	return filepath.Join(GetModelsDir(modelsDir), DetectionModelFile)
}

// ValidateModelExists checks that the model file is present.
func ValidateModelExists(modelPath string) error {
	info, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s (run 'sigdet fetch-model' to download it)", modelPath)
		}
		return fmt.Errorf("model file not accessible: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("model path is a directory: %s", modelPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("model file is empty: %s", modelPath)
	}
	return nil
}
