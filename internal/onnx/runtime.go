package onnx

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/yalue/onnxruntime_go"
)

const (
	osLinux    = "linux"
	osDarwin   = "darwin"
	osWindows  = "windows"
	libLinux   = "libonnxruntime.so"
	libDarwin  = "libonnxruntime.dylib"
	libWindows = "onnxruntime.dll"
)

// EnvLibraryPath can point at the ONNX Runtime shared library explicitly,
// overriding the default search locations.
const EnvLibraryPath = "SIGDET_ONNXRUNTIME_LIB"

// GPUConfig holds configuration for GPU acceleration using CUDA.
type GPUConfig struct {
	UseGPU      bool
	DeviceID    int
	GPUMemLimit uint64 // bytes, 0 = unlimited
}

// ConfigureSessionForGPU appends the CUDA execution provider when GPU use is
// requested; with UseGPU false it is a no-op and the session stays CPU-only.
func ConfigureSessionForGPU(sessionOptions *onnxruntime_go.SessionOptions, gpuConfig GPUConfig) error {
	if !gpuConfig.UseGPU {
		return nil
	}

	cudaOpts, err := onnxruntime_go.NewCUDAProviderOptions()
	if err != nil {
		return fmt.Errorf("failed to create CUDA provider options (GPU may not be available): %w", err)
	}
	defer func() {
		if destroyErr := cudaOpts.Destroy(); destroyErr != nil {
			fmt.Printf("Warning: failed to destroy CUDA provider options: %v\n", destroyErr)
		}
	}()

	cudaSettings := map[string]string{
		"device_id": strconv.Itoa(gpuConfig.DeviceID),
	}
	if gpuConfig.GPUMemLimit > 0 {
		cudaSettings["gpu_mem_limit"] = strconv.FormatUint(gpuConfig.GPUMemLimit, 10)
	}
	if err := cudaOpts.Update(cudaSettings); err != nil {
		return fmt.Errorf("failed to update CUDA provider options: %w", err)
	}
	if err := sessionOptions.AppendExecutionProviderCUDA(cudaOpts); err != nil {
		return fmt.Errorf("failed to append CUDA execution provider: %w", err)
	}
	return nil
}

func getLibraryName() (string, error) {
	switch runtime.GOOS {
	case osLinux:
		return libLinux, nil
	case osDarwin:
		return libDarwin, nil
	case osWindows:
		return libWindows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func trySetLibraryPath(path string) bool {
	if _, err := os.Stat(path); err == nil {
		onnxruntime_go.SetSharedLibraryPath(path)
		return true
	}
	return false
}

// SetLibraryPath locates the ONNX Runtime shared library and registers it
// with the bindings. Search order: SIGDET_ONNXRUNTIME_LIB, common system
// locations, then ./onnxruntime/lib relative to the working directory.
func SetLibraryPath() error {
	if envPath := os.Getenv(EnvLibraryPath); envPath != "" {
		if trySetLibraryPath(envPath) {
			return nil
		}
		return fmt.Errorf("ONNX Runtime library not found at %s (from %s)", envPath, EnvLibraryPath)
	}

	libName, err := getLibraryName()
	if err != nil {
		return err
	}

	candidates := []string{
		filepath.Join("/usr/local/lib", libName),
		filepath.Join("/usr/lib", libName),
		filepath.Join("onnxruntime", "lib", libName),
	}
	for _, path := range candidates {
		if trySetLibraryPath(path) {
			return nil
		}
	}
	return fmt.Errorf("ONNX Runtime library %s not found in default locations", libName)
}

// InitializeEnvironment prepares the process-wide ONNX Runtime environment.
// Safe to call more than once.
func InitializeEnvironment() error {
	if err := SetLibraryPath(); err != nil {
		return fmt.Errorf("failed to set ONNX Runtime library path: %w", err)
	}
	if !onnxruntime_go.IsInitialized() {
		if err := onnxruntime_go.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}
