package detector

import (
	"fmt"

	"github.com/tech4humans/sigdet/internal/onnx"
	"github.com/yalue/onnxruntime_go"
)

// modelInfo reads the model's input and output metadata and checks that it
// looks like a single-input, single-output detection network.
func modelInfo(modelPath string) (onnxruntime_go.InputOutputInfo, onnxruntime_go.InputOutputInfo, error) {
	inputs, outputs, err := onnxruntime_go.GetInputOutputInfo(modelPath)
	if err != nil {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 model input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return onnxruntime_go.InputOutputInfo{}, onnxruntime_go.InputOutputInfo{},
			fmt.Errorf("expected 1 model output, got %d", len(outputs))
	}
	return inputs[0], outputs[0], nil
}

// createSession creates the ONNX session with the given configuration.
func createSession(modelPath string, inputInfo, outputInfo onnxruntime_go.InputOutputInfo,
	config Config,
) (*onnxruntime_go.DynamicAdvancedSession, error) {
	sessionOptions, err := onnxruntime_go.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer func() {
		if err := sessionOptions.Destroy(); err != nil {
			fmt.Printf("Failed to destroy session options: %v", err)
		}
	}()

	gpuConfig := onnx.GPUConfig{
		UseGPU:      config.GPU.UseGPU,
		DeviceID:    config.GPU.DeviceID,
		GPUMemLimit: config.GPU.MemoryLimit,
	}
	if err := onnx.ConfigureSessionForGPU(sessionOptions, gpuConfig); err != nil {
		return nil, fmt.Errorf("failed to configure GPU: %w", err)
	}

	if config.NumThreads > 0 {
		if err = sessionOptions.SetIntraOpNumThreads(config.NumThreads); err != nil {
			return nil, fmt.Errorf("failed to set thread count: %w", err)
		}
	}

	session, err := onnxruntime_go.NewDynamicAdvancedSession(modelPath,
		[]string{inputInfo.Name}, []string{outputInfo.Name}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return session, nil
}
