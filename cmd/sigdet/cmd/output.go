package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tech4humans/sigdet/internal/config"
	"github.com/tech4humans/sigdet/internal/crop"
	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/pipeline"
	"github.com/tech4humans/sigdet/internal/utils"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatCSV  = "csv"
)

// fileDetections pairs a source file with its detection result for
// structured output.
type fileDetections struct {
	File   string                `json:"file" yaml:"file"`
	Result *pipeline.ImageResult `json:"result" yaml:"result"`
}

// buildPipeline assembles a detection pipeline from the loaded configuration.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithConfidence(cfg.Detector.Confidence).
		WithIoU(cfg.Detector.IoU).
		WithCropPadding(cfg.Detector.CropPadding).
		WithThreads(cfg.Detector.NumThreads).
		WithWarmup(cfg.Detector.Warmup).
		WithMetricsPath(cfg.Metrics.Path)
	if cfg.ModelPath != "" {
		b = b.WithModelPath(cfg.ModelPath)
	}
	if cfg.GPU.Enabled {
		memLimit, err := parseMemorySize(cfg.GPU.MemoryLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid GPU memory limit: %w", err)
		}
		b = b.WithGPU(detector.GPUConfig{
			UseGPU:      true,
			DeviceID:    cfg.GPU.Device,
			MemoryLimit: memLimit,
		})
	}
	return b.Build()
}

// parseMemorySize parses memory size strings like "2GB", "512MB", "1024".
func parseMemorySize(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier uint64 = 1
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1 << 10
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "MB"):
		multiplier = 1 << 20
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "GB"):
		multiplier = 1 << 30
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
		s = s[:len(s)-1]
	}

	var value uint64
	if _, err := fmt.Sscanf(s, "%d", &value); err != nil {
		return 0, fmt.Errorf("invalid memory size: %s", s)
	}
	return value * multiplier, nil
}

// applyDetectionFlags overlays flag values the user set on top of the loaded
// configuration. Only the image command binds its flags to viper; the other
// commands share the same flag set and apply changed values here.
func applyDetectionFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format, _ = f.GetString("format")
	}
	if f.Changed("output") {
		cfg.Output.File, _ = f.GetString("output")
	}
	if f.Changed("confidence") {
		cfg.Detector.Confidence, _ = f.GetFloat64("confidence")
	}
	if f.Changed("iou") {
		cfg.Detector.IoU, _ = f.GetFloat64("iou")
	}
	if f.Changed("model") {
		cfg.ModelPath, _ = f.GetString("model")
	}
	if f.Changed("threads") {
		cfg.Detector.NumThreads, _ = f.GetInt("threads")
	}
	if f.Changed("warmup") {
		cfg.Detector.Warmup, _ = f.GetInt("warmup")
	}
	if f.Changed("overlay-dir") {
		cfg.Output.OverlayDir, _ = f.GetString("overlay-dir")
	}
	if f.Changed("crops-dir") {
		cfg.Output.CropsDir, _ = f.GetString("crops-dir")
	}
	if f.Changed("crop-padding") {
		cfg.Detector.CropPadding, _ = f.GetInt("crop-padding")
	}
	if f.Changed("gpu") {
		cfg.GPU.Enabled, _ = f.GetBool("gpu")
	}
	if f.Changed("gpu-device") {
		cfg.GPU.Device, _ = f.GetInt("gpu-device")
	}
	if f.Changed("gpu-mem-limit") {
		cfg.GPU.MemoryLimit, _ = f.GetString("gpu-mem-limit")
	}
}

// formatResults renders detection results in the requested output format.
func formatResults(format string, results []fileDetections) (string, error) {
	switch format {
	case outputFormatJSON:
		bts, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return string(bts) + "\n", nil
	case outputFormatYAML:
		bts, err := yaml.Marshal(results)
		if err != nil {
			return "", fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return string(bts), nil
	case outputFormatCSV:
		return formatCSV(results), nil
	default:
		return formatText(results), nil
	}
}

func formatText(results []fileDetections) string {
	var sb strings.Builder
	for _, fr := range results {
		fmt.Fprintf(&sb, "%s: %d signature(s), inference %.1f ms\n",
			fr.File, len(fr.Result.Detections), fr.Result.InferenceMS)
		for i, d := range fr.Result.Detections {
			fmt.Fprintf(&sb, "  [%d] box=(%d, %d, %dx%d) score=%.2f\n",
				i+1, d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height, d.Score)
		}
	}
	return sb.String()
}

func formatCSV(results []fileDetections) string {
	var sb strings.Builder
	sb.WriteString("file,index,left,top,width,height,score\n")
	for _, fr := range results {
		for i, d := range fr.Result.Detections {
			fmt.Fprintf(&sb, "%s,%d,%d,%d,%d,%d,%.4f\n",
				fr.File, i+1, d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height, d.Score)
		}
	}
	return sb.String()
}

// writeOutput writes rendered results to the output file, or stdout when no
// file is configured.
func writeOutput(cmd *cobra.Command, outputFile, content string) error {
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile)
		return err
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), content)
	return err
}

// saveOverlay renders annotated detections next to the source file name in
// overlayDir.
func saveOverlay(pl *pipeline.Pipeline, img image.Image, res *pipeline.ImageResult,
	srcPath, overlayDir string,
) (string, error) {
	if err := os.MkdirAll(overlayDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create overlay directory: %w", err)
	}
	annotated := pl.Annotated(img, res.Detections)
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	outPath := filepath.Join(overlayDir, strings.TrimSuffix(base, ext)+"_overlay.png")
	if err := utils.SaveImage(annotated, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// saveCrops writes each padded signature crop as a PNG in cropsDir.
func saveCrops(pl *pipeline.Pipeline, img image.Image, res *pipeline.ImageResult,
	srcPath, cropsDir string,
) ([]string, error) {
	crops := pl.Crops(img, res.Detections)
	if len(crops) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(cropsDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create crops directory: %w", err)
	}
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	paths := make([]string, 0, len(crops)+1)
	for i, c := range crops {
		outPath := filepath.Join(cropsDir, fmt.Sprintf("%s_signature_%d.png", stem, i+1))
		if err := utils.SaveImage(c.Image, outPath); err != nil {
			return paths, err
		}
		paths = append(paths, outPath)
	}

	// A labeled montage of all crops alongside the individual files.
	gridPath := filepath.Join(cropsDir, stem+"_signatures_grid.png")
	if err := utils.SaveImage(crop.Grid(crops, 1200), gridPath); err != nil {
		return paths, err
	}
	paths = append(paths, gridPath)
	return paths, nil
}
