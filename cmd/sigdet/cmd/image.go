package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tech4humans/sigdet/internal/utils"
)

// imageCmd represents the image command.
var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Detect signatures in image files",
	Long: `Detect handwritten signatures in one or more image files.

Supported formats: JPEG, PNG, BMP

Examples:
  sigdet image contract.jpg
  sigdet image *.png --format json
  sigdet image scan.jpg --overlay-dir out/ --crops-dir crops/`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		pl, err := buildPipeline(cfg)
		if err != nil {
			return fmt.Errorf("failed to build detection pipeline: %w", err)
		}
		defer func() {
			if err := pl.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error closing pipeline: %v\n", err)
			}
		}()

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Processing %d image(s)\n", len(args)); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}

		results := make([]fileDetections, 0, len(args))
		for _, path := range args {
			if !isSupportedImage(path) {
				return fmt.Errorf("unsupported image format: %s", path)
			}
			img, _, err := utils.LoadImage(path)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", path, err)
			}
			res, err := pl.ProcessImage(img)
			if err != nil {
				return fmt.Errorf("detection failed for %s: %w", path, err)
			}
			results = append(results, fileDetections{File: path, Result: res})

			if cfg.Output.OverlayDir != "" {
				outPath, err := saveOverlay(pl, img, res, path, cfg.Output.OverlayDir)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved overlay: %s\n", outPath); err != nil {
					return err
				}
			}
			if cfg.Output.CropsDir != "" {
				paths, err := saveCrops(pl, img, res, path, cfg.Output.CropsDir)
				if err != nil {
					return err
				}
				if len(paths) > 0 {
					if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved %d crop(s) to %s\n",
						len(paths), cfg.Output.CropsDir); err != nil {
						return err
					}
				}
			}
		}

		rendered, err := formatResults(cfg.Output.Format, results)
		if err != nil {
			return err
		}
		return writeOutput(cmd, cfg.Output.File, rendered)
	},
}

func isSupportedImage(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".bmp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func addDetectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64("confidence", 0.25, "confidence threshold (0..1)")
	cmd.Flags().Float64("iou", 0.5, "NMS IoU threshold (0..1)")
	cmd.Flags().String("model", "", "override detection model path")
	cmd.Flags().Int("threads", 0, "intra-op inference threads (0=auto)")
	cmd.Flags().Int("warmup", 0, "warmup inference passes before processing")
	cmd.Flags().String("overlay-dir", "", "directory to write annotated overlay images")
	cmd.Flags().String("crops-dir", "", "directory to write cropped signature images")
	cmd.Flags().Int("crop-padding", 10, "padding in pixels around signature crops")

	// GPU acceleration flags
	cmd.Flags().Bool("gpu", false, "enable GPU acceleration using CUDA")
	cmd.Flags().Int("gpu-device", 0, "CUDA device ID to use")
	cmd.Flags().String("gpu-mem-limit", "", "GPU memory limit (e.g., '2GB', '512MB')")
}

// bindDetectionFlags binds detection flags to viper configuration keys. Only
// the image command binds; the other commands apply flag values onto the
// loaded configuration themselves to keep the viper keys unambiguous.
func bindDetectionFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"detector.confidence", "confidence"},
		{"detector.iou", "iou"},
		{"model_path", "model"},
		{"detector.num_threads", "threads"},
		{"detector.warmup", "warmup"},
		{"output.overlay_dir", "overlay-dir"},
		{"output.crops_dir", "crops-dir"},
		{"detector.crop_padding", "crop-padding"},
		{"gpu.enabled", "gpu"},
		{"gpu.device", "gpu-device"},
		{"gpu.memory_limit", "gpu-mem-limit"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(imageCmd)

	addDetectionFlags(imageCmd)
	bindDetectionFlags(imageCmd)
}

// GetImageCommand returns the image command for testing purposes.
func GetImageCommand() *cobra.Command {
	return imageCmd
}
