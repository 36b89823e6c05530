package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tech4humans/sigdet/internal/models"
)

// fetchModelCmd represents the fetch-model command.
var fetchModelCmd = &cobra.Command{
	Use:   "fetch-model",
	Short: "Download the signature detection model",
	Long: `Download the YOLOv8 signature detection ONNX model into the models
directory. An existing model file is kept unless --force is given.

Examples:
  sigdet fetch-model
  sigdet fetch-model --models-dir ./models --force`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		force, _ := cmd.Flags().GetBool("force")

		modelsDir := models.GetModelsDir(cfg.ModelsDir)
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Downloading model to %s\n", modelsDir); err != nil {
			return err
		}

		path, err := models.DownloadDefault(cmd.Context(), modelsDir, force)
		if err != nil {
			return fmt.Errorf("model download failed: %w", err)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Model ready: %s\n", path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(fetchModelCmd)

	fetchModelCmd.Flags().Bool("force", false, "re-download even if the model file exists")
}
