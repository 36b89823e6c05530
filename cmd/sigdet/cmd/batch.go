package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tech4humans/sigdet/internal/pipeline"
	"github.com/tech4humans/sigdet/internal/utils"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch [directory]",
	Short: "Detect signatures in all images of a directory",
	Long: `Process every supported image in a directory over a worker pool.

Examples:
  sigdet batch scans/
  sigdet batch scans/ --batch-workers 4 --continue-on-error
  sigdet batch scans/ --format json --output results.json`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input directory provided")
		}
		dir := args[0]

		cfg := GetConfig()
		applyDetectionFlags(cmd, cfg)
		if cmd.Flags().Changed("batch-workers") {
			cfg.Batch.Workers, _ = cmd.Flags().GetInt("batch-workers")
		}
		if cmd.Flags().Changed("batch-output-dir") {
			cfg.Batch.OutputDir, _ = cmd.Flags().GetString("batch-output-dir")
		}
		if cmd.Flags().Changed("continue-on-error") {
			cfg.Batch.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		paths, err := utils.ListImageFiles(dir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no supported images found in %s", dir)
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

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Processing %d image(s) from %s\n",
			len(paths), dir); err != nil {
			return err
		}

		progress := func(done, total int) {
			fmt.Fprintf(cmd.OutOrStdout(), "\r%d/%d", done, total)
			if done == total {
				fmt.Fprintln(cmd.OutOrStdout())
			}
		}

		fileResults, err := pl.ProcessFilesParallel(cmd.Context(), paths, pipeline.ParallelConfig{
			MaxWorkers:      cfg.Batch.Workers,
			ContinueOnError: cfg.Batch.ContinueOnError,
			Progress:        progress,
		})
		if err != nil {
			return fmt.Errorf("batch processing failed: %w", err)
		}

		results := make([]fileDetections, 0, len(fileResults))
		failures := 0
		for _, fr := range fileResults {
			if fr.Err != nil {
				failures++
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", fr.Path, fr.Err)
				continue
			}
			results = append(results, fileDetections{File: fr.Path, Result: fr.Result})

			if cfg.Batch.OutputDir != "" {
				img, _, err := utils.LoadImage(fr.Path)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", fr.Path, err)
					continue
				}
				if _, err := saveOverlay(pl, img, fr.Result, fr.Path, cfg.Batch.OutputDir); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %s: %v\n", fr.Path, err)
				}
			}
		}
		if failures > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) failed\n", failures)
		}

		rendered, err := formatResults(cfg.Output.Format, results)
		if err != nil {
			return err
		}
		return writeOutput(cmd, cfg.Output.File, rendered)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addDetectionFlags(batchCmd)

	batchCmd.Flags().Int("batch-workers", 0, "parallel workers (0=auto)")
	batchCmd.Flags().String("batch-output-dir", "", "directory to write annotated overlays")
	batchCmd.Flags().Bool("continue-on-error", false, "keep processing after per-file failures")
}
