package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tech4humans/sigdet/internal/pdf"
)

// pdfCmd represents the pdf command.
var pdfCmd = &cobra.Command{
	Use:   "pdf [files...]",
	Short: "Detect signatures in PDF documents",
	Long: `Extract page images from PDF files and detect handwritten signatures
on each page.

Examples:
  sigdet pdf agreement.pdf
  sigdet pdf contract.pdf --pages 1-3,7 --format json
  sigdet pdf *.pdf --workers 4`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()
		applyDetectionFlags(cmd, cfg)
		if cmd.Flags().Changed("pages") {
			cfg.PDF.Pages, _ = cmd.Flags().GetString("pages")
		}
		if cmd.Flags().Changed("pdf-workers") {
			cfg.PDF.Workers, _ = cmd.Flags().GetInt("pdf-workers")
		}
		if cmd.Flags().Changed("dpi") {
			cfg.PDF.DPI, _ = cmd.Flags().GetInt("dpi")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		if _, err := pdf.ParsePageRange(cfg.PDF.Pages); err != nil {
			return fmt.Errorf("invalid page range: %w", err)
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

		proc := pdf.NewProcessor(pl, pdf.ProcessorConfig{
			Pages:      cfg.PDF.Pages,
			TargetDPI:  cfg.PDF.DPI,
			MaxWorkers: cfg.PDF.Workers,
		})

		results := make([]*pdf.DocumentResult, 0, len(args))
		for _, path := range args {
			if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
				return fmt.Errorf("not a PDF file: %s", path)
			}
			res, err := proc.ProcessFile(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("PDF processing failed for %s: %w", path, err)
			}
			results = append(results, res)
		}

		rendered, err := formatDocumentResults(cfg.Output.Format, results)
		if err != nil {
			return err
		}
		return writeOutput(cmd, cfg.Output.File, rendered)
	},
}

// formatDocumentResults renders per-document PDF results in the requested
// output format.
func formatDocumentResults(format string, results []*pdf.DocumentResult) (string, error) {
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
		return formatDocumentCSV(results), nil
	default:
		return formatDocumentText(results), nil
	}
}

func formatDocumentText(results []*pdf.DocumentResult) string {
	var sb strings.Builder
	for _, doc := range results {
		fmt.Fprintf(&sb, "%s: %d signature(s) across %d page image(s)\n",
			doc.Filename, doc.TotalDetections, len(doc.Pages))
		for _, page := range doc.Pages {
			if page.Error != "" {
				fmt.Fprintf(&sb, "  page %d: error: %s\n", page.Page, page.Error)
				continue
			}
			for i, d := range page.Detections {
				fmt.Fprintf(&sb, "  page %d [%d] box=(%d, %d, %dx%d) score=%.2f\n",
					page.Page, i+1, d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height, d.Score)
			}
		}
	}
	return sb.String()
}

func formatDocumentCSV(results []*pdf.DocumentResult) string {
	var sb strings.Builder
	sb.WriteString("file,page,index,left,top,width,height,score\n")
	for _, doc := range results {
		for _, page := range doc.Pages {
			for i, d := range page.Detections {
				fmt.Fprintf(&sb, "%s,%d,%d,%d,%d,%d,%d,%.4f\n",
					doc.Filename, page.Page, i+1,
					d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height, d.Score)
			}
		}
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	addDetectionFlags(pdfCmd)

	pdfCmd.Flags().String("pages", "", "page range to process (e.g., '1-3,7'; default: all pages)")
	pdfCmd.Flags().Int("pdf-workers", 0, "parallel page workers (0=auto)")
	pdfCmd.Flags().Int("dpi", 150, "target rendering DPI for page images")
}

// GetPdfCommand returns the pdf command for testing purposes.
func GetPdfCommand() *cobra.Command {
	return pdfCmd
}
