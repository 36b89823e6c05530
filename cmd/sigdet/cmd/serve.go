package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tech4humans/sigdet/internal/pdf"
	"github.com/tech4humans/sigdet/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signature detection HTTP server",
	Long: `Start an HTTP server exposing signature detection endpoints.

Endpoints:
  POST /detect/image   multipart image upload, JSON detections
  POST /detect/pdf     multipart PDF upload, per-page JSON detections
  GET  /ws/progress    WebSocket streaming of per-page PDF results
  GET  /healthz        liveness check
  GET  /stats          inference timing statistics
  GET  /metrics        Prometheus metrics

Examples:
  sigdet serve
  sigdet serve --port 9090 --host 0.0.0.0
  sigdet serve --cors-origin https://app.example.com`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		applyDetectionFlags(cmd, cfg)
		f := cmd.Flags()
		if f.Changed("host") {
			cfg.Server.Host, _ = f.GetString("host")
		}
		if f.Changed("port") {
			cfg.Server.Port, _ = f.GetInt("port")
		}
		if f.Changed("cors-origin") {
			cfg.Server.CORSOrigin, _ = f.GetString("cors-origin")
		}
		if f.Changed("max-upload-mb") {
			cfg.Server.MaxUploadMB, _ = f.GetInt("max-upload-mb")
		}
		if f.Changed("timeout") {
			cfg.Server.TimeoutSec, _ = f.GetInt("timeout")
		}
		if f.Changed("shutdown-timeout") {
			cfg.Server.ShutdownTimeout, _ = f.GetInt("shutdown-timeout")
		}
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

		proc := pdf.NewProcessor(pl, pdf.ProcessorConfig{
			TargetDPI:  cfg.PDF.DPI,
			MaxWorkers: cfg.PDF.Workers,
		})

		srv := server.NewServer(server.Config{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			CORSOrigin:      cfg.Server.CORSOrigin,
			MaxUploadMB:     cfg.Server.MaxUploadMB,
			TimeoutSec:      cfg.Server.TimeoutSec,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			RecentWindow:    cfg.Metrics.RecentWindow,
		}, pl, proc)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addDetectionFlags(serveCmd)

	serveCmd.Flags().String("host", "", "listen host (empty = all interfaces)")
	serveCmd.Flags().IntP("port", "p", 8080, "listen port")
	serveCmd.Flags().String("cors-origin", "*", "allowed CORS origin")
	serveCmd.Flags().Int("max-upload-mb", 50, "maximum upload size in megabytes")
	serveCmd.Flags().Int("timeout", 120, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "graceful shutdown timeout in seconds")
}
