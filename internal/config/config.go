package config

import (
	"fmt"
	"strings"
)

// ValidOutputFormats lists the accepted values for output.format.
var ValidOutputFormats = []string{"text", "json", "yaml", "csv"}

// ValidLogLevels lists the accepted values for log_level.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for invalid values. Threshold values
// outside [0,1] are rejected rather than clamped so configuration mistakes
// are caught early instead of silently changing detection behavior.
func (c *Config) Validate() error {
	if c.Detector.Confidence < 0 || c.Detector.Confidence > 1 {
		return fmt.Errorf("invalid confidence threshold: %g (must be between 0.0 and 1.0)", c.Detector.Confidence)
	}
	if c.Detector.IoU < 0 || c.Detector.IoU > 1 {
		return fmt.Errorf("invalid IoU threshold: %g (must be between 0.0 and 1.0)", c.Detector.IoU)
	}
	if c.Detector.NumThreads < 0 {
		return fmt.Errorf("invalid thread count: %d", c.Detector.NumThreads)
	}
	if c.Detector.Warmup < 0 {
		return fmt.Errorf("invalid warmup iterations: %d", c.Detector.Warmup)
	}

	if !contains(ValidOutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)",
			c.Output.Format, strings.Join(ValidOutputFormats, ", "))
	}
	if !contains(ValidLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(ValidLogLevels, ", "))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid max upload size: %d MB", c.Server.MaxUploadMB)
	}

	if c.PDF.DPI <= 0 {
		return fmt.Errorf("invalid PDF DPI: %d", c.PDF.DPI)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch worker count: %d", c.Batch.Workers)
	}
	if c.Metrics.RecentWindow <= 0 {
		return fmt.Errorf("invalid metrics recent window: %d", c.Metrics.RecentWindow)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
