package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tech4humans/sigdet/internal/crop"
	"github.com/tech4humans/sigdet/internal/detector"
	"github.com/tech4humans/sigdet/internal/metrics"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "sigdet"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SIGDET"
)

// Loader handles loading configuration from files, environment variables,
// flags, and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader bound to the global viper instance so cobra
// flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from all sources, validates it, and returns it.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation reads configuration from all sources without
// validating, for callers that patch values before validating themselves.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load()
}

func (l *Loader) load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")

	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// LoadWithFile reads configuration using an explicit config file path.
func (l *Loader) LoadWithFile(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	return l.Load()
}

// GetViper exposes the underlying viper instance for flag re-reads.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
		l.v.AddConfigPath(filepath.Join(home, ".config", "sigdet"))
	}
	l.v.AddConfigPath("/etc/sigdet")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("models_dir", "")
	l.v.SetDefault("model_path", "")
	l.v.SetDefault("log_level", "info")
	l.v.SetDefault("verbose", false)

	l.v.SetDefault("detector.confidence", detector.DefaultConfThreshold)
	l.v.SetDefault("detector.iou", detector.DefaultIoUThreshold)
	l.v.SetDefault("detector.num_threads", 0)
	l.v.SetDefault("detector.warmup", 0)
	l.v.SetDefault("detector.crop_padding", crop.DefaultPadding)

	l.v.SetDefault("output.format", "text")
	l.v.SetDefault("output.file", "")
	l.v.SetDefault("output.overlay_dir", "")
	l.v.SetDefault("output.crops_dir", "")

	l.v.SetDefault("metrics.path", defaultMetricsPath())
	l.v.SetDefault("metrics.recent_window", metrics.DefaultRecentLimit)

	l.v.SetDefault("pdf.pages", "")
	l.v.SetDefault("pdf.dpi", 150)
	l.v.SetDefault("pdf.workers", 0)

	l.v.SetDefault("batch.workers", 0)
	l.v.SetDefault("batch.output_dir", "")
	l.v.SetDefault("batch.continue_on_error", false)

	l.v.SetDefault("server.host", "")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.cors_origin", "*")
	l.v.SetDefault("server.max_upload_mb", 50)
	l.v.SetDefault("server.timeout_sec", 120)
	l.v.SetDefault("server.shutdown_timeout", 10)

	l.v.SetDefault("gpu.enabled", false)
	l.v.SetDefault("gpu.device", 0)
	l.v.SetDefault("gpu.memory_limit", "")
}

func defaultMetricsPath() string {
	if cacheDir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cacheDir, "sigdet", "metrics.jsonl")
	}
	return filepath.Join("db", "metrics.jsonl")
}
