package config

// Config is the complete configuration for the sigdet application. It is
// populated from configuration files, environment variables, and flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	ModelPath string `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Detector DetectorConfig `mapstructure:"detector" yaml:"detector" json:"detector"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Metrics  MetricsConfig  `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
	PDF      PDFConfig      `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	GPU      GPUConfig      `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// DetectorConfig contains detection pipeline settings.
type DetectorConfig struct {
	Confidence  float64 `mapstructure:"confidence" yaml:"confidence" json:"confidence"`
	IoU         float64 `mapstructure:"iou" yaml:"iou" json:"iou"`
	NumThreads  int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	Warmup      int     `mapstructure:"warmup" yaml:"warmup" json:"warmup"`
	CropPadding int     `mapstructure:"crop_padding" yaml:"crop_padding" json:"crop_padding"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	OverlayDir string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	CropsDir   string `mapstructure:"crops_dir" yaml:"crops_dir" json:"crops_dir"`
}

// MetricsConfig contains inference metrics storage settings.
type MetricsConfig struct {
	Path         string `mapstructure:"path" yaml:"path" json:"path"`
	RecentWindow int    `mapstructure:"recent_window" yaml:"recent_window" json:"recent_window"`
}

// PDFConfig contains PDF processing settings.
type PDFConfig struct {
	Pages   string `mapstructure:"pages" yaml:"pages" json:"pages"`
	DPI     int    `mapstructure:"dpi" yaml:"dpi" json:"dpi"`
	Workers int    `mapstructure:"workers" yaml:"workers" json:"workers"`
}

// BatchConfig contains folder batch processing settings.
type BatchConfig struct {
	Workers         int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	ContinueOnError bool   `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// GPUConfig contains GPU acceleration settings.
type GPUConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Device      int    `mapstructure:"device" yaml:"device" json:"device"`
	MemoryLimit string `mapstructure:"memory_limit" yaml:"memory_limit" json:"memory_limit"`
}
